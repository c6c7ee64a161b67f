package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"meterhub/internal/adapters/persistence/models"
	"meterhub/internal/adapters/persistence/repositories"
	"meterhub/internal/core/domain"
	"meterhub/internal/pkg/password"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// User service errors
var (
	ErrCannotDeleteSelf    = errors.New("cannot delete your own account")
	ErrCannotChangeOwnRole = errors.New("cannot change your own role")
	ErrNothingToUpdate     = errors.New("no fields to update")
)

// UserService handles user management business logic
type UserService struct {
	userRepo repositories.UserRepository
}

// NewUserService creates a new user service
func NewUserService(userRepo repositories.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// CreateUserInput represents create user input
type CreateUserInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// UpdateUserInput represents update user input. Empty fields are left as they are.
type UpdateUserInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// ListUsersInput represents list users input
type ListUsersInput struct {
	Page  int
	Limit int
}

// ListUsersOutput represents list users output
type ListUsersOutput struct {
	Users []*models.UserResponse
	Total int64
}

// CreateUser creates a user with a hashed password
func (s *UserService) CreateUser(ctx context.Context, input *CreateUserInput) (*models.UserResponse, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" || input.Role == "" {
		return nil, fmt.Errorf("%w: username, password and role are required", domain.ErrInvalidInput)
	}
	if !domain.ValidRole(input.Role) {
		return nil, domain.ErrInvalidRole
	}
	if !password.ValidatePassword(input.Password) {
		return nil, domain.ErrInvalidPassword
	}

	exists, err := s.userRepo.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrUserAlreadyExists
	}

	hashed, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username: username,
		Password: hashed,
		Role:     input.Role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	log.Info().Str("username", user.Username).Str("role", user.Role).Msg("user created")
	return user.ToResponse(), nil
}

// ListUsers lists all users with pagination
func (s *UserService) ListUsers(ctx context.Context, input *ListUsersInput) (*ListUsersOutput, error) {
	offset := (input.Page - 1) * input.Limit

	users, total, err := s.userRepo.List(ctx, offset, input.Limit)
	if err != nil {
		return nil, err
	}

	userResponses := make([]*models.UserResponse, len(users))
	for i, user := range users {
		userResponses[i] = user.ToResponse()
	}

	return &ListUsersOutput{Users: userResponses, Total: total}, nil
}

// GetUserByID gets a user by ID
func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user.ToResponse(), nil
}

// UpdateUser changes username, role or password of a user
func (s *UserService) UpdateUser(ctx context.Context, id uint, adminID uint, input *UpdateUserInput) (*models.UserResponse, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" && input.Role == "" && input.Password == "" {
		return nil, ErrNothingToUpdate
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	if username != "" && username != user.Username {
		exists, err := s.userRepo.ExistsByUsername(ctx, username)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, domain.ErrUserAlreadyExists
		}
		user.Username = username
	}

	if input.Role != "" && input.Role != user.Role {
		if !domain.ValidRole(input.Role) {
			return nil, domain.ErrInvalidRole
		}
		// Prevent admin from demoting self
		if id == adminID {
			return nil, ErrCannotChangeOwnRole
		}
		user.Role = input.Role
	}

	if input.Password != "" {
		if !password.ValidatePassword(input.Password) {
			return nil, domain.ErrInvalidPassword
		}
		hashed, err := password.Hash(input.Password)
		if err != nil {
			return nil, err
		}
		user.Password = hashed
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	log.Info().Uint("user_id", user.ID).Str("username", user.Username).Msg("user updated")
	return user.ToResponse(), nil
}

// DeleteUser deletes a user
func (s *UserService) DeleteUser(ctx context.Context, id uint, adminID uint) error {
	if id == adminID {
		return ErrCannotDeleteSelf
	}

	affected, err := s.userRepo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrUserNotFound
	}

	log.Info().Uint("user_id", id).Msg("user deleted")
	return nil
}
