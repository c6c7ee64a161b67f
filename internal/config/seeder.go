package config

import (
	"context"
	"errors"

	"meterhub/internal/adapters/persistence/models"
	"meterhub/internal/adapters/persistence/repositories"
	"meterhub/internal/core/domain"
	"meterhub/internal/pkg/password"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	users repositories.UserRepository
	admin AdminConfig
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, admin AdminConfig) *Seeder {
	return &Seeder{users: repositories.NewUserRepository(db), admin: admin}
}

// Run executes all seeders
func (s *Seeder) Run(ctx context.Context) error {
	log.Info().Msg("running database seeders")

	if err := s.seedAdminUser(ctx); err != nil {
		return err
	}

	log.Info().Msg("database seeding completed")
	return nil
}

// seedAdminUser creates the bootstrap admin when no admin exists yet
func (s *Seeder) seedAdminUser(ctx context.Context) error {
	count, err := s.users.CountByRole(ctx, string(domain.RoleAdmin))
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if s.admin.Password == "" {
		log.Warn().Msg("no admin account exists and ADMIN_PASSWORD is empty, skipping admin seed")
		return nil
	}
	if !password.ValidatePassword(s.admin.Password) {
		return errors.New("ADMIN_PASSWORD does not meet password requirements")
	}

	hashed, err := password.Hash(s.admin.Password)
	if err != nil {
		return err
	}

	admin := &models.User{
		Username: s.admin.Username,
		Password: hashed,
		Role:     string(domain.RoleAdmin),
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return err
	}

	log.Info().Str("username", admin.Username).Msg("admin user created")
	return nil
}
