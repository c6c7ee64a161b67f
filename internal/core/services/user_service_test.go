package services

import (
	"context"
	"testing"

	"meterhub/internal/adapters/persistence/repositories"
	"meterhub/internal/core/domain"
	"meterhub/internal/pkg/password"
	"meterhub/internal/pkg/testdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserFixture(t *testing.T) (*UserService, *repositories.Store) {
	t.Helper()
	store := repositories.NewStore(testdb.New(t))
	return NewUserService(store.Users), store
}

func TestCreateUser(t *testing.T) {
	svc, store := newUserFixture(t)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, &CreateUserInput{Username: "dm", Password: "secret123", Role: "data_manager"})
	require.NoError(t, err)
	assert.Equal(t, "data_manager", user.Role)

	stored, err := store.Users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, password.Verify("secret123", stored.Password))

	_, err = svc.CreateUser(ctx, &CreateUserInput{Username: "dm", Password: "secret123", Role: "reader"})
	assert.ErrorIs(t, err, domain.ErrUserAlreadyExists)

	_, err = svc.CreateUser(ctx, &CreateUserInput{Username: "x", Password: "secret123", Role: "owner"})
	assert.ErrorIs(t, err, domain.ErrInvalidRole)

	_, err = svc.CreateUser(ctx, &CreateUserInput{Username: "x", Password: "123", Role: "reader"})
	assert.ErrorIs(t, err, domain.ErrInvalidPassword)

	_, err = svc.CreateUser(ctx, &CreateUserInput{Username: "x", Role: "reader"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUpdateUser(t *testing.T) {
	svc, store := newUserFixture(t)
	ctx := context.Background()

	adminUser, err := svc.CreateUser(ctx, &CreateUserInput{Username: "root", Password: "secret123", Role: "admin"})
	require.NoError(t, err)
	user, err := svc.CreateUser(ctx, &CreateUserInput{Username: "alice", Password: "secret123", Role: "reader"})
	require.NoError(t, err)

	_, err = svc.UpdateUser(ctx, user.ID, adminUser.ID, &UpdateUserInput{})
	assert.ErrorIs(t, err, ErrNothingToUpdate)

	updated, err := svc.UpdateUser(ctx, user.ID, adminUser.ID, &UpdateUserInput{Role: "data_manager", Password: "newpass1"})
	require.NoError(t, err)
	assert.Equal(t, "data_manager", updated.Role)

	stored, err := store.Users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, password.Verify("newpass1", stored.Password))

	_, err = svc.UpdateUser(ctx, user.ID, adminUser.ID, &UpdateUserInput{Username: "root"})
	assert.ErrorIs(t, err, domain.ErrUserAlreadyExists)

	_, err = svc.UpdateUser(ctx, adminUser.ID, adminUser.ID, &UpdateUserInput{Role: "reader"})
	assert.ErrorIs(t, err, ErrCannotChangeOwnRole)

	_, err = svc.UpdateUser(ctx, 999, adminUser.ID, &UpdateUserInput{Username: "ghost"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestDeleteAndListUsers(t *testing.T) {
	svc, _ := newUserFixture(t)
	ctx := context.Background()

	adminUser, err := svc.CreateUser(ctx, &CreateUserInput{Username: "root", Password: "secret123", Role: "admin"})
	require.NoError(t, err)
	user, err := svc.CreateUser(ctx, &CreateUserInput{Username: "alice", Password: "secret123", Role: "reader"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteUser(ctx, adminUser.ID, adminUser.ID), ErrCannotDeleteSelf)
	require.NoError(t, svc.DeleteUser(ctx, user.ID, adminUser.ID))
	assert.ErrorIs(t, svc.DeleteUser(ctx, user.ID, adminUser.ID), domain.ErrUserNotFound)

	out, err := svc.ListUsers(ctx, &ListUsersInput{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.Total)
	require.Len(t, out.Users, 1)
	assert.Equal(t, "root", out.Users[0].Username)

	got, err := svc.GetUserByID(ctx, adminUser.ID)
	require.NoError(t, err)
	assert.Equal(t, "root", got.Username)

	_, err = svc.GetUserByID(ctx, user.ID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
