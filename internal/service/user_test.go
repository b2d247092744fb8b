package service_test

import (
	"context"
	"testing"

	"medcare-admin/internal/model"
	"medcare-admin/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.users.Register(ctx, &service.RegisterRequest{
		Name:     " Alice ",
		Email:    "Alice@Example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)

	user, ok := resp.User.(*model.User)
	require.True(t, ok)
	assert.Equal(t, "Alice", user.Name)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, model.RoleCustomer, user.Role)
	assert.NotEqual(t, "password123", user.Password)

	login, err := f.users.Login(ctx, "alice@example.com", "password123")
	require.NoError(t, err)
	principal, err := f.auth.ValidateToken(login.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, principal.ID)
	assert.Equal(t, model.RoleCustomer, principal.Role)

	_, err = f.users.Login(ctx, "alice@example.com", "wrong")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, err = f.users.Login(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := &service.RegisterRequest{Name: "Alice", Email: "alice@example.com", Password: "password123"}

	_, err := f.users.Register(ctx, req)
	require.NoError(t, err)

	req.Email = " ALICE@example.com"
	_, err = f.users.Register(ctx, req)
	requireKind(t, err, service.KindConflict)
}

func TestUpdateUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.customer(t, "alice")
	bob := f.customer(t, "bob")

	name := "Alice Smith"
	password := "newpassword"
	updated, err := f.users.UpdateUser(ctx, alice.ID, &service.UpdateUserRequest{Name: &name, Password: &password})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)

	_, err = f.users.Login(ctx, alice.Email, password)
	require.NoError(t, err)

	_, err = f.users.UpdateUser(ctx, alice.ID, &service.UpdateUserRequest{Email: &bob.Email})
	requireKind(t, err, service.KindConflict)

	role := model.RoleAdmin
	promoted, err := f.users.UpdateUser(ctx, bob.ID, &service.UpdateUserRequest{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, promoted.Role)
}

func TestListAndDeleteUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.customer(t, "alice")
	f.customer(t, "bob")

	found, err := f.users.ListUsers(ctx, service.UserFilters{Search: "ALI"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, alice.ID, found[0].ID)

	customers, err := f.users.ListUsers(ctx, service.UserFilters{Role: model.RoleCustomer})
	require.NoError(t, err)
	assert.Len(t, customers, 2)

	require.NoError(t, f.users.DeleteUser(ctx, alice.ID))
	_, err = f.users.GetUserByID(ctx, alice.ID)
	requireKind(t, err, service.KindNotFound)
	requireKind(t, f.users.DeleteUser(ctx, alice.ID), service.KindNotFound)
}
