package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck-dev/taskdeck/internal/apperrors"
	"github.com/taskdeck-dev/taskdeck/internal/models"
	"github.com/taskdeck-dev/taskdeck/internal/types"
)

func TestRegisterNormalizesEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.auth.Register(ctx, RegisterCommand{
		Name:     "Alice",
		Email:    "  Alice@Example.COM  ",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)

	// Authentication with any casing or padding of the address behaves the
	// same as with the canonical lowercase form.
	for _, email := range []string{"alice@example.com", " ALICE@EXAMPLE.COM ", "Alice@example.Com"} {
		got, err := env.auth.Authenticate(ctx, email, "correct-horse")
		require.NoError(t, err, "email %q", email)
		assert.Equal(t, user.ID, got.ID)
	}
}

func TestRegisterPasswordLength(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, RegisterCommand{
		Name:     "Bob",
		Email:    "bob@example.com",
		Password: "short12",
	})
	assertKind(t, err, apperrors.KindValidation)

	_, err = env.auth.Register(ctx, RegisterCommand{
		Name:     "Bob",
		Email:    "bob@example.com",
		Password: "12345678",
	})
	require.NoError(t, err)
}

func TestRegisterValidatesFields(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cases := []struct {
		name string
		cmd  RegisterCommand
	}{
		{"missing name", RegisterCommand{Email: "a@b.com", Password: "12345678"}},
		{"missing email", RegisterCommand{Name: "A", Password: "12345678"}},
		{"bad email", RegisterCommand{Name: "A", Email: "not-an-email", Password: "12345678"}},
		{"missing password", RegisterCommand{Name: "A", Email: "a@b.com"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.auth.Register(ctx, tc.cmd)
			assertKind(t, err, apperrors.KindValidation)
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cmd := RegisterCommand{Name: "Alice", Email: "alice@example.com", Password: "12345678"}

	_, err := env.auth.Register(ctx, cmd)
	require.NoError(t, err)

	_, err = env.auth.Register(ctx, cmd)
	assertKind(t, err, apperrors.KindConflict)
}

func TestAuthenticateUniformError(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, RegisterCommand{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "12345678",
	})
	require.NoError(t, err)

	_, unknownErr := env.auth.Authenticate(ctx, "nobody@example.com", "12345678")
	_, wrongErr := env.auth.Authenticate(ctx, "alice@example.com", "wrong-password")

	assertKind(t, unknownErr, apperrors.KindUnauthorized)
	assertKind(t, wrongErr, apperrors.KindUnauthorized)

	// Identical messages so a caller cannot tell which check failed.
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())
}

func TestAuthenticateBlankCredentials(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Authenticate(ctx, "", "password")
	assertKind(t, err, apperrors.KindValidation)

	_, err = env.auth.Authenticate(ctx, "alice@example.com", "   ")
	assertKind(t, err, apperrors.KindValidation)
}

func TestListUsersRequiresSystemAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	regular := env.createUser(t, "Bob", "bob@example.com")
	env.createUser(t, "Carol", "carol@example.com")

	_, err := env.auth.ListUsers(ctx, regular)
	assertKind(t, err, apperrors.KindForbidden)

	admin := &models.User{Role: types.RoleAdmin}
	admin.ID = regular.ID

	users, err := env.auth.ListUsers(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestUpdateUserRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.createUser(t, "Root", "root@example.com")
	require.NoError(t, env.db.Model(admin).Update("role", types.RoleAdmin).Error)
	admin.Role = types.RoleAdmin

	target := env.createUser(t, "Bob", "bob@example.com")

	updated, err := env.auth.UpdateUserRole(ctx, admin, target.ID, types.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, types.RoleAdmin, updated.Role)

	// Regular users cannot touch global roles.
	_, err = env.auth.UpdateUserRole(ctx, target, admin.ID, types.RoleUser)
	assertKind(t, err, apperrors.KindForbidden)

	// An admin cannot demote themselves.
	_, err = env.auth.UpdateUserRole(ctx, admin, admin.ID, types.RoleUser)
	assertKind(t, err, apperrors.KindForbidden)

	// Bad role value.
	_, err = env.auth.UpdateUserRole(ctx, admin, target.ID, "OWNER")
	assertKind(t, err, apperrors.KindValidation)

	// Unknown target.
	_, err = env.auth.UpdateUserRole(ctx, admin, 9999, types.RoleUser)
	assertKind(t, err, apperrors.KindNotFound)
}
