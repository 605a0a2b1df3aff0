//go:build !integration

package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cairo-metro-ticketing/internal/domain"
	"cairo-metro-ticketing/internal/domain/model"
	"cairo-metro-ticketing/internal/usecase"
)

func TestUserUseCase_Register(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	in := usecase.RegisterInput{
		Username:  "karim",
		FirstName: "Karim",
		LastName:  "Hassan",
		Phone:     "+201000000002",
		Email:     " karim@example.com ",
		Password:  "s3cretpass",
	}
	u, err := env.users.Register(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "hashed:s3cretpass", u.PasswordHash)
	assert.Equal(t, "karim@example.com", u.Email)
	assert.False(t, u.IsAdmin)

	_, err = env.users.Register(ctx, in)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	short := in
	short.Username, short.Phone, short.Password = "other", "+201000000003", "short"
	_, err = env.users.Register(ctx, short)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	n, err := env.users.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestUserUseCase_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials issue a token", func(t *testing.T) {
		env := newTestEnv(t)

		res, err := env.users.Login(ctx, "Rider", "password1")

		require.NoError(t, err)
		assert.Equal(t, "token-"+riderID, res.Token)
		assert.NotNil(t, res.User.LastLoginAt)
	})

	t.Run("unknown user", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.users.Login(ctx, "nobody", "password1")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("locks after repeated failures", func(t *testing.T) {
		env := newTestEnv(t)
		for i := 1; i < model.MaxFailedLoginAttempts; i++ {
			_, err := env.users.Login(ctx, "rider", "wrong")
			require.ErrorIs(t, err, domain.ErrInvalidCredentials)
		}
		_, err := env.users.Login(ctx, "rider", "wrong")
		require.ErrorIs(t, err, domain.ErrAccountLocked)

		_, err = env.users.Login(ctx, "rider", "password1")
		assert.ErrorIs(t, err, domain.ErrAccountLocked, "correct password must not unlock")

		u, _ := env.users.Get(ctx, riderID)
		assert.True(t, u.IsLocked)
	})

	t.Run("successful login resets the failure counter", func(t *testing.T) {
		env := newTestEnv(t)
		_, _ = env.users.Login(ctx, "rider", "wrong")
		_, err := env.users.Login(ctx, "rider", "password1")
		require.NoError(t, err)

		u, _ := env.users.Get(ctx, riderID)
		assert.Zero(t, u.FailedLoginAttempts)
	})

	t.Run("rate limited", func(t *testing.T) {
		env := newTestEnv(t)
		for i := 0; i < 10; i++ {
			_, _ = env.users.Login(ctx, "ghost", "x")
		}
		_, err := env.users.Login(ctx, "GHOST", "x")
		assert.ErrorIs(t, err, domain.ErrRateLimited)
	})
}

func TestUserUseCase_EnsureAdmin(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	in := usecase.RegisterInput{Username: "admin", Phone: "+201000000099", Password: "changeme123"}

	u, created, err := env.users.EnsureAdmin(ctx, in)
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, u.IsAdmin)

	again, created, err := env.users.EnsureAdmin(ctx, in)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, u.ID, again.ID)
}

func TestUserUseCase_ListAndPromote(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	other, err := model.NewUser("user-2", "amr", "Amr", "Saleh", "+201000000009", "", "hashed:password1")
	require.NoError(t, err)
	require.NoError(t, env.userRepo.Save(ctx, nil, other))

	users, err := env.users.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "amr", users[0].Username)

	page, err := env.users.List(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "rider", page[0].Username)

	t.Run("riders cannot promote", func(t *testing.T) {
		_, err := env.users.Promote(ctx, usecase.Actor{UserID: riderID}, other.ID)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("admin promotes", func(t *testing.T) {
		admin := usecase.Actor{UserID: "ops", IsAdmin: true}
		u, err := env.users.Promote(ctx, admin, other.ID)
		require.NoError(t, err)
		assert.True(t, u.IsAdmin)

		again, err := env.users.Promote(ctx, admin, other.ID)
		require.NoError(t, err)
		assert.True(t, again.IsAdmin)

		stored, _ := env.userRepo.FindByID(ctx, nil, other.ID)
		assert.True(t, stored.IsAdmin)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := env.users.Promote(ctx, usecase.Actor{UserID: "ops", IsAdmin: true}, "ghost")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
