package services

import (
	"context"
	"errors"
	"testing"

	"github.com/isdelr/ecofinds/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterNormalizesEmailAndDefaultsUsername(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.users.Register(ctx, RegisterInput{Email: "  Alice@Example.COM ", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, models.DefaultUsername, u.Username)
	assert.Empty(t, u.PasswordHash)
	assert.NotEmpty(t, u.ID)

	stored, err := f.users.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, stored.Email)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.register(t, "bob@example.com")

	_, err := f.users.Register(context.Background(), RegisterInput{Email: "BOB@example.com", Password: "x"})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.Equal(t, 1, f.count(t, "SELECT COUNT(*) FROM users"))
}

func TestRegisterValidatesInput(t *testing.T) {
	f := newFixture(t)

	_, err := f.users.Register(context.Background(), RegisterInput{Email: "not-an-email", Password: ""})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "email")
	assert.Contains(t, verr.Fields, "password")
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "carol@example.com")

	got, err := f.users.Authenticate(ctx, "Carol@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Empty(t, got.PasswordHash)

	_, err = f.users.Authenticate(ctx, "carol@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.users.Authenticate(ctx, "nobody@example.com", "secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "dave@example.com")
	f.register(t, "taken@example.com")

	updated, err := f.users.UpdateProfile(ctx, u.ID, ProfileInput{Username: "Dave", Email: ""})
	require.NoError(t, err)
	assert.Equal(t, "Dave", updated.Username)
	assert.Equal(t, "dave@example.com", updated.Email)

	updated, err = f.users.UpdateProfile(ctx, u.ID, ProfileInput{Username: "   ", Email: "DAVE2@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Dave", updated.Username, "blank username keeps the current one")
	assert.Equal(t, "dave2@example.com", updated.Email)

	_, err = f.users.UpdateProfile(ctx, u.ID, ProfileInput{Email: "taken@example.com"})
	assert.ErrorIs(t, err, ErrDuplicate)

	stored, err := f.users.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "dave2@example.com", stored.Email)

	_, err = f.users.UpdateProfile(ctx, "missing", ProfileInput{Username: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "erin@example.com")

	err := f.users.ChangePassword(ctx, u.ID, "wrong", "next")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	var verr *ValidationError
	err = f.users.ChangePassword(ctx, u.ID, "secret", "")
	assert.True(t, errors.As(err, &verr))

	require.NoError(t, f.users.ChangePassword(ctx, u.ID, "secret", "next"))

	_, err = f.users.Authenticate(ctx, "erin@example.com", "secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.users.Authenticate(ctx, "erin@example.com", "next")
	assert.NoError(t, err)
}
