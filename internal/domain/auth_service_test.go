package domain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestAuthService_LoginAndValidate(t *testing.T) {
	svc := NewAuthService(fakeAuthRepo{hash: hashed(t, "fore!")}, testSecret)

	token, err := svc.Login(context.Background(), "fore!")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	ok, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAuthService_WrongPassword(t *testing.T) {
	svc := NewAuthService(fakeAuthRepo{hash: hashed(t, "fore!")}, testSecret)

	_, err := svc.Login(context.Background(), "mulligan")
	assert.ErrorIs(t, err, ErrInvalidPassword)
}

func TestAuthService_NoAdminProvisioned(t *testing.T) {
	svc := NewAuthService(fakeAuthRepo{}, testSecret)

	_, err := svc.Login(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrInvalidPassword)
}

func TestAuthService_RepoError(t *testing.T) {
	svc := NewAuthService(fakeAuthRepo{err: errors.New("db down")}, testSecret)

	_, err := svc.Login(context.Background(), "x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidPassword)
}

func TestAuthService_RejectsForeignAndExpiredTokens(t *testing.T) {
	repo := fakeAuthRepo{hash: hashed(t, "fore!")}
	issuer := NewAuthService(repo, testSecret).(*authService)
	other := NewAuthService(repo, "another-secret-another-secret!!")

	token, err := issuer.Login(context.Background(), "fore!")
	require.NoError(t, err)

	ok, _ := other.ValidateToken(context.Background(), token)
	assert.False(t, ok)

	ok, _ = issuer.ValidateToken(context.Background(), "garbage")
	assert.False(t, ok)

	issuer.now = func() time.Time { return time.Now().Add(13 * time.Hour) }
	ok, _ = issuer.ValidateToken(context.Background(), token)
	assert.False(t, ok)
}
