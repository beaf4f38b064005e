package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innotter/backend/internal/config"
	"github.com/innotter/backend/internal/dto"
	"github.com/innotter/backend/internal/models"
)

func testAuthConfig() *config.Config {
	return &config.Config{
		JWTSecret:        "test-secret",
		JWTAccessExpiry:  15 * time.Minute,
		JWTRefreshExpiry: 24 * time.Hour,
	}
}

func TestRegisterAndLogin(t *testing.T) {
	db := openTestDB(t)
	s := NewAuthService(db, testAuthConfig())

	resp, err := s.Register(&dto.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, models.RoleUser, resp.User.Role)

	// The stored password is hashed, never the plaintext.
	var user models.User
	require.NoError(t, db.First(&user, "username = ?", "alice").Error)
	assert.NotEqual(t, "s3cret-pass", user.Password)

	_, err = s.Login(&dto.LoginRequest{Username: "alice", Password: "s3cret-pass"})
	require.NoError(t, err)

	_, err = s.Login(&dto.LoginRequest{Username: "alice", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.Login(&dto.LoginRequest{Username: "nobody", Password: "s3cret-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	db := openTestDB(t)
	s := NewAuthService(db, testAuthConfig())

	_, err := s.Register(&dto.RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "pw123456"})
	require.NoError(t, err)

	_, err = s.Register(&dto.RegisterRequest{Username: "alice", Email: "other@example.com", Password: "pw123456"})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = s.Register(&dto.RegisterRequest{Username: "alice2", Email: "alice@example.com", Password: "pw123456"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRefreshRotatesToken(t *testing.T) {
	db := openTestDB(t)
	s := NewAuthService(db, testAuthConfig())

	resp, err := s.Register(&dto.RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "pw123456"})
	require.NoError(t, err)

	rotated, err := s.Refresh(&dto.RefreshRequest{RefreshToken: resp.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, resp.RefreshToken, rotated.RefreshToken)

	// The consumed token cannot be replayed.
	_, err = s.Refresh(&dto.RefreshRequest{RefreshToken: resp.RefreshToken})
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.Refresh(&dto.RefreshRequest{RefreshToken: "made-up"})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	db := openTestDB(t)
	s := NewAuthService(db, testAuthConfig())

	resp, err := s.Register(&dto.RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "pw123456"})
	require.NoError(t, err)

	require.NoError(t, s.Logout(&dto.LogoutRequest{RefreshToken: resp.RefreshToken}))

	_, err = s.Refresh(&dto.RefreshRequest{RefreshToken: resp.RefreshToken})
	assert.ErrorIs(t, err, ErrInvalidToken)
}
