package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService(t *testing.T) {
	svc, err := NewAuthService("admin", "s3cret", "test-secret", time.Hour)
	require.NoError(t, err)

	assert.True(t, svc.CheckCredentials("admin", "s3cret"))
	assert.False(t, svc.CheckCredentials("admin", "wrong"))
	assert.False(t, svc.CheckCredentials("root", "s3cret"))

	_, err = svc.Login(LoginRequest{Username: "admin", Password: "nope"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	resp, err := svc.Login(LoginRequest{Username: "admin", Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.True(t, resp.ExpiresAt.After(time.Now()))

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, RoleAdmin, claims.Role)

	other, err := NewAuthService("admin", "s3cret", "another-secret", time.Hour)
	require.NoError(t, err)
	_, err = other.ValidateToken(resp.AccessToken)
	assert.Error(t, err, "token signed with a different secret")
}

func TestNewAuthServiceRequiresConfig(t *testing.T) {
	_, err := NewAuthService("", "pw", "secret", time.Hour)
	assert.Error(t, err)
	_, err = NewAuthService("admin", "pw", "", time.Hour)
	assert.Error(t, err)
}
