package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTManager() *JWTManager {
	return NewJWTManager("test-secret", 15*time.Minute, 7*24*time.Hour)
}

func TestJWTManager_GenerateAndValidate(t *testing.T) {
	manager := newTestJWTManager()

	token, err := manager.GenerateAccessToken(1, "alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := manager.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(1), claims.PlayerID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "access", claims.TokenType)
	assert.Equal(t, "commons-game", claims.Issuer)
}

func TestJWTManager_ValidateInvalidToken(t *testing.T) {
	manager := newTestJWTManager()

	_, err := manager.ValidateToken("not-a-token")
	assert.Error(t, err)
}

func TestJWTManager_ValidateWrongSecret(t *testing.T) {
	manager := newTestJWTManager()
	other := NewJWTManager("other-secret", 15*time.Minute, 7*24*time.Hour)

	token, err := manager.GenerateAccessToken(1, "alice")
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTManager_ExpiredToken(t *testing.T) {
	manager := NewJWTManager("test-secret", -time.Minute, time.Hour)

	token, err := manager.GenerateAccessToken(1, "alice")
	require.NoError(t, err)

	_, err = manager.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTManager_RefreshAccessToken(t *testing.T) {
	manager := newTestJWTManager()

	refreshToken, err := manager.GenerateRefreshToken(1, "alice")
	require.NoError(t, err)

	accessToken, err := manager.RefreshAccessToken(refreshToken)
	require.NoError(t, err)

	claims, err := manager.ValidateToken(accessToken)
	require.NoError(t, err)
	assert.Equal(t, "access", claims.TokenType)
	assert.Equal(t, "alice", claims.Username)
}

func TestJWTManager_RefreshWithAccessTokenFails(t *testing.T) {
	manager := newTestJWTManager()

	accessToken, err := manager.GenerateAccessToken(1, "alice")
	require.NoError(t, err)

	_, err = manager.RefreshAccessToken(accessToken)
	assert.Error(t, err)
}

func TestJWTManager_GetTokenExpiry(t *testing.T) {
	manager := newTestJWTManager()

	assert.Equal(t, 15*time.Minute, manager.GetTokenExpiry("access"))
	assert.Equal(t, 7*24*time.Hour, manager.GetTokenExpiry("refresh"))
}
