package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(accessExp, refreshExp time.Duration) *JWTManager {
	return NewJWTManager(
		"access-secret-at-least-32-chars!!",
		"refresh-secret-at-least-32-chars!",
		accessExp, refreshExp,
	)
}

func TestTokenPairRoundTrip(t *testing.T) {
	mgr := newTestManager(15*time.Minute, 7*24*time.Hour)

	pair, tokenID, err := mgr.GenerateTokenPair("user-1", "learner@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, tokenID)
	assert.Equal(t, int64(900), pair.ExpiresIn)

	access, err := mgr.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", access.UserID)
	assert.Equal(t, "learner@example.com", access.Email)
	assert.Equal(t, "lingopal", access.Issuer)

	refresh, err := mgr.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", refresh.UserID)
	assert.Equal(t, tokenID, refresh.TokenID)
}

func TestTokensAreNotInterchangeable(t *testing.T) {
	mgr := newTestManager(15*time.Minute, 7*24*time.Hour)

	pair, _, err := mgr.GenerateTokenPair("user-2", "x@example.com")
	require.NoError(t, err)

	_, err = mgr.ValidateRefreshToken(pair.AccessToken)
	assert.Error(t, err, "access token signed with the access secret")

	_, err = mgr.ValidateAccessToken(pair.RefreshToken)
	assert.Error(t, err)
}

func TestExpiredTokenFailsValidation(t *testing.T) {
	mgr := newTestManager(-time.Second, -time.Second)

	pair, _, err := mgr.GenerateTokenPair("user-3", "old@example.com")
	require.NoError(t, err)

	_, err = mgr.ValidateAccessToken(pair.AccessToken)
	assert.Error(t, err)
}

func TestGarbageTokenFailsValidation(t *testing.T) {
	mgr := newTestManager(15*time.Minute, time.Hour)

	_, err := mgr.ValidateAccessToken("not.a.jwt")
	assert.Error(t, err)
}
