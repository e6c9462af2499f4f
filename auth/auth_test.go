package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/clock"
)

func TestTokenRoundTrip(t *testing.T) {
	clk := clock.Fake(time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC))
	m := NewTokenManager("secret", time.Hour, clk)

	token, exp, err := m.Issue("user-1", "admin")
	require.NoError(t, err)
	assert.Equal(t, clk.Now().Add(time.Hour), exp)

	claims, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "admin", claims.Role)
}

func TestTokenExpires(t *testing.T) {
	clk := clock.Fake(time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC))
	m := NewTokenManager("secret", time.Hour, clk)

	token, _, err := m.Issue("user-1", "user")
	require.NoError(t, err)

	clk.Advance(time.Hour)
	_, err = m.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenWrongSecret(t *testing.T) {
	token, _, err := NewTokenManager("one", time.Hour, nil).Issue("user-1", "user")
	require.NoError(t, err)

	_, err = NewTokenManager("two", time.Hour, nil).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenRejectsOtherAlgorithms(t *testing.T) {
	claims := Claims{
		UserID:           "user-1",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenManager("secret", time.Hour, nil).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenGarbage(t *testing.T) {
	_, err := NewTokenManager("secret", time.Hour, nil).Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)
	assert.True(t, CheckPassword(hash, "hunter22"))
	assert.False(t, CheckPassword(hash, "hunter23"))
}
