package authn

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("not-our-secret"))
	require.NoError(t, err)
	return token
}

func TestParseClaims(t *testing.T) {
	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	token := signedToken(t, Claims{
		StandardClaims: jwt.StandardClaims{ExpiresAt: exp.Unix()},
		UserID:         "u1",
		Email:          "ada@example.com",
		Type:           "admin",
	})

	claims, err := ParseClaims(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "admin", claims.Type)

	got, ok := claims.Expiry()
	assert.True(t, ok)
	assert.Equal(t, exp, got)
}

func TestParseClaims_NotAJWT(t *testing.T) {
	_, err := ParseClaims("opaque-session-token")
	assert.ErrorIs(t, err, ErrInvalidJWT)
}

func TestCheckExpiry(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	expired := signedToken(t, Claims{StandardClaims: jwt.StandardClaims{ExpiresAt: now.Add(-time.Minute).Unix()}})
	assert.ErrorIs(t, CheckExpiry(expired, now), ErrTokenExpired)

	valid := signedToken(t, Claims{StandardClaims: jwt.StandardClaims{ExpiresAt: now.Add(time.Hour).Unix()}})
	assert.NoError(t, CheckExpiry(valid, now))

	noExpiry := signedToken(t, Claims{UserID: "u1"})
	assert.NoError(t, CheckExpiry(noExpiry, now))

	assert.NoError(t, CheckExpiry("opaque", now))
}
