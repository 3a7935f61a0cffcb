package authn

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt"
)

var ErrInvalidJWT = errors.New("invalid jwt token")
var ErrTokenExpired = errors.New("token expired")

// Claims are the fields the dashboard reads from the API's bearer token.
// The signature is never checked here; the API remains the authority and
// rejects forged tokens on the first call.
type Claims struct {
	jwt.StandardClaims
	UserID string `json:"id"`
	Email  string `json:"email"`
	Type   string `json:"type"`
}

// ParseClaims decodes the token payload without verifying it.
func ParseClaims(token string) (Claims, error) {
	claims := Claims{}
	parser := jwt.Parser{}
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return claims, ErrInvalidJWT
	}
	return claims, nil
}

// Expiry returns the expiry of the token, if it carries one.
func (c Claims) Expiry() (time.Time, bool) {
	if c.ExpiresAt == 0 {
		return time.Time{}, false
	}
	return time.Unix(c.ExpiresAt, 0).UTC(), true
}

// CheckExpiry returns ErrTokenExpired when token is a JWT whose exp claim is
// before now. Opaque tokens are accepted; only the API can judge them.
func CheckExpiry(token string, now time.Time) error {
	claims, err := ParseClaims(token)
	if err != nil {
		return nil
	}
	if exp, ok := claims.Expiry(); ok && !now.Before(exp) {
		return ErrTokenExpired
	}
	return nil
}
