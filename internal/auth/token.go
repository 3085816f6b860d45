// Package auth reads and issues the bearer tokens returned by login and
// registration. The storefront never trusts these claims for authorization;
// the remote API verifies every call. Claims are read only to know which user
// a stored session belongs to and when it expires.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"storefront/internal/model"
)

// Claims is the token payload issued by the commerce API.
type Claims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the subject claim.
func (c *Claims) UserID() string {
	return c.Subject
}

// Expired reports whether the token has an expiry that lies before now.
// Tokens without exp never expire client-side.
func (c *Claims) Expired(now time.Time) bool {
	if c.ExpiresAt == nil {
		return false
	}
	return !now.Before(c.ExpiresAt.Time)
}

// ErrNotJWT is returned for opaque tokens that carry no readable claims.
var ErrNotJWT = errors.New("token is not a JWT")

// ParseClaims decodes token claims without verifying the signature.
func ParseClaims(token string) (*Claims, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotJWT, err)
	}
	return &claims, nil
}

// Issue signs an HS256 token for user. Used by the in-memory backend, which
// plays the role of the remote API in development and tests.
func Issue(secret []byte, user model.User, ttl time.Duration, now time.Time) (string, error) {
	claims := Claims{
		Email: user.Email,
		Name:  user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// Verify checks an HS256 token signed with secret and returns its claims.
func Verify(token string, secret []byte) (*Claims, error) {
	var claims Claims
	tkn, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil || !tkn.Valid {
		return nil, model.NewUnauthorizedError("invalid session token")
	}
	return &claims, nil
}
