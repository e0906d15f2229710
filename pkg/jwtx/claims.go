package jwtx

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenExpired reports a token whose expiry has passed.
	ErrTokenExpired = errors.New("jwtx: token expired")

	// ErrTokenInvalid reports a token that failed signature or claim checks.
	ErrTokenInvalid = errors.New("jwtx: token invalid")
)

// Claims are the portal access-token claims. Subject carries the user ID and
// Email mirrors the sign-in identity so handlers can avoid a user lookup for
// display purposes.
type Claims struct {
	Email string `json:"email,omitempty"`

	jwt.RegisteredClaims
}

// ValidateExpiry checks the exp claim against the current time.
func (c Claims) ValidateExpiry() error {
	if c.ExpiresAt == nil {
		return ErrTokenInvalid
	}
	if time.Now().After(c.ExpiresAt.Time) {
		return ErrTokenExpired
	}
	return nil
}
