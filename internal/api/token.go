package api

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrEmptyToken is returned when there is no token to parse
var ErrEmptyToken = errors.New("token is empty")

// TokenClaims are the claims a Conduit session token carries
type TokenClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}

// Expired reports whether the token had expired at now. Tokens without an
// expiry never expire.
func (c *TokenClaims) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && !now.Before(c.ExpiresAt.Time)
}

// ParseToken reads the claims of a token without verifying its signature.
// A leading "Token " scheme is accepted.
func ParseToken(token string) (*TokenClaims, error) {
	token = strings.TrimSpace(token)
	if rest, ok := strings.CutPrefix(token, AuthScheme); ok && (rest == "" || rest[0] == ' ') {
		token = strings.TrimSpace(rest)
	}
	if token == "" {
		return nil, ErrEmptyToken
	}

	claims := &TokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	return claims, nil
}
