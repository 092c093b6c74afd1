package conduitmock

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ternarybob/conduit-e2e/internal/api"
)

type viewerKey struct{}

// tokenIssuer signs and validates HS256 session tokens
type tokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func newTokenIssuer(secret []byte, ttl time.Duration, now func() time.Time) *tokenIssuer {
	return &tokenIssuer{secret: secret, ttl: ttl, now: now}
}

func (t *tokenIssuer) issue(u *userRecord) (string, error) {
	now := t.now()
	claims := api.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
		Username: u.Username,
		Email:    u.Email,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// validate returns the username a token was issued to
func (t *tokenIssuer) validate(token string) (string, error) {
	if token == "" {
		return "", errors.New("token is empty")
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
	)
	claims := &api.TokenClaims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}
	if !parsed.Valid || claims.Username == "" {
		return "", errors.New("token is invalid")
	}
	return claims.Username, nil
}

// bearer extracts the token from "Authorization: Token <jwt>"
func bearer(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	token, ok := strings.CutPrefix(header, api.AuthScheme+" ")
	if !ok {
		return "", true
	}
	return strings.TrimSpace(token), true
}

// viewer resolves the request's user. present reports whether credentials
// were sent at all.
func (s *Server) viewer(r *http.Request) (u *userRecord, present bool, err error) {
	token, present := bearer(r)
	if !present {
		return nil, false, nil
	}
	username, err := s.tokens.validate(token)
	if err != nil {
		return nil, true, err
	}
	u, err = s.store.user(username)
	if err != nil {
		return nil, true, fmt.Errorf("token user %s: %w", username, err)
	}
	return u, true, nil
}

// authenticated rejects requests without a valid token with 401
func (s *Server) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, present, err := s.viewer(r)
		switch {
		case !present:
			writeError(w, http.StatusUnauthorized, "token", "is missing")
			return
		case err != nil:
			s.logger.Debug().Err(err).Str("path", r.URL.Path).Msg("Rejected token")
			writeError(w, http.StatusUnauthorized, "token", "is invalid")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), viewerKey{}, u)))
	}
}

// optional attaches the viewer when a valid token is sent. An invalid token
// is still rejected with 401.
func (s *Server) optional(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, present, err := s.viewer(r)
		if present && err != nil {
			writeError(w, http.StatusUnauthorized, "token", "is invalid")
			return
		}
		if u != nil {
			r = r.WithContext(context.WithValue(r.Context(), viewerKey{}, u))
		}
		next(w, r)
	}
}

func viewerFrom(ctx context.Context) *userRecord {
	u, _ := ctx.Value(viewerKey{}).(*userRecord)
	return u
}
