// Package conduitmock is a deterministic, in-memory Conduit REST backend for
// API suites and unit tests.
package conduitmock

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
)

// APIPrefix is where the Conduit API is mounted
const APIPrefix = "/api"

// SeedUser is a user created when the server starts or resets
type SeedUser struct {
	Username string `toml:"username"`
	Email    string `toml:"email"`
	Password string `toml:"password"`
}

// Config controls the mock backend
type Config struct {
	Secret   string
	TokenTTL time.Duration
	Users    []SeedUser
}

// Server serves the Conduit API from an in-memory store
type Server struct {
	config Config
	logger arbor.ILogger
	store  *store
	tokens *tokenIssuer
	mux    *http.ServeMux

	// one writer at a time keeps favourite and follow sets consistent
	mu        sync.Mutex
	commentID int64
	now       func() time.Time

	httpServer *httptest.Server
}

// New creates a server with its seed users in place
func New(config Config, logger arbor.ILogger) (*Server, error) {
	if config.Secret == "" {
		config.Secret = "conduit-mock-secret"
	}
	if config.TokenTTL == 0 {
		config.TokenTTL = 24 * time.Hour
	}
	if logger == nil {
		logger = arbor.NewLogger()
	}

	st, err := openStore()
	if err != nil {
		return nil, err
	}

	s := &Server{
		config: config,
		logger: logger,
		store:  st,
		mux:    http.NewServeMux(),
		now:    time.Now,
	}
	s.tokens = newTokenIssuer([]byte(config.Secret), config.TokenTTL, func() time.Time { return s.now() })
	s.routes()

	if err := s.seed(); err != nil {
		st.close()
		return nil, err
	}
	return s, nil
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /api/users/login", s.handleLogin)
	s.mux.HandleFunc("POST /api/users", s.handleRegister)
	s.mux.HandleFunc("GET /api/user", s.authenticated(s.handleCurrentUser))
	s.mux.HandleFunc("PUT /api/user", s.authenticated(s.handleUpdateUser))

	s.mux.HandleFunc("GET /api/profiles/{username}", s.optional(s.handleProfile))
	s.mux.HandleFunc("POST /api/profiles/{username}/follow", s.authenticated(s.handleFollow))
	s.mux.HandleFunc("DELETE /api/profiles/{username}/follow", s.authenticated(s.handleUnfollow))

	s.mux.HandleFunc("GET /api/articles", s.optional(s.handleListArticles))
	s.mux.HandleFunc("GET /api/articles/feed", s.authenticated(s.handleFeed))
	s.mux.HandleFunc("GET /api/articles/{slug}", s.optional(s.handleGetArticle))
	s.mux.HandleFunc("POST /api/articles", s.authenticated(s.handleCreateArticle))
	s.mux.HandleFunc("PUT /api/articles/{slug}", s.authenticated(s.handleUpdateArticle))
	s.mux.HandleFunc("DELETE /api/articles/{slug}", s.authenticated(s.handleDeleteArticle))
	s.mux.HandleFunc("POST /api/articles/{slug}/favorite", s.authenticated(s.handleFavorite))
	s.mux.HandleFunc("DELETE /api/articles/{slug}/favorite", s.authenticated(s.handleUnfavorite))

	s.mux.HandleFunc("GET /api/articles/{slug}/comments", s.optional(s.handleListComments))
	s.mux.HandleFunc("POST /api/articles/{slug}/comments", s.authenticated(s.handleAddComment))
	s.mux.HandleFunc("DELETE /api/articles/{slug}/comments/{id}", s.authenticated(s.handleDeleteComment))

	s.mux.HandleFunc("GET /api/tags", s.handleTags)
}

// Handler returns the HTTP handler serving the API under /api
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.mux)
}

// Start serves the API on a local ephemeral port and returns its API root
func (s *Server) Start() string {
	s.httpServer = httptest.NewServer(s.Handler())
	s.logger.Info().Str("url", s.httpServer.URL).Msg("Conduit mock backend started")
	return s.APIURL()
}

// APIURL returns the API root of a started server
func (s *Server) APIURL() string {
	if s.httpServer == nil {
		return ""
	}
	return s.httpServer.URL + APIPrefix
}

// Close stops serving and releases the store
func (s *Server) Close() error {
	if s.httpServer != nil {
		s.httpServer.Close()
		s.httpServer = nil
	}
	return s.store.close()
}

// Reset clears all data and recreates the seed users
func (s *Server) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.reset(); err != nil {
		return err
	}
	s.commentID = 0
	return s.seedLocked()
}

func (s *Server) seed() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seedLocked()
}

func (s *Server) seedLocked() error {
	for _, u := range s.config.Users {
		if err := s.store.saveUser(&userRecord{Username: u.Username, Email: u.Email, Password: u.Password}); err != nil {
			return fmt.Errorf("failed to seed user %s: %w", u.Username, err)
		}
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("Mock request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// fieldErrors is the 422 errors map
type fieldErrors map[string][]string

func (e fieldErrors) add(field, message string) {
	e[field] = append(e[field], message)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrors(w http.ResponseWriter, status int, errs fieldErrors) {
	writeJSON(w, status, map[string]fieldErrors{"errors": errs})
}

func writeError(w http.ResponseWriter, status int, field, message string) {
	writeErrors(w, status, fieldErrors{field: {message}})
}

// writeStoreError maps store failures onto HTTP statuses
func (s *Server) writeStoreError(w http.ResponseWriter, entity string, err error) {
	if errors.Is(err, errNotFound) {
		writeError(w, http.StatusNotFound, entity, "not found")
		return
	}
	s.logger.Error().Err(err).Str("entity", entity).Msg("Mock store failure")
	writeError(w, http.StatusInternalServerError, entity, "storage failure")
}

// decode reads a {"<root>": {...}} body into target
func decode(r *http.Request, root string, target interface{}) fieldErrors {
	var env map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		return fieldErrors{"body": {"is invalid"}}
	}
	raw, ok := env[root]
	if !ok {
		return fieldErrors{root: {"can't be blank"}}
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fieldErrors{root: {"is invalid"}}
	}
	return nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
