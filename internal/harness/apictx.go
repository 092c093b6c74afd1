package harness

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/conduit-e2e/internal/api"
	"github.com/ternarybob/conduit-e2e/internal/common"
	"github.com/ternarybob/conduit-e2e/internal/conduitmock"
)

// APIContext holds a REST client bound to the in-memory backend (mock mode)
// or to the configured api_url (live mode)
type APIContext struct {
	T        *testing.T
	Config   *common.Config
	Logger   arbor.ILogger
	Env      *Environment
	Ctx      context.Context
	Client   *api.Client
	Fixtures *Fixtures
	Data     *DataFactory

	// Mock is the in-memory backend, nil in live mode
	Mock *conduitmock.Server

	apiURL  string
	cleanup []func()
}

// seedUsers turns the configured test users into backend seed users
func seedUsers(cfg *common.Config) []conduitmock.SeedUser {
	var users []conduitmock.SeedUser
	for _, u := range []common.TestUser{cfg.Users.Primary, cfg.Users.Secondary} {
		users = append(users, conduitmock.SeedUser{Username: u.Username, Email: u.Email, Password: u.Password})
	}
	return users
}

// NewAPIContext prepares a client for API suites. In live mode the test is
// skipped when api_url is not reachable.
func NewAPIContext(t *testing.T) *APIContext {
	t.Helper()

	cfg, logger, err := LoadConfig()
	if err != nil {
		t.Fatalf("%v", err)
	}
	return newAPIContext(t, cfg, logger)
}

func newAPIContext(t *testing.T, cfg *common.Config, logger arbor.ILogger) *APIContext {
	t.Helper()

	if !cfg.IsMockMode() && !Reachable(cfg.App.APIURL) {
		t.Skipf("API is not reachable at %s", cfg.App.APIURL)
	}

	env, err := NewEnvironment(t.Name(), filepath.Join(cfg.Output.ResultsDir, "api"))
	if err != nil {
		t.Fatalf("Failed to setup test environment: %v", err)
	}

	ac := &APIContext{
		T:        t,
		Config:   cfg,
		Logger:   logger,
		Env:      env,
		Fixtures: NewFixtures(cfg.Fixtures.Dir),
		Data:     NewDataFactory(0),
		apiURL:   cfg.App.APIURL,
	}
	ac.cleanup = append(ac.cleanup, env.Cleanup)
	t.Cleanup(ac.Cleanup)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.TestTimeout())
	ac.Ctx = ctx
	ac.cleanup = append(ac.cleanup, cancel)

	if cfg.IsMockMode() {
		mock, err := conduitmock.New(conduitmock.Config{
			Secret:   cfg.Mock.JWTSecret,
			TokenTTL: cfg.TokenTTL(),
			Users:    seedUsers(cfg),
		}, logger)
		if err != nil {
			t.Fatalf("Failed to create mock backend: %v", err)
		}
		ac.Mock = mock
		ac.apiURL = mock.Start()
		ac.cleanup = append(ac.cleanup, func() {
			if err := mock.Close(); err != nil {
				logger.Warn().Err(err).Msg("Failed to close mock backend")
			}
		})
	}

	ac.Client = ac.NewClient()
	ac.Log("=== TEST START: %s ===", t.Name())
	ac.Log("Mode: %s, API: %s", cfg.Mode, ac.apiURL)
	return ac
}

// APIURL is the root the client talks to
func (ac *APIContext) APIURL() string {
	return ac.apiURL
}

// NewClient returns an unauthenticated client for the backend
func (ac *APIContext) NewClient(opts ...api.ClientOption) *api.Client {
	base := []api.ClientOption{
		api.WithLogger(ac.Logger),
		api.WithHTTPClient(&http.Client{Timeout: ac.Config.ResponseTimeout()}),
	}
	return api.NewClient(ac.apiURL, append(base, opts...)...)
}

// LoginAs returns a new client signed in as user
func (ac *APIContext) LoginAs(user common.TestUser) *api.Client {
	ac.T.Helper()
	client := ac.NewClient()
	if _, err := client.Login(ac.Ctx, user.Email, user.Password); err != nil {
		ac.T.Fatalf("login as %s: %v", user.Email, err)
	}
	return client
}

// NewUser registers a unique user and returns it with a signed-in client
func (ac *APIContext) NewUser() (*api.User, *api.Client) {
	ac.T.Helper()
	client := ac.NewClient()
	user, err := client.Register(ac.Ctx, ac.Data.User())
	if err != nil {
		ac.T.Fatalf("register user: %v", err)
	}
	ac.Log("Registered user %s", user.Username)
	return user, client
}

// Reset restores the mock backend's seeded state; a no-op in live mode
func (ac *APIContext) Reset(ctx context.Context) error {
	if ac.Mock == nil {
		return nil
	}
	return ac.Mock.Reset()
}

// Log writes a message to the test log
func (ac *APIContext) Log(format string, args ...interface{}) {
	ac.T.Helper()
	ac.Env.LogTest(ac.T, format, args...)
}

// Cleanup writes the PASS/FAIL line and releases resources in reverse order.
// It is registered with t.Cleanup by NewAPIContext.
func (ac *APIContext) Cleanup() {
	if ac.T.Failed() {
		ac.Log("=== TEST RESULT: FAIL ===")
	} else {
		ac.Log("=== TEST RESULT: PASS ===")
	}
	for i := len(ac.cleanup) - 1; i >= 0; i-- {
		ac.cleanup[i]()
	}
	ac.cleanup = nil
}
