package harness

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/conduit-e2e/internal/api"
	"github.com/ternarybob/conduit-e2e/internal/browser"
	"github.com/ternarybob/conduit-e2e/internal/commands"
	"github.com/ternarybob/conduit-e2e/internal/common"
	"github.com/ternarybob/conduit-e2e/internal/intercept"
	"github.com/ternarybob/conduit-e2e/internal/pages"
	"github.com/ternarybob/conduit-e2e/internal/wait"
)

// Aliases of the stubs registered before each UI test
const (
	AliasGetArticles    = "getArticles"
	AliasGetTags        = "getTags"
	AliasGetCurrentUser = "getCurrentUser"
)

// DefaultStubs answers the app's startup requests from fixture files
func DefaultStubs(apiURL string) map[string]intercept.Route {
	root := strings.TrimSuffix(apiURL, "/")
	return map[string]intercept.Route{
		AliasGetArticles: {
			Method:  http.MethodGet,
			Pattern: root + "/articles*",
			Stub:    &intercept.Stub{Fixture: "articles.json"},
		},
		AliasGetTags: {
			Method:  http.MethodGet,
			Pattern: root + "/tags",
			Stub:    &intercept.Stub{Fixture: "tags.json"},
		},
		AliasGetCurrentUser: {
			Method:  http.MethodGet,
			Pattern: root + "/user",
			Stub:    &intercept.Stub{Fixture: "user.json"},
		},
	}
}

// registerStubs arms every route in alias order
func registerStubs(ic *intercept.Interceptor, routes map[string]intercept.Route) error {
	aliases := make([]string, 0, len(routes))
	for alias := range routes {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	for _, alias := range aliases {
		if err := ic.Register(alias, routes[alias]); err != nil {
			return fmt.Errorf("failed to register %s: %w", alias, err)
		}
	}
	return nil
}

// Reachable reports whether something accepts TCP connections at rawURL
func Reachable(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return false
	}
	port := u.Port()
	if port == "" {
		port = "80"
		if u.Scheme == "https" {
			port = "443"
		}
	}
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(u.Hostname(), port), 2*time.Second)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// UIContext holds everything one browser test needs. The embedded command
// set exposes the page objects (Home, Auth, Editor, ...) and flows (Login,
// CreateArticle, ...).
type UIContext struct {
	*commands.Commands

	T           *testing.T
	Config      *common.Config
	Logger      arbor.ILogger
	Env         *Environment
	Ctx         context.Context
	Session     *browser.Session
	Interceptor *intercept.Interceptor
	Exceptions  *browser.ExceptionGuard
	Recorder    *browser.Recorder
	Fixtures    *Fixtures
	Data        *DataFactory
	API         *api.Client

	// Internal cleanup functions, run in reverse order
	cleanup []func()
}

// NewUIContext starts a browser against the configured app and opens its
// home page. The test is skipped when the app is not reachable and fails at
// once when the browser cannot start. Cleanup is registered with t.
func NewUIContext(t *testing.T) *UIContext {
	t.Helper()

	cfg, logger, err := LoadConfig()
	if err != nil {
		t.Fatalf("%v", err)
	}
	if !Reachable(cfg.App.BaseURL) {
		t.Skipf("app under test is not reachable at %s", cfg.App.BaseURL)
	}

	env, err := NewEnvironment(t.Name(), filepath.Join(cfg.Output.ResultsDir, "ui"))
	if err != nil {
		t.Fatalf("Failed to setup test environment: %v", err)
	}

	uc := &UIContext{
		T:        t,
		Config:   cfg,
		Logger:   logger,
		Env:      env,
		Fixtures: NewFixtures(cfg.Fixtures.Dir),
		Data:     NewDataFactory(0),
	}
	uc.cleanup = append(uc.cleanup, env.Cleanup)
	t.Cleanup(uc.Cleanup)

	// Timeout context for the entire test, browser startup included
	ctx, cancelTimeout := context.WithTimeout(context.Background(), cfg.TestTimeout())
	uc.cleanup = append(uc.cleanup, cancelTimeout)

	viewport := browser.Viewport{
		Width:  int64(cfg.Browser.ViewportWidth),
		Height: int64(cfg.Browser.ViewportHeight),
	}
	session, err := browser.NewSession(ctx, browser.Options{
		Headless:   cfg.Browser.Headless,
		DisableGPU: cfg.Browser.DisableGPU,
		ExecPath:   cfg.Browser.ExecPath,
		Viewport:   viewport,
	}, logger)
	if err != nil {
		t.Fatalf("Browser could not start: %v", err)
	}
	uc.Session = session
	uc.Ctx = session.Context()
	uc.cleanup = append(uc.cleanup, session.Close)

	uc.Interceptor = intercept.NewInterceptor(uc.Fixtures.Loader(), logger)
	if err := intercept.Attach(uc.Ctx, uc.Interceptor, logger); err != nil {
		t.Fatalf("%v", err)
	}

	uc.Exceptions, err = browser.NewExceptionGuard(cfg.Exceptions.IgnorePatterns, logger)
	if err != nil {
		t.Fatalf("%v", err)
	}
	uc.Exceptions.Attach(uc.Ctx)

	if cfg.Browser.RecordVideo {
		uc.Recorder = browser.NewRecorder(browser.RecorderOptions{
			Dir:           env.VideoDir(),
			EveryNthFrame: int64(cfg.Browser.VideoEveryNthFrame),
			MaxFrames:     cfg.Browser.MaxVideoFrames,
		}, logger)
		if err := uc.Recorder.Start(uc.Ctx); err != nil {
			logger.Warn().Err(err).Msg("Video recording disabled for this test")
			uc.Recorder = nil
		}
	}

	uc.API = api.NewClient(cfg.App.APIURL,
		api.WithLogger(logger),
		api.WithHTTPClient(&http.Client{Timeout: cfg.ResponseTimeout()}),
	)

	uc.Commands = commands.New(commands.Deps{
		Pages: pages.Deps{
			T:               t,
			Ctx:             uc.Ctx,
			Driver:          session,
			BaseURL:         cfg.App.BaseURL,
			Policy:          wait.Policy{Timeout: cfg.CommandTimeout(), Interval: cfg.PollInterval()},
			ResponseTimeout: cfg.RequestTimeout(),
			Interceptor:     uc.Interceptor,
			Logger:          logger,
			Artifacts:       env,
		},
		API: uc.API,
	})

	uc.Log("=== TEST START: %s ===", t.Name())
	uc.Log("App: %s, API: %s, viewport %s", cfg.App.BaseURL, cfg.App.APIURL, viewport)

	if cfg.Browser.DefaultFixtures {
		if err := registerStubs(uc.Interceptor, DefaultStubs(cfg.App.APIURL)); err != nil {
			t.Fatalf("%v", err)
		}
	}

	uc.Home.Visit()
	uc.Shell.ClearSession()
	return uc
}

// Log writes a message to the test log
func (uc *UIContext) Log(format string, args ...interface{}) {
	uc.T.Helper()
	uc.Env.LogTest(uc.T, format, args...)
}

// Defer adds a function to run during cleanup, before earlier ones
func (uc *UIContext) Defer(fn func()) {
	uc.cleanup = append(uc.cleanup, fn)
}

// Cleanup reports unexpected page exceptions, keeps a screenshot of a failed
// test, stops recording, clears the session and releases the browser. It is
// registered with t.Cleanup by NewUIContext.
func (uc *UIContext) Cleanup() {
	if uc.Exceptions != nil {
		if err := uc.Exceptions.Err(); err != nil {
			uc.T.Errorf("%v", err)
		}
	}

	if uc.Session != nil {
		ctx, cancel := context.WithTimeout(uc.Ctx, 10*time.Second)
		if uc.T.Failed() && uc.Config.Browser.ScreenshotOnFail {
			if png, err := uc.Session.Screenshot(ctx); err == nil {
				if path, err := uc.Env.SaveScreenshot("failure", png); err == nil {
					uc.Log("Failure screenshot: %s", path)
				}
			} else {
				uc.Logger.Warn().Err(err).Msg("Failed to capture failure screenshot")
			}
		}

		if uc.Recorder != nil {
			frames := uc.Recorder.Stop()
			uc.Log("Recorded %d video frames to %s", frames, uc.Env.VideoDir())
		}

		if err := uc.Session.ClearStorage(ctx); err != nil {
			uc.Logger.Warn().Err(err).Msg("Failed to clear local storage")
		}
		if err := uc.Session.ClearCookies(ctx); err != nil {
			uc.Logger.Warn().Err(err).Msg("Failed to clear cookies")
		}
		cancel()
	}

	if uc.T.Failed() {
		uc.Log("=== TEST RESULT: FAIL ===")
	} else {
		uc.Log("=== TEST RESULT: PASS ===")
	}

	for i := len(uc.cleanup) - 1; i >= 0; i-- {
		uc.cleanup[i]()
	}
	uc.cleanup = nil
}
