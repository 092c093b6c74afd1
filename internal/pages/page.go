// Package pages holds the fluent page objects for every Conduit screen.
//
// Actions perform one user-visible interaction and return the page. Checks
// poll the live DOM until they hold or the page's policy times out, never
// mutate state, and fail the test immediately otherwise.
package pages

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/conduit-e2e/internal/browser"
	"github.com/ternarybob/conduit-e2e/internal/intercept"
	"github.com/ternarybob/conduit-e2e/internal/selector"
	"github.com/ternarybob/conduit-e2e/internal/wait"
)

// TokenKey is the local storage key holding the session token
const TokenKey = "jwt"

// T is the part of *testing.T page objects report through
type T interface {
	Helper()
	Logf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	FailNow()
}

// Artifacts stores screenshots for the running test
type Artifacts interface {
	SaveScreenshot(name string, png []byte) (string, error)
}

// Deps are the collaborators shared by every page object of one test
type Deps struct {
	T               T
	Ctx             context.Context
	Driver          browser.Driver
	BaseURL         string
	Policy          wait.Policy
	ResponseTimeout time.Duration
	Interceptor     *intercept.Interceptor
	Logger          arbor.ILogger
	Artifacts       Artifacts
}

// core implements the checks and actions shared by all pages
type core struct {
	deps     Deps
	registry *selector.Registry
}

func newCore(deps Deps, registry *selector.Registry) core {
	if deps.Ctx == nil {
		deps.Ctx = context.Background()
	}
	if deps.Policy.Timeout == 0 {
		deps.Policy = wait.DefaultPolicy
	}
	if deps.ResponseTimeout == 0 {
		deps.ResponseTimeout = 30 * time.Second
	}
	if deps.Logger == nil {
		deps.Logger = arbor.NewLogger()
	}
	deps.BaseURL = strings.TrimSuffix(deps.BaseURL, "/")
	return core{deps: deps, registry: registry}
}

// locate resolves a symbolic name. Names the page does not declare follow the
// test-id convention, which covers generated names such as tag-<name>.
func (c *core) locate(name string) selector.Locator {
	if s, ok := c.registry.Get(name); ok {
		return s.Locate()
	}
	return selector.TestID(name).Locate()
}

func (c *core) fail(desc string, err error) {
	c.deps.T.Helper()
	c.deps.Logger.Error().Err(err).Str("step", desc).Msg("Step failed")
	c.screenshot("failed_" + sanitize(desc))
	require.NoErrorf(c.deps.T, err, "%s", desc)
}

// check polls predicate with the page policy and fails the test on timeout
func (c *core) check(desc string, predicate func(ctx context.Context) error) {
	c.deps.T.Helper()
	if err := c.deps.Policy.Await(c.deps.Ctx, predicate); err != nil {
		c.fail(desc, err)
	}
}

// act waits until loc is actionable, then performs action once
func (c *core) act(desc string, loc selector.Locator, action func(ctx context.Context) error) {
	c.deps.T.Helper()
	c.deps.Logger.Debug().Str("action", desc).Str("target", loc.String()).Msg("Page action")
	c.check(desc, c.actionable(loc))

	ctx, cancel := context.WithTimeout(c.deps.Ctx, c.deps.Policy.Timeout)
	defer cancel()
	if err := action(ctx); err != nil {
		c.fail(desc, err)
	}
}

func (c *core) visit(path string) {
	c.deps.T.Helper()
	url := c.deps.BaseURL + path
	c.deps.Logger.Debug().Str("url", url).Msg("Visit")

	ctx, cancel := context.WithTimeout(c.deps.Ctx, c.deps.Policy.Timeout)
	defer cancel()
	if err := c.deps.Driver.Navigate(ctx, url); err != nil {
		c.fail("visit "+path, err)
	}
}

func (c *core) click(loc selector.Locator) {
	c.deps.T.Helper()
	c.act("click "+loc.String(), loc, func(ctx context.Context) error {
		return c.deps.Driver.Click(ctx, loc)
	})
}

// fill replaces the value of an input
func (c *core) fill(loc selector.Locator, text string) {
	c.deps.T.Helper()
	c.act("fill "+loc.String(), loc, func(ctx context.Context) error {
		if err := c.deps.Driver.Clear(ctx, loc); err != nil {
			return err
		}
		if text == "" {
			return nil
		}
		return c.deps.Driver.Type(ctx, loc, text)
	})
}

// add types after any existing value
func (c *core) add(loc selector.Locator, text string) {
	c.deps.T.Helper()
	c.act("type into "+loc.String(), loc, func(ctx context.Context) error {
		return c.deps.Driver.Type(ctx, loc, text)
	})
}

func (c *core) clear(loc selector.Locator) {
	c.deps.T.Helper()
	c.act("clear "+loc.String(), loc, func(ctx context.Context) error {
		return c.deps.Driver.Clear(ctx, loc)
	})
}

func (c *core) press(loc selector.Locator, key browser.Key) {
	c.deps.T.Helper()
	c.act(fmt.Sprintf("press %s on %s", key, loc), loc, func(ctx context.Context) error {
		return c.deps.Driver.Press(ctx, loc, key)
	})
}

func (c *core) focus(loc selector.Locator) {
	c.deps.T.Helper()
	c.act("focus "+loc.String(), loc, func(ctx context.Context) error {
		return c.deps.Driver.Focus(ctx, loc)
	})
}

func (c *core) screenshot(name string) {
	if c.deps.Artifacts == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.deps.Ctx, c.deps.Policy.Timeout)
	defer cancel()
	png, err := c.deps.Driver.Screenshot(ctx)
	if err != nil {
		c.deps.Logger.Warn().Err(err).Str("name", name).Msg("Failed to capture screenshot")
		return
	}
	path, err := c.deps.Artifacts.SaveScreenshot(name, png)
	if err != nil {
		c.deps.Logger.Warn().Err(err).Str("name", name).Msg("Failed to save screenshot")
		return
	}
	c.deps.T.Logf("Screenshot: %s", path)
}

func (c *core) location(ctx context.Context) (string, error) {
	return c.deps.Driver.Location(ctx)
}

// expect registers a network expectation
func (c *core) expect(alias string, route intercept.Route) {
	c.deps.T.Helper()
	if c.deps.Interceptor == nil {
		c.fail("expect @"+alias, fmt.Errorf("no network interceptor attached"))
		return
	}
	if err := c.deps.Interceptor.Register(alias, route); err != nil {
		c.fail("expect @"+alias, err)
	}
}

// awaitCall waits for an aliased call and returns it
func (c *core) awaitCall(alias string) *intercept.Interception {
	c.deps.T.Helper()
	if c.deps.Interceptor == nil {
		c.fail("wait @"+alias, fmt.Errorf("no network interceptor attached"))
		return nil
	}
	call, err := c.deps.Interceptor.Wait(c.deps.Ctx, alias, c.deps.ResponseTimeout)
	if err != nil {
		c.fail("wait @"+alias, err)
		return nil
	}
	return call
}

// awaitStatus waits for an aliased call and asserts its status code
func (c *core) awaitStatus(alias string, status int) *intercept.Interception {
	c.deps.T.Helper()
	call := c.awaitCall(alias)
	if call == nil {
		return nil
	}
	require.Equalf(c.deps.T, status, call.Response.StatusCode,
		"@%s %s %s responded with unexpected status", alias, call.Request.Method, call.Request.URL)
	return call
}

// notSent asserts that no request matched alias since it was registered
func (c *core) notSent(alias string) {
	c.deps.T.Helper()
	if c.deps.Interceptor == nil {
		c.fail("no request @"+alias, fmt.Errorf("no network interceptor attached"))
		return
	}
	require.Zerof(c.deps.T, c.deps.Interceptor.Count(alias), "expected no request for @%s", alias)
}

func sanitize(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	s := b.String()
	if len(s) > 60 {
		s = s[:60]
	}
	return s
}
