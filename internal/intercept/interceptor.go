package intercept

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/conduit-e2e/internal/wait"
)

var (
	// ErrAliasNotRegistered is returned when waiting on an alias nobody registered
	ErrAliasNotRegistered = errors.New("alias was never registered")

	// ErrWaitTimeout is returned when no matching call completed in time
	ErrWaitTimeout = errors.New("no matching request completed")

	// ErrAliasConsumed is returned when an alias is waited on a second time
	// without being registered again
	ErrAliasConsumed = errors.New("alias already consumed by an earlier wait")
)

// WaitError reports a failed wait for an alias
type WaitError struct {
	Alias   string
	Route   string
	Timeout time.Duration
	Err     error
}

func (e *WaitError) Error() string {
	if e.Route == "" {
		return fmt.Sprintf("wait @%s: %v (after %v)", e.Alias, e.Err, e.Timeout)
	}
	return fmt.Sprintf("wait @%s (%s): %v (after %v)", e.Alias, e.Route, e.Err, e.Timeout)
}

func (e *WaitError) Unwrap() error {
	return e.Err
}

// Decision tells the transport what to do with an observed request
type Decision struct {
	Matched    bool
	Alias      string
	Fulfilment *Fulfilment
}

// registration is one armed expectation
type registration struct {
	alias    string
	route    Route
	observed int
	done     []*Interception
	consumed bool
}

// pending is an in-flight request that matched a registration
type pending struct {
	reg          *registration
	interception *Interception
}

// Interceptor holds the aliased expectations for one test
type Interceptor struct {
	logger   arbor.ILogger
	fixtures FixtureLoader
	interval time.Duration

	mu       sync.Mutex
	routes   []*registration
	aliases  map[string]*registration
	inflight map[string]*pending
	now      func() time.Time
}

// NewInterceptor creates an interceptor. fixtures may be nil when no stub
// references a fixture file.
func NewInterceptor(fixtures FixtureLoader, logger arbor.ILogger) *Interceptor {
	return &Interceptor{
		logger:   logger,
		fixtures: fixtures,
		interval: 25 * time.Millisecond,
		aliases:  make(map[string]*registration),
		inflight: make(map[string]*pending),
		now:      time.Now,
	}
}

// Register arms alias for route. Registering an existing alias replaces its
// route and discards anything it captured before.
func (ic *Interceptor) Register(alias string, route Route) error {
	if alias == "" {
		return fmt.Errorf("alias is required")
	}
	if err := route.Validate(); err != nil {
		return fmt.Errorf("alias @%s: %w", alias, err)
	}
	if route.Stub != nil {
		// Resolve eagerly so a missing fixture fails at registration
		if _, err := route.Stub.resolve(ic.fixtures); err != nil {
			return fmt.Errorf("alias @%s: %w", alias, err)
		}
	}

	ic.mu.Lock()
	defer ic.mu.Unlock()

	if old, ok := ic.aliases[alias]; ok {
		ic.removeRoute(old)
	}
	reg := &registration{alias: alias, route: route}
	ic.routes = append(ic.routes, reg)
	ic.aliases[alias] = reg

	ic.logger.Debug().
		Str("alias", alias).
		Str("route", route.String()).
		Bool("stubbed", route.Stub != nil).
		Msg("Registered network expectation")
	return nil
}

// MustRegister is Register for statically valid routes
func (ic *Interceptor) MustRegister(alias string, route Route) {
	if err := ic.Register(alias, route); err != nil {
		panic(err)
	}
}

func (ic *Interceptor) removeRoute(reg *registration) {
	for i, r := range ic.routes {
		if r == reg {
			ic.routes = append(ic.routes[:i], ic.routes[i+1:]...)
			return
		}
	}
}

// Observe is called by the transport for every outgoing request. The most
// recently registered matching route wins.
func (ic *Interceptor) Observe(req Request) Decision {
	ic.mu.Lock()
	defer ic.mu.Unlock()

	for i := len(ic.routes) - 1; i >= 0; i-- {
		reg := ic.routes[i]
		if !reg.route.Matches(req.Method, req.URL) {
			continue
		}

		reg.observed++
		ic.inflight[req.ID] = &pending{
			reg: reg,
			interception: &Interception{
				Alias:   reg.alias,
				Request: req,
				Started: ic.now(),
			},
		}

		d := Decision{Matched: true, Alias: reg.alias}
		if reg.route.Stub != nil {
			f, err := reg.route.Stub.resolve(ic.fixtures)
			if err != nil {
				// Checked at registration, only fails if the fixture vanished
				ic.logger.Error().Err(err).Str("alias", reg.alias).Msg("Failed to resolve stub")
			} else {
				d.Fulfilment = f
			}
		}

		ic.logger.Debug().
			Str("alias", reg.alias).
			Str("method", req.Method).
			Str("url", req.URL).
			Bool("stubbed", d.Fulfilment != nil).
			Msg("Request matched expectation")
		return d
	}
	return Decision{}
}

// Pending reports whether a request ID matched an expectation and has not
// completed yet
func (ic *Interceptor) Pending(requestID string) bool {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	_, ok := ic.inflight[requestID]
	return ok
}

// InFlight returns how many matched requests have not completed yet
func (ic *Interceptor) InFlight() int {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	return len(ic.inflight)
}

// Complete records the response of a matched request. Unknown IDs are ignored.
func (ic *Interceptor) Complete(requestID string, resp Response) {
	ic.mu.Lock()
	defer ic.mu.Unlock()

	p, ok := ic.inflight[requestID]
	if !ok {
		return
	}
	delete(ic.inflight, requestID)

	p.interception.Response = resp
	p.interception.Duration = ic.now().Sub(p.interception.Started)
	p.reg.done = append(p.reg.done, p.interception)

	ic.logger.Debug().
		Str("alias", p.reg.alias).
		Int("status", resp.StatusCode).
		Bool("network_error", resp.NetworkError).
		Int64("duration_ms", p.interception.Duration.Milliseconds()).
		Msg("Aliased request completed")
}

// Count returns how many requests matched alias since it was registered
func (ic *Interceptor) Count(alias string) int {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	if reg, ok := ic.aliases[alias]; ok {
		return reg.observed
	}
	return 0
}

// Wait blocks until a request matching alias has completed and returns it.
// Each registration satisfies exactly one Wait.
func (ic *Interceptor) Wait(ctx context.Context, alias string, timeout time.Duration) (*Interception, error) {
	var (
		result *Interception
		state  error
	)

	err := wait.AwaitCondition(ctx, func(context.Context) error {
		ic.mu.Lock()
		defer ic.mu.Unlock()

		reg, ok := ic.aliases[alias]
		switch {
		case !ok:
			state = ErrAliasNotRegistered
			return state
		case reg.consumed:
			state = ErrAliasConsumed
			return nil
		case len(reg.done) == 0:
			state = ErrWaitTimeout
			return state
		}

		result = reg.done[0]
		reg.done = reg.done[1:]
		reg.consumed = true
		state = nil
		return nil
	}, timeout, ic.interval)

	if err == nil && state == nil {
		return result, nil
	}
	if err == nil {
		err = state
	} else if errors.Is(err, wait.ErrTimeout) {
		err = state
	}

	werr := &WaitError{Alias: alias, Timeout: timeout, Err: err}
	ic.mu.Lock()
	if reg, ok := ic.aliases[alias]; ok {
		werr.Route = reg.route.String()
	}
	ic.mu.Unlock()
	return nil, werr
}

// Reset drops every registration and in-flight request
func (ic *Interceptor) Reset() {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	ic.routes = nil
	ic.aliases = make(map[string]*registration)
	ic.inflight = make(map[string]*pending)
}

// Aliases returns the registered aliases in registration order
func (ic *Interceptor) Aliases() []string {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	out := make([]string, 0, len(ic.routes))
	for _, r := range ic.routes {
		out = append(out, r.alias)
	}
	return out
}
