// Package intercept declares expected HTTP calls under an alias, optionally
// answers them with canned responses, and lets tests block until an aliased
// call has completed.
package intercept

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// AnyMethod matches every HTTP method
const AnyMethod = "*"

// Stub is a canned response substituted for the real backend
type Stub struct {
	StatusCode        int
	Body              interface{}
	Fixture           string
	Headers           map[string]string
	Delay             time.Duration
	ForceNetworkError bool
}

// Route is a method + URL glob, e.g. POST **/users/login
type Route struct {
	Method  string
	Pattern string
	Stub    *Stub
}

// Matches reports whether a request is covered by the route. The glob is
// tried against the full URL and against its path, ignoring any query string.
func (r Route) Matches(method, rawURL string) bool {
	if r.Method != "" && r.Method != AnyMethod && !strings.EqualFold(r.Method, method) {
		return false
	}

	target := rawURL
	if i := strings.IndexAny(target, "?#"); i >= 0 {
		target = target[:i]
	}
	if ok, _ := doublestar.Match(r.Pattern, target); ok {
		return true
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	ok, _ := doublestar.Match(r.Pattern, u.Path)
	return ok
}

func (r Route) String() string {
	method := r.Method
	if method == "" {
		method = AnyMethod
	}
	return method + " " + r.Pattern
}

// Validate checks the route's glob
func (r Route) Validate() error {
	if r.Pattern == "" {
		return fmt.Errorf("route has no URL pattern")
	}
	if !doublestar.ValidatePattern(r.Pattern) {
		return fmt.Errorf("invalid URL pattern %q", r.Pattern)
	}
	return nil
}

// Fulfilment is a stub resolved to concrete bytes
type Fulfilment struct {
	StatusCode   int
	Headers      map[string]string
	Body         []byte
	Delay        time.Duration
	NetworkError bool
}

// FixtureLoader reads a named fixture file
type FixtureLoader func(name string) ([]byte, error)

// resolve turns a stub into a fulfilment, loading fixtures and encoding bodies
func (s *Stub) resolve(load FixtureLoader) (*Fulfilment, error) {
	f := &Fulfilment{
		StatusCode:   s.StatusCode,
		Headers:      map[string]string{},
		Delay:        s.Delay,
		NetworkError: s.ForceNetworkError,
	}
	if f.StatusCode == 0 {
		f.StatusCode = http.StatusOK
	}
	for k, v := range s.Headers {
		f.Headers[k] = v
	}

	switch {
	case s.ForceNetworkError:
		return f, nil
	case s.Fixture != "":
		if load == nil {
			return nil, fmt.Errorf("stub uses fixture %q but no fixture loader is configured", s.Fixture)
		}
		body, err := load(s.Fixture)
		if err != nil {
			return nil, fmt.Errorf("failed to load fixture %q: %w", s.Fixture, err)
		}
		f.Body = body
	case s.Body != nil:
		switch b := s.Body.(type) {
		case []byte:
			f.Body = b
		case string:
			f.Body = []byte(b)
		default:
			body, err := json.Marshal(b)
			if err != nil {
				return nil, fmt.Errorf("failed to encode stub body: %w", err)
			}
			f.Body = body
		}
	}

	if _, ok := f.Headers["Content-Type"]; !ok {
		f.Headers["Content-Type"] = "application/json; charset=utf-8"
	}
	return f, nil
}
