package browser

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
)

// ErrUncaughtException is wrapped when the page throws an exception that is
// not on the benign list
var ErrUncaughtException = errors.New("uncaught exception in page")

// DefaultIgnorePatterns are page exceptions raised by expected validation and
// auth failures surfacing as unhandled promise rejections
var DefaultIgnorePatterns = []string{
	`Request failed with status code 422`,
	`Request failed with status code 401`,
}

// ExceptionGuard records uncaught page exceptions, swallowing those that match
// a benign pattern
type ExceptionGuard struct {
	logger   arbor.ILogger
	patterns []*regexp.Regexp

	mu         sync.Mutex
	unexpected []string
	ignored    int
}

// NewExceptionGuard compiles the ignore patterns
func NewExceptionGuard(patterns []string, logger arbor.ILogger) (*ExceptionGuard, error) {
	g := &ExceptionGuard{logger: logger}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exception pattern %q: %w", p, err)
		}
		g.patterns = append(g.patterns, re)
	}
	return g, nil
}

// Observe classifies one exception message and reports whether it was ignored
func (g *ExceptionGuard) Observe(message string) bool {
	for _, re := range g.patterns {
		if re.MatchString(message) {
			g.mu.Lock()
			g.ignored++
			g.mu.Unlock()
			g.logger.Debug().Str("exception", message).Msg("Ignoring benign page exception")
			return true
		}
	}

	g.mu.Lock()
	g.unexpected = append(g.unexpected, message)
	g.mu.Unlock()
	g.logger.Warn().Str("exception", message).Msg("Uncaught page exception")
	return false
}

// Err returns an error describing every unexpected exception seen so far
func (g *ExceptionGuard) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.unexpected) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUncaughtException, strings.Join(g.unexpected, "; "))
}

// Ignored returns how many exceptions matched a benign pattern
func (g *ExceptionGuard) Ignored() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ignored
}

// Reset forgets recorded exceptions
func (g *ExceptionGuard) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.unexpected = nil
	g.ignored = 0
}

// Attach feeds Runtime.exceptionThrown events from the browser into the guard
func (g *ExceptionGuard) Attach(ctx context.Context) {
	chromedp.ListenTarget(ctx, func(ev interface{}) {
		if e, ok := ev.(*runtime.EventExceptionThrown); ok {
			g.Observe(exceptionMessage(e.ExceptionDetails))
		}
	})
}

func exceptionMessage(details *runtime.ExceptionDetails) string {
	if details == nil {
		return ""
	}
	if details.Exception != nil && details.Exception.Description != "" {
		return details.Exception.Description
	}
	return details.Text
}
