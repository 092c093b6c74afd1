// Package wait provides the explicit poll-until-condition primitive used by
// every assertion and network wait in the harness.
package wait

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTimeout is wrapped by every TimeoutError
var ErrTimeout = errors.New("timed out waiting for condition")

// Policy is the retry policy for a suspension point
type Policy struct {
	Timeout  time.Duration
	Interval time.Duration
}

// DefaultPolicy matches the runner's default command timeout
var DefaultPolicy = Policy{Timeout: 10 * time.Second, Interval: 100 * time.Millisecond}

// WithTimeout returns a copy of the policy with a different timeout
func (p Policy) WithTimeout(timeout time.Duration) Policy {
	p.Timeout = timeout
	return p
}

// Await runs AwaitCondition with this policy
func (p Policy) Await(ctx context.Context, predicate func(ctx context.Context) error) error {
	return AwaitCondition(ctx, predicate, p.Timeout, p.Interval)
}

// TimeoutError carries the last predicate failure observed before the deadline
type TimeoutError struct {
	Timeout  time.Duration
	Attempts int
	Last     error
}

func (e *TimeoutError) Error() string {
	if e.Last == nil {
		return fmt.Sprintf("%s after %v (%d attempts)", ErrTimeout, e.Timeout, e.Attempts)
	}
	return fmt.Sprintf("%s after %v (%d attempts): %v", ErrTimeout, e.Timeout, e.Attempts, e.Last)
}

// Unwrap exposes both ErrTimeout and the last predicate error
func (e *TimeoutError) Unwrap() []error {
	if e.Last == nil {
		return []error{ErrTimeout}
	}
	return []error{ErrTimeout, e.Last}
}

// AwaitCondition evaluates predicate immediately and then every interval until
// it returns nil or timeout elapses. Each evaluation gets a context bounded by
// the overall deadline. Cancellation of ctx aborts the wait with ctx's error.
func AwaitCondition(ctx context.Context, predicate func(ctx context.Context) error, timeout, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultPolicy.Interval
	}
	if timeout <= 0 {
		timeout = DefaultPolicy.Timeout
	}

	deadline := time.Now().Add(timeout)
	waitCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	attempts := 0
	var last error
	for {
		attempts++
		last = predicate(waitCtx)
		if last == nil {
			return nil
		}

		if ctx.Err() != nil {
			return fmt.Errorf("wait aborted after %d attempts: %w", attempts, ctx.Err())
		}

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return fmt.Errorf("wait aborted after %d attempts: %w", attempts, ctx.Err())
			}
			return &TimeoutError{Timeout: timeout, Attempts: attempts, Last: last}
		case <-ticker.C:
		}
	}
}

// Retry retries a function until it succeeds or max attempts reached.
// fn always runs at least once.
func Retry(fn func() error, maxAttempts int, delay time.Duration) error {
	var lastErr error
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for i := 0; i < maxAttempts; i++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err
		if i < maxAttempts-1 {
			time.Sleep(delay)
		}
	}

	return fmt.Errorf("retry failed after %d attempts: %w", maxAttempts, lastErr)
}
