// Package retry runs an operation with a per-attempt timeout, a bounded
// number of attempts and a fixed delay between them.
package retry

import (
	"context"
	"time"
)

// Defaults applied to zero-valued AttemptTimeout and MaxAttempts.
// DefaultDelay is the RETRY_DELAY default; Do leaves a zero Delay at zero.
const (
	DefaultAttemptTimeout = 5 * time.Second
	DefaultMaxAttempts    = 3
	DefaultDelay          = 1 * time.Second
)

// Options configures Do.
type Options struct {
	// AttemptTimeout bounds a single attempt. Expiry cancels only that attempt.
	AttemptTimeout time.Duration

	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// Delay is the fixed wait between attempts. Zero or negative retries
	// immediately.
	Delay time.Duration

	// ShouldRetry decides whether err warrants another attempt.
	// Nil retries every error.
	ShouldRetry func(err error) bool

	// OnRetry is called before each wait with the failed attempt number.
	OnRetry func(attempt int, err error)
}

func (o Options) withDefaults() Options {
	if o.AttemptTimeout <= 0 {
		o.AttemptTimeout = DefaultAttemptTimeout
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.Delay < 0 {
		o.Delay = 0
	}
	return o
}

// Do calls fn until it succeeds, attempts are exhausted, ShouldRetry
// rejects the error or ctx is done. It returns the last error observed.
//
// Each attempt receives a child context that expires after AttemptTimeout.
func Do[T any](ctx context.Context, opts Options, fn func(ctx context.Context) (T, error)) (T, error) {
	opts = opts.withDefaults()

	var zero T
	var lastErr error
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		v, err := runAttempt(ctx, opts.AttemptTimeout, fn)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if ctx.Err() != nil || attempt == opts.MaxAttempts {
			break
		}
		if opts.ShouldRetry != nil && !opts.ShouldRetry(err) {
			break
		}
		if opts.OnRetry != nil {
			opts.OnRetry(attempt, err)
		}

		timer := time.NewTimer(opts.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}
	}

	return zero, lastErr
}

// result carries one attempt's outcome across the goroutine boundary.
type result[T any] struct {
	v   T
	err error
}

// runAttempt runs fn under its own deadline. An fn that ignores its context
// is abandoned when the deadline passes; its result is discarded.
func runAttempt[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan result[T], 1)
	go func() {
		v, err := fn(attemptCtx)
		done <- result[T]{v: v, err: err}
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-attemptCtx.Done():
		var zero T
		return zero, attemptCtx.Err()
	}
}
