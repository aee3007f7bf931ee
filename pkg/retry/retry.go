// Package retry provides bounded waiting primitives for calls into the embedded SDK.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrTimeout is returned by WithTimeout when the deadline passes first
	ErrTimeout = errors.New("operation timed out")

	// ErrPollExhausted is returned by Poll when every attempt came back negative
	ErrPollExhausted = errors.New("poll attempts exhausted")
)

// Options controls Do
type Options struct {
	// Retries is the number of extra attempts after the first one
	Retries int
	// Delay is the wait before the first retry
	Delay time.Duration
	// Backoff doubles the delay after every attempt
	Backoff bool
	// MaxDelay caps the delay when non-zero
	MaxDelay time.Duration
	// Logger receives one entry per failed attempt when set
	Logger ectologger.Logger
}

// DefaultOptions returns three retries one second apart
func DefaultOptions() Options {
	return Options{
		Retries: 3,
		Delay:   time.Second,
	}
}

// WithTimeout runs fn with a deadline. When fn does not return in time the
// result is ErrTimeout wrapped with message.
func WithTimeout[T any](ctx context.Context, timeout time.Duration, message string, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)
	go func() {
		value, err := fn(ctx)
		done <- result{value: value, err: err}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		var zero T
		if message == "" {
			message = "operation"
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, fmt.Errorf("%s: %w after %s", message, ErrTimeout, timeout)
		}
		return zero, ctx.Err()
	}
}

// Do calls fn until it succeeds, at most opts.Retries+1 times. The last error is returned.
func Do[T any](ctx context.Context, opts Options, fn func(ctx context.Context) (T, error)) (T, error) {
	var lastErr error
	for attempt := 0; attempt <= opts.Retries; attempt++ {
		value, err := fn(ctx)
		if err == nil {
			return value, nil
		}
		lastErr = err

		if attempt == opts.Retries {
			break
		}

		wait := Delay(opts, attempt)
		if opts.Logger != nil {
			opts.Logger.WithContext(ctx).WithError(err).Debugf("Attempt %d/%d failed, retrying in %s", attempt+1, opts.Retries+1, wait)
		}
		if err := Sleep(ctx, wait); err != nil {
			var zero T
			return zero, err
		}
	}

	var zero T
	return zero, lastErr
}

// Delay returns the wait after the given zero-based attempt
func Delay(opts Options, attempt int) time.Duration {
	wait := opts.Delay
	if opts.Backoff {
		wait = opts.Delay * time.Duration(1<<attempt)
	}
	if opts.MaxDelay > 0 && wait > opts.MaxDelay {
		wait = opts.MaxDelay
	}
	return wait
}

// Poll calls check every interval until it reports true, at most maxAttempts times
func Poll(ctx context.Context, interval time.Duration, maxAttempts int, check func(ctx context.Context) (bool, error)) error {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		ok, err := check(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if attempt == maxAttempts {
			break
		}
		if err := Sleep(ctx, interval); err != nil {
			return err
		}
	}
	return fmt.Errorf("%w after %d attempts", ErrPollExhausted, maxAttempts)
}

// Sleep waits for d or until ctx is done
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Sequential runs tasks one after another and stops at the first error
func Sequential[T any](ctx context.Context, tasks []func(ctx context.Context) (T, error)) ([]T, error) {
	results := make([]T, 0, len(tasks))
	for i, task := range tasks {
		value, err := task(ctx)
		if err != nil {
			return results, fmt.Errorf("task %d: %w", i, err)
		}
		results = append(results, value)
	}
	return results, nil
}

// WithConcurrencyLimit runs tasks with at most limit in flight. Results keep task order.
func WithConcurrencyLimit[T any](ctx context.Context, limit int, tasks []func(ctx context.Context) (T, error)) ([]T, error) {
	results := make([]T, len(tasks))
	if limit < 1 {
		limit = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, task := range tasks {
		g.Go(func() error {
			value, err := task(gctx)
			if err != nil {
				return fmt.Errorf("task %d: %w", i, err)
			}
			results[i] = value
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
