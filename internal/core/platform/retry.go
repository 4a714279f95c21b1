package platform

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// DefaultAttempts is one try plus one retry.
const DefaultAttempts = 2

const maxBackoff = 10 * time.Second

// baseBackoff is a variable so tests can shorten it.
var baseBackoff = 500 * time.Millisecond

type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient marks err as worth retrying. Returns nil for a nil err.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether err, or anything it wraps, was marked with
// Transient.
func IsTransient(err error) bool {
	var t *transientError
	return errors.As(err, &t)
}

// Retry calls fn up to attempts times, sleeping with exponential backoff
// between calls. Only errors marked Transient are retried. The bound is a
// count of attempts, not a deadline.
func Retry(ctx context.Context, attempts int, fn func(ctx context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := range attempts {
		if attempt > 0 {
			if serr := sleepWithContext(ctx, backoff(attempt-1)); serr != nil {
				return fmt.Errorf("cancelled during retry backoff: %w", serr)
			}
		}
		err = fn(ctx)
		if err == nil || !IsTransient(err) {
			return err
		}
	}
	if attempts == 1 {
		return err
	}
	return fmt.Errorf("giving up after %d attempts: %w", attempts, err)
}

func backoff(attempt int) time.Duration {
	d := time.Duration(float64(baseBackoff) * math.Pow(2, float64(attempt)))
	if d > maxBackoff {
		d = maxBackoff
	}
	return d
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
