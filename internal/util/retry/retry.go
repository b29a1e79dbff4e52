// Package retry provides a bounded fixed-interval polling combinator.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Poll executes operation up to attempts times, waiting interval between
// attempts. It returns nil as soon as operation succeeds, the last error
// once the attempt budget is exhausted, and the context error if the
// context is cancelled while waiting. There is no backoff: the systems
// being polled (guest DHCP, DNS propagation) do not benefit from one,
// and a fixed interval keeps the wall-clock bound at attempts*interval.
//
// Errors wrapped with Fatal() abort the loop immediately.
func Poll(ctx context.Context, attempts int, interval time.Duration, operation func() error) error {
	if attempts < 1 {
		return fmt.Errorf("attempts must be at least 1, got %d", attempts)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}
		lastErr = err

		if IsFatal(err) {
			return fmt.Errorf("aborting poll on attempt %d: %w", attempt, err)
		}

		if attempt < attempts {
			select {
			case <-ctx.Done():
				return fmt.Errorf("poll cancelled after %d attempts: %w", attempt, ctx.Err())
			case <-time.After(interval):
			}
		}
	}

	return fmt.Errorf("condition not met after %d attempts: %w", attempts, lastErr)
}

// FatalError wraps an error to mark it as fatal (non-retryable).
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return e.Err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Fatal marks an error as fatal so Poll gives up immediately.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

// IsFatal checks if an error is fatal (non-retryable).
func IsFatal(err error) bool {
	var fatalErr *FatalError
	return errors.As(err, &fatalErr)
}
