package guestbook

import (
	"context"
	"fmt"
	"time"

	"github.com/runnerr0/guestbook/internal/logger"
)

// RetryPolicy retries a failed operation a fixed number of times, doubling
// the delay after each failure.
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
}

// Do runs fn until it succeeds, the attempts run out, or ctx is done.
func (p RetryPolicy) Do(ctx context.Context, op string, fn func() error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	delay := p.Delay

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		logger.FromContext(ctx).Warn("retrying",
			"op", op,
			"attempt", attempt,
			"of", attempts,
			"delay", delay,
			"error", lastErr.Error(),
		)
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", op, ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}
	return fmt.Errorf("%s failed after %d attempts: %w", op, attempts, lastErr)
}
