package llm

import (
	"context"
	"time"
)

// withRetry runs fn up to attempts times with exponential backoff between
// failures, starting at base and capped at maxWait. The last error is
// returned once attempts are exhausted; context cancellation stops the loop
// early.
func withRetry(ctx context.Context, attempts int, base, maxWait time.Duration, fn func() error) error {
	var err error
	wait := base
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
		if wait > maxWait {
			wait = maxWait
		}
	}
	return err
}
