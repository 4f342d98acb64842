package ingestion_engine

import (
	"context"
	"time"
)

// withRetry runs fn up to maxRetries+1 times. The n-th retry waits
// n * baseDelay first (1x, 2x, ...), aborting early if ctx is cancelled.
func withRetry[T any](ctx context.Context, maxRetries int, baseDelay time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(time.Duration(attempt) * baseDelay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return zero, ctx.Err()
			}
		}

		out, err := fn(ctx)
		if err == nil {
			return out, nil
		}
		lastErr = err
	}
	return zero, lastErr
}
