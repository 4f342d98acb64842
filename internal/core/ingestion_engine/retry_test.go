package ingestion_engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetrySucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	out, err := withRetry(context.Background(), 2, time.Millisecond,
		func(context.Context) (string, error) {
			attempts++
			if attempts < 3 {
				return "", errors.New("transient")
			}
			return "ok", nil
		})

	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 3, attempts)
}

func TestWithRetryExhaustsAttempts(t *testing.T) {
	attempts := 0
	boom := errors.New("boom")

	_, err := withRetry(context.Background(), 2, time.Millisecond,
		func(context.Context) (int, error) {
			attempts++
			return 0, boom
		})

	require.ErrorIs(t, err, boom)
	// One initial attempt plus two retries.
	assert.Equal(t, 3, attempts)
}

func TestWithRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	_, err := withRetry(ctx, 5, time.Hour,
		func(context.Context) (int, error) {
			attempts++
			cancel() // cancel while the first backoff is pending
			return 0, errors.New("transient")
		})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}
