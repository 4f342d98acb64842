package llm

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/markdave123-py/Ingesta/internal/core"
)

// RateLimitedEmbedder throttles calls to a wrapped provider so sequential
// sub-batches never overwhelm a rate-limited upstream.
type RateLimitedEmbedder struct {
	inner   core.EmbeddingProvider
	limiter *rate.Limiter
}

var _ core.EmbeddingProvider = (*RateLimitedEmbedder)(nil)

// NewRateLimitedEmbedder allows callsPerSecond provider calls (burst 1).
// Non-positive rates fall back to 1 call per second.
func NewRateLimitedEmbedder(inner core.EmbeddingProvider, callsPerSecond float64) *RateLimitedEmbedder {
	if callsPerSecond <= 0 {
		callsPerSecond = 1
	}
	return &RateLimitedEmbedder{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(callsPerSecond), 1),
	}
}

func (r *RateLimitedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.inner.EmbedBatch(ctx, texts)
}
