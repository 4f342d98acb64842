package core

import "context"

// EmbeddingProvider computes vector embeddings for a batch of texts in a
// single upstream call. Implementations are assumed fallible (network,
// rate limits); retry policy belongs to the caller.
type EmbeddingProvider interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}
