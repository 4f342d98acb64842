package ingestion_engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/markdave123-py/Ingesta/internal/core"
	"github.com/markdave123-py/Ingesta/internal/models"
)

// Stage2Result reports the work one embedding invocation performed.
//
// TotalChunks is the size of the unembedded set at call start, not the
// document's full chunk count. RemainingCount = TotalChunks - EmbeddedCount;
// callers loop while it is above zero.
type Stage2Result struct {
	EmbeddedCount  int `json:"embedded_count"`
	RemainingCount int `json:"remaining_count"`
	TotalChunks    int `json:"total_chunks"`
}

// EmbeddingBatcher embeds a document's not-yet-embedded chunks in fixed-size
// sub-batches, persisting each sub-batch immediately so a crash after N
// sub-batches keeps N sub-batches' worth of progress.
type EmbeddingBatcher struct {
	store    core.StatusStore
	embedder core.EmbeddingProvider
	cfg      *PipelineConfig
	log      *slog.Logger
}

func NewEmbeddingBatcher(store core.StatusStore, embedder core.EmbeddingProvider, cfg *PipelineConfig, log *slog.Logger) *EmbeddingBatcher {
	if log == nil {
		log = slog.Default()
	}
	return &EmbeddingBatcher{store: store, embedder: embedder, cfg: cfg.withDefaults(), log: log}
}

// EmbedPending processes at most maxBatches sub-batches of the document's
// unembedded chunks (maxBatches <= 0 selects the configured default).
// Sub-batches run strictly sequentially: one provider call each, retried with
// linear backoff, then persisted before the next sub-batch starts. Because
// selection is always "chunks with null embedding", repeated or concurrent
// calls never re-embed an already-embedded chunk.
//
// On failure the result still reports the sub-batches committed before the
// failing one; those commits stand.
func (b *EmbeddingBatcher) EmbedPending(ctx context.Context, documentID string, maxBatches int) (Stage2Result, error) {
	if maxBatches <= 0 {
		maxBatches = b.cfg.MaxBatches
	}

	pending, err := b.store.ListUnembeddedChunks(ctx, documentID)
	if err != nil {
		return Stage2Result{}, &PersistenceError{Op: "list unembedded chunks", Err: err}
	}

	res := Stage2Result{TotalChunks: len(pending)}
	if len(pending) == 0 {
		return res, nil
	}

	for batch := 0; batch < maxBatches && len(pending) > 0; batch++ {
		size := b.cfg.SubBatchSize
		if size > len(pending) {
			size = len(pending)
		}
		sub := pending[:size]
		pending = pending[size:]

		texts := make([]string, len(sub))
		for i := range sub {
			texts[i] = sub[i].Content
		}

		vecs, err := withRetry(ctx, b.cfg.MaxEmbedRetries, b.cfg.RetryBaseDelay,
			func(ctx context.Context) ([][]float32, error) {
				return b.embedder.EmbedBatch(ctx, texts)
			})
		if err != nil {
			res.RemainingCount = res.TotalChunks - res.EmbeddedCount
			return res, &ProviderError{Err: fmt.Errorf("sub-batch %d of %d: %w", batch+1, maxBatches, err)}
		}
		if len(vecs) != len(sub) {
			res.RemainingCount = res.TotalChunks - res.EmbeddedCount
			return res, &ProviderError{Err: fmt.Errorf("sub-batch %d: got %d vectors for %d texts", batch+1, len(vecs), len(sub))}
		}

		updates := make([]models.ChunkEmbedding, len(sub))
		for i := range sub {
			updates[i] = models.ChunkEmbedding{ChunkID: sub[i].ID, Embedding: vecs[i]}
		}
		if err := b.store.UpdateChunkEmbeddings(ctx, updates); err != nil {
			res.RemainingCount = res.TotalChunks - res.EmbeddedCount
			return res, &PersistenceError{Op: "write chunk embeddings", Err: err}
		}

		res.EmbeddedCount += len(sub)
		b.log.Info("embedded sub-batch",
			"document_id", documentID,
			"sub_batch", batch+1,
			"chunks", len(sub),
			"embedded_total", res.EmbeddedCount,
		)
	}

	res.RemainingCount = res.TotalChunks - res.EmbeddedCount
	return res, nil
}
