package ingestion_engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/markdave123-py/Ingesta/internal/core"
	"github.com/markdave123-py/Ingesta/internal/models"
)

// Stage1Result reports a successful extract-and-chunk run.
type Stage1Result struct {
	ChunkCount int `json:"chunk_count"`
	WordCount  int `json:"word_count"`
}

// PipelineCoordinator drives the two-stage ingestion pipeline and owns the
// document status state machine:
//
//	pending -> processing -> extracted -> completed
//	                |             |
//	                v             v
//	              failed        failed (only when a run made no progress)
//
// Stage 1 is atomic from the caller's point of view; stage 2 is a resumable
// loop over bounded invocations driven by an external caller.
type PipelineCoordinator struct {
	store     core.StatusStore
	extractor core.TextExtractor
	batcher   *EmbeddingBatcher
	cfg       *PipelineConfig
	log       *slog.Logger
}

func NewPipelineCoordinator(store core.StatusStore, extractor core.TextExtractor, embedder core.EmbeddingProvider, cfg *PipelineConfig, log *slog.Logger) *PipelineCoordinator {
	if log == nil {
		log = slog.Default()
	}
	cfg = cfg.withDefaults()
	return &PipelineCoordinator{
		store:     store,
		extractor: extractor,
		batcher:   NewEmbeddingBatcher(store, embedder, cfg, log),
		cfg:       cfg,
		log:       log,
	}
}

// RunStage1 extracts text from the uploaded bytes, chunks it, and persists
// the chunk rows without embeddings. Either the document reaches "extracted"
// with its full chunk list in place, or it is marked "failed" with a
// human-readable message and the error is returned. There are no internal
// retries; recovery from a failed stage 1 is an explicit resubmission.
func (p *PipelineCoordinator) RunStage1(ctx context.Context, documentID string, fileBytes []byte, fileType string) (*Stage1Result, error) {
	if err := p.store.UpdateDocumentStatus(ctx, documentID, models.StatusProcessing); err != nil {
		return nil, &PersistenceError{Op: "mark document processing", Err: err}
	}

	extracted, err := p.extractor.Extract(fileBytes, fileType)
	if err != nil {
		p.failStage1(ctx, documentID, err)
		return nil, err
	}

	chunks, err := ChunkText(extracted.Text, p.cfg.Chunk)
	if err != nil {
		p.failStage1(ctx, documentID, err)
		return nil, err
	}

	rows := make([]models.DocumentChunk, len(chunks))
	for i, c := range chunks {
		rows[i] = models.DocumentChunk{
			ID:         uuid.NewString(),
			DocumentID: documentID,
			Content:    c.Content,
			ChunkIndex: c.ChunkIndex,
			StartChar:  c.StartChar,
			EndChar:    c.EndChar,
		}
	}
	if err := p.store.InsertDocumentChunks(ctx, rows); err != nil {
		perr := &PersistenceError{Op: "insert chunks", Err: err}
		p.failStage1(ctx, documentID, perr)
		return nil, perr
	}

	if err := p.store.MarkDocumentExtracted(ctx, documentID, extracted.Text, extracted.WordCount, extracted.PageCount); err != nil {
		return nil, &PersistenceError{Op: "mark document extracted", Err: err}
	}

	p.log.Info("stage 1 complete",
		"document_id", documentID,
		"file_type", fileType,
		"chunks", len(chunks),
		"words", extracted.WordCount,
	)
	return &Stage1Result{ChunkCount: len(chunks), WordCount: extracted.WordCount}, nil
}

// RunStage2 runs one bounded embedding invocation (maxBatches <= 0 selects
// the configured default) and advances the state machine from the result:
//
//   - remaining work hit zero: document moves to "completed";
//   - error after partial progress: document stays "extracted" so a later
//     call can resume — deliberately non-terminal;
//   - error with zero progress: document moves to "failed".
//
// Errors are returned as *Stage2Error so callers can see how much progress
// was committed before the failure. Retrying is always safe: only chunks with
// a null embedding are ever selected.
func (p *PipelineCoordinator) RunStage2(ctx context.Context, documentID string, maxBatches int) (Stage2Result, error) {
	doc, err := p.store.GetDocumentByID(ctx, documentID)
	if err != nil {
		return Stage2Result{}, &PersistenceError{Op: "load document", Err: err}
	}
	if doc == nil {
		return Stage2Result{}, fmt.Errorf("document not found: %s", documentID)
	}

	res, err := p.batcher.EmbedPending(ctx, documentID, maxBatches)
	if err != nil {
		if res.EmbeddedCount > 0 {
			// Partial progress is retryable: the committed sub-batches stand
			// and the document stays resumable instead of being poisoned.
			if uerr := p.store.UpdateDocumentStatus(ctx, documentID, models.StatusExtracted); uerr != nil {
				p.log.Error("keep document retryable", "document_id", documentID, "err", uerr)
			}
			p.log.Warn("stage 2 failed after partial progress",
				"document_id", documentID,
				"embedded", res.EmbeddedCount,
				"remaining", res.RemainingCount,
				"err", err,
			)
		} else {
			if ferr := p.store.MarkDocumentFailed(ctx, documentID, err.Error()); ferr != nil {
				p.log.Error("mark document failed", "document_id", documentID, "err", ferr)
			}
		}
		return res, &Stage2Error{DocumentID: documentID, EmbeddedCount: res.EmbeddedCount, Err: err}
	}

	if res.TotalChunks == 0 {
		// Nothing pending. Promote a document stuck in "extracted" (a previous
		// run may have embedded everything and crashed before the status
		// write); terminal states are left untouched.
		if doc.Status == models.StatusExtracted {
			if err := p.store.UpdateDocumentStatus(ctx, documentID, models.StatusCompleted); err != nil {
				return res, &PersistenceError{Op: "mark document completed", Err: err}
			}
		}
		return res, nil
	}

	if res.RemainingCount == 0 {
		if err := p.store.UpdateDocumentStatus(ctx, documentID, models.StatusCompleted); err != nil {
			return res, &PersistenceError{Op: "mark document completed", Err: err}
		}
		p.log.Info("stage 2 complete", "document_id", documentID, "embedded", res.EmbeddedCount)
	} else {
		p.log.Info("stage 2 progress",
			"document_id", documentID,
			"embedded", res.EmbeddedCount,
			"remaining", res.RemainingCount,
		)
	}
	return res, nil
}

func (p *PipelineCoordinator) failStage1(ctx context.Context, documentID string, cause error) {
	if err := p.store.MarkDocumentFailed(ctx, documentID, cause.Error()); err != nil {
		p.log.Error("mark document failed", "document_id", documentID, "err", err)
	}
	p.log.Warn("stage 1 failed", "document_id", documentID, "err", cause)
}
