package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/Ingesta/internal/config"
	db "github.com/markdave123-py/Ingesta/internal/core/database"
	"github.com/markdave123-py/Ingesta/internal/core/ingestion_engine"
	"github.com/markdave123-py/Ingesta/internal/core/llm"
	objectclient "github.com/markdave123-py/Ingesta/internal/core/object-client"
	"github.com/markdave123-py/Ingesta/internal/models"
)

// The worker is the external driver loop the pipeline is designed around:
// it claims pending documents for stage 1 and keeps re-invoking stage 2 in
// bounded calls until every chunk has its embedding. Each invocation is
// small enough to fit a serverless-style execution budget, so progress is
// never lost to a deadline.
func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.LoadConfig()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, err := db.NewDatabaseClient(ctx, cfg)
	if err != nil {
		logger.Error("database init", "err", err)
		os.Exit(1)
	}
	defer store.Close()
	logger.Info("database initialized and ready")

	objClient, err := objectclient.NewS3Client(ctx, cfg)
	if err != nil {
		logger.Error("object storage init", "err", err)
		os.Exit(1)
	}

	embedder, err := llm.NewGeminiEmbedder(ctx, cfg.AIAPIKey, cfg.EmbedModel)
	if err != nil {
		logger.Error("embedder init", "err", err)
		os.Exit(1)
	}
	defer embedder.Close()

	limited := llm.NewRateLimitedEmbedder(embedder, cfg.Pipeline.EmbedRPS)
	extractor := ingestion_engine.NewDocconvExtractor()

	pipeCfg := &ingestion_engine.PipelineConfig{
		Chunk: ingestion_engine.ChunkConfig{
			ChunkSize: cfg.Pipeline.ChunkSize,
			Overlap:   cfg.Pipeline.ChunkOverlap,
		},
		SubBatchSize:    cfg.Pipeline.SubBatchSize,
		MaxBatches:      cfg.Pipeline.MaxBatches,
		MaxEmbedRetries: cfg.Pipeline.MaxEmbedRetries,
		RetryBaseDelay:  time.Duration(cfg.Pipeline.RetryBaseDelayMS) * time.Millisecond,
	}

	coord := ingestion_engine.NewPipelineCoordinator(store, extractor, limited, pipeCfg, logger)

	w := &worker{
		store:       store,
		obj:         objClient,
		coord:       coord,
		maxBatches:  cfg.Pipeline.MaxBatches,
		concurrency: cfg.Pipeline.WorkerConcurrency,
		log:         logger,
	}

	interval := time.Duration(cfg.Pipeline.PollIntervalSec) * time.Second
	logger.Info("ingestion worker started", "poll_interval", interval, "concurrency", w.concurrency)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		w.tick(ctx)
		select {
		case <-ticker.C:
		case <-ctx.Done():
			logger.Info("ingestion worker stopped")
			return
		}
	}
}

type worker struct {
	store       *db.DatabaseClient
	obj         *objectclient.S3Client
	coord       *ingestion_engine.PipelineCoordinator
	maxBatches  int
	concurrency int
	log         *slog.Logger
}

// tick claims one poll's worth of work: pending documents enter stage 1 and
// then drain stage 2; documents stranded in "extracted" (a previous run hit
// its budget or died mid-way) resume stage 2 where they left off.
func (w *worker) tick(ctx context.Context) {
	pending, err := w.store.ListDocumentsByStatus(ctx, models.StatusPending, 16)
	if err != nil {
		w.log.Error("list pending documents", "err", err)
		return
	}
	stranded, err := w.store.ListDocumentsByStatus(ctx, models.StatusExtracted, 16)
	if err != nil {
		w.log.Error("list extracted documents", "err", err)
		return
	}

	docs := append(pending, stranded...)
	if len(docs) == 0 {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for _, doc := range docs {
		g.Go(func() error {
			w.processOne(gctx, doc)
			return nil
		})
	}
	_ = g.Wait()
}

func (w *worker) processOne(ctx context.Context, doc models.Document) {
	if doc.Status == models.StatusPending {
		bucket, key := parseS3URL(doc.StorageURL)
		data, err := w.obj.GetFile(ctx, bucket, key)
		if err != nil {
			w.log.Error("download document", "document_id", doc.ID, "err", err)
			return
		}
		if _, err := w.coord.RunStage1(ctx, doc.ID, data, doc.FileType); err != nil {
			// Stage 1 failures are terminal; the document carries the error
			// message and waits for an explicit resubmission.
			return
		}
	}

	for {
		res, err := w.coord.RunStage2(ctx, doc.ID, w.maxBatches)
		if err != nil {
			var s2 *ingestion_engine.Stage2Error
			if errors.As(err, &s2) && s2.EmbeddedCount > 0 {
				// Partial progress: leave the rest for the next poll.
				return
			}
			w.log.Error("stage 2", "document_id", doc.ID, "err", err)
			return
		}
		if res.RemainingCount == 0 {
			return
		}
	}
}

// parseS3URL extracts the bucket and key from a virtual-hosted-style S3 URL,
// e.g. https://my-bucket.s3.us-east-2.amazonaws.com/path/to/file.pdf.
func parseS3URL(u string) (bucket, key string) {
	hostPath := strings.SplitN(strings.TrimPrefix(u, "https://"), "/", 2)
	host := hostPath[0]
	if len(hostPath) == 2 {
		key = hostPath[1]
	}
	parts := strings.Split(host, ".")
	if len(parts) > 0 {
		bucket = parts[0]
	}
	return bucket, key
}
