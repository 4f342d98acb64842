package ingestion_engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	db "github.com/markdave123-py/Ingesta/internal/core/database"
	"github.com/markdave123-py/Ingesta/internal/models"
)

func seedDocument(t *testing.T, store *db.MemoryStore, status string) string {
	t.Helper()
	doc := &models.Document{
		ID:         uuid.NewString(),
		UserID:     uuid.NewString(),
		FileName:   "report.txt",
		FileType:   models.FileTypeTXT,
		StorageURL: "https://bucket.s3.us-east-2.amazonaws.com/report.txt",
		Status:     status,
	}
	require.NoError(t, store.CreateDocument(context.Background(), doc))
	return doc.ID
}

func newTestCoordinator(store *db.MemoryStore, emb *fakeEmbedder) *PipelineCoordinator {
	return NewPipelineCoordinator(store, NewDocconvExtractor(), emb, testConfig(), nil)
}

func TestRunStage1Success(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemoryStore()
	coord := newTestCoordinator(store, &fakeEmbedder{})
	docID := seedDocument(t, store, models.StatusPending)

	text := strings.Repeat("Every document becomes a set of overlapping chunks. ", 100)
	res, err := coord.RunStage1(ctx, docID, []byte(text), models.FileTypeTXT)
	require.NoError(t, err)
	assert.Greater(t, res.ChunkCount, 1)
	assert.Equal(t, 800, res.WordCount)

	doc, err := store.GetDocumentByID(ctx, docID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusExtracted, doc.Status)
	assert.NotNil(t, doc.ExtractedText)
	assert.Equal(t, 800, doc.WordCount)
	assert.Nil(t, doc.ErrorMessage)

	chunks, err := store.GetChunksByDocument(ctx, docID)
	require.NoError(t, err)
	require.Len(t, chunks, res.ChunkCount)
	for i, c := range chunks {
		assert.Equal(t, i, c.ChunkIndex)
		assert.Equal(t, docID, c.DocumentID)
		assert.Nil(t, c.Embedding)
	}
}

func TestRunStage1TooShortMarksFailed(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemoryStore()
	coord := newTestCoordinator(store, &fakeEmbedder{})
	docID := seedDocument(t, store, models.StatusPending)

	_, err := coord.RunStage1(ctx, docID, []byte("hi"), models.FileTypeTXT)
	require.Error(t, err)

	var exErr *ExtractionError
	assert.ErrorAs(t, err, &exErr)

	doc, err := store.GetDocumentByID(ctx, docID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, doc.Status)
	require.NotNil(t, doc.ErrorMessage)
	assert.NotEmpty(t, *doc.ErrorMessage)
}

func TestRunStage1UnsupportedFormatMarksFailed(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemoryStore()
	coord := newTestCoordinator(store, &fakeEmbedder{})
	docID := seedDocument(t, store, models.StatusPending)

	_, err := coord.RunStage1(ctx, docID, []byte("whatever content"), "epub")
	require.Error(t, err)

	var ufErr *UnsupportedFormatError
	assert.ErrorAs(t, err, &ufErr)

	doc, err := store.GetDocumentByID(ctx, docID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, doc.Status)
}

func TestRunStage2CompletesAcrossInvocations(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemoryStore()
	coord := newTestCoordinator(store, &fakeEmbedder{})
	docID := seedDocument(t, store, models.StatusExtracted)
	seedChunks(t, store, docID, 600)

	// 600 chunks at 250 per invocation: the document stays "extracted"
	// through two partial runs and completes on the third.
	res, err := coord.RunStage2(ctx, docID, 5)
	require.NoError(t, err)
	assert.Equal(t, 350, res.RemainingCount)
	doc, _ := store.GetDocumentByID(ctx, docID)
	assert.Equal(t, models.StatusExtracted, doc.Status)

	res, err = coord.RunStage2(ctx, docID, 5)
	require.NoError(t, err)
	assert.Equal(t, 100, res.RemainingCount)

	res, err = coord.RunStage2(ctx, docID, 5)
	require.NoError(t, err)
	assert.Equal(t, 0, res.RemainingCount)

	doc, err = store.GetDocumentByID(ctx, docID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, doc.Status)
}

func TestRunStage2PartialFailureStaysRetryable(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemoryStore()
	docID := uuid.NewString()

	emb := &fakeEmbedder{failCall: func(call int) error {
		if call > 1 {
			return errors.New("provider unavailable")
		}
		return nil
	}}
	coord := newTestCoordinator(store, emb)

	require.NoError(t, store.CreateDocument(ctx, &models.Document{
		ID: docID, FileType: models.FileTypeTXT, Status: models.StatusExtracted,
	}))
	seedChunks(t, store, docID, 250)

	res, err := coord.RunStage2(ctx, docID, 5)
	require.Error(t, err)

	var s2 *Stage2Error
	require.ErrorAs(t, err, &s2)
	assert.Equal(t, 50, s2.EmbeddedCount)
	assert.Equal(t, 50, res.EmbeddedCount)

	// The document is not poisoned: it stays resumable with the first
	// sub-batch's embeddings committed.
	doc, err := store.GetDocumentByID(ctx, docID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusExtracted, doc.Status)

	left, err := store.ListUnembeddedChunks(ctx, docID)
	require.NoError(t, err)
	assert.Len(t, left, 200)
}

func TestRunStage2ZeroProgressMarksFailed(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemoryStore()
	emb := &fakeEmbedder{failCall: func(int) error {
		return errors.New("invalid api key")
	}}
	coord := newTestCoordinator(store, emb)
	docID := seedDocument(t, store, models.StatusExtracted)
	seedChunks(t, store, docID, 20)

	_, err := coord.RunStage2(ctx, docID, 5)
	require.Error(t, err)

	var s2 *Stage2Error
	require.ErrorAs(t, err, &s2)
	assert.Zero(t, s2.EmbeddedCount)

	doc, err := store.GetDocumentByID(ctx, docID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, doc.Status)
	require.NotNil(t, doc.ErrorMessage)
	assert.Contains(t, *doc.ErrorMessage, "invalid api key")
}

func TestRunStage2NoOpOnCompletedDocument(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemoryStore()
	emb := &fakeEmbedder{}
	coord := newTestCoordinator(store, emb)
	docID := seedDocument(t, store, models.StatusCompleted)

	res, err := coord.RunStage2(ctx, docID, 5)
	require.NoError(t, err)
	assert.Equal(t, Stage2Result{}, res)
	assert.Zero(t, emb.callCount())

	doc, err := store.GetDocumentByID(ctx, docID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, doc.Status)
}

func TestRunStage2PromotesDrainedExtractedDocument(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemoryStore()
	coord := newTestCoordinator(store, &fakeEmbedder{})

	// Everything already embedded, but a previous run died before the final
	// status write.
	docID := seedDocument(t, store, models.StatusExtracted)

	res, err := coord.RunStage2(ctx, docID, 5)
	require.NoError(t, err)
	assert.Equal(t, Stage2Result{}, res)

	doc, err := store.GetDocumentByID(ctx, docID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, doc.Status)
}

func TestRunStage2UnknownDocument(t *testing.T) {
	store := db.NewMemoryStore()
	coord := newTestCoordinator(store, &fakeEmbedder{})

	_, err := coord.RunStage2(context.Background(), uuid.NewString(), 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
