package core

import (
	"context"
	"io"

	"github.com/markdave123-py/Ingesta/internal/models"
)

// StatusStore defines the persistence operations the pipeline needs.
// It abstracts Postgres/pgvector so higher layers never depend on a specific DB.
type StatusStore interface {
	CreateDocument(ctx context.Context, doc *models.Document) error
	GetDocumentByID(ctx context.Context, id string) (*models.Document, error)
	ListDocumentsByStatus(ctx context.Context, status string, limit int) ([]models.Document, error)
	UpdateDocumentStatus(ctx context.Context, id string, status string) error

	// MarkDocumentExtracted stores the extracted text and stats and moves the
	// document to the "extracted" status in one write.
	MarkDocumentExtracted(ctx context.Context, id string, text string, wordCount int, pageCount *int) error

	// MarkDocumentFailed moves the document to "failed" and records a
	// human-readable error message.
	MarkDocumentFailed(ctx context.Context, id string, errMsg string) error

	InsertDocumentChunks(ctx context.Context, chunks []models.DocumentChunk) error
	GetChunksByDocument(ctx context.Context, documentID string) ([]models.DocumentChunk, error)

	// ListUnembeddedChunks returns the chunks of a document whose embedding is
	// still null, ordered by chunk index. This is the selection query that makes
	// repeated embedding runs idempotent.
	ListUnembeddedChunks(ctx context.Context, documentID string) ([]models.DocumentChunk, error)

	// UpdateChunkEmbeddings performs the one-time embedding write for a
	// sub-batch of chunks.
	UpdateChunkEmbeddings(ctx context.Context, updates []models.ChunkEmbedding) error

	SearchDocumentChunks(ctx context.Context, docID string, queryVec []float32, limit int) ([]models.DocumentChunk, error)

	Close() error
}

// ObjectClient defines interactions with S3 or any object storage.
// It's abstract so you can replace AWS with MinIO, GCP, etc. easily.
type ObjectClient interface {
	UploadFile(ctx context.Context, bucket, key string, data []byte, contentType string) (url string, err error)
	DeleteFile(ctx context.Context, bucket, key string) error
	GetFile(ctx context.Context, bucket, key string) ([]byte, error)

	GetObjectReader(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}
