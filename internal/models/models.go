package models

import (
	"time"
)

// Document status values. Status only moves forward: pending -> processing ->
// extracted -> completed, except that a partially failed embedding run leaves
// the document in "extracted" so it can be resumed.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusExtracted  = "extracted"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Accepted file types for extraction.
const (
	FileTypePDF  = "pdf"
	FileTypeDOCX = "docx"
	FileTypeTXT  = "txt"
)

// Document represents a user-uploaded file moving through the pipeline.
type Document struct {
	ID            string    `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"user_id"`
	FileName      string    `db:"file_name" json:"file_name"`
	FileType      string    `db:"file_type" json:"file_type"`     // pdf | docx | txt
	StorageURL    string    `db:"storage_url" json:"storage_url"` // S3 URL
	Status        string    `db:"status" json:"status"`           // see Status* constants
	ExtractedText *string   `db:"extracted_text" json:"-"`        // set once stage 1 completes
	WordCount     int       `db:"word_count" json:"word_count"`
	PageCount     *int      `db:"page_count" json:"page_count,omitempty"` // nil for formats without pages
	ErrorMessage  *string   `db:"error_message" json:"error_message,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// DocumentChunk is one bounded, overlapping slice of a document's extracted
// text. Embedding stays nil after stage 1 and is written exactly once by a
// successful embedding sub-batch; the row is otherwise immutable.
type DocumentChunk struct {
	ID         string    `db:"id" json:"id"`
	DocumentID string    `db:"document_id" json:"document_id"`
	Content    string    `db:"content" json:"content"`
	ChunkIndex int       `db:"chunk_index" json:"chunk_index"`
	StartChar  int       `db:"start_char" json:"start_char"`
	EndChar    int       `db:"end_char" json:"end_char"`
	Embedding  []float32 `db:"embedding" json:"embedding,omitempty"` // pgvector column, nil until embedded
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// ChunkEmbedding pairs a chunk id with its computed vector for the one-time
// embedding write.
type ChunkEmbedding struct {
	ChunkID   string
	Embedding []float32
}
