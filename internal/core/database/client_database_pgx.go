package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/markdave123-py/Ingesta/internal/config"
	"github.com/markdave123-py/Ingesta/internal/core"
	"github.com/markdave123-py/Ingesta/internal/models"
)

type DatabaseClient struct {
	db *sql.DB
}

var _ core.StatusStore = (*DatabaseClient)(nil)

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (*DatabaseClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Pool settings sized for a small worker fleet.
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func (c *DatabaseClient) CreateDocument(ctx context.Context, doc *models.Document) error {
	if doc == nil {
		return errors.New("nil document")
	}
	const q = `
		INSERT INTO documents
			(id, user_id, file_name, file_type, storage_url, status, word_count, created_at, updated_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, now(), now())
	`
	_, err := c.db.ExecContext(ctx, q,
		doc.ID, doc.UserID, doc.FileName, doc.FileType, doc.StorageURL, doc.Status, doc.WordCount)
	return err
}

func (c *DatabaseClient) GetDocumentByID(ctx context.Context, id string) (*models.Document, error) {
	const q = `
		SELECT id, user_id, file_name, file_type, storage_url, status,
		       extracted_text, word_count, page_count, error_message, created_at, updated_at
		FROM documents
		WHERE id = $1
	`
	var d models.Document
	err := c.db.QueryRowContext(ctx, q, id).Scan(
		&d.ID, &d.UserID, &d.FileName, &d.FileType, &d.StorageURL, &d.Status,
		&d.ExtractedText, &d.WordCount, &d.PageCount, &d.ErrorMessage, &d.CreatedAt, &d.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *DatabaseClient) ListDocumentsByStatus(ctx context.Context, status string, limit int) ([]models.Document, error) {
	const q = `
		SELECT id, user_id, file_name, file_type, storage_url, status,
		       extracted_text, word_count, page_count, error_message, created_at, updated_at
		FROM documents
		WHERE status = $1
		ORDER BY updated_at ASC
		LIMIT $2
	`
	rows, err := c.db.QueryContext(ctx, q, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Document
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(
			&d.ID, &d.UserID, &d.FileName, &d.FileType, &d.StorageURL, &d.Status,
			&d.ExtractedText, &d.WordCount, &d.PageCount, &d.ErrorMessage, &d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) UpdateDocumentStatus(ctx context.Context, id string, status string) error {
	const q = `
		UPDATE documents
		SET status = $2, updated_at = now()
		WHERE id = $1
	`
	res, err := c.db.ExecContext(ctx, q, id, status)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("document not found: %s", id)
	}
	return nil
}

func (c *DatabaseClient) MarkDocumentExtracted(ctx context.Context, id string, text string, wordCount int, pageCount *int) error {
	const q = `
		UPDATE documents
		SET status = $2, extracted_text = $3, word_count = $4, page_count = $5,
		    error_message = NULL, updated_at = now()
		WHERE id = $1
	`
	res, err := c.db.ExecContext(ctx, q, id, models.StatusExtracted, text, wordCount, pageCount)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("document not found: %s", id)
	}
	return nil
}

func (c *DatabaseClient) MarkDocumentFailed(ctx context.Context, id string, errMsg string) error {
	const q = `
		UPDATE documents
		SET status = $2, error_message = $3, updated_at = now()
		WHERE id = $1
	`
	res, err := c.db.ExecContext(ctx, q, id, models.StatusFailed, errMsg)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("document not found: %s", id)
	}
	return nil
}

// InsertDocumentChunks writes a document's chunk rows in a single
// transaction. Embeddings start out null; stage 2 fills them in later.
func (c *DatabaseClient) InsertDocumentChunks(ctx context.Context, chunks []models.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	const q = `
		INSERT INTO document_chunks
			(id, document_id, chunk_index, content, start_char, end_char, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
	`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i := range chunks {
		ch := &chunks[i]
		if _, err := stmt.ExecContext(ctx,
			ch.ID, ch.DocumentID, ch.ChunkIndex, ch.Content, ch.StartChar, ch.EndChar,
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (c *DatabaseClient) GetChunksByDocument(ctx context.Context, documentID string) ([]models.DocumentChunk, error) {
	const q = `
		SELECT id, document_id, chunk_index, content, start_char, end_char, embedding, created_at
		FROM document_chunks
		WHERE document_id = $1
		ORDER BY chunk_index ASC
	`
	rows, err := c.db.QueryContext(ctx, q, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.DocumentChunk
	for rows.Next() {
		var (
			ch  models.DocumentChunk
			emb sql.Null[pgvector.Vector]
		)
		if err := rows.Scan(
			&ch.ID, &ch.DocumentID, &ch.ChunkIndex, &ch.Content, &ch.StartChar, &ch.EndChar, &emb, &ch.CreatedAt,
		); err != nil {
			return nil, err
		}
		if emb.Valid {
			ch.Embedding = emb.V.Slice()
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}

// ListUnembeddedChunks is the stage 2 selection query: only chunks whose
// embedding is still null, in index order. The embedding column is not
// selected since it is null for every returned row.
func (c *DatabaseClient) ListUnembeddedChunks(ctx context.Context, documentID string) ([]models.DocumentChunk, error) {
	const q = `
		SELECT id, document_id, chunk_index, content, start_char, end_char, created_at
		FROM document_chunks
		WHERE document_id = $1 AND embedding IS NULL
		ORDER BY chunk_index ASC
	`
	rows, err := c.db.QueryContext(ctx, q, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.DocumentChunk
	for rows.Next() {
		var ch models.DocumentChunk
		if err := rows.Scan(
			&ch.ID, &ch.DocumentID, &ch.ChunkIndex, &ch.Content, &ch.StartChar, &ch.EndChar, &ch.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}

// UpdateChunkEmbeddings performs the one-time embedding write for a
// sub-batch. The "embedding IS NULL" guard makes concurrent duplicate work
// harmless: the first writer wins and a second semantically equivalent write
// becomes a no-op.
func (c *DatabaseClient) UpdateChunkEmbeddings(ctx context.Context, updates []models.ChunkEmbedding) error {
	if len(updates) == 0 {
		return nil
	}
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	const q = `
		UPDATE document_chunks
		SET embedding = $2
		WHERE id = $1 AND embedding IS NULL
	`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i := range updates {
		vec := pgvector.NewVector(updates[i].Embedding)
		if _, err := stmt.ExecContext(ctx, updates[i].ChunkID, vec); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// SearchDocumentChunks finds top-k similar chunks within a document for a
// query embedding.
func (c *DatabaseClient) SearchDocumentChunks(ctx context.Context, docID string, queryVec []float32, limit int) ([]models.DocumentChunk, error) {
	const q = `
		SELECT id, document_id, chunk_index, content, start_char, end_char, embedding
		FROM document_chunks
		WHERE document_id = $1 AND embedding IS NOT NULL
		ORDER BY embedding <-> $2
		LIMIT $3
	`
	vec := pgvector.NewVector(queryVec)
	rows, err := c.db.QueryContext(ctx, q, docID, vec, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.DocumentChunk
	for rows.Next() {
		var (
			ch  models.DocumentChunk
			emb pgvector.Vector
		)
		if err := rows.Scan(&ch.ID, &ch.DocumentID, &ch.ChunkIndex, &ch.Content, &ch.StartChar, &ch.EndChar, &emb); err != nil {
			return nil, err
		}
		ch.Embedding = emb.Slice()
		out = append(out, ch)
	}
	return out, rows.Err()
}
