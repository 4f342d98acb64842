package db

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/markdave123-py/Ingesta/internal/core"
	"github.com/markdave123-py/Ingesta/internal/models"
)

// MemoryStore is an in-memory StatusStore for tests and local runs. It
// mirrors the Postgres client's semantics, including the null-embedding
// selection and the write-once embedding guard.
type MemoryStore struct {
	mu     sync.RWMutex
	docs   map[string]*models.Document
	chunks map[string][]*models.DocumentChunk // by document id, index order
}

var _ core.StatusStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:   make(map[string]*models.Document),
		chunks: make(map[string][]*models.DocumentChunk),
	}
}

func (s *MemoryStore) CreateDocument(_ context.Context, doc *models.Document) error {
	if doc == nil {
		return fmt.Errorf("nil document")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[doc.ID]; ok {
		return fmt.Errorf("document already exists: %s", doc.ID)
	}
	cp := *doc
	now := time.Now()
	cp.CreatedAt = now
	cp.UpdatedAt = now
	s.docs[doc.ID] = &cp
	return nil
}

func (s *MemoryStore) GetDocumentByID(_ context.Context, id string) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, nil
	}
	cp := *doc
	return &cp, nil
}

func (s *MemoryStore) ListDocumentsByStatus(_ context.Context, status string, limit int) ([]models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Document
	for _, doc := range s.docs {
		if doc.Status == status {
			out = append(out, *doc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) UpdateDocumentStatus(_ context.Context, id string, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return fmt.Errorf("document not found: %s", id)
	}
	doc.Status = status
	doc.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) MarkDocumentExtracted(_ context.Context, id string, text string, wordCount int, pageCount *int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return fmt.Errorf("document not found: %s", id)
	}
	doc.Status = models.StatusExtracted
	doc.ExtractedText = &text
	doc.WordCount = wordCount
	doc.PageCount = pageCount
	doc.ErrorMessage = nil
	doc.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) MarkDocumentFailed(_ context.Context, id string, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return fmt.Errorf("document not found: %s", id)
	}
	doc.Status = models.StatusFailed
	doc.ErrorMessage = &errMsg
	doc.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) InsertDocumentChunks(_ context.Context, chunks []models.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range chunks {
		cp := chunks[i]
		cp.CreatedAt = time.Now()
		s.chunks[cp.DocumentID] = append(s.chunks[cp.DocumentID], &cp)
	}
	for docID := range s.chunks {
		list := s.chunks[docID]
		sort.Slice(list, func(i, j int) bool { return list[i].ChunkIndex < list[j].ChunkIndex })
	}
	return nil
}

func (s *MemoryStore) GetChunksByDocument(_ context.Context, documentID string) ([]models.DocumentChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.DocumentChunk
	for _, ch := range s.chunks[documentID] {
		out = append(out, *ch)
	}
	return out, nil
}

func (s *MemoryStore) ListUnembeddedChunks(_ context.Context, documentID string) ([]models.DocumentChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.DocumentChunk
	for _, ch := range s.chunks[documentID] {
		if ch.Embedding == nil {
			out = append(out, *ch)
		}
	}
	return out, nil
}

func (s *MemoryStore) UpdateChunkEmbeddings(_ context.Context, updates []models.ChunkEmbedding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byID := make(map[string][]float32, len(updates))
	for _, u := range updates {
		byID[u.ChunkID] = u.Embedding
	}
	for _, list := range s.chunks {
		for _, ch := range list {
			if vec, ok := byID[ch.ID]; ok && ch.Embedding == nil {
				ch.Embedding = vec
			}
		}
	}
	return nil
}

func (s *MemoryStore) SearchDocumentChunks(_ context.Context, docID string, queryVec []float32, limit int) ([]models.DocumentChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		chunk models.DocumentChunk
		score float64
	}
	var candidates []scored
	for _, ch := range s.chunks[docID] {
		if ch.Embedding == nil {
			continue
		}
		candidates = append(candidates, scored{chunk: *ch, score: cosineSimilarity(queryVec, ch.Embedding)})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	out := make([]models.DocumentChunk, len(candidates))
	for i, c := range candidates {
		out[i] = c.chunk
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
