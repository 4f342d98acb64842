package services

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/markdave123-py/Ingesta/internal/core"
	"github.com/markdave123-py/Ingesta/internal/models"
)

// DocumentService is the uploader side of the pipeline: it stores the raw
// bytes in object storage and creates the pending document row that stage 1
// later picks up.
type DocumentService struct {
	store   core.StatusStore
	storage core.ObjectClient
	bucket  string
}

func NewDocumentService(store core.StatusStore, storage core.ObjectClient, bucket string) *DocumentService {
	return &DocumentService{store: store, storage: storage, bucket: bucket}
}

// UploadAndCreate uploads the file and records a pending document. The file
// type is derived from the file name extension and validated against the
// accepted set before anything is written.
func (s *DocumentService) UploadAndCreate(ctx context.Context, userID, filename string, data []byte) (*models.Document, error) {
	fileType, contentType, err := fileTypeFor(filename)
	if err != nil {
		return nil, err
	}

	docID := uuid.NewString()
	key := s.objectKey(userID, docID, filename)

	url, err := s.storage.UploadFile(ctx, s.bucket, key, data, contentType)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", filename, err)
	}

	doc := &models.Document{
		ID:         docID,
		UserID:     userID,
		FileName:   filename,
		FileType:   fileType,
		StorageURL: url,
		Status:     models.StatusPending,
	}
	if err := s.store.CreateDocument(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *DocumentService) Get(ctx context.Context, id string) (*models.Document, error) {
	return s.store.GetDocumentByID(ctx, id)
}

func (s *DocumentService) objectKey(userID, docID, filename string) string {
	base := strings.ReplaceAll(path.Base(filename), " ", "_")
	return path.Join("documents", userID, docID, base)
}

func fileTypeFor(filename string) (fileType, contentType string, err error) {
	switch strings.ToLower(strings.TrimPrefix(path.Ext(filename), ".")) {
	case "pdf":
		return models.FileTypePDF, "application/pdf", nil
	case "docx":
		return models.FileTypeDOCX, "application/vnd.openxmlformats-officedocument.wordprocessingml.document", nil
	case "txt":
		return models.FileTypeTXT, "text/plain", nil
	default:
		return "", "", fmt.Errorf("unsupported file extension: %s", path.Ext(filename))
	}
}
