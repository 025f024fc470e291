// Package documents stores files uploaded against a brief.
package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/JustJay7/chamber-desk/internal/database"
	"github.com/JustJay7/chamber-desk/pkg/logger"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrUnsupportedType = errors.New("unsupported document type")
	ErrTooLarge        = errors.New("document exceeds size limit")
	ErrEmpty           = errors.New("document is empty")
	ErrNotFound        = errors.New("document not found")
	ErrMissingCase     = errors.New("case id is required")
)

// allowed maps accepted MIME types to the extension used on disk
var allowed = map[string]string{
	"application/pdf": ".pdf",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
	"application/msword": ".doc",
	"text/plain":         ".txt",
	"image/png":          ".png",
	"image/jpeg":         ".jpg",
}

// Store keeps document bytes on disk and metadata in the database
type Store struct {
	db      *gorm.DB
	dir     string
	maxSize int64
	logger  *logger.Logger
}

func NewStore(db *gorm.DB, dir string, maxSize int64, log *logger.Logger) *Store {
	return &Store{db: db, dir: dir, maxSize: maxSize, logger: log}
}

// Save sniffs, stores and records a document
func (s *Store) Save(ctx context.Context, caseID, fileName string, r io.Reader) (*database.Document, error) {
	caseID = strings.TrimSpace(caseID)
	if caseID == "" {
		return nil, ErrMissingCase
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if int64(len(data)) > s.maxSize {
		return nil, ErrTooLarge
	}

	mtype := mimetype.Detect(data)
	ext, ok := extensionFor(mtype)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, mtype.String())
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	doc := &database.Document{
		ID:          uuid.New().String(),
		CaseID:      caseID,
		FileName:    filepath.Base(fileName),
		ContentType: mtype.String(),
		Size:        int64(len(data)),
	}
	doc.StoredPath = filepath.Join(s.dir, doc.ID+ext)

	if err := os.WriteFile(doc.StoredPath, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to save file: %w", err)
	}
	if err := s.db.WithContext(ctx).Create(doc).Error; err != nil {
		os.Remove(doc.StoredPath)
		return nil, fmt.Errorf("failed to record document: %w", err)
	}

	s.logger.Info("Document uploaded", "id", doc.ID, "case_id", caseID, "type", doc.ContentType, "size", doc.Size)
	return doc, nil
}

// List returns documents for caseID, or all documents when caseID is empty
func (s *Store) List(ctx context.Context, caseID string) ([]database.Document, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC")
	if caseID = strings.TrimSpace(caseID); caseID != "" {
		q = q.Where("case_id = ?", caseID)
	}
	var docs []database.Document
	if err := q.Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}

// Open returns a document's metadata and a reader over its bytes
func (s *Store) Open(ctx context.Context, id string) (*database.Document, io.ReadSeekCloser, error) {
	var doc database.Document
	err := s.db.WithContext(ctx).First(&doc, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load document: %w", err)
	}

	f, err := os.Open(doc.StoredPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open document: %w", err)
	}
	return &doc, f, nil
}

// extensionFor maps a detected type to the extension for accepted types
func extensionFor(m *mimetype.MIME) (string, bool) {
	for mime, ext := range allowed {
		if m.Is(mime) {
			return ext, true
		}
	}
	return "", false
}
