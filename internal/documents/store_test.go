package documents

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JustJay7/chamber-desk/internal/database"
	"github.com/JustJay7/chamber-desk/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

func newStore(t *testing.T, maxSize int64) *Store {
	t.Helper()
	dir := t.TempDir()
	db, err := database.Initialize(filepath.Join(dir, "chamber.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return NewStore(db, filepath.Join(dir, "uploads"), maxSize, logger.NewNop())
}

func TestSaveAndOpen(t *testing.T) {
	s := newStore(t, 1<<20)
	ctx := context.Background()

	doc, err := s.Save(ctx, "WP/1/2026", "../../vakalatnama.pdf", bytes.NewReader(pdfBytes))
	require.NoError(t, err)
	assert.Equal(t, "vakalatnama.pdf", doc.FileName)
	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.EqualValues(t, len(pdfBytes), doc.Size)
	assert.Equal(t, ".pdf", filepath.Ext(doc.StoredPath))

	got, rc, err := s.Open(ctx, doc.ID)
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, pdfBytes, body)
	assert.Equal(t, "WP/1/2026", got.CaseID)
}

func TestSaveRejects(t *testing.T) {
	s := newStore(t, 64)
	ctx := context.Background()

	_, err := s.Save(ctx, "", "a.pdf", bytes.NewReader(pdfBytes))
	assert.ErrorIs(t, err, ErrMissingCase)

	_, err = s.Save(ctx, "A", "a.pdf", bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = s.Save(ctx, "A", "big.txt", strings.NewReader(strings.Repeat("a", 65)))
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = s.Save(ctx, "A", "page.html", strings.NewReader("<html><script>alert(1)</script></html>"))
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestSavePlainText(t *testing.T) {
	s := newStore(t, 1024)
	doc, err := s.Save(context.Background(), "A", "notes.txt", strings.NewReader("List of dates and events"))
	require.NoError(t, err)
	assert.Equal(t, ".txt", filepath.Ext(doc.StoredPath))
}

func TestList(t *testing.T) {
	s := newStore(t, 1<<20)
	ctx := context.Background()

	for _, id := range []string{"A", "A", "B"} {
		_, err := s.Save(ctx, id, "doc.pdf", bytes.NewReader(pdfBytes))
		require.NoError(t, err)
	}

	docs, err := s.List(ctx, "A")
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	docs, err = s.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, docs, 3)
}

func TestOpenMissing(t *testing.T) {
	s := newStore(t, 1<<20)
	ctx := context.Background()

	_, _, err := s.Open(ctx, "no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)

	doc, err := s.Save(ctx, "A", "doc.pdf", bytes.NewReader(pdfBytes))
	require.NoError(t, err)
	require.NoError(t, os.Remove(doc.StoredPath))
	_, _, err = s.Open(ctx, doc.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
