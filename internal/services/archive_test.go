package services

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"DF-PROPOSAL/internal/apperr"
	"DF-PROPOSAL/internal/storage"
	"DF-PROPOSAL/internal/view"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRenderer struct {
	calls int
}

func (r *fakeRenderer) RenderPDF(_ context.Context, doc *view.Document) ([]byte, error) {
	r.calls++
	return []byte("%PDF-" + doc.Number), nil
}

type memoryStore struct {
	objects map[string][]byte
}

func (m *memoryStore) UploadFile(_ context.Context, reader io.Reader, objectName, _ string) (*storage.UploadResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	m.objects[objectName] = data
	return &storage.UploadResult{ObjectName: objectName, Size: int64(len(data))}, nil
}

func (m *memoryStore) GetSignedURL(objectName string, _ time.Duration) (string, error) {
	return "https://signed.example.com/" + objectName, nil
}

func TestArchiveAcceptedDocument(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	store := &memoryStore{objects: map[string][]byte{}}
	archive := NewArchiveService(f.db, f.access, &fakeRenderer{}, store)

	doc, token := f.sent(t)
	_, err := archive.SignedURL(ctx, owner, doc.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	before, err := f.access.Resolve(ctx, token)
	require.NoError(t, err)

	require.NoError(t, archive.Archive(ctx, doc.ID))
	name := storage.ArchiveObjectName(doc.ID, doc.Number, testNow)
	assert.Equal(t, []byte("%PDF-PRO-0001"), store.objects[name])

	url, err := archive.SignedURL(ctx, owner, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://signed.example.com/"+name, url)

	after, err := f.access.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, before.Revision, after.Revision)
}

func TestExportCachesByRevision(t *testing.T) {
	dir := t.TempDir()
	renderer := &fakeRenderer{}
	export := NewExportService(renderer, dir)
	v := &view.Document{ID: "doc-1", Revision: "r1", Number: "PRO-0001"}

	first, err := export.PDF(t.Context(), v)
	require.NoError(t, err)
	second, err := export.PDF(t.Context(), v)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, renderer.calls)

	v.Revision = "r2"
	_, err = export.PDF(t.Context(), v)
	require.NoError(t, err)
	assert.Equal(t, 2, renderer.calls)

	files, err := filepath.Glob(filepath.Join(dir, "doc-1_*.pdf"))
	require.NoError(t, err)
	assert.Len(t, files, 2)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
