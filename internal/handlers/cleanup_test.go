package handlers

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanupRemovesOnlyStaleExports(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, "old.pdf")
	fresh := filepath.Join(dir, "new.pdf")
	require.NoError(t, os.WriteFile(stale, []byte("%PDF-"), 0o644))
	require.NoError(t, os.WriteFile(fresh, []byte("%PDF-"), 0o644))
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(stale, past, past))

	fcs := NewFileCleanupService(24*time.Hour, dir, filepath.Join(dir, "missing"))
	fcs.cleanupOldFiles()

	assert.NoFileExists(t, stale)
	assert.FileExists(t, fresh)
}
