package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestArchiveObjectName(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "documents/doc-1/1772366400_PRO-0001.pdf", ArchiveObjectName("doc-1", "PRO-0001", at))
	assert.Equal(t, "documents/doc-1/1772366400_a_b.pdf", ArchiveObjectName("doc-1", "a/ b", at))
}
