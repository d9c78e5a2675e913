package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"DF-PROPOSAL/internal/render"
	"DF-PROPOSAL/internal/view"

	"github.com/rs/zerolog/log"
)

// ExportService renders PDFs on demand and caches them on local disk, keyed
// by document and revision. Stale files are removed by the cleanup sweeper.
type ExportService struct {
	renderer render.PDFRenderer
	dir      string
}

func NewExportService(renderer render.PDFRenderer, dir string) *ExportService {
	return &ExportService{renderer: renderer, dir: dir}
}

func (s *ExportService) PDF(ctx context.Context, v *view.Document) ([]byte, error) {
	path := s.cachePath(v)
	if data, err := os.ReadFile(path); err == nil {
		return data, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Str("path", path).Msg("Failed to read cached export")
	}

	data, err := s.renderer.RenderPDF(ctx, v)
	if err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}

	if err := s.store(path, data); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to cache export")
	}
	return data, nil
}

func (s *ExportService) cachePath(v *view.Document) string {
	sum := sha256.Sum256([]byte(v.Revision))
	return filepath.Join(s.dir, fmt.Sprintf("%s_%s.pdf", v.ID, hex.EncodeToString(sum[:8])))
}

func (s *ExportService) store(path string, data []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, ".export-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
