package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"DF-PROPOSAL/internal/apperr"
	"DF-PROPOSAL/internal/models"
	"DF-PROPOSAL/internal/render"
	"DF-PROPOSAL/internal/storage"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const signedURLExpiry = 15 * time.Minute

// BlobStore is the object storage the archive writes to.
type BlobStore interface {
	UploadFile(ctx context.Context, reader io.Reader, objectName, contentType string) (*storage.UploadResult, error)
	GetSignedURL(objectName string, expiry time.Duration) (string, error)
}

// ArchiveService keeps the PDF of every accepted document in object storage.
type ArchiveService struct {
	db       *gorm.DB
	access   *AccessService
	renderer render.PDFRenderer
	store    BlobStore
}

func NewArchiveService(db *gorm.DB, access *AccessService, renderer render.PDFRenderer, store BlobStore) *ArchiveService {
	return &ArchiveService{db: db, access: access, renderer: renderer, store: store}
}

func (s *ArchiveService) Archive(ctx context.Context, docID string) error {
	v, err := s.access.View(ctx, docID)
	if err != nil {
		return err
	}
	pdf, err := s.renderer.RenderPDF(ctx, v)
	if err != nil {
		return fmt.Errorf("failed to render archive: %w", err)
	}

	objectName := storage.ArchiveObjectName(docID, v.Number, nowFn())
	result, err := s.store.UploadFile(ctx, bytes.NewReader(pdf), objectName, "application/pdf")
	if err != nil {
		return fmt.Errorf("failed to upload archive: %w", err)
	}

	// UpdateColumn leaves updated_at alone so the view revision is unchanged.
	if err := s.db.WithContext(ctx).Model(&models.Document{}).
		Where("id = ?", docID).
		UpdateColumn("archive_path", result.ObjectName).Error; err != nil {
		return fmt.Errorf("failed to record archive path: %w", err)
	}

	log.Info().Str("document_id", docID).Str("object", result.ObjectName).Int64("size", result.Size).Msg("Document archived")
	return nil
}

// SignedURL returns a short-lived download link for the archived PDF.
func (s *ArchiveService) SignedURL(ctx context.Context, ownerID, docID string) (string, error) {
	var doc models.Document
	if err := s.db.WithContext(ctx).Select("id", "archive_path").
		First(&doc, "id = ? AND owner_id = ?", docID, ownerID).Error; err != nil {
		return "", notFound(err, "document")
	}
	if doc.ArchivePath == "" {
		return "", fmt.Errorf("archive: %w", apperr.ErrNotFound)
	}
	url, err := s.store.GetSignedURL(doc.ArchivePath, signedURLExpiry)
	if err != nil {
		return "", fmt.Errorf("failed to sign archive url: %w", err)
	}
	return url, nil
}
