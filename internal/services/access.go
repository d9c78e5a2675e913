package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"DF-PROPOSAL/internal/apperr"
	"DF-PROPOSAL/internal/logging"
	"DF-PROPOSAL/internal/metrics"
	"DF-PROPOSAL/internal/models"
	"DF-PROPOSAL/internal/view"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	tokenBytes         = 32
	tokenIssueAttempts = 3
	publicPath         = "/public/proposal/"
)

// AccessService issues the unguessable links recipients use and resolves
// them back to a document view.
type AccessService struct {
	db            *gorm.DB
	agency        AgencyProvider
	publicBaseURL string
	metrics       *metrics.Metrics
}

func NewAccessService(db *gorm.DB, agency AgencyProvider, publicBaseURL string, m *metrics.Metrics) *AccessService {
	return &AccessService{
		db:            db,
		agency:        agency,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		metrics:       m,
	}
}

// Issue returns the document's access token, creating it on first call.
// Repeated calls return the same token.
func (s *AccessService) Issue(ctx context.Context, docID string) (string, string, error) {
	var token string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		token, err = s.issueTx(tx, docID)
		return err
	})
	if err != nil {
		return "", "", err
	}
	return token, s.URL(token), nil
}

// URL is the public link for token.
func (s *AccessService) URL(token string) string {
	return s.publicBaseURL + publicPath + token
}

// issueTx stores a fresh token only if the document has none, then reads back
// whichever token is stored.
func (s *AccessService) issueTx(tx *gorm.DB, docID string) (string, error) {
	for attempt := 1; attempt <= tokenIssueAttempts; attempt++ {
		candidate, err := newToken()
		if err != nil {
			return "", err
		}
		err = tx.Model(&models.Document{}).
			Where("id = ? AND access_token IS NULL", docID).
			Update("access_token", candidate).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			log.Warn().Str("document_id", docID).Int("attempt", attempt).Msg("Access token collision, retrying")
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to store access token: %w", err)
		}

		var doc models.Document
		if err := tx.Select("id", "access_token").First(&doc, "id = ?", docID).Error; err != nil {
			return "", notFound(err, "document")
		}
		if doc.AccessToken == nil {
			return "", fmt.Errorf("access token for %s was not stored", docID)
		}
		return *doc.AccessToken, nil
	}
	return "", fmt.Errorf("failed to issue a unique access token after %d attempts", tokenIssueAttempts)
}

// Resolve maps a token to the recipient view. Unknown, empty and
// soft-deleted documents all resolve to ErrNotFound.
func (s *AccessService) Resolve(ctx context.Context, token string) (*view.Document, error) {
	doc, err := s.byToken(s.db.WithContext(ctx), token)
	if err != nil {
		return nil, err
	}
	v, err := s.project(ctx, doc)
	if err != nil {
		return nil, err
	}
	s.metrics.PublicView()
	log.Debug().Str("token", logging.Fingerprint(token)).Str("document_id", doc.ID).Msg("Public document viewed")
	return v, nil
}

// Preview renders the recipient view for the author without issuing a token.
func (s *AccessService) Preview(ctx context.Context, ownerID, docID string) (*view.Document, error) {
	doc, err := loadDocument(s.db.WithContext(ctx), "id = ? AND owner_id = ?", docID, ownerID)
	if err != nil {
		return nil, err
	}
	return s.project(ctx, doc)
}

// View projects a document by id regardless of owner. Used by background
// work that already holds a trusted id.
func (s *AccessService) View(ctx context.Context, docID string) (*view.Document, error) {
	doc, err := loadDocument(s.db.WithContext(ctx), "id = ?", docID)
	if err != nil {
		return nil, err
	}
	return s.project(ctx, doc)
}

func (s *AccessService) byToken(db *gorm.DB, token string) (*models.Document, error) {
	if token == "" {
		return nil, fmt.Errorf("document: %w", apperr.ErrNotFound)
	}
	return loadDocument(db, "access_token = ?", token)
}

func (s *AccessService) project(ctx context.Context, doc *models.Document) (*view.Document, error) {
	agency, err := s.agency.Agency(ctx, doc.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load agency profile: %w", err)
	}
	return view.Project(doc, agency, nowFn()), nil
}

func newToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
