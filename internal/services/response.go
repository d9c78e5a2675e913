package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"DF-PROPOSAL/internal/apperr"
	"DF-PROPOSAL/internal/lifecycle"
	"DF-PROPOSAL/internal/logging"
	"DF-PROPOSAL/internal/metrics"
	"DF-PROPOSAL/internal/models"
	"DF-PROPOSAL/internal/render"
	"DF-PROPOSAL/internal/view"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	maxCommentLength   = 5000
	maxSignatureLength = 512 * 1024
	archiveTimeout     = 2 * time.Minute
)

// Archiver stores a durable copy of an accepted document.
type Archiver interface {
	Archive(ctx context.Context, docID string) error
}

// ResponseService drives the document lifecycle: the author's send and the
// recipient's accept, reject and comment.
type ResponseService struct {
	db       *gorm.DB
	access   *AccessService
	metrics  *metrics.Metrics
	archiver Archiver
}

// NewResponseService wires the lifecycle. archiver may be nil, in which case
// accepted documents are not archived.
func NewResponseService(db *gorm.DB, access *AccessService, m *metrics.Metrics, archiver Archiver) *ResponseService {
	return &ResponseService{db: db, access: access, metrics: m, archiver: archiver}
}

type SendResult struct {
	Token    string           `json:"token"`
	URL      string           `json:"url"`
	Document *models.Document `json:"document"`
}

type AcceptInput struct {
	SignerName    string               `json:"signerName"`
	SignerEmail   string               `json:"signerEmail"`
	SignatureType models.SignatureType `json:"signatureType"`
	SignatureData string               `json:"signatureData"`
	IPAddress     string               `json:"-"`
	UserAgent     string               `json:"-"`
}

type RejectInput struct {
	Reason string `json:"reason"`
	Email  string `json:"email"`
}

type CommentInput struct {
	Content string `json:"content"`
	Email   string `json:"clientEmail"`
}

// Send moves a draft to sent and issues its public link. Sending a document
// that is already out returns the link it already has.
func (s *ResponseService) Send(ctx context.Context, ownerID, docID string) (*SendResult, error) {
	var (
		token string
		first bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doc, err := lockOwned(tx, ownerID, docID)
		if err != nil {
			return err
		}
		now := nowFn().UTC()
		if _, err := doc.EffectiveStatus(now).Send(); err != nil {
			return err
		}

		if doc.Status == lifecycle.Draft {
			if err := requireContent(tx, doc.ID); err != nil {
				return err
			}
		}

		token, err = s.access.issueTx(tx, doc.ID)
		if err != nil {
			return err
		}

		if doc.Status != lifecycle.Draft {
			return nil
		}
		result := tx.Model(&models.Document{}).
			Where("id = ? AND status = ?", doc.ID, lifecycle.Draft.String()).
			Updates(map[string]any{"status": lifecycle.Sent, "sent_at": now, "updated_at": now})
		if result.Error != nil {
			return fmt.Errorf("failed to mark document sent: %w", result.Error)
		}
		first = result.RowsAffected == 1
		return nil
	})
	if err != nil {
		return nil, err
	}

	if first {
		s.metrics.DocumentSent()
		log.Info().Str("document_id", docID).Str("token", logging.Fingerprint(token)).Msg("Document sent")
	}

	doc, err := loadDocument(s.db.WithContext(ctx), "id = ? AND owner_id = ?", docID, ownerID)
	if err != nil {
		return nil, err
	}
	doc.Effective = doc.EffectiveStatus(nowFn())
	return &SendResult{Token: token, URL: s.access.URL(token), Document: doc}, nil
}

// requireContent fails with ErrEmptyDocument unless at least one visible
// section has text once markup is stripped.
func requireContent(tx *gorm.DB, docID string) error {
	var sections []models.Section
	if err := tx.Where("document_id = ? AND visible = ?", docID, true).Find(&sections).Error; err != nil {
		return fmt.Errorf("failed to load sections: %w", err)
	}
	for _, sec := range sections {
		if strings.TrimSpace(render.PlainText(view.Sanitize(sec.Content))) != "" {
			return nil
		}
	}
	return apperr.ErrEmptyDocument
}

// Accept records the recipient's acceptance and signature. Exactly one of any
// number of concurrent accepts succeeds; the rest see ErrAlreadyResponded.
func (s *ResponseService) Accept(ctx context.Context, token string, in AcceptInput) (*view.Document, error) {
	in = normalizeAccept(in)
	if err := validateAccept(in); err != nil {
		s.metrics.Response("accept", outcome(err))
		return nil, err
	}

	var docID string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := nowFn().UTC()
		doc, err := s.respond(tx, token, lifecycle.Accepted, now)
		if err != nil {
			return err
		}
		docID = doc.ID
		return captureSignature(tx, doc.ID, in, now)
	})
	s.metrics.Response("accept", outcome(err))
	if err != nil {
		return nil, err
	}

	log.Info().Str("document_id", docID).Str("token", logging.Fingerprint(token)).Msg("Document accepted")
	s.archive(docID)
	return s.access.View(ctx, docID)
}

// Reject records the recipient's refusal. A non-empty reason is kept as a
// comment on the document.
func (s *ResponseService) Reject(ctx context.Context, token string, in RejectInput) (*view.Document, error) {
	in.Reason = strings.TrimSpace(in.Reason)
	in.Email = strings.TrimSpace(in.Email)
	v := apperr.NewValidation()
	if utf8.RuneCountInString(in.Reason) > maxCommentLength {
		v.Add("reason", "too_long")
	}
	if in.Email != "" && !validEmail(in.Email) {
		v.Add("email", "invalid_email")
	}
	if err := v.Err(); err != nil {
		s.metrics.Response("reject", outcome(err))
		return nil, err
	}

	var docID string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := nowFn().UTC()
		doc, err := s.respond(tx, token, lifecycle.Rejected, now)
		if err != nil {
			return err
		}
		docID = doc.ID
		if in.Reason == "" {
			return nil
		}
		return tx.Create(&models.Comment{
			ID:          uuid.New().String(),
			DocumentID:  doc.ID,
			AuthorEmail: in.Email,
			Content:     in.Reason,
			CreatedAt:   now,
		}).Error
	})
	s.metrics.Response("reject", outcome(err))
	if err != nil {
		return nil, err
	}

	log.Info().Str("document_id", docID).Str("token", logging.Fingerprint(token)).Msg("Document rejected")
	return s.access.View(ctx, docID)
}

// respond performs the single conditional write that moves a sent, unexpired
// document to the terminal status to.
func (s *ResponseService) respond(tx *gorm.DB, token string, to lifecycle.Status, now time.Time) (*models.Document, error) {
	doc, err := lockByToken(tx, token)
	if err != nil {
		return nil, err
	}
	if err := transition(doc.EffectiveStatus(now), to); err != nil {
		return nil, err
	}
	if err := commitResponse(tx, doc, to, now); err != nil {
		return nil, err
	}
	return doc, nil
}

// commitResponse writes the response only if the stored row is still sent and
// unexpired. doc may be stale; on a lost race the error reflects the stored row.
func commitResponse(tx *gorm.DB, doc *models.Document, to lifecycle.Status, now time.Time) error {
	result := tx.Model(&models.Document{}).
		Where("id = ? AND status = ? AND (valid_until IS NULL OR valid_until >= ?)", doc.ID, lifecycle.Sent.String(), now).
		Updates(map[string]any{"status": to, "responded_at": now, "updated_at": now})
	if result.Error != nil {
		return fmt.Errorf("failed to record response: %w", result.Error)
	}
	if result.RowsAffected == 1 {
		return nil
	}

	// Lost the race: report what the winner left behind.
	var current models.Document
	if err := tx.First(&current, "id = ?", doc.ID).Error; err != nil {
		return notFound(err, "document")
	}
	if err := transition(current.EffectiveStatus(now), to); err != nil {
		return err
	}
	return apperr.ErrAlreadyResponded
}

func transition(from, to lifecycle.Status) error {
	var err error
	if to == lifecycle.Accepted {
		_, err = from.Accept()
	} else {
		_, err = from.Reject()
	}
	return err
}

// Comment appends recipient feedback. It is allowed in every status and
// never changes it.
func (s *ResponseService) Comment(ctx context.Context, token string, in CommentInput) (*models.Comment, error) {
	in.Content = strings.TrimSpace(in.Content)
	in.Email = strings.TrimSpace(in.Email)
	v := apperr.NewValidation()
	switch {
	case in.Content == "":
		v.Add("content", "required")
	case utf8.RuneCountInString(in.Content) > maxCommentLength:
		v.Add("content", "too_long")
	}
	if in.Email != "" && !validEmail(in.Email) {
		v.Add("clientEmail", "invalid_email")
	}
	if err := v.Err(); err != nil {
		s.metrics.Response("comment", outcome(err))
		return nil, err
	}

	db := s.db.WithContext(ctx)
	var doc models.Document
	if token == "" {
		s.metrics.Response("comment", "not_found")
		return nil, fmt.Errorf("document: %w", apperr.ErrNotFound)
	}
	if err := db.Select("id").First(&doc, "access_token = ?", token).Error; err != nil {
		err = notFound(err, "document")
		s.metrics.Response("comment", outcome(err))
		return nil, err
	}

	comment := &models.Comment{
		ID:          uuid.New().String(),
		DocumentID:  doc.ID,
		AuthorEmail: in.Email,
		Content:     in.Content,
		CreatedAt:   nowFn().UTC(),
	}
	if err := db.Create(comment).Error; err != nil {
		s.metrics.Response("comment", "error")
		return nil, fmt.Errorf("failed to save comment: %w", err)
	}
	s.metrics.Response("comment", "ok")
	return comment, nil
}

func lockByToken(tx *gorm.DB, token string) (*models.Document, error) {
	if token == "" {
		return nil, fmt.Errorf("document: %w", apperr.ErrNotFound)
	}
	var doc models.Document
	if err := tx.Clauses(forUpdate()).First(&doc, "access_token = ?", token).Error; err != nil {
		return nil, notFound(err, "document")
	}
	return &doc, nil
}

func normalizeAccept(in AcceptInput) AcceptInput {
	in.SignerName = strings.TrimSpace(in.SignerName)
	in.SignerEmail = strings.TrimSpace(in.SignerEmail)
	if in.SignatureType == "" {
		in.SignatureType = models.SignatureTyped
	}
	if in.SignatureType == models.SignatureTyped && strings.TrimSpace(in.SignatureData) == "" {
		in.SignatureData = in.SignerName
	}
	return in
}

func validateAccept(in AcceptInput) error {
	v := apperr.NewValidation()
	if in.SignerName == "" {
		v.Add("signerName", "required")
	}
	switch {
	case in.SignerEmail == "":
		v.Add("signerEmail", "required")
	case !validEmail(in.SignerEmail):
		v.Add("signerEmail", "invalid_email")
	}
	switch {
	case !in.SignatureType.Valid():
		v.Add("signatureType", "must_be_typed_or_drawn")
	case in.SignatureType == models.SignatureDrawn && !strings.HasPrefix(in.SignatureData, "data:image/"):
		v.Add("signatureData", "must_be_image_data_url")
	}
	if len(in.SignatureData) > maxSignatureLength {
		v.Add("signatureData", "too_large")
	}
	return v.Err()
}

// captureSignature writes the one signature a document can carry. It must run
// inside the accept transaction.
func captureSignature(tx *gorm.DB, docID string, in AcceptInput, now time.Time) error {
	if err := validateAccept(in); err != nil {
		return err
	}
	sig := &models.Signature{
		ID:            uuid.New().String(),
		DocumentID:    docID,
		SignerName:    in.SignerName,
		SignerEmail:   in.SignerEmail,
		SignatureType: in.SignatureType,
		Payload:       in.SignatureData,
		SignedAt:      now,
		IPAddress:     in.IPAddress,
		UserAgent:     in.UserAgent,
	}
	err := tx.Create(sig).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.ErrAlreadyResponded
	}
	if err != nil {
		return fmt.Errorf("failed to save signature: %w", err)
	}
	return nil
}

func (s *ResponseService) archive(docID string) {
	if s.archiver == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()
		if err := s.archiver.Archive(ctx, docID); err != nil {
			log.Error().Err(err).Str("document_id", docID).Msg("Failed to archive accepted document")
		}
	}()
}

// outcome is the metrics label for a response result.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, apperr.ErrNotFound):
		return "not_found"
	case errors.Is(err, apperr.ErrExpiredDocument):
		return "expired"
	case errors.Is(err, apperr.ErrAlreadyResponded):
		return "already_responded"
	case errors.Is(err, apperr.ErrInvalidTransition):
		return "invalid_transition"
	}
	if _, ok := apperr.AsValidation(err); ok {
		return "invalid"
	}
	return "error"
}
