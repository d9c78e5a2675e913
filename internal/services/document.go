package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"DF-PROPOSAL/internal/apperr"
	"DF-PROPOSAL/internal/lifecycle"
	"DF-PROPOSAL/internal/models"
	"DF-PROPOSAL/internal/pricing"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// nowFn is the clock used for every lifecycle decision.
var nowFn = time.Now

const numberAllocationAttempts = 3

var currencyCode = regexp.MustCompile(`^[A-Z]{3}$`)

// DocumentService composes documents: creation, editing, sections and pricing.
type DocumentService struct {
	db *gorm.DB
}

func NewDocumentService(db *gorm.DB) *DocumentService {
	return &DocumentService{db: db}
}

type CreateDocumentInput struct {
	Kind       models.DocumentKind `json:"kind"`
	Title      string              `json:"title"`
	Currency   string              `json:"currency"`
	ClientID   *string             `json:"clientId"`
	ValidUntil *time.Time          `json:"-"`
	Notes      string              `json:"notes"`
}

// DocumentPatch is a partial update. ValidUntil may change while the
// document is draft or sent; every other field only while it is draft.
type DocumentPatch struct {
	Title           *string          `json:"title"`
	Currency        *string          `json:"currency"`
	Notes           *string          `json:"notes"`
	DiscountAmount  *decimal.Decimal `json:"discountAmount"`
	TaxAmount       *decimal.Decimal `json:"taxAmount"`
	Theme           *models.Theme    `json:"theme"`
	ClientID        *string          `json:"clientId"`
	ValidUntil      *time.Time       `json:"-"`
	ClearValidUntil bool             `json:"-"`
}

func (p DocumentPatch) touchesDraftFields() bool {
	return p.Title != nil || p.Currency != nil || p.Notes != nil ||
		p.DiscountAmount != nil || p.TaxAmount != nil || p.Theme != nil || p.ClientID != nil
}

type ListFilter struct {
	Status string
	Kind   string
}

type SectionInput struct {
	SectionType models.SectionType `json:"sectionType"`
	Title       string             `json:"title"`
	Content     string             `json:"content"`
	Visible     *bool              `json:"visible"`
}

type PricingItemInput struct {
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
}

type PricingItemPatch struct {
	Name            *string          `json:"name"`
	Description     *string          `json:"description"`
	Quantity        *decimal.Decimal `json:"quantity"`
	UnitPrice       *decimal.Decimal `json:"unitPrice"`
	DiscountPercent *decimal.Decimal `json:"discountPercent"`
}

// CreateFromTemplate copies the template's theme and sections into a new
// draft. The copy keeps no live link to the template.
func (s *DocumentService) CreateFromTemplate(ctx context.Context, ownerID, templateID string, in CreateDocumentInput) (*models.Document, error) {
	return s.create(ctx, ownerID, templateID, in)
}

func (s *DocumentService) CreateBlank(ctx context.Context, ownerID string, in CreateDocumentInput) (*models.Document, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, apperr.Invalid("title", "required")
	}
	return s.create(ctx, ownerID, "", in)
}

func (s *DocumentService) create(ctx context.Context, ownerID, templateID string, in CreateDocumentInput) (*models.Document, error) {
	if in.Kind == "" {
		in.Kind = models.KindProposal
	}
	if in.Currency == "" {
		in.Currency = models.DefaultCurrency
	}
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))

	v := apperr.NewValidation()
	if !in.Kind.Valid() {
		v.Add("kind", "must_be_proposal_or_quotation")
	}
	if !currencyCode.MatchString(in.Currency) {
		v.Add("currency", "must_be_iso_4217")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	var doc *models.Document
	var err error
	for attempt := 1; attempt <= numberAllocationAttempts; attempt++ {
		doc, err = s.createOnce(ctx, ownerID, templateID, in)
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}
		log.Warn().Str("owner_id", ownerID).Int("attempt", attempt).Msg("Document number collision, retrying")
	}
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("document_id", doc.ID).
		Str("number", doc.Number).
		Str("template_id", templateID).
		Msg("Document created")
	return s.Get(ctx, ownerID, doc.ID)
}

func (s *DocumentService) createOnce(ctx context.Context, ownerID, templateID string, in CreateDocumentInput) (*models.Document, error) {
	doc := &models.Document{
		ID:         uuid.New().String(),
		OwnerID:    ownerID,
		Kind:       in.Kind,
		Title:      strings.TrimSpace(in.Title),
		Status:     lifecycle.Draft,
		Currency:   in.Currency,
		ValidUntil: utcPtr(in.ValidUntil),
		Subtotal:   decimal.Zero,
		Discount:   decimal.Zero,
		Tax:        decimal.Zero,
		Total:      decimal.Zero,
		Theme:      models.DefaultTheme(),
		Notes:      in.Notes,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.ClientID != nil && *in.ClientID != "" {
			if err := ensureClient(tx, ownerID, *in.ClientID); err != nil {
				if errors.Is(err, apperr.ErrNotFound) {
					return apperr.Invalid("clientId", "unknown_client")
				}
				return err
			}
			doc.ClientID = in.ClientID
		}

		if templateID != "" {
			template, err := getTemplate(tx, ownerID, templateID)
			if err != nil {
				return err
			}
			doc.TemplateID = &template.ID
			doc.Theme = template.Theme
			if doc.Title == "" {
				doc.Title = template.Name
			}
			for _, sec := range template.Sections {
				doc.Sections = append(doc.Sections, models.Section{
					ID:          uuid.New().String(),
					DocumentID:  doc.ID,
					SectionType: sec.SectionType,
					Title:       sec.Title,
					Content:     sec.Content,
					SortOrder:   sec.SortOrder,
					Visible:     sec.Visible,
					Locked:      sec.Locked,
				})
			}
		}

		var maxSeq int
		if err := tx.Unscoped().Model(&models.Document{}).
			Where("owner_id = ? AND kind = ?", ownerID, doc.Kind).
			Select("COALESCE(MAX(sequence), 0)").
			Scan(&maxSeq).Error; err != nil {
			return fmt.Errorf("failed to allocate document number: %w", err)
		}
		doc.Sequence = maxSeq + 1
		doc.Number = doc.Kind.FormatNumber(doc.Sequence)

		if err := tx.Create(doc).Error; err != nil {
			return fmt.Errorf("failed to save document: %w", err)
		}
		if len(doc.Sections) > 0 {
			// templates may carry gaps left by older edits
			if err := resequence(tx, &models.Section{}, "document_id", doc.ID); err != nil {
				return err
			}
		}
		return nil
	})
	return doc, err
}

func (s *DocumentService) Get(ctx context.Context, ownerID, docID string) (*models.Document, error) {
	doc, err := loadDocument(s.db.WithContext(ctx), "id = ? AND owner_id = ?", docID, ownerID)
	if err != nil {
		return nil, err
	}
	doc.Effective = doc.EffectiveStatus(nowFn())
	return doc, nil
}

// loadDocument fetches one document with everything the view projection needs.
func loadDocument(db *gorm.DB, query string, args ...any) (*models.Document, error) {
	var doc models.Document
	err := db.
		Preload("Client", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Preload("Sections", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Preload("PricingItems", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Preload("Signatures").
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Where(query, args...).
		First(&doc).Error
	if err != nil {
		return nil, notFound(err, "document")
	}
	return &doc, nil
}

// List returns the owner's documents, newest first. The status filter is
// applied to the effective status, so "expired" and "sent" are told apart.
func (s *DocumentService) List(ctx context.Context, ownerID string, filter ListFilter) ([]models.Document, error) {
	now := nowFn().UTC()
	query := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("created_at DESC")

	if filter.Kind != "" {
		if !models.DocumentKind(filter.Kind).Valid() {
			return nil, apperr.Invalid("kind", "must_be_proposal_or_quotation")
		}
		query = query.Where("kind = ?", filter.Kind)
	}
	if filter.Status != "" {
		status, err := lifecycle.Parse(filter.Status)
		if err != nil {
			return nil, apperr.Invalid("status", "unknown_status")
		}
		switch status {
		case lifecycle.Expired:
			query = query.Where("status = ? AND valid_until IS NOT NULL AND valid_until < ?", lifecycle.Sent.String(), now)
		case lifecycle.Sent:
			query = query.Where("status = ? AND (valid_until IS NULL OR valid_until >= ?)", lifecycle.Sent.String(), now)
		default:
			query = query.Where("status = ?", status.String())
		}
	}

	var docs []models.Document
	if err := query.Preload("Client", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	for i := range docs {
		docs[i].Effective = docs[i].EffectiveStatus(now)
	}
	return docs, nil
}

func (s *DocumentService) Update(ctx context.Context, ownerID, docID string, patch DocumentPatch) (*models.Document, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doc, err := lockOwned(tx, ownerID, docID)
		if err != nil {
			return err
		}

		if patch.touchesDraftFields() && !doc.Status.Mutable() {
			return apperr.ErrImmutableDocument
		}
		validUntilChanged := patch.ValidUntil != nil || patch.ClearValidUntil
		if validUntilChanged && !doc.EffectiveStatus(nowFn()).CanEditValidUntil() {
			return apperr.ErrImmutableDocument
		}

		v := apperr.NewValidation()
		fields := map[string]any{}
		if patch.Title != nil {
			title := strings.TrimSpace(*patch.Title)
			if title == "" {
				v.Add("title", "required")
			}
			fields["title"] = title
		}
		if patch.Currency != nil {
			currency := strings.ToUpper(strings.TrimSpace(*patch.Currency))
			if !currencyCode.MatchString(currency) {
				v.Add("currency", "must_be_iso_4217")
			}
			fields["currency"] = currency
		}
		if patch.Notes != nil {
			fields["notes"] = *patch.Notes
		}
		if patch.Theme != nil {
			fields["theme_primary_color"] = patch.Theme.PrimaryColor
			fields["theme_secondary_color"] = patch.Theme.SecondaryColor
			fields["theme_accent_color"] = patch.Theme.AccentColor
			fields["theme_header_style"] = patch.Theme.HeaderStyle
			fields["theme_font_family"] = patch.Theme.FontFamily
		}
		if patch.ClientID != nil {
			if *patch.ClientID == "" {
				fields["client_id"] = nil
			} else if err := ensureClient(tx, ownerID, *patch.ClientID); err != nil {
				if errors.Is(err, apperr.ErrNotFound) {
					v.Add("clientId", "unknown_client")
				} else {
					return err
				}
			} else {
				fields["client_id"] = *patch.ClientID
			}
		}
		if patch.ClearValidUntil {
			fields["valid_until"] = nil
		} else if patch.ValidUntil != nil {
			fields["valid_until"] = patch.ValidUntil.UTC()
		}
		if patch.DiscountAmount != nil {
			if patch.DiscountAmount.IsNegative() {
				v.Add("discountAmount", "must_not_be_negative")
			}
			doc.Discount = *patch.DiscountAmount
		}
		if patch.TaxAmount != nil {
			if patch.TaxAmount.IsNegative() {
				v.Add("taxAmount", "must_not_be_negative")
			}
			doc.Tax = *patch.TaxAmount
		}
		if err := v.Err(); err != nil {
			return err
		}

		if len(fields) > 0 {
			if err := tx.Model(&models.Document{}).Where("id = ?", doc.ID).Updates(fields).Error; err != nil {
				return fmt.Errorf("failed to update document: %w", err)
			}
		}
		if patch.DiscountAmount != nil || patch.TaxAmount != nil {
			return recalculate(tx, doc)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, ownerID, docID)
}

// Delete soft-deletes the document. Its access token stops resolving.
func (s *DocumentService) Delete(ctx context.Context, ownerID, docID string) error {
	result := s.db.WithContext(ctx).Where("id = ? AND owner_id = ?", docID, ownerID).Delete(&models.Document{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete document: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("document: %w", apperr.ErrNotFound)
	}
	log.Info().Str("document_id", docID).Msg("Document deleted")
	return nil
}

// AddSection appends a section at sortOrder = number of existing sections.
func (s *DocumentService) AddSection(ctx context.Context, ownerID, docID string, in SectionInput) (*models.Section, error) {
	v := apperr.NewValidation()
	validateSectionType(v, "sectionType", in.SectionType)
	if err := v.Err(); err != nil {
		return nil, err
	}

	var section models.Section
	err := s.mutate(ctx, ownerID, docID, func(tx *gorm.DB, doc *models.Document) error {
		var count int64
		if err := tx.Model(&models.Section{}).Where("document_id = ?", doc.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count sections: %w", err)
		}
		title := strings.TrimSpace(in.Title)
		if title == "" {
			title = in.SectionType.DefaultTitle()
		}
		visible := true
		if in.Visible != nil {
			visible = *in.Visible
		}
		section = models.Section{
			ID:          uuid.New().String(),
			DocumentID:  doc.ID,
			SectionType: in.SectionType,
			Title:       title,
			Content:     in.Content,
			SortOrder:   int(count),
			Visible:     visible,
		}
		if err := tx.Create(&section).Error; err != nil {
			return fmt.Errorf("failed to save section: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &section, nil
}

func (s *DocumentService) UpdateSection(ctx context.Context, ownerID, docID, sectionID string, patch SectionPatch) (*models.Section, error) {
	var section models.Section
	err := s.mutate(ctx, ownerID, docID, func(tx *gorm.DB, doc *models.Document) error {
		if err := tx.First(&section, "id = ? AND document_id = ?", sectionID, doc.ID).Error; err != nil {
			return notFound(err, "section")
		}
		if section.Locked {
			return apperr.ErrLockedSection
		}
		if fields := patch.updates(); len(fields) > 0 {
			if err := tx.Model(&section).Updates(fields).Error; err != nil {
				return fmt.Errorf("failed to update section: %w", err)
			}
		}
		return tx.First(&section, "id = ?", sectionID).Error
	})
	if err != nil {
		return nil, err
	}
	return &section, nil
}

// LockSection marks a section as locked. A locked section cannot be edited,
// deleted or unlocked.
func (s *DocumentService) LockSection(ctx context.Context, ownerID, docID, sectionID string) (*models.Section, error) {
	var section models.Section
	err := s.mutate(ctx, ownerID, docID, func(tx *gorm.DB, doc *models.Document) error {
		if err := tx.First(&section, "id = ? AND document_id = ?", sectionID, doc.ID).Error; err != nil {
			return notFound(err, "section")
		}
		if section.Locked {
			return nil
		}
		section.Locked = true
		return tx.Model(&section).Update("locked", true).Error
	})
	if err != nil {
		return nil, err
	}
	return &section, nil
}

func (s *DocumentService) DeleteSection(ctx context.Context, ownerID, docID, sectionID string) error {
	return s.mutate(ctx, ownerID, docID, func(tx *gorm.DB, doc *models.Document) error {
		var section models.Section
		if err := tx.First(&section, "id = ? AND document_id = ?", sectionID, doc.ID).Error; err != nil {
			return notFound(err, "section")
		}
		if section.Locked {
			return apperr.ErrLockedSection
		}
		if err := tx.Delete(&section).Error; err != nil {
			return fmt.Errorf("failed to delete section: %w", err)
		}
		return resequence(tx, &models.Section{}, "document_id", doc.ID)
	})
}

// ReorderSections assigns sortOrder from the position of each id in orderedIDs,
// which must list every section of the document exactly once.
func (s *DocumentService) ReorderSections(ctx context.Context, ownerID, docID string, orderedIDs []string) ([]models.Section, error) {
	var sections []models.Section
	err := s.mutate(ctx, ownerID, docID, func(tx *gorm.DB, doc *models.Document) error {
		var current []string
		if err := tx.Model(&models.Section{}).Where("document_id = ?", doc.ID).Pluck("id", &current).Error; err != nil {
			return fmt.Errorf("failed to read sections: %w", err)
		}
		if err := checkPermutation("sectionIds", current, orderedIDs); err != nil {
			return err
		}
		if err := applyOrder(tx, &models.Section{}, orderedIDs); err != nil {
			return err
		}
		return tx.Where("document_id = ?", doc.ID).Order("sort_order ASC").Find(&sections).Error
	})
	if err != nil {
		return nil, err
	}
	return sections, nil
}

func (s *DocumentService) AddPricingItem(ctx context.Context, ownerID, docID string, in PricingItemInput) (*models.PricingItem, error) {
	if err := validateItem(in.Name, pricing.Line{Quantity: in.Quantity, UnitPrice: in.UnitPrice, DiscountPercent: in.DiscountPercent}); err != nil {
		return nil, err
	}

	var item models.PricingItem
	err := s.mutate(ctx, ownerID, docID, func(tx *gorm.DB, doc *models.Document) error {
		var count int64
		if err := tx.Model(&models.PricingItem{}).Where("document_id = ?", doc.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count pricing items: %w", err)
		}
		item = models.PricingItem{
			ID:              uuid.New().String(),
			DocumentID:      doc.ID,
			Name:            strings.TrimSpace(in.Name),
			Description:     in.Description,
			Quantity:        in.Quantity,
			UnitPrice:       in.UnitPrice,
			DiscountPercent: in.DiscountPercent,
			TotalPrice:      decimal.Zero,
			SortOrder:       int(count),
		}
		if err := tx.Create(&item).Error; err != nil {
			return fmt.Errorf("failed to save pricing item: %w", err)
		}
		if err := recalculate(tx, doc); err != nil {
			return err
		}
		return tx.First(&item, "id = ?", item.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *DocumentService) UpdatePricingItem(ctx context.Context, ownerID, docID, itemID string, patch PricingItemPatch) (*models.PricingItem, error) {
	var item models.PricingItem
	err := s.mutate(ctx, ownerID, docID, func(tx *gorm.DB, doc *models.Document) error {
		if err := tx.First(&item, "id = ? AND document_id = ?", itemID, doc.ID).Error; err != nil {
			return notFound(err, "pricing item")
		}
		if patch.Name != nil {
			item.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Description != nil {
			item.Description = *patch.Description
		}
		if patch.Quantity != nil {
			item.Quantity = *patch.Quantity
		}
		if patch.UnitPrice != nil {
			item.UnitPrice = *patch.UnitPrice
		}
		if patch.DiscountPercent != nil {
			item.DiscountPercent = *patch.DiscountPercent
		}
		if err := validateItem(item.Name, pricing.Line{Quantity: item.Quantity, UnitPrice: item.UnitPrice, DiscountPercent: item.DiscountPercent}); err != nil {
			return err
		}
		if err := tx.Model(&models.PricingItem{}).Where("id = ?", item.ID).Updates(map[string]any{
			"name":             item.Name,
			"description":      item.Description,
			"quantity":         item.Quantity,
			"unit_price":       item.UnitPrice,
			"discount_percent": item.DiscountPercent,
		}).Error; err != nil {
			return fmt.Errorf("failed to update pricing item: %w", err)
		}
		if err := recalculate(tx, doc); err != nil {
			return err
		}
		return tx.First(&item, "id = ?", item.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *DocumentService) DeletePricingItem(ctx context.Context, ownerID, docID, itemID string) error {
	return s.mutate(ctx, ownerID, docID, func(tx *gorm.DB, doc *models.Document) error {
		result := tx.Where("id = ? AND document_id = ?", itemID, doc.ID).Delete(&models.PricingItem{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete pricing item: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("pricing item: %w", apperr.ErrNotFound)
		}
		if err := resequence(tx, &models.PricingItem{}, "document_id", doc.ID); err != nil {
			return err
		}
		return recalculate(tx, doc)
	})
}

func (s *DocumentService) ReorderPricingItems(ctx context.Context, ownerID, docID string, orderedIDs []string) ([]models.PricingItem, error) {
	var items []models.PricingItem
	err := s.mutate(ctx, ownerID, docID, func(tx *gorm.DB, doc *models.Document) error {
		var current []string
		if err := tx.Model(&models.PricingItem{}).Where("document_id = ?", doc.ID).Pluck("id", &current).Error; err != nil {
			return fmt.Errorf("failed to read pricing items: %w", err)
		}
		if err := checkPermutation("itemIds", current, orderedIDs); err != nil {
			return err
		}
		if err := applyOrder(tx, &models.PricingItem{}, orderedIDs); err != nil {
			return err
		}
		return tx.Where("document_id = ?", doc.ID).Order("sort_order ASC").Find(&items).Error
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// mutate runs fn in a transaction holding the document row, after checking
// that the document belongs to ownerID and is still a draft.
func (s *DocumentService) mutate(ctx context.Context, ownerID, docID string, fn func(tx *gorm.DB, doc *models.Document) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doc, err := lockOwned(tx, ownerID, docID)
		if err != nil {
			return err
		}
		if !doc.Status.Mutable() {
			return apperr.ErrImmutableDocument
		}
		if err := fn(tx, doc); err != nil {
			return err
		}
		return tx.Model(&models.Document{}).Where("id = ?", doc.ID).Update("updated_at", nowFn().UTC()).Error
	})
}

func lockOwned(tx *gorm.DB, ownerID, docID string) (*models.Document, error) {
	var doc models.Document
	if err := tx.Clauses(forUpdate()).First(&doc, "id = ? AND owner_id = ?", docID, ownerID).Error; err != nil {
		return nil, notFound(err, "document")
	}
	return &doc, nil
}

// recalculate recomputes every line total and the document totals from the
// stored pricing items. It must run in the transaction that changed them.
func recalculate(tx *gorm.DB, doc *models.Document) error {
	var items []models.PricingItem
	if err := tx.Where("document_id = ?", doc.ID).Order("sort_order ASC").Find(&items).Error; err != nil {
		return fmt.Errorf("failed to load pricing items: %w", err)
	}

	lines := make([]pricing.Line, len(items))
	for i, it := range items {
		lines[i] = pricing.Line{Quantity: it.Quantity, UnitPrice: it.UnitPrice, DiscountPercent: it.DiscountPercent}
	}
	totals, err := pricing.Calculate(lines, doc.Discount, doc.Tax)
	if err != nil {
		return err
	}

	for i, it := range items {
		if it.TotalPrice.Equal(totals.Lines[i]) {
			continue
		}
		if err := tx.Model(&models.PricingItem{}).Where("id = ?", it.ID).Update("total_price", totals.Lines[i]).Error; err != nil {
			return fmt.Errorf("failed to store line total: %w", err)
		}
	}

	doc.Subtotal, doc.Discount, doc.Tax, doc.Total = totals.Subtotal, totals.Discount, totals.Tax, totals.Total
	if err := tx.Model(&models.Document{}).Where("id = ?", doc.ID).Updates(map[string]any{
		"subtotal":        totals.Subtotal,
		"discount_amount": totals.Discount,
		"tax_amount":      totals.Tax,
		"total_amount":    totals.Total,
	}).Error; err != nil {
		return fmt.Errorf("failed to store document totals: %w", err)
	}
	return nil
}

func validateItem(name string, line pricing.Line) error {
	v := apperr.NewValidation()
	if strings.TrimSpace(name) == "" {
		v.Add("name", "required")
	}
	if err := pricing.Validate(line); err != nil {
		if fields, ok := apperr.AsValidation(err); ok {
			for field, reason := range fields.Fields {
				v.Add(field, reason)
			}
		}
	}
	return v.Err()
}

func ensureClient(tx *gorm.DB, ownerID, clientID string) error {
	var count int64
	if err := tx.Model(&models.Client{}).Where("id = ? AND owner_id = ?", clientID, ownerID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to look up client: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("client %s: %w", strconv.Quote(clientID), apperr.ErrNotFound)
	}
	return nil
}
