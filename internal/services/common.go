package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"DF-PROPOSAL/internal/apperr"
	"DF-PROPOSAL/internal/config"
	"DF-PROPOSAL/internal/models"
	"DF-PROPOSAL/internal/placeholder"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SectionPatch is a partial section update. Nil fields are left unchanged.
type SectionPatch struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
	Visible *bool   `json:"visible"`
}

func (p SectionPatch) updates() map[string]any {
	fields := map[string]any{}
	if p.Title != nil {
		fields["title"] = strings.TrimSpace(*p.Title)
	}
	if p.Content != nil {
		fields["content"] = *p.Content
	}
	if p.Visible != nil {
		fields["visible"] = *p.Visible
	}
	return fields
}

// AgencyProvider supplies the issuing company's profile for agency.* placeholders.
type AgencyProvider interface {
	Agency(ctx context.Context, ownerID string) (placeholder.Agency, error)
}

// StaticAgency serves the same profile to every owner.
type StaticAgency struct {
	profile placeholder.Agency
}

func NewStaticAgency(cfg config.AgencyConfig) *StaticAgency {
	return &StaticAgency{profile: placeholder.Agency{Name: cfg.Name, Email: cfg.Email, Phone: cfg.Phone}}
}

func (a *StaticAgency) Agency(context.Context, string) (placeholder.Agency, error) {
	return a.profile, nil
}

// notFound maps gorm's missing-row error onto apperr.ErrNotFound.
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, apperr.ErrNotFound)
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}

// resequence rewrites sort_order of the rows belonging to parentID as 0..n-1,
// keeping their relative order.
func resequence(tx *gorm.DB, model any, parentColumn, parentID string) error {
	var ids []string
	if err := tx.Model(model).
		Where(parentColumn+" = ?", parentID).
		Order("sort_order ASC, created_at ASC").
		Pluck("id", &ids).Error; err != nil {
		return fmt.Errorf("failed to read sort order: %w", err)
	}
	return applyOrder(tx, model, ids)
}

func applyOrder(tx *gorm.DB, model any, ids []string) error {
	for i, id := range ids {
		if err := tx.Model(model).Where("id = ?", id).UpdateColumn("sort_order", i).Error; err != nil {
			return fmt.Errorf("failed to update sort order: %w", err)
		}
	}
	return nil
}

// checkPermutation reports whether ordered contains exactly the ids in current.
func checkPermutation(field string, current, ordered []string) error {
	if len(current) != len(ordered) {
		return apperr.Invalid(field, "must_list_every_id_once")
	}
	seen := make(map[string]bool, len(current))
	for _, id := range current {
		seen[id] = false
	}
	for _, id := range ordered {
		used, ok := seen[id]
		if !ok || used {
			return apperr.Invalid(field, "must_list_every_id_once")
		}
		seen[id] = true
	}
	return nil
}

func forUpdate() clause.Expression {
	return clause.Locking{Strength: "UPDATE"}
}

func validEmail(addr string) bool {
	parsed, err := mail.ParseAddress(addr)
	return err == nil && parsed.Address == addr
}

func validateSectionType(v *apperr.ValidationError, field string, t models.SectionType) {
	if !t.Valid() {
		v.Add(field, "unknown_section_type")
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
