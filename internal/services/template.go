package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"DF-PROPOSAL/internal/apperr"
	"DF-PROPOSAL/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type TemplateService struct {
	db *gorm.DB
}

func NewTemplateService(db *gorm.DB) *TemplateService {
	return &TemplateService{db: db}
}

type TemplateSectionInput struct {
	SectionType models.SectionType `json:"sectionType"`
	Title       string             `json:"title"`
	Content     string             `json:"content"`
	Visible     *bool              `json:"visible"`
	Locked      bool               `json:"locked"`
}

type TemplateInput struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Category    string                 `json:"category"`
	Theme       *models.Theme          `json:"theme"`
	Sections    []TemplateSectionInput `json:"sections"`
}

// TemplateUpdate is a partial update. A non-nil Sections replaces the whole
// section list.
type TemplateUpdate struct {
	Name        *string                 `json:"name"`
	Description *string                 `json:"description"`
	Category    *string                 `json:"category"`
	Theme       *models.Theme           `json:"theme"`
	Sections    *[]TemplateSectionInput `json:"sections"`
}

func (s *TemplateService) CreateTemplate(ctx context.Context, ownerID string, in TemplateInput) (*models.Template, error) {
	v := apperr.NewValidation()
	name := strings.TrimSpace(in.Name)
	if name == "" {
		v.Add("name", "required")
	}
	validateTemplateSections(v, in.Sections)
	if err := v.Err(); err != nil {
		return nil, err
	}

	template := &models.Template{
		ID:          uuid.New().String(),
		OwnerID:     ownerID,
		Name:        name,
		Description: in.Description,
		Category:    strings.TrimSpace(in.Category),
		Theme:       models.DefaultTheme(),
	}
	if in.Theme != nil {
		template.Theme = *in.Theme
	}
	template.Sections = buildTemplateSections(template.ID, in.Sections)

	if err := s.db.WithContext(ctx).Create(template).Error; err != nil {
		return nil, fmt.Errorf("failed to save template: %w", err)
	}

	log.Info().Str("template_id", template.ID).Str("owner_id", ownerID).Int("sections", len(template.Sections)).Msg("Template created")
	return template, nil
}

func (s *TemplateService) GetTemplate(ctx context.Context, ownerID, templateID string) (*models.Template, error) {
	return getTemplate(s.db.WithContext(ctx), ownerID, templateID)
}

// getTemplate loads an owner's template with its sections in order.
func getTemplate(db *gorm.DB, ownerID, templateID string) (*models.Template, error) {
	var template models.Template
	err := db.Preload("Sections", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order ASC")
	}).First(&template, "id = ? AND owner_id = ?", templateID, ownerID).Error
	if err != nil {
		return nil, notFound(err, "template")
	}
	return &template, nil
}

// ListTemplates returns templates without their sections, optionally filtered by category.
func (s *TemplateService) ListTemplates(ctx context.Context, ownerID, category string) ([]models.Template, error) {
	var templates []models.Template
	query := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("name ASC")
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if err := query.Find(&templates).Error; err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return templates, nil
}

func (s *TemplateService) UpdateTemplate(ctx context.Context, ownerID, templateID string, in TemplateUpdate) (*models.Template, error) {
	v := apperr.NewValidation()
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		v.Add("name", "required")
	}
	if in.Sections != nil {
		validateTemplateSections(v, *in.Sections)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockTemplate(tx, ownerID, templateID); err != nil {
			return err
		}

		fields := map[string]any{}
		if in.Name != nil {
			fields["name"] = strings.TrimSpace(*in.Name)
		}
		if in.Description != nil {
			fields["description"] = *in.Description
		}
		if in.Category != nil {
			fields["category"] = strings.TrimSpace(*in.Category)
		}
		if in.Theme != nil {
			fields["theme_primary_color"] = in.Theme.PrimaryColor
			fields["theme_secondary_color"] = in.Theme.SecondaryColor
			fields["theme_accent_color"] = in.Theme.AccentColor
			fields["theme_header_style"] = in.Theme.HeaderStyle
			fields["theme_font_family"] = in.Theme.FontFamily
		}
		if len(fields) > 0 {
			if err := tx.Model(&models.Template{}).Where("id = ?", templateID).Updates(fields).Error; err != nil {
				return fmt.Errorf("failed to update template: %w", err)
			}
		}

		if in.Sections != nil {
			if err := tx.Where("template_id = ?", templateID).Delete(&models.TemplateSection{}).Error; err != nil {
				return fmt.Errorf("failed to replace template sections: %w", err)
			}
			if sections := buildTemplateSections(templateID, *in.Sections); len(sections) > 0 {
				if err := tx.Create(&sections).Error; err != nil {
					return fmt.Errorf("failed to replace template sections: %w", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetTemplate(ctx, ownerID, templateID)
}

// DuplicateTemplate deep-copies a template and its sections under fresh ids.
// The copy shares nothing with the source.
func (s *TemplateService) DuplicateTemplate(ctx context.Context, ownerID, templateID string) (*models.Template, error) {
	var duplicate *models.Template
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		source, err := getTemplate(tx, ownerID, templateID)
		if err != nil {
			return err
		}

		duplicate = &models.Template{
			ID:          uuid.New().String(),
			OwnerID:     ownerID,
			Name:        source.Name + " (Copy)",
			Description: source.Description,
			Category:    source.Category,
			Theme:       source.Theme,
			Sections:    make([]models.TemplateSection, 0, len(source.Sections)),
		}
		for _, sec := range source.Sections {
			duplicate.Sections = append(duplicate.Sections, models.TemplateSection{
				ID:          uuid.New().String(),
				TemplateID:  duplicate.ID,
				SectionType: sec.SectionType,
				Title:       sec.Title,
				Content:     sec.Content,
				SortOrder:   sec.SortOrder,
				Visible:     sec.Visible,
				Locked:      sec.Locked,
			})
		}
		if err := tx.Create(duplicate).Error; err != nil {
			return fmt.Errorf("failed to save template copy: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("template_id", templateID).Str("copy_id", duplicate.ID).Msg("Template duplicated")
	return duplicate, nil
}

// DeleteTemplate soft-deletes the template. Documents created from it keep
// their own copies and are not affected.
func (s *TemplateService) DeleteTemplate(ctx context.Context, ownerID, templateID string) error {
	result := s.db.WithContext(ctx).Where("id = ? AND owner_id = ?", templateID, ownerID).Delete(&models.Template{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete template: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("template: %w", apperr.ErrNotFound)
	}
	return nil
}

func (s *TemplateService) AddSection(ctx context.Context, ownerID, templateID string, in TemplateSectionInput) (*models.TemplateSection, error) {
	v := apperr.NewValidation()
	validateSectionType(v, "sectionType", in.SectionType)
	if err := v.Err(); err != nil {
		return nil, err
	}

	var section models.TemplateSection
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockTemplate(tx, ownerID, templateID); err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&models.TemplateSection{}).Where("template_id = ?", templateID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count template sections: %w", err)
		}
		section = buildTemplateSections(templateID, []TemplateSectionInput{in})[0]
		section.SortOrder = int(count)
		if err := tx.Create(&section).Error; err != nil {
			return fmt.Errorf("failed to save template section: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &section, nil
}

func (s *TemplateService) UpdateSection(ctx context.Context, ownerID, templateID, sectionID string, patch SectionPatch) (*models.TemplateSection, error) {
	db := s.db.WithContext(ctx)
	if err := db.Select("id").First(&models.Template{}, "id = ? AND owner_id = ?", templateID, ownerID).Error; err != nil {
		return nil, notFound(err, "template")
	}
	var section models.TemplateSection
	if err := db.First(&section, "id = ? AND template_id = ?", sectionID, templateID).Error; err != nil {
		return nil, notFound(err, "template section")
	}
	if fields := patch.updates(); len(fields) > 0 {
		if err := db.Model(&section).Updates(fields).Error; err != nil {
			return nil, fmt.Errorf("failed to update template section: %w", err)
		}
	}
	if err := db.First(&section, "id = ?", sectionID).Error; err != nil {
		return nil, notFound(err, "template section")
	}
	return &section, nil
}

func (s *TemplateService) DeleteSection(ctx context.Context, ownerID, templateID, sectionID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockTemplate(tx, ownerID, templateID); err != nil {
			return err
		}
		result := tx.Where("id = ? AND template_id = ?", sectionID, templateID).Delete(&models.TemplateSection{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete template section: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("template section: %w", apperr.ErrNotFound)
		}
		return resequence(tx, &models.TemplateSection{}, "template_id", templateID)
	})
}

func lockTemplate(tx *gorm.DB, ownerID, templateID string) (*models.Template, error) {
	var template models.Template
	if err := tx.Clauses(forUpdate()).First(&template, "id = ? AND owner_id = ?", templateID, ownerID).Error; err != nil {
		return nil, notFound(err, "template")
	}
	return &template, nil
}

func validateTemplateSections(v *apperr.ValidationError, sections []TemplateSectionInput) {
	for i, sec := range sections {
		validateSectionType(v, "sections["+strconv.Itoa(i)+"].sectionType", sec.SectionType)
	}
}

func buildTemplateSections(templateID string, inputs []TemplateSectionInput) []models.TemplateSection {
	sections := make([]models.TemplateSection, 0, len(inputs))
	for i, in := range inputs {
		title := strings.TrimSpace(in.Title)
		if title == "" {
			title = in.SectionType.DefaultTitle()
		}
		visible := true
		if in.Visible != nil {
			visible = *in.Visible
		}
		sections = append(sections, models.TemplateSection{
			ID:          uuid.New().String(),
			TemplateID:  templateID,
			SectionType: in.SectionType,
			Title:       title,
			Content:     in.Content,
			SortOrder:   i,
			Visible:     visible,
			Locked:      in.Locked,
		})
	}
	return sections
}
