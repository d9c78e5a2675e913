package models

import (
	"time"

	"gorm.io/gorm"
)

type SectionType string

const (
	SectionCover            SectionType = "cover"
	SectionIntroduction     SectionType = "introduction"
	SectionExecutiveSummary SectionType = "executive_summary"
	SectionScopeOfWork      SectionType = "scope_of_work"
	SectionTimeline         SectionType = "timeline"
	SectionPricing          SectionType = "pricing"
	SectionTestimonials     SectionType = "testimonials"
	SectionTeam             SectionType = "team"
	SectionTerms            SectionType = "terms"
	SectionCustom           SectionType = "custom"
)

var sectionTitles = map[SectionType]string{
	SectionCover:            "Cover",
	SectionIntroduction:     "Introduction",
	SectionExecutiveSummary: "Executive Summary",
	SectionScopeOfWork:      "Scope of Work",
	SectionTimeline:         "Timeline",
	SectionPricing:          "Pricing",
	SectionTestimonials:     "Testimonials",
	SectionTeam:             "Our Team",
	SectionTerms:            "Terms & Conditions",
	SectionCustom:           "Custom Section",
}

func (t SectionType) Valid() bool {
	_, ok := sectionTitles[t]
	return ok
}

// DefaultTitle is used when a section is added without an explicit title.
func (t SectionType) DefaultTitle() string {
	return sectionTitles[t]
}

// Theme is embedded in templates and copied onto documents created from them.
type Theme struct {
	PrimaryColor   string `gorm:"type:varchar(16)" json:"primaryColor"`
	SecondaryColor string `gorm:"type:varchar(16)" json:"secondaryColor"`
	AccentColor    string `gorm:"type:varchar(16)" json:"accentColor"`
	HeaderStyle    string `gorm:"type:varchar(32)" json:"headerStyle"`
	FontFamily     string `gorm:"type:varchar(64)" json:"fontFamily"`
}

func DefaultTheme() Theme {
	return Theme{
		PrimaryColor:   "#1f2937",
		SecondaryColor: "#6b7280",
		AccentColor:    "#2563eb",
		HeaderStyle:    "classic",
		FontFamily:     "Helvetica",
	}
}

type Template struct {
	ID          string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	OwnerID     string         `gorm:"type:varchar(64);not null;index" json:"ownerId"`
	Name        string         `gorm:"type:varchar(255);not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	Category    string         `gorm:"type:varchar(64);index" json:"category"`
	Theme       Theme          `gorm:"embedded;embeddedPrefix:theme_" json:"theme"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Sections []TemplateSection `gorm:"foreignKey:TemplateID" json:"sections"`
}

func (Template) TableName() string {
	return "proposal_templates"
}

type TemplateSection struct {
	ID          string      `gorm:"type:varchar(36);primaryKey" json:"id"`
	TemplateID  string      `gorm:"type:varchar(36);not null;index" json:"templateId"`
	SectionType SectionType `gorm:"type:varchar(32);not null" json:"sectionType"`
	Title       string      `gorm:"type:varchar(255)" json:"title"`
	Content     string      `gorm:"type:longtext" json:"content"`
	SortOrder   int         `gorm:"not null" json:"sortOrder"`
	Visible     bool        `gorm:"not null" json:"visible"`
	Locked      bool        `gorm:"not null" json:"locked"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

func (TemplateSection) TableName() string {
	return "template_sections"
}
