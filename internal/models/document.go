package models

import (
	"fmt"
	"time"

	"DF-PROPOSAL/internal/lifecycle"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DocumentKind string

const (
	KindProposal  DocumentKind = "proposal"
	KindQuotation DocumentKind = "quotation"
)

func (k DocumentKind) Valid() bool {
	return k == KindProposal || k == KindQuotation
}

// FormatNumber renders the per-owner sequence as PRO-0001 / QUO-0001.
func (k DocumentKind) FormatNumber(seq int) string {
	prefix := "PRO"
	if k == KindQuotation {
		prefix = "QUO"
	}
	return fmt.Sprintf("%s-%04d", prefix, seq)
}

const DefaultCurrency = "USD"

type Document struct {
	ID          string           `gorm:"type:varchar(36);primaryKey" json:"id"`
	OwnerID     string           `gorm:"type:varchar(64);not null;uniqueIndex:idx_documents_owner_kind_seq,priority:1" json:"ownerId"`
	Kind        DocumentKind     `gorm:"type:varchar(16);not null;uniqueIndex:idx_documents_owner_kind_seq,priority:2" json:"kind"`
	Sequence    int              `gorm:"not null;uniqueIndex:idx_documents_owner_kind_seq,priority:3" json:"-"`
	Number      string           `gorm:"type:varchar(32);not null" json:"number"`
	Title       string           `gorm:"type:varchar(255);not null" json:"title"`
	Status      lifecycle.Status `gorm:"type:varchar(16);not null;index" json:"status"`
	Currency    string           `gorm:"type:varchar(3);not null" json:"currency"`
	ValidUntil  *time.Time       `json:"validUntil"`
	Subtotal    decimal.Decimal  `gorm:"type:decimal(20,2);not null" json:"subtotal"`
	Discount    decimal.Decimal  `gorm:"column:discount_amount;type:decimal(20,2);not null" json:"discountAmount"`
	Tax         decimal.Decimal  `gorm:"column:tax_amount;type:decimal(20,2);not null" json:"taxAmount"`
	Total       decimal.Decimal  `gorm:"column:total_amount;type:decimal(20,2);not null" json:"totalAmount"`
	Theme       Theme            `gorm:"embedded;embeddedPrefix:theme_" json:"theme"`
	ClientID    *string          `gorm:"type:varchar(36);index" json:"clientId"`
	TemplateID  *string          `gorm:"type:varchar(36);index" json:"templateId"`
	Notes       string           `gorm:"type:text" json:"notes"`
	AccessToken *string          `gorm:"type:varchar(64);uniqueIndex" json:"accessToken,omitempty"`
	SentAt      *time.Time       `json:"sentAt"`
	RespondedAt *time.Time       `json:"respondedAt"`
	ArchivePath string           `gorm:"type:varchar(512)" json:"archivePath,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt   `gorm:"index" json:"-"`

	// Effective is filled on read with the derived status.
	Effective lifecycle.Status `gorm:"-" json:"effectiveStatus"`

	Client       *Client       `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Sections     []Section     `gorm:"foreignKey:DocumentID" json:"sections"`
	PricingItems []PricingItem `gorm:"foreignKey:DocumentID" json:"pricingItems"`
	Signatures   []Signature   `gorm:"foreignKey:DocumentID" json:"signatures"`
	Comments     []Comment     `gorm:"foreignKey:DocumentID" json:"comments"`
}

func (Document) TableName() string {
	return "proposal_documents"
}

// EffectiveStatus is the read-time status, with Expired derived from validUntil.
func (d *Document) EffectiveStatus(now time.Time) lifecycle.Status {
	return d.Status.Effective(d.ValidUntil, now)
}

// Section is a block of rich text inside a document. Content holds the stored
// snapshot with placeholders unresolved.
type Section struct {
	ID          string      `gorm:"type:varchar(36);primaryKey" json:"id"`
	DocumentID  string      `gorm:"type:varchar(36);not null;index" json:"documentId"`
	SectionType SectionType `gorm:"type:varchar(32);not null" json:"sectionType"`
	Title       string      `gorm:"type:varchar(255)" json:"title"`
	Content     string      `gorm:"type:longtext" json:"content"`
	SortOrder   int         `gorm:"not null" json:"sortOrder"`
	Visible     bool        `gorm:"not null" json:"visible"`
	Locked      bool        `gorm:"not null" json:"locked"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

func (Section) TableName() string {
	return "document_sections"
}

type PricingItem struct {
	ID              string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	DocumentID      string          `gorm:"type:varchar(36);not null;index" json:"documentId"`
	Name            string          `gorm:"type:varchar(255);not null" json:"name"`
	Description     string          `gorm:"type:text" json:"description"`
	Quantity        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unitPrice"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(7,4);not null" json:"discountPercent"`
	TotalPrice      decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"totalPrice"`
	SortOrder       int             `gorm:"not null" json:"sortOrder"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

func (PricingItem) TableName() string {
	return "pricing_items"
}

type SignatureType string

const (
	SignatureTyped SignatureType = "typed"
	SignatureDrawn SignatureType = "drawn"
)

func (t SignatureType) Valid() bool {
	return t == SignatureTyped || t == SignatureDrawn
}

// Signature is an attestation record. It is written once, inside the accept
// transaction, and never updated.
type Signature struct {
	ID            string        `gorm:"type:varchar(36);primaryKey" json:"id"`
	DocumentID    string        `gorm:"type:varchar(36);not null;uniqueIndex" json:"documentId"`
	SignerName    string        `gorm:"type:varchar(255);not null" json:"signerName"`
	SignerEmail   string        `gorm:"type:varchar(255);not null" json:"signerEmail"`
	SignatureType SignatureType `gorm:"type:varchar(16);not null" json:"signatureType"`
	Payload       string        `gorm:"type:longtext" json:"signatureData"`
	SignedAt      time.Time     `gorm:"not null" json:"signedAt"`
	IPAddress     string        `gorm:"type:varchar(45)" json:"ipAddress"`
	UserAgent     string        `gorm:"type:text" json:"userAgent"`
}

func (Signature) TableName() string {
	return "signatures"
}

// Comment is append-only recipient feedback.
type Comment struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	DocumentID  string    `gorm:"type:varchar(36);not null;index" json:"documentId"`
	AuthorEmail string    `gorm:"type:varchar(255)" json:"authorEmail"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (Comment) TableName() string {
	return "document_comments"
}
