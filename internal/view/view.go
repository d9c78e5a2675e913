// Package view builds the recipient-facing projection of a document.
//
// The projection is what every rendering surface consumes: the public JSON
// view, the author preview, the HTML page and the PDF. Section content in it
// has placeholders resolved and is sanitized, and internal fields (notes,
// owner, template lineage, storage paths, the access token) are not carried.
package view

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"DF-PROPOSAL/internal/lifecycle"
	"DF-PROPOSAL/internal/models"
	"DF-PROPOSAL/internal/placeholder"
	"DF-PROPOSAL/internal/pricing"

	"github.com/microcosm-cc/bluemonday"
)

// DateLayout is used for every human-readable date in a document.
const DateLayout = "January 2, 2006"

type Document struct {
	ID       string `json:"-"`
	Revision string `json:"-"`

	Kind       string           `json:"kind"`
	Number     string           `json:"number"`
	Title      string           `json:"title"`
	Currency   string           `json:"currency"`
	Status     lifecycle.Status `json:"status"`
	Display    string           `json:"display"`
	Date       string           `json:"date"`
	ValidUntil *time.Time       `json:"validUntil"`
	Sections   []Section        `json:"sections"`
	Items      []Item           `json:"pricingItems"`
	Totals     Totals           `json:"totals"`
	Theme      models.Theme     `json:"theme"`
	Client     *Party           `json:"client,omitempty"`
	Agency     Party            `json:"agency"`
	Signature  *Signature       `json:"signature,omitempty"`
	Comments   []Comment        `json:"comments"`
}

type Section struct {
	ID          string `json:"id"`
	SectionType string `json:"sectionType"`
	Title       string `json:"title"`
	Content     string `json:"content"`
}

// Item carries money as fixed-point strings so no client re-rounds them.
type Item struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	Quantity        string `json:"quantity"`
	UnitPrice       string `json:"unitPrice"`
	DiscountPercent string `json:"discountPercent"`
	Total           string `json:"total"`
}

type Totals struct {
	Subtotal string `json:"subtotal"`
	Discount string `json:"discountAmount"`
	Tax      string `json:"taxAmount"`
	Total    string `json:"totalAmount"`
}

type Party struct {
	Name    string `json:"name"`
	Company string `json:"company,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

type Signature struct {
	SignerName    string    `json:"signerName"`
	SignerEmail   string    `json:"signerEmail"`
	SignatureType string    `json:"signatureType"`
	SignatureData string    `json:"signatureData"`
	SignedAt      time.Time `json:"signedAt"`
}

type Comment struct {
	AuthorEmail string    `json:"authorEmail,omitempty"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"createdAt"`
}

var contentPolicy = bluemonday.UGCPolicy()

// Project builds the view of doc as of now. doc must have its sections,
// pricing items, signatures, comments and client loaded.
func Project(doc *models.Document, agency placeholder.Agency, now time.Time) *Document {
	status := doc.EffectiveStatus(now)
	ctx := PlaceholderContext(doc, agency, now)

	// Anything printed on the page that does not bump doc.UpdatedAt goes here.
	revision := fmt.Sprintf("%d|%s|%s|%s|%s|%s", doc.UpdatedAt.UnixNano(), status,
		ctx.Proposal.Date, agency.Name, agency.Email, agency.Phone)
	if doc.Client != nil {
		revision += fmt.Sprintf("|%d", doc.Client.UpdatedAt.UnixNano())
	}

	v := &Document{
		ID:         doc.ID,
		Revision:   revision,
		Kind:       string(doc.Kind),
		Number:     doc.Number,
		Title:      doc.Title,
		Currency:   doc.Currency,
		Status:     status,
		Display:    status.Display(),
		Date:       ctx.Proposal.Date,
		ValidUntil: doc.ValidUntil,
		Theme:      doc.Theme,
		Agency: Party{
			Name:  agency.Name,
			Email: agency.Email,
			Phone: agency.Phone,
		},
		Totals: Totals{
			Subtotal: pricing.Format(doc.Subtotal),
			Discount: pricing.Format(doc.Discount),
			Tax:      pricing.Format(doc.Tax),
			Total:    pricing.Format(doc.Total),
		},
		Sections: make([]Section, 0, len(doc.Sections)),
		Items:    make([]Item, 0, len(doc.PricingItems)),
		Comments: make([]Comment, 0, len(doc.Comments)),
	}

	if doc.Client != nil {
		v.Client = &Party{
			Name:    doc.Client.Name,
			Company: doc.Client.Company,
			Email:   doc.Client.Email,
			Phone:   doc.Client.Phone,
		}
	}

	sections := append([]models.Section(nil), doc.Sections...)
	sort.SliceStable(sections, func(i, j int) bool { return sections[i].SortOrder < sections[j].SortOrder })
	for _, s := range sections {
		if !s.Visible {
			continue
		}
		v.Sections = append(v.Sections, Section{
			ID:          s.ID,
			SectionType: string(s.SectionType),
			Title:       s.Title,
			Content:     Sanitize(placeholder.Resolve(s.Content, ctx)),
		})
	}

	items := append([]models.PricingItem(nil), doc.PricingItems...)
	sort.SliceStable(items, func(i, j int) bool { return items[i].SortOrder < items[j].SortOrder })
	for _, it := range items {
		v.Items = append(v.Items, Item{
			Name:            it.Name,
			Description:     it.Description,
			Quantity:        it.Quantity.String(),
			UnitPrice:       pricing.Format(it.UnitPrice),
			DiscountPercent: it.DiscountPercent.String(),
			Total:           pricing.Format(it.TotalPrice),
		})
	}

	if len(doc.Signatures) > 0 {
		sig := doc.Signatures[0]
		v.Signature = &Signature{
			SignerName:    sig.SignerName,
			SignerEmail:   sig.SignerEmail,
			SignatureType: string(sig.SignatureType),
			SignatureData: sig.Payload,
			SignedAt:      sig.SignedAt,
		}
	}

	comments := append([]models.Comment(nil), doc.Comments...)
	sort.SliceStable(comments, func(i, j int) bool { return comments[i].CreatedAt.Before(comments[j].CreatedAt) })
	for _, c := range comments {
		v.Comments = append(v.Comments, Comment{
			AuthorEmail: c.AuthorEmail,
			Content:     c.Content,
			CreatedAt:   c.CreatedAt,
		})
	}

	return v
}

// PlaceholderContext collects the display values for the placeholder vocabulary.
func PlaceholderContext(doc *models.Document, agency placeholder.Agency, now time.Time) placeholder.Context {
	date := now
	if doc.SentAt != nil {
		date = *doc.SentAt
	}

	ctx := placeholder.Context{
		Proposal: placeholder.Proposal{
			Title:  doc.Title,
			Date:   date.UTC().Format(DateLayout),
			Number: doc.Number,
			Total:  strings.TrimSpace(doc.Currency + " " + pricing.Format(doc.Total)),
		},
		Agency: agency,
	}
	if doc.ValidUntil != nil {
		ctx.Proposal.ValidUntil = doc.ValidUntil.UTC().Format(DateLayout)
	}
	if doc.Client != nil {
		ctx.Client = placeholder.Client{
			Name:    doc.Client.Name,
			Company: doc.Client.Company,
			Email:   doc.Client.Email,
		}
	}
	return ctx
}

// Sanitize applies the rich-text policy used for all section content.
func Sanitize(content string) string {
	return contentPolicy.Sanitize(content)
}
