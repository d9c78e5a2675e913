package view

import (
	"encoding/json"
	"testing"
	"time"

	"DF-PROPOSAL/internal/lifecycle"
	"DF-PROPOSAL/internal/models"
	"DF-PROPOSAL/internal/placeholder"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

func sampleDocument() *models.Document {
	token := "secret-token-value"
	templateID := "tmpl-1"
	clientID := "client-1"
	sent := time.Date(2026, 10, 1, 15, 0, 0, 0, time.UTC)
	valid := time.Date(2026, 10, 31, 23, 59, 59, 0, time.UTC)

	return &models.Document{
		ID:          "doc-1",
		OwnerID:     "owner-1",
		Kind:        models.KindProposal,
		Number:      "PRO-0003",
		Title:       "Website Redesign",
		Status:      lifecycle.Sent,
		Currency:    "USD",
		ValidUntil:  &valid,
		SentAt:      &sent,
		Subtotal:    decimal.RequireFromString("500"),
		Discount:    decimal.RequireFromString("50"),
		Tax:         decimal.RequireFromString("25"),
		Total:       decimal.RequireFromString("475"),
		Notes:       "internal margin 40%",
		AccessToken: &token,
		TemplateID:  &templateID,
		ClientID:    &clientID,
		ArchivePath: "documents/doc-1/1_PRO-0003.pdf",
		Client:      &models.Client{ID: clientID, Name: "Ada Lovelace", Company: "Analytical Engines"},
		Sections: []models.Section{
			{ID: "s2", SectionType: models.SectionTerms, Title: "Terms", Content: "<p>Valid until {{proposal.validUntil}}</p>", SortOrder: 2, Visible: true},
			{ID: "s0", SectionType: models.SectionCover, Title: "Cover", Content: "<h1>{{proposal.title}}</h1><script>alert(1)</script>", SortOrder: 0, Visible: true},
			{ID: "s1", SectionType: models.SectionTeam, Title: "Hidden", Content: "hidden", SortOrder: 1, Visible: false},
		},
		PricingItems: []models.PricingItem{
			{ID: "i1", Name: "Design", Quantity: decimal.RequireFromString("2.0000"), UnitPrice: decimal.RequireFromString("150"), DiscountPercent: decimal.RequireFromString("10"), TotalPrice: decimal.RequireFromString("270"), SortOrder: 0},
		},
		Comments: []models.Comment{
			{Content: "second", CreatedAt: sent.Add(2 * time.Hour)},
			{Content: "first", CreatedAt: sent.Add(time.Hour)},
		},
	}
}

func TestProjectOrdersAndFiltersSections(t *testing.T) {
	v := Project(sampleDocument(), placeholder.Agency{Name: "Northwind"}, fixedNow)

	require.Len(t, v.Sections, 2)
	assert.Equal(t, "s0", v.Sections[0].ID)
	assert.Equal(t, "s2", v.Sections[1].ID)
	assert.Equal(t, "<h1>Website Redesign</h1>", v.Sections[0].Content)
	assert.Equal(t, "<p>Valid until October 31, 2026</p>", v.Sections[1].Content)
}

func TestProjectFormatsMoneyAndStatus(t *testing.T) {
	v := Project(sampleDocument(), placeholder.Agency{}, fixedNow)

	assert.Equal(t, lifecycle.Sent, v.Status)
	assert.Equal(t, "actionable", v.Display)
	assert.Equal(t, "October 1, 2026", v.Date)
	assert.Equal(t, Totals{Subtotal: "500.00", Discount: "50.00", Tax: "25.00", Total: "475.00"}, v.Totals)
	require.Len(t, v.Items, 1)
	assert.Equal(t, "2", v.Items[0].Quantity)
	assert.Equal(t, "270.00", v.Items[0].Total)
	assert.Equal(t, []string{"first", "second"}, []string{v.Comments[0].Content, v.Comments[1].Content})
}

func TestProjectDerivesExpired(t *testing.T) {
	v := Project(sampleDocument(), placeholder.Agency{}, time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, lifecycle.Expired, v.Status)
	assert.Equal(t, "expired", v.Display)
}

func TestProjectOmitsInternalFields(t *testing.T) {
	v := Project(sampleDocument(), placeholder.Agency{}, fixedNow)
	b, err := json.Marshal(v)
	require.NoError(t, err)

	body := string(b)
	for _, leaked := range []string{"secret-token-value", "internal margin", "tmpl-1", "owner-1", "client-1", "documents/doc-1", "doc-1"} {
		assert.NotContains(t, body, leaked)
	}
	assert.Contains(t, body, `"status":"sent"`)
	assert.Contains(t, body, `"totalAmount":"475.00"`)
}

func TestPlaceholderContextFallsBackToNow(t *testing.T) {
	doc := sampleDocument()
	doc.SentAt = nil
	doc.ValidUntil = nil
	doc.Client = nil

	ctx := PlaceholderContext(doc, placeholder.Agency{Phone: "+1 555"}, fixedNow)
	assert.Equal(t, "October 18, 2026", ctx.Proposal.Date)
	assert.Equal(t, "USD 475.00", ctx.Proposal.Total)
	assert.Empty(t, ctx.Proposal.ValidUntil)
	assert.Empty(t, ctx.Client.Name)
	assert.Equal(t, "+1 555", ctx.Agency.Phone)
}

func TestRevisionTracksPrintedInputs(t *testing.T) {
	agency := placeholder.Agency{Name: "Acme Studio"}

	draft := sampleDocument()
	draft.Status = lifecycle.Draft
	draft.SentAt = nil
	today := Project(draft, agency, fixedNow).Revision
	assert.Equal(t, today, Project(draft, agency, fixedNow.Add(time.Hour)).Revision)
	assert.NotEqual(t, today, Project(draft, agency, fixedNow.Add(24*time.Hour)).Revision)
	assert.NotEqual(t, today, Project(draft, placeholder.Agency{Name: "Acme Studio", Phone: "+1 555"}, fixedNow).Revision)

	sent := sampleDocument()
	assert.Equal(t, Project(sent, agency, fixedNow).Revision, Project(sent, agency, fixedNow.Add(24*time.Hour)).Revision)
}
