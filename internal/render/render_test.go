package render

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"DF-PROPOSAL/internal/lifecycle"
	"DF-PROPOSAL/internal/models"
	"DF-PROPOSAL/internal/view"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleView() *view.Document {
	valid := time.Date(2026, 10, 31, 0, 0, 0, 0, time.UTC)
	return &view.Document{
		Kind:       "proposal",
		Number:     "PRO-0001",
		Title:      "Brand <Refresh>",
		Currency:   "EUR",
		Status:     lifecycle.Accepted,
		Display:    "accepted",
		Date:       "October 1, 2026",
		ValidUntil: &valid,
		Theme:      models.Theme{PrimaryColor: "red;}</style><script>", AccentColor: "#0af", FontFamily: "Georgia"},
		Client:     &view.Party{Name: "Ada", Company: "Analytical"},
		Agency:     view.Party{Name: "Northwind Studio"},
		Sections: []view.Section{
			{ID: "s1", SectionType: "introduction", Title: "Intro", Content: "<p>Hello <strong>Ada</strong></p><p>Second &amp; last</p>"},
		},
		Items: []view.Item{
			{Name: "Logo design", Quantity: "2", UnitPrice: "150.00", DiscountPercent: "10", Total: "270.00"},
		},
		Totals: view.Totals{Subtotal: "270.00", Discount: "0.00", Tax: "0.00", Total: "270.00"},
		Signature: &view.Signature{
			SignerName: "Ada", SignerEmail: "ada@example.com", SignatureType: "typed",
			SignatureData: "Ada", SignedAt: time.Date(2026, 10, 5, 10, 0, 0, 0, time.UTC),
		},
	}
}

func TestRenderHTML(t *testing.T) {
	out, err := NewHTMLRenderer().RenderHTML(sampleView())
	require.NoError(t, err)
	page := string(out)

	assert.Contains(t, page, "Brand &lt;Refresh&gt;")
	assert.Contains(t, page, "<p>Hello <strong>Ada</strong></p>")
	assert.Contains(t, page, "EUR 270.00")
	assert.Contains(t, page, "Valid until October 31, 2026")
	assert.Contains(t, page, "Prepared for Ada, Analytical")
	assert.Contains(t, page, "Accepted by Ada")
	assert.NotContains(t, page, "<script>")
	assert.Contains(t, page, "#1f2937", "invalid theme color falls back to the default")
	assert.Contains(t, page, "#0af")
}

func TestRenderPDF(t *testing.T) {
	out, err := NewFPDFRenderer().RenderPDF(context.Background(), sampleView())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestRenderPDFWithoutItemsOrSignature(t *testing.T) {
	v := sampleView()
	v.Items = nil
	v.Signature = nil
	v.Client = nil
	v.ValidUntil = nil

	out, err := NewFPDFRenderer().RenderPDF(context.Background(), v)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestPlainText(t *testing.T) {
	text := PlainText("<h2>Scope</h2><ul><li>One</li><li>Two &amp; three</li></ul><p>Line<br>break</p>")
	lines := strings.Split(text, "\n")
	assert.Equal(t, []string{"Scope", "One", "Two & three", "Line", "break"}, lines)
	assert.Empty(t, PlainText("<p>   </p>"))
}

func TestParseHexColor(t *testing.T) {
	assert.Equal(t, [3]int{0, 170, 255}, parseHexColor("#0af"))
	assert.Equal(t, [3]int{31, 41, 55}, parseHexColor("#1f2937"))
}
