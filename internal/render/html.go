package render

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"regexp"

	"DF-PROPOSAL/internal/models"
	"DF-PROPOSAL/internal/view"
)

// PDFRenderer produces a printable document from the view projection.
type PDFRenderer interface {
	RenderPDF(ctx context.Context, doc *view.Document) ([]byte, error)
}

var (
	hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
	fontName = regexp.MustCompile(`^[A-Za-z0-9 ,'-]{1,64}$`)
)

// HTMLRenderer renders the view projection as a standalone HTML page.
type HTMLRenderer struct {
	tmpl *template.Template
}

func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{
		tmpl: template.Must(template.New("document").Funcs(template.FuncMap{
			// Section content is sanitized when the view is built.
			"trusted": func(s string) template.HTML { return template.HTML(s) },
		}).Parse(documentTemplate)),
	}
}

type page struct {
	*view.Document
	Theme models.Theme
}

func (r *HTMLRenderer) RenderHTML(doc *view.Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, page{Document: doc, Theme: safeTheme(doc.Theme)}); err != nil {
		return nil, fmt.Errorf("failed to render document HTML: %w", err)
	}
	return buf.Bytes(), nil
}

// safeTheme replaces theme values that cannot be used verbatim in CSS.
func safeTheme(t models.Theme) models.Theme {
	def := models.DefaultTheme()
	if !hexColor.MatchString(t.PrimaryColor) {
		t.PrimaryColor = def.PrimaryColor
	}
	if !hexColor.MatchString(t.SecondaryColor) {
		t.SecondaryColor = def.SecondaryColor
	}
	if !hexColor.MatchString(t.AccentColor) {
		t.AccentColor = def.AccentColor
	}
	if !fontName.MatchString(t.FontFamily) {
		t.FontFamily = def.FontFamily
	}
	return t
}

const documentTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Number}} {{.Title}}</title>
<style>
body { font-family: {{.Theme.FontFamily}}, sans-serif; color: {{.Theme.PrimaryColor}}; margin: 40px; }
h1, h2 { color: {{.Theme.PrimaryColor}}; }
.meta { color: {{.Theme.SecondaryColor}}; }
table { width: 100%; border-collapse: collapse; margin-top: 16px; }
th { background: {{.Theme.AccentColor}}; color: #ffffff; text-align: left; padding: 6px; }
td { border-bottom: 1px solid #e5e7eb; padding: 6px; }
.num { text-align: right; }
.status { font-weight: bold; text-transform: uppercase; }
</style>
</head>
<body>
<header>
<h1>{{.Title}}</h1>
<p class="meta">{{.Number}} &middot; {{.Date}}{{with .ValidUntil}} &middot; Valid until {{.Format "January 2, 2006"}}{{end}}</p>
{{with .Client}}<p class="meta">Prepared for {{.Name}}{{with .Company}}, {{.}}{{end}}</p>{{end}}
{{with .Agency.Name}}<p class="meta">Prepared by {{.}}</p>{{end}}
<p class="status">{{.Display}}</p>
</header>
{{range .Sections}}
<section id="section-{{.ID}}" class="section-{{.SectionType}}">
<h2>{{.Title}}</h2>
{{trusted .Content}}
</section>
{{end}}
{{if .Items}}
<table>
<thead><tr><th>Item</th><th class="num">Qty</th><th class="num">Unit price</th><th class="num">Discount %</th><th class="num">Total</th></tr></thead>
<tbody>
{{range .Items}}<tr><td>{{.Name}}{{with .Description}}<br><small>{{.}}</small>{{end}}</td><td class="num">{{.Quantity}}</td><td class="num">{{.UnitPrice}}</td><td class="num">{{.DiscountPercent}}</td><td class="num">{{.Total}}</td></tr>
{{end}}
</tbody>
</table>
{{end}}
<table class="totals">
<tr><td>Subtotal</td><td class="num">{{.Currency}} {{.Totals.Subtotal}}</td></tr>
<tr><td>Discount</td><td class="num">-{{.Currency}} {{.Totals.Discount}}</td></tr>
<tr><td>Tax</td><td class="num">{{.Currency}} {{.Totals.Tax}}</td></tr>
<tr><td><strong>Total</strong></td><td class="num"><strong>{{.Currency}} {{.Totals.Total}}</strong></td></tr>
</table>
{{with .Signature}}
<footer>
<p>Accepted by {{.SignerName}} &lt;{{.SignerEmail}}&gt; on {{.SignedAt.Format "January 2, 2006 15:04 MST"}}</p>
</footer>
{{end}}
</body>
</html>
`
