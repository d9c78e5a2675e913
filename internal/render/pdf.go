package render

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"

	"DF-PROPOSAL/internal/view"

	"github.com/go-pdf/fpdf"
	"github.com/microcosm-cc/bluemonday"
)

var (
	colorTextDark  = [3]int{44, 62, 80}
	colorTextMuted = [3]int{127, 140, 141}
	colorGridLine  = [3]int{220, 220, 220}
	colorTableAlt  = [3]int{241, 245, 249}

	blockBreak  = regexp.MustCompile(`(?i)<br\s*/?>|</(p|div|li|h[1-6]|tr|blockquote)>`)
	blankLines  = regexp.MustCompile(`\n{3,}`)
	textPolicy  = bluemonday.StrictPolicy()
	itemColumns = []float64{80, 18, 26, 20, 26}
)

// FPDFRenderer lays out the view projection directly with fpdf. It needs no
// external service.
type FPDFRenderer struct{}

func NewFPDFRenderer() *FPDFRenderer {
	return &FPDFRenderer{}
}

func (g *FPDFRenderer) RenderPDF(_ context.Context, doc *view.Document) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 25)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	primary := parseHexColor(safeTheme(doc.Theme).PrimaryColor)
	accent := parseHexColor(safeTheme(doc.Theme).AccentColor)

	g.writeCover(pdf, tr, doc, primary)

	for _, s := range doc.Sections {
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 14)
		pdf.SetTextColor(primary[0], primary[1], primary[2])
		pdf.MultiCell(0, 7, tr(s.Title), "", "L", false)

		pdf.SetFont("Arial", "", 10)
		pdf.SetTextColor(colorTextDark[0], colorTextDark[1], colorTextDark[2])
		if text := PlainText(s.Content); text != "" {
			pdf.MultiCell(0, 5, tr(text), "", "L", false)
		}
	}

	g.writePricing(pdf, tr, doc, accent)
	g.writeSignature(pdf, tr, doc)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("PDF output error: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *FPDFRenderer) writeCover(pdf *fpdf.Fpdf, tr func(string) string, doc *view.Document, primary [3]int) {
	pdf.AddPage()
	pageWidth, _ := pdf.GetPageSize()

	pdf.SetFillColor(primary[0], primary[1], primary[2])
	pdf.Rect(0, 0, pageWidth, 8, "F")

	pdf.SetY(20)
	pdf.SetFont("Arial", "B", 22)
	pdf.SetTextColor(primary[0], primary[1], primary[2])
	pdf.MultiCell(0, 10, tr(doc.Title), "", "L", false)

	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(colorTextMuted[0], colorTextMuted[1], colorTextMuted[2])
	meta := doc.Number + "  |  " + doc.Date
	if doc.ValidUntil != nil {
		meta += "  |  Valid until " + doc.ValidUntil.Format(view.DateLayout)
	}
	pdf.CellFormat(0, 6, tr(meta), "", 1, "L", false, 0, "")
	if doc.Client != nil {
		who := doc.Client.Name
		if doc.Client.Company != "" {
			who += ", " + doc.Client.Company
		}
		pdf.CellFormat(0, 6, tr("Prepared for "+who), "", 1, "L", false, 0, "")
	}
	if doc.Agency.Name != "" {
		pdf.CellFormat(0, 6, tr("Prepared by "+doc.Agency.Name), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

func (g *FPDFRenderer) writePricing(pdf *fpdf.Fpdf, tr func(string) string, doc *view.Document, accent [3]int) {
	if len(doc.Items) > 0 {
		pdf.Ln(6)
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(accent[0], accent[1], accent[2])
		pdf.SetTextColor(255, 255, 255)
		headers := []string{"Item", "Qty", "Unit price", "Disc. %", "Total"}
		for i, h := range headers {
			align := "R"
			if i == 0 {
				align = "L"
			}
			pdf.CellFormat(itemColumns[i], 7, h, "", 0, align, true, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 9)
		pdf.SetTextColor(colorTextDark[0], colorTextDark[1], colorTextDark[2])
		pdf.SetFillColor(colorTableAlt[0], colorTableAlt[1], colorTableAlt[2])
		for row, it := range doc.Items {
			fill := row%2 == 1
			pdf.CellFormat(itemColumns[0], 6, tr(truncate(it.Name, 48)), "", 0, "L", fill, 0, "")
			pdf.CellFormat(itemColumns[1], 6, it.Quantity, "", 0, "R", fill, 0, "")
			pdf.CellFormat(itemColumns[2], 6, it.UnitPrice, "", 0, "R", fill, 0, "")
			pdf.CellFormat(itemColumns[3], 6, it.DiscountPercent, "", 0, "R", fill, 0, "")
			pdf.CellFormat(itemColumns[4], 6, it.Total, "", 1, "R", fill, 0, "")
		}
	}

	pdf.Ln(4)
	pdf.SetDrawColor(colorGridLine[0], colorGridLine[1], colorGridLine[2])
	rows := [][2]string{
		{"Subtotal", doc.Totals.Subtotal},
		{"Discount", "-" + doc.Totals.Discount},
		{"Tax", doc.Totals.Tax},
		{"Total", doc.Totals.Total},
	}
	for i, r := range rows {
		style := ""
		if i == len(rows)-1 {
			style = "B"
		}
		pdf.SetFont("Arial", style, 10)
		pdf.CellFormat(124, 6, r[0], "", 0, "R", false, 0, "")
		pdf.CellFormat(46, 6, doc.Currency+" "+r[1], "T", 1, "R", false, 0, "")
	}
}

func (g *FPDFRenderer) writeSignature(pdf *fpdf.Fpdf, tr func(string) string, doc *view.Document) {
	if doc.Signature == nil {
		return
	}
	sig := doc.Signature
	pdf.Ln(10)
	pdf.SetFont("Arial", "B", 11)
	pdf.SetTextColor(colorTextDark[0], colorTextDark[1], colorTextDark[2])
	pdf.CellFormat(0, 6, "Acceptance", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	if sig.SignatureType == "typed" && sig.SignatureData != "" {
		pdf.SetFont("Times", "I", 18)
		pdf.CellFormat(0, 10, tr(sig.SignatureData), "B", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
	}
	line := fmt.Sprintf("Signed by %s <%s> on %s", sig.SignerName, sig.SignerEmail, sig.SignedAt.UTC().Format("January 2, 2006 15:04 MST"))
	pdf.MultiCell(0, 5, tr(line), "", "L", false)
}

// PlainText strips markup from sanitized section content, keeping block
// boundaries as line breaks.
func PlainText(content string) string {
	withBreaks := blockBreak.ReplaceAllString(content, "$0\n")
	text := html.UnescapeString(textPolicy.Sanitize(withBreaks))
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = blankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

func parseHexColor(hex string) [3]int {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	var rgb [3]int
	for i := 0; i < 3 && len(hex) >= (i+1)*2; i++ {
		v, err := strconv.ParseUint(hex[i*2:i*2+2], 16, 8)
		if err == nil {
			rgb[i] = int(v)
		}
	}
	return rgb
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
