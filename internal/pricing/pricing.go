// Package pricing turns pricing lines into document totals.
//
// All arithmetic is done on decimals. Values are rounded to two places only on
// output: each line total is rounded, and the subtotal is the exact sum of the
// rounded line totals, so it never depends on item ordering.
package pricing

import (
	"fmt"

	"DF-PROPOSAL/internal/apperr"

	"github.com/shopspring/decimal"
)

// Places is the currency precision used for every monetary output.
const Places = 2

var hundred = decimal.NewFromInt(100)

// Line is the input for one billable item.
type Line struct {
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	DiscountPercent decimal.Decimal
}

// Totals is the result of Calculate. Lines holds the rounded total of each
// input line in input order.
type Totals struct {
	Lines    []decimal.Decimal
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// Validate checks a single line. Field names are unprefixed.
func Validate(l Line) error {
	v := apperr.NewValidation()
	validateLine(v, "", l)
	return v.Err()
}

func validateLine(v *apperr.ValidationError, prefix string, l Line) {
	if l.Quantity.IsNegative() {
		v.Add(prefix+"quantity", "must_not_be_negative")
	}
	if l.UnitPrice.IsNegative() {
		v.Add(prefix+"unitPrice", "must_not_be_negative")
	}
	if l.DiscountPercent.IsNegative() || l.DiscountPercent.GreaterThan(hundred) {
		v.Add(prefix+"discountPercent", "out_of_range")
	}
}

// LineTotal returns round(quantity × unitPrice × (1 − discountPercent/100), 2).
func LineTotal(l Line) (decimal.Decimal, error) {
	if err := Validate(l); err != nil {
		return decimal.Zero, err
	}
	return lineTotal(l), nil
}

func lineTotal(l Line) decimal.Decimal {
	// (100 - d) / 100 via Shift keeps the division exact.
	gross := l.Quantity.Mul(l.UnitPrice).Mul(hundred.Sub(l.DiscountPercent)).Shift(-2)
	return gross.Round(Places)
}

// Calculate computes every line total and the document totals:
// total = subtotal − discountAmount + taxAmount, clamped at zero.
func Calculate(lines []Line, discountAmount, taxAmount decimal.Decimal) (Totals, error) {
	v := apperr.NewValidation()
	for i, l := range lines {
		validateLine(v, fmt.Sprintf("items[%d].", i), l)
	}
	if discountAmount.IsNegative() {
		v.Add("discountAmount", "must_not_be_negative")
	}
	if taxAmount.IsNegative() {
		v.Add("taxAmount", "must_not_be_negative")
	}
	if err := v.Err(); err != nil {
		return Totals{}, err
	}

	totals := Totals{
		Lines:    make([]decimal.Decimal, len(lines)),
		Subtotal: decimal.Zero,
		Discount: discountAmount.Round(Places),
		Tax:      taxAmount.Round(Places),
	}
	for i, l := range lines {
		lt := lineTotal(l)
		totals.Lines[i] = lt
		totals.Subtotal = totals.Subtotal.Add(lt)
	}

	total := totals.Subtotal.Sub(totals.Discount).Add(totals.Tax)
	if total.IsNegative() {
		total = decimal.Zero
	}
	totals.Total = total.Round(Places)
	return totals, nil
}

// Format renders an amount with exactly two decimals, e.g. "270.00".
func Format(d decimal.Decimal) string {
	return d.StringFixed(Places)
}
