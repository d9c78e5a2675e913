package pricing

import (
	"math/rand"
	"testing"

	"DF-PROPOSAL/internal/apperr"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestLineTotalAppliesDiscount(t *testing.T) {
	total, err := LineTotal(Line{Quantity: dec("3"), UnitPrice: dec("100"), DiscountPercent: dec("10")})
	require.NoError(t, err)
	assert.Equal(t, "270.00", Format(total))
}

func TestLineTotalZeroInputs(t *testing.T) {
	for _, l := range []Line{
		{Quantity: dec("0"), UnitPrice: dec("99.99"), DiscountPercent: dec("5")},
		{Quantity: dec("4"), UnitPrice: dec("0"), DiscountPercent: dec("0")},
		{Quantity: dec("4"), UnitPrice: dec("12.50"), DiscountPercent: dec("100")},
	} {
		total, err := LineTotal(l)
		require.NoError(t, err)
		assert.True(t, total.IsZero(), "expected zero total for %+v, got %s", l, total)
	}
}

func TestLineTotalRoundsHalfAwayFromZero(t *testing.T) {
	// 1 × 0.125 = 0.125 -> 0.13
	total, err := LineTotal(Line{Quantity: dec("1"), UnitPrice: dec("0.125"), DiscountPercent: dec("0")})
	require.NoError(t, err)
	assert.Equal(t, "0.13", Format(total))

	// 3 × 33.33 × 0.85 = 84.9915 -> 84.99
	total, err = LineTotal(Line{Quantity: dec("3"), UnitPrice: dec("33.33"), DiscountPercent: dec("15")})
	require.NoError(t, err)
	assert.Equal(t, "84.99", Format(total))
}

func TestLineTotalRejectsOutOfRangeDiscount(t *testing.T) {
	for _, d := range []string{"-0.01", "100.01", "250"} {
		_, err := LineTotal(Line{Quantity: dec("1"), UnitPrice: dec("10"), DiscountPercent: dec(d)})
		v, ok := apperr.AsValidation(err)
		require.True(t, ok, "discount %s should be rejected", d)
		assert.Equal(t, "out_of_range", v.Fields["discountPercent"])
	}
}

func TestLineTotalRejectsNegativeQuantityAndPrice(t *testing.T) {
	_, err := LineTotal(Line{Quantity: dec("-1"), UnitPrice: dec("-5"), DiscountPercent: dec("0")})
	v, ok := apperr.AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, v.Fields, "quantity")
	assert.Contains(t, v.Fields, "unitPrice")
}

func TestCalculateDocumentTotals(t *testing.T) {
	lines := []Line{
		{Quantity: dec("2"), UnitPrice: dec("150"), DiscountPercent: dec("0")},
		{Quantity: dec("1"), UnitPrice: dec("200"), DiscountPercent: dec("0")},
	}
	totals, err := Calculate(lines, dec("50"), dec("25"))
	require.NoError(t, err)
	assert.Equal(t, "500.00", Format(totals.Subtotal))
	assert.Equal(t, "475.00", Format(totals.Total))
	require.Len(t, totals.Lines, 2)
	assert.Equal(t, "300.00", Format(totals.Lines[0]))
}

func TestCalculateClampsTotalAtZero(t *testing.T) {
	totals, err := Calculate([]Line{{Quantity: dec("1"), UnitPrice: dec("10"), DiscountPercent: dec("0")}}, dec("40"), dec("5"))
	require.NoError(t, err)
	assert.Equal(t, "0.00", Format(totals.Total))
}

func TestCalculateReportsIndexedFields(t *testing.T) {
	lines := []Line{
		{Quantity: dec("1"), UnitPrice: dec("10"), DiscountPercent: dec("0")},
		{Quantity: dec("1"), UnitPrice: dec("10"), DiscountPercent: dec("101")},
	}
	_, err := Calculate(lines, dec("-1"), decimal.Zero)
	v, ok := apperr.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "out_of_range", v.Fields["items[1].discountPercent"])
	assert.Equal(t, "must_not_be_negative", v.Fields["discountAmount"])
}

func TestCalculateSubtotalIndependentOfOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 50; round++ {
		n := 1 + rng.Intn(8)
		lines := make([]Line, n)
		var expected decimal.Decimal
		for i := range lines {
			lines[i] = Line{
				Quantity:        decimal.New(int64(rng.Intn(1000)), -1),
				UnitPrice:       decimal.New(int64(rng.Intn(100000)), -2),
				DiscountPercent: decimal.New(int64(rng.Intn(10001)), -2),
			}
			lt, err := LineTotal(lines[i])
			require.NoError(t, err)
			expected = expected.Add(lt)

			want := lines[i].Quantity.Mul(lines[i].UnitPrice).
				Mul(decimal.NewFromInt(1).Sub(lines[i].DiscountPercent.Div(decimal.NewFromInt(100)))).
				Round(2)
			assert.True(t, want.Equal(lt), "line %d: want %s got %s", i, want, lt)
		}

		forward, err := Calculate(lines, decimal.Zero, decimal.Zero)
		require.NoError(t, err)

		shuffled := append([]Line(nil), lines...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		backward, err := Calculate(shuffled, decimal.Zero, decimal.Zero)
		require.NoError(t, err)

		assert.True(t, expected.Equal(forward.Subtotal))
		assert.True(t, forward.Subtotal.Equal(backward.Subtotal))
	}
}
