package cart

import (
	"testing"

	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestComputeTotals_BelowThreshold(t *testing.T) {
	lines := []models.CartLine{
		line("a", 10.00, 2, nil),
		line("b", 25.50, 1, nil),
	}

	got := ComputeTotals(lines, Options{TaxRate: 0.08, FreeShippingThreshold: 50, FlatShippingFee: 5.99})

	assert.Equal(t, 45.50, got.Subtotal)
	assert.Equal(t, 3.64, got.Tax)
	assert.Equal(t, 5.99, got.Shipping)
	assert.Equal(t, 55.13, got.Total)
	assert.Equal(t, 3, got.ItemCount)
}

func TestComputeTotals_FreeShippingBoundary(t *testing.T) {
	opts := Options{TaxRate: 0.08, FreeShippingThreshold: 50, FlatShippingFee: 5.99}

	at := ComputeTotals([]models.CartLine{line("a", 50.00, 1, nil)}, opts)
	assert.Equal(t, 0.0, at.Shipping)
	assert.Equal(t, 54.0, at.Total)

	below := ComputeTotals([]models.CartLine{line("a", 49.99, 1, nil)}, opts)
	assert.Equal(t, 5.99, below.Shipping)
}

func TestComputeTotals_ThresholdIsAParameter(t *testing.T) {
	lines := []models.CartLine{line("a", 120, 1, nil)}

	assert.Equal(t, 0.0, ComputeTotals(lines, DefaultOptions).Shipping)
	assert.Equal(t, 9.99, ComputeTotals(lines, Options{TaxRate: 0.08, FreeShippingThreshold: 500, FlatShippingFee: 9.99}).Shipping)
}

func TestComputeTotals_PerLineRounding(t *testing.T) {
	lines := []models.CartLine{
		line("a", 0.333, 3, nil), // 0.999 -> 1.00
		line("b", 0.333, 3, nil),
	}

	got := ComputeTotals(lines, Options{})

	assert.Equal(t, 2.00, got.Subtotal)
}

func TestComputeTotals_Empty(t *testing.T) {
	got := ComputeTotals(nil, DefaultOptions)
	assert.Equal(t, models.CartTotals{}, got)
}

func TestComputeTotals_MonotonicInQuantity(t *testing.T) {
	prev := models.CartTotals{}
	for q := 1; q <= 30; q++ {
		lines := []models.CartLine{
			line("a", 3.33, q, nil),
			line("b", 7.49, 1, nil),
		}
		got := ComputeTotals(lines, DefaultOptions)

		assert.GreaterOrEqual(t, got.Subtotal, prev.Subtotal)
		assert.GreaterOrEqual(t, got.Tax, prev.Tax)
		prev = got
	}
}

func TestComputeTotals_TotalMonotonicAwayFromThreshold(t *testing.T) {
	opts := Options{TaxRate: 0.08, FreeShippingThreshold: 1000, FlatShippingFee: 5.99}
	prev := 0.0
	for q := 1; q <= 30; q++ {
		got := ComputeTotals([]models.CartLine{line("a", 12.34, q, nil)}, opts)
		assert.Greater(t, got.Total, prev)
		prev = got.Total
	}
}
