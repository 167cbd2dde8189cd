package cart

import (
	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/01moynul/storefront-golang/internal/pricing"
	"github.com/shopspring/decimal"
)

// Options are the business rules used by ComputeTotals.
type Options struct {
	TaxRate               float64
	FreeShippingThreshold float64
	FlatShippingFee       float64
}

// DefaultOptions: 8% tax, free shipping from $50, otherwise $5.99.
var DefaultOptions = Options{
	TaxRate:               0.08,
	FreeShippingThreshold: 50,
	FlatShippingFee:       5.99,
}

// ComputeTotals sums the cart. Each line is rounded to the cent before it is
// added to the subtotal. An empty cart costs nothing, shipping included.
func ComputeTotals(lines []models.CartLine, opts Options) models.CartTotals {
	subtotal := decimal.Zero
	count := 0
	for _, l := range lines {
		subtotal = subtotal.Add(pricing.LineAmount(l.UnitPrice, l.Quantity))
		count += l.Quantity
	}

	if len(lines) == 0 {
		return models.CartTotals{}
	}

	tax := subtotal.Mul(decimal.NewFromFloat(opts.TaxRate)).Round(2)

	shipping := decimal.NewFromFloat(opts.FlatShippingFee)
	if subtotal.GreaterThanOrEqual(decimal.NewFromFloat(opts.FreeShippingThreshold)) {
		shipping = decimal.Zero
	}

	return models.CartTotals{
		Subtotal:  subtotal.InexactFloat64(),
		Tax:       tax.InexactFloat64(),
		Shipping:  shipping.InexactFloat64(),
		Total:     subtotal.Add(tax).Add(shipping).InexactFloat64(),
		ItemCount: count,
	}
}
