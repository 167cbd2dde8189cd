package pricing

import (
	"math"
	"net/url"
	"strings"

	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/shopspring/decimal"
)

// Resolve completes a caller's (possibly partial) selection for a product and
// computes the resulting price, stock and image set.
//
// Options are processed in declaration order. A selected value that names an
// existing variant wins. An unselected required axis falls back to the
// product's default variant when that variant is available, and otherwise to
// the first available variant; when nothing is available the product becomes
// unavailable but the remaining axes are still applied. Unselected optional
// axes are skipped.
func Resolve(p models.Product, sel models.Selection) models.ResolvedProduct {
	if !p.HasVariants {
		return models.ResolvedProduct{
			Product:        p,
			Selection:      models.Selection{},
			SelectionNames: map[models.Axis]string{},
			Price:          p.BasePrice,
			InStock:        p.InStock,
			StockQuantity:  p.StockQuantity,
			Images:         p.Images,
		}
	}

	resolved := models.Selection{}
	names := map[models.Axis]string{}
	price := decimal.NewFromFloat(p.BasePrice)
	images := p.Images

	unavailable := false
	minStock := math.MaxInt
	anyResolved := false

	for _, opt := range p.VariantOptions {
		v, ok := pick(p, opt, sel)
		if !ok {
			if opt.Required {
				unavailable = true
			}
			continue
		}

		anyResolved = true
		resolved[opt.Axis] = v.Value
		names[opt.Axis] = v.Name
		price = price.Add(decimal.NewFromFloat(v.Delta()))
		if len(v.Images) > 0 {
			images = v.Images
		}

		if !v.InStock {
			unavailable = true
			continue
		}
		if v.StockQuantity < minStock {
			minStock = v.StockQuantity
		}
	}

	if price.IsNegative() {
		price = decimal.Zero
	}

	out := models.ResolvedProduct{
		Product:        p,
		Selection:      resolved,
		SelectionNames: names,
		Price:          price.Round(2).InexactFloat64(),
		Images:         images,
	}

	switch {
	case unavailable:
		out.InStock = false
		out.StockQuantity = 0
	case anyResolved:
		out.StockQuantity = minStock
		out.InStock = minStock > 0
	default:
		out.InStock = p.InStock
		out.StockQuantity = p.StockQuantity
	}
	return out
}

func pick(p models.Product, opt models.VariantOption, sel models.Selection) (models.Variant, bool) {
	if value, ok := sel[opt.Axis]; ok {
		if v, found := opt.Find(value); found {
			return v, true
		}
	}
	if !opt.Required {
		return models.Variant{}, false
	}
	if value, ok := p.DefaultSelection[opt.Axis]; ok {
		if v, found := opt.Find(value); found && v.Available() {
			return v, true
		}
	}
	for _, v := range opt.Variants {
		if v.Available() {
			return v, true
		}
	}
	return models.Variant{}, false
}

// SelectionFromQuery builds a Selection from query parameters named after the
// supported axes. Empty and unknown parameters are ignored.
func SelectionFromQuery(values url.Values) models.Selection {
	sel := models.Selection{}
	for _, axis := range models.Axes {
		if v := strings.TrimSpace(values.Get(string(axis))); v != "" {
			sel[axis] = v
		}
	}
	return sel
}
