// Package cart holds the pure cart rules: line merging, quantity clamping,
// removal and totals. Persistence lives behind the Store port.
package cart

import (
	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/google/uuid"
)

// SetQuantity returns the line with its quantity clamped to at least 1.
func SetQuantity(line models.CartLine, q int) models.CartLine {
	line.Quantity = max(1, q)
	return line
}

// AddLine merges line into lines. A line for the same product and variant
// selection gains the added quantity; otherwise line is appended with a fresh
// ID. The input slice is not modified.
func AddLine(lines []models.CartLine, line models.CartLine) []models.CartLine {
	added := max(1, line.Quantity)
	out := make([]models.CartLine, len(lines), len(lines)+1)
	copy(out, lines)

	for i := range out {
		if out[i].SameItem(line) {
			out[i] = SetQuantity(out[i], out[i].Quantity+added)
			return out
		}
	}

	line.Quantity = added
	if line.ID == "" {
		line.ID = uuid.NewString()
	}
	if line.Selection == nil {
		line.Selection = models.Selection{}
	}
	return append(out, line)
}

// UpdateQuantity sets the quantity of the line with the given ID.
// It reports false when no such line exists.
func UpdateQuantity(lines []models.CartLine, lineID string, q int) ([]models.CartLine, bool) {
	out := make([]models.CartLine, len(lines))
	copy(out, lines)
	for i := range out {
		if out[i].ID == lineID {
			out[i] = SetQuantity(out[i], q)
			return out, true
		}
	}
	return out, false
}

// RemoveLine drops the line with the given ID.
// It reports false when no such line exists.
func RemoveLine(lines []models.CartLine, lineID string) ([]models.CartLine, bool) {
	out := make([]models.CartLine, 0, len(lines))
	found := false
	for _, l := range lines {
		if l.ID == lineID {
			found = true
			continue
		}
		out = append(out, l)
	}
	return out, found
}

// Merge folds every line of src into dst using AddLine.
func Merge(dst, src []models.CartLine) []models.CartLine {
	for _, l := range src {
		dst = AddLine(dst, l)
	}
	return dst
}
