package models

// CartLine is one entry in a cart. UnitPrice is already variant-resolved at
// the time the line was added.
type CartLine struct {
	ID               string          `json:"id"`
	ProductID        string          `json:"productId"`
	Name             string          `json:"name"`
	Image            string          `json:"image,omitempty"`
	UnitPrice        float64         `json:"unitPrice"`
	Quantity         int             `json:"quantity"`
	Selection        Selection       `json:"selection,omitempty"`
	SelectedVariants map[Axis]string `json:"selectedVariants,omitempty"` // display names
	InStock          bool            `json:"inStock"`
}

// SameItem reports whether two lines describe the same product and variant
// combination.
func (l CartLine) SameItem(other CartLine) bool {
	return l.ProductID == other.ProductID && l.Selection.Equal(other.Selection)
}

// CartTotals is the money summary of a cart.
type CartTotals struct {
	Subtotal  float64 `json:"subtotal"`
	Tax       float64 `json:"tax"`
	Shipping  float64 `json:"shipping"`
	Total     float64 `json:"total"`
	ItemCount int     `json:"itemCount"`
}
