package models

import (
	"fmt"
	"strings"
)

// Axis is a named dimension of product customization.
type Axis string

const (
	AxisColor    Axis = "color"
	AxisSize     Axis = "size"
	AxisStorage  Axis = "storage"
	AxisMaterial Axis = "material"
	AxisStyle    Axis = "style"
)

// Axes lists every supported axis in a fixed order.
var Axes = []Axis{AxisColor, AxisSize, AxisStorage, AxisMaterial, AxisStyle}

// ParseAxis converts a raw string (query parameter, seed file key) into an Axis.
func ParseAxis(s string) (Axis, error) {
	a := Axis(strings.ToLower(strings.TrimSpace(s)))
	if !a.Valid() {
		return "", fmt.Errorf("unknown variant axis %q", s)
	}
	return a, nil
}

func (a Axis) Valid() bool {
	switch a {
	case AxisColor, AxisSize, AxisStorage, AxisMaterial, AxisStyle:
		return true
	}
	return false
}

// UnmarshalText lets Axis be used as a map key in JSON and YAML documents
// while still rejecting unknown axes.
func (a *Axis) UnmarshalText(text []byte) error {
	parsed, err := ParseAxis(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Selection maps an axis to the chosen variant value. It may be partial or empty.
type Selection map[Axis]string

// Equal reports whether two selections hold the same key/value pairs.
// A nil selection equals an empty one.
func (s Selection) Equal(other Selection) bool {
	if len(s) != len(other) {
		return false
	}
	for axis, value := range s {
		if v, ok := other[axis]; !ok || v != value {
			return false
		}
	}
	return true
}

// Product is an immutable catalog entry.
type Product struct {
	ID          string  `json:"id" yaml:"id"`
	Slug        string  `json:"slug" yaml:"slug"`
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description" yaml:"description"`
	BasePrice   float64 `json:"price" yaml:"price"`
	Category    string  `json:"category" yaml:"category"`
	Brand       string  `json:"brand" yaml:"brand"`

	// --- Variants ---
	HasVariants      bool            `json:"hasVariants" yaml:"hasVariants"`
	VariantOptions   []VariantOption `json:"variantOptions,omitempty" yaml:"variantOptions"`
	DefaultSelection Selection       `json:"defaultVariants,omitempty" yaml:"defaultVariants"`

	// --- Stock & Media ---
	InStock       bool     `json:"inStock" yaml:"inStock"`
	StockQuantity int      `json:"stockQuantity" yaml:"stockQuantity"`
	Images        []string `json:"images" yaml:"images"`

	Rating   float64 `json:"rating" yaml:"rating"`
	Featured bool    `json:"featured" yaml:"featured"`
}

// VariantOption is one axis of a product together with its ordered choices.
type VariantOption struct {
	Axis     Axis      `json:"type" yaml:"type"`
	Name     string    `json:"name" yaml:"name"`
	Required bool      `json:"required" yaml:"required"`
	Variants []Variant `json:"variants" yaml:"variants"`
}

// Find returns the variant with the given value token.
func (o VariantOption) Find(value string) (Variant, bool) {
	for _, v := range o.Variants {
		if v.Value == value {
			return v, true
		}
	}
	return Variant{}, false
}

// Variant is a concrete choice within an axis.
type Variant struct {
	Value         string   `json:"value" yaml:"value"`
	Name          string   `json:"name" yaml:"name"`
	PriceDelta    *float64 `json:"price,omitempty" yaml:"price"` // added to the base price
	Images        []string `json:"images,omitempty" yaml:"images"`
	InStock       bool     `json:"inStock" yaml:"inStock"`
	StockQuantity int      `json:"stockQuantity" yaml:"stockQuantity"`
}

// Available reports whether the variant can be chosen as a fallback.
func (v Variant) Available() bool {
	return v.InStock && v.StockQuantity > 0
}

// Delta returns the price delta, treating a missing delta as zero.
func (v Variant) Delta() float64 {
	if v.PriceDelta == nil {
		return 0
	}
	return *v.PriceDelta
}

// ResolvedProduct is a product with a completed selection and its effective
// price, stock and imagery.
type ResolvedProduct struct {
	Product        Product         `json:"product"`
	Selection      Selection       `json:"selection"`
	SelectionNames map[Axis]string `json:"selectionNames"`
	Price          float64         `json:"price"`
	InStock        bool            `json:"inStock"`
	StockQuantity  int             `json:"stockQuantity"`
	Images         []string        `json:"images"`
}
