// Package catalog serves the immutable product catalog.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/01moynul/storefront-golang/internal/pricing"
	"github.com/gosimple/slug"
	"gopkg.in/yaml.v3"
)

var ErrProductNotFound = errors.New("product not found")

//go:embed seed.yaml
var seedYAML []byte

type seedFile struct {
	Products []models.Product `yaml:"products"`
}

// Catalog is an in-memory, read-only product index. It is safe for
// concurrent use because nothing mutates it after construction.
type Catalog struct {
	products []models.Product
	byID     map[string]int
	bySlug   map[string]int
}

// Load builds the catalog from the embedded seed.
func Load() (*Catalog, error) {
	return Parse(seedYAML)
}

// Parse builds a catalog from a YAML document with a top-level "products" list.
func Parse(data []byte) (*Catalog, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return New(f.Products)
}

// New validates products and indexes them by id and slug.
func New(products []models.Product) (*Catalog, error) {
	c := &Catalog{
		products: make([]models.Product, 0, len(products)),
		byID:     make(map[string]int, len(products)),
		bySlug:   make(map[string]int, len(products)),
	}
	for _, p := range products {
		if err := validateProduct(p); err != nil {
			return nil, err
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate product id %q", p.ID)
		}
		if p.Slug == "" {
			p.Slug = slug.Make(p.Name)
		}
		if _, dup := c.bySlug[p.Slug]; dup {
			return nil, fmt.Errorf("duplicate product slug %q", p.Slug)
		}
		if p.Images == nil {
			p.Images = []string{}
		}
		idx := len(c.products)
		c.products = append(c.products, p)
		c.byID[p.ID] = idx
		c.bySlug[p.Slug] = idx
	}
	return c, nil
}

func validateProduct(p models.Product) error {
	if strings.TrimSpace(p.ID) == "" {
		return errors.New("product without id")
	}
	if p.BasePrice < 0 {
		return fmt.Errorf("product %q: negative base price", p.ID)
	}
	if p.HasVariants && len(p.VariantOptions) == 0 {
		return fmt.Errorf("product %q: hasVariants without variant options", p.ID)
	}
	seen := map[models.Axis]bool{}
	for _, opt := range p.VariantOptions {
		if !opt.Axis.Valid() {
			return fmt.Errorf("product %q: unknown axis %q", p.ID, opt.Axis)
		}
		if seen[opt.Axis] {
			return fmt.Errorf("product %q: axis %q declared twice", p.ID, opt.Axis)
		}
		seen[opt.Axis] = true
		if len(opt.Variants) == 0 {
			return fmt.Errorf("product %q: axis %q has no variants", p.ID, opt.Axis)
		}
	}
	return nil
}

// Get looks a product up by id, falling back to its slug.
func (c *Catalog) Get(idOrSlug string) (models.Product, error) {
	if i, ok := c.byID[idOrSlug]; ok {
		return c.products[i], nil
	}
	if i, ok := c.bySlug[idOrSlug]; ok {
		return c.products[i], nil
	}
	return models.Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, idOrSlug)
}

// Filter narrows and orders List results. Zero values mean "no constraint".
type Filter struct {
	Category     string // name or slug
	Brand        string // name or slug
	Query        string // case-insensitive match on name, description and brand
	FeaturedOnly bool
	InStockOnly  bool
	Sort         string // price_asc, price_desc, name, rating
}

// List returns the products matching f. Without a sort key the catalog order
// is kept.
func (c *Catalog) List(f Filter) []models.Product {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	out := []models.Product{}
	for _, p := range c.products {
		if f.Category != "" && !facetMatches(p.Category, f.Category) {
			continue
		}
		if f.Brand != "" && !facetMatches(p.Brand, f.Brand) {
			continue
		}
		if f.FeaturedOnly && !p.Featured {
			continue
		}
		// Variant products are judged by what the default selection resolves to.
		if f.InStockOnly && !pricing.Resolve(p, nil).InStock {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(p.Name+" "+p.Description+" "+p.Brand), q) {
			continue
		}
		out = append(out, p)
	}

	switch f.Sort {
	case "price_asc":
		sort.SliceStable(out, func(i, j int) bool { return out[i].BasePrice < out[j].BasePrice })
	case "price_desc":
		sort.SliceStable(out, func(i, j int) bool { return out[i].BasePrice > out[j].BasePrice })
	case "name":
		sort.SliceStable(out, func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) })
	case "rating":
		sort.SliceStable(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	}
	return out
}

func facetMatches(value, want string) bool {
	return strings.EqualFold(value, want) || slug.Make(value) == want
}

// Categories returns every category with its product count, sorted by name.
func (c *Catalog) Categories() []models.Category {
	counts, names := c.facet(func(p models.Product) string { return p.Category })
	out := make([]models.Category, 0, len(names))
	for _, n := range names {
		out = append(out, models.Category{Name: n, Slug: slug.Make(n), ProductCount: counts[n]})
	}
	return out
}

// Brands returns every brand with its product count, sorted by name.
func (c *Catalog) Brands() []models.Brand {
	counts, names := c.facet(func(p models.Product) string { return p.Brand })
	out := make([]models.Brand, 0, len(names))
	for _, n := range names {
		out = append(out, models.Brand{Name: n, Slug: slug.Make(n), ProductCount: counts[n]})
	}
	return out
}

func (c *Catalog) facet(key func(models.Product) string) (map[string]int, []string) {
	counts := map[string]int{}
	for _, p := range c.products {
		if k := key(p); k != "" {
			counts[k]++
		}
	}
	names := make([]string, 0, len(counts))
	for n := range counts {
		names = append(names, n)
	}
	sort.Strings(names)
	return counts, names
}

// Len reports the number of products.
func (c *Catalog) Len() int { return len(c.products) }
