package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/01moynul/storefront-golang/internal/catalog"
	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/01moynul/storefront-golang/internal/pricing"
	"github.com/gin-gonic/gin"
)

// ListProducts is the handler for GET /v1/products
// Every product is returned resolved against its default selection so the
// listing shows the price a shopper would actually pay.
func (h *Handlers) ListProducts(c *gin.Context) {
	// 1. --- Build the filter from the query string ---
	filter := catalog.Filter{
		Category: c.Query("category"),
		Brand:    c.Query("brand"),
		Query:    c.Query("q"),
		Sort:     c.Query("sort"),
	}
	filter.FeaturedOnly, _ = strconv.ParseBool(c.Query("featured"))
	filter.InStockOnly, _ = strconv.ParseBool(c.Query("inStock"))

	switch filter.Sort {
	case "", "price_asc", "price_desc", "name", "rating":
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "sort must be one of price_asc, price_desc, name, rating"})
		return
	}

	// 2. --- Resolve each product's default price ---
	products := h.Catalog.List(filter)
	resolved := make([]models.ResolvedProduct, 0, len(products))
	for _, p := range products {
		resolved = append(resolved, pricing.Resolve(p, nil))
	}

	c.JSON(http.StatusOK, gin.H{
		"products": resolved,
		"count":    len(resolved),
	})
}

// GetProduct is the handler for GET /v1/products/:id
// Variant choices come from the query string (?color=...&storage=...).
func (h *Handlers) GetProduct(c *gin.Context) {
	product, err := h.Catalog.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		h.internalError(c, "Failed to load product", err)
		return
	}

	sel := pricing.SelectionFromQuery(c.Request.URL.Query())
	c.JSON(http.StatusOK, pricing.Resolve(product, sel))
}
