package handlers

import (
	"errors"
	"net/http"

	"github.com/01moynul/storefront-golang/internal/catalog"
	"github.com/01moynul/storefront-golang/internal/middleware"
	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/01moynul/storefront-golang/internal/store"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//
// --- Favorites (signed in only) ---
//

// GetFavorites is the handler for GET /v1/favorites
func (h *Handlers) GetFavorites(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	ids, err := h.Favorites.List(c.Request.Context(), userID)
	if err != nil {
		h.internalError(c, "Failed to load favorites", err)
		return
	}

	products := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		p, err := h.Catalog.Get(id)
		if err != nil {
			// Product was dropped from the catalog since it was starred.
			h.Logger.Debug("skipping stale favorite", zap.String("product_id", id))
			continue
		}
		products = append(products, p)
	}
	c.JSON(http.StatusOK, gin.H{"products": products, "count": len(products)})
}

// AddFavorite is the handler for POST /v1/favorites/:product_id
func (h *Handlers) AddFavorite(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	// 1. --- Product must exist in the catalog ---
	p, err := h.Catalog.Get(c.Param("product_id"))
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		h.internalError(c, "Failed to load product", err)
		return
	}

	// 2. --- Save (idempotent) ---
	if err := h.Favorites.Add(c.Request.Context(), userID, p.ID); err != nil {
		h.internalError(c, "Failed to save favorite", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Added to favorites", "productId": p.ID})
}

// RemoveFavorite is the handler for DELETE /v1/favorites/:product_id
func (h *Handlers) RemoveFavorite(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	if err := h.Favorites.Remove(c.Request.Context(), userID, c.Param("product_id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product is not in your favorites"})
			return
		}
		h.internalError(c, "Failed to remove favorite", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Removed from favorites"})
}
