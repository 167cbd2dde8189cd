package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetAllCategories (Public)
func (h *Handlers) GetAllCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": h.Catalog.Categories()})
}

// GetAllBrands (Public)
func (h *Handlers) GetAllBrands(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"brands": h.Catalog.Brands()})
}
