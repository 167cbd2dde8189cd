package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/01moynul/storefront-golang/internal/cart"
	"github.com/01moynul/storefront-golang/internal/catalog"
	"github.com/01moynul/storefront-golang/internal/middleware"
	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/01moynul/storefront-golang/internal/pricing"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

//
// --- Cart Handlers (guest or signed in) ---
//

var (
	errLineNotFound      = errors.New("cart line not found")
	errInsufficientStock = errors.New("insufficient stock")
)

// CartHeader carries the guest cart identity between requests.
const CartHeader = "X-Cart-ID"

func userCartID(userID int64) string {
	return "user-" + strconv.FormatInt(userID, 10)
}

// guestCartID returns the guest cart named by the request header, or false
// when the header is missing or is not a uuid.
func guestCartID(c *gin.Context) (string, bool) {
	raw := c.GetHeader(CartHeader)
	if raw == "" {
		return "", false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", false
	}
	return id.String(), true
}

// cartID resolves which cart this request operates on. Signed-in shoppers
// use their account cart; guests get the cart from X-Cart-ID, and a fresh id
// is issued (and echoed back) when they have none yet.
func (h *Handlers) cartID(c *gin.Context) string {
	if userID, ok := middleware.UserID(c); ok {
		return userCartID(userID)
	}
	id, ok := guestCartID(c)
	if !ok {
		id = uuid.NewString()
	}
	c.Header(CartHeader, id)
	return id
}

// CartResponse is the JSON shape of every cart endpoint.
type CartResponse struct {
	CartID string            `json:"cartId"`
	Items  []models.CartLine `json:"items"`
	Totals models.CartTotals `json:"totals"`
}

func (h *Handlers) cartResponse(cartID string, lines []models.CartLine) CartResponse {
	if lines == nil {
		lines = []models.CartLine{}
	}
	return CartResponse{
		CartID: cartID,
		Items:  lines,
		Totals: cart.ComputeTotals(lines, h.Totals),
	}
}

// GetCart is the handler for GET /v1/cart
func (h *Handlers) GetCart(c *gin.Context) {
	id := h.cartID(c)
	lines, err := h.Carts.Load(c.Request.Context(), id)
	if err != nil {
		h.internalError(c, "Failed to load cart", err)
		return
	}
	c.JSON(http.StatusOK, h.cartResponse(id, lines))
}

// AddToCartInput defines the JSON for adding an item to the cart.
type AddToCartInput struct {
	ProductID string            `json:"productId" binding:"required"`
	Quantity  int               `json:"quantity"`
	Selection map[string]string `json:"selection"`
}

// AddToCart is the handler for POST /v1/cart/items
// The unit price is resolved from the catalog here; the client never sets it.
func (h *Handlers) AddToCart(c *gin.Context) {
	// 1. --- Bind JSON ---
	var input AddToCartInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	// 2. --- Resolve the variant price & stock ---
	sel := models.Selection{}
	for k, v := range input.Selection {
		axis, err := models.ParseAxis(k)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		sel[axis] = v
	}

	product, err := h.Catalog.Get(input.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		h.internalError(c, "Failed to load product", err)
		return
	}

	resolved := pricing.Resolve(product, sel)
	if !resolved.InStock {
		c.JSON(http.StatusConflict, gin.H{"error": "This product is out of stock"})
		return
	}

	line := models.CartLine{
		ProductID:        product.ID,
		Name:             product.Name,
		UnitPrice:        resolved.Price,
		Quantity:         input.Quantity,
		Selection:        resolved.Selection,
		SelectedVariants: resolved.SelectionNames,
		InStock:          resolved.InStock,
	}
	if len(resolved.Images) > 0 {
		line.Image = resolved.Images[0]
	}

	// 3. --- Merge into the cart, re-checking stock on the merged line ---
	id := h.cartID(c)
	lines, err := h.Carts.Update(c.Request.Context(), id, func(lines []models.CartLine) ([]models.CartLine, error) {
		lines = cart.AddLine(lines, line)
		for _, l := range lines {
			if l.SameItem(line) && l.Quantity > resolved.StockQuantity {
				return nil, errInsufficientStock
			}
		}
		return lines, nil
	})
	if err != nil {
		if errors.Is(err, errInsufficientStock) {
			c.JSON(http.StatusConflict, gin.H{"error": "Insufficient stock", "available": resolved.StockQuantity})
			return
		}
		h.internalError(c, "Failed to update cart", err)
		return
	}
	c.JSON(http.StatusCreated, h.cartResponse(id, lines))
}

// UpdateCartItemInput defines the JSON for updating an item's quantity.
// Quantities below 1 are clamped to 1; use DELETE to remove a line.
type UpdateCartItemInput struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// UpdateCartItem is the handler for PUT /v1/cart/items/:line_id
func (h *Handlers) UpdateCartItem(c *gin.Context) {
	var input UpdateCartItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := h.cartID(c)
	lines, err := h.Carts.Update(c.Request.Context(), id, func(lines []models.CartLine) ([]models.CartLine, error) {
		lines, found := cart.UpdateQuantity(lines, c.Param("line_id"), *input.Quantity)
		if !found {
			return nil, errLineNotFound
		}
		return lines, nil
	})
	if err != nil {
		h.lineError(c, "Failed to update item", err)
		return
	}
	c.JSON(http.StatusOK, h.cartResponse(id, lines))
}

// DeleteCartItem is the handler for DELETE /v1/cart/items/:line_id
func (h *Handlers) DeleteCartItem(c *gin.Context) {
	id := h.cartID(c)
	lines, err := h.Carts.Update(c.Request.Context(), id, func(lines []models.CartLine) ([]models.CartLine, error) {
		lines, found := cart.RemoveLine(lines, c.Param("line_id"))
		if !found {
			return nil, errLineNotFound
		}
		return lines, nil
	})
	if err != nil {
		h.lineError(c, "Failed to delete item", err)
		return
	}
	c.JSON(http.StatusOK, h.cartResponse(id, lines))
}

func (h *Handlers) lineError(c *gin.Context, msg string, err error) {
	if errors.Is(err, errLineNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found in cart"})
		return
	}
	h.internalError(c, msg, err)
}

// ClearCart is the handler for DELETE /v1/cart
func (h *Handlers) ClearCart(c *gin.Context) {
	id := h.cartID(c)
	if err := h.Carts.Delete(c.Request.Context(), id); err != nil {
		h.internalError(c, "Failed to clear cart", err)
		return
	}
	c.JSON(http.StatusOK, h.cartResponse(id, nil))
}

// mergeGuestCart folds the guest cart named by X-Cart-ID into the user's
// cart after sign-in. Failures are logged; sign-in still succeeds.
func (h *Handlers) mergeGuestCart(c *gin.Context, userID int64) {
	guestID, ok := guestCartID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	log := h.Logger.With(zap.String("guest_cart", guestID), zap.Int64("user_id", userID))

	// 1. --- Read the guest cart ---
	guest, err := h.Carts.Load(ctx, guestID)
	if err != nil || len(guest) == 0 {
		if err != nil {
			log.Warn("guest cart merge: load failed", zap.Error(err))
		}
		return
	}
	// 2. --- Fold it into the account cart, then drop it ---
	_, err = h.Carts.Update(ctx, userCartID(userID), func(own []models.CartLine) ([]models.CartLine, error) {
		return cart.Merge(own, guest), nil
	})
	if err != nil {
		log.Warn("guest cart merge: save failed", zap.Error(err))
		return
	}
	if err := h.Carts.Delete(ctx, guestID); err != nil {
		log.Warn("guest cart merge: cleanup failed", zap.Error(err))
	}
	log.Info("guest cart merged", zap.Int("lines", len(guest)))
}

// PurgeStaleCarts removes carts untouched for longer than ttl.
// It runs from the background worker started in main.
func (h *Handlers) PurgeStaleCarts(ctx context.Context, ttl time.Duration) {
	n, err := h.Carts.PurgeStale(ctx, time.Now().Add(-ttl))
	if err != nil {
		h.Logger.Error("stale cart sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		h.Logger.Info("stale carts purged", zap.Int64("count", n))
	}
}
