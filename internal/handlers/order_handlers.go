package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/01moynul/storefront-golang/internal/checkout"
	"github.com/01moynul/storefront-golang/internal/middleware"
	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/01moynul/storefront-golang/internal/store"
	"github.com/gin-gonic/gin"
)

//
// --- Checkout & Order Handlers ---
//

// CheckoutInput is the two-step checkout form.
type CheckoutInput struct {
	Shipping checkout.ShippingForm `json:"shipping"`
	Payment  checkout.PaymentForm  `json:"payment"`
}

// PlaceOrder is the handler for POST /v1/checkout
func (h *Handlers) PlaceOrder(c *gin.Context) {
	// 1. --- Bind JSON ---
	var input CheckoutInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	ctx := c.Request.Context()
	req := checkout.Request{
		CartID:   h.cartID(c),
		Shipping: input.Shipping,
		Payment:  input.Payment,
	}

	// 2. --- Attach the account, when signed in ---
	if userID, ok := middleware.UserID(c); ok {
		user, err := h.Users.GetByID(ctx, userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Account no longer exists"})
				return
			}
			h.internalError(c, "Failed to load account", err)
			return
		}
		req.UserID = &userID
		req.Email = user.Email
	}

	// 3. --- Place the order ---
	order, err := h.Checkout.PlaceOrder(ctx, req)
	if err != nil {
		var verr *checkout.ValidationError
		var lerr *checkout.LineError
		switch {
		case errors.As(err, &verr):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Please correct the highlighted fields", "fields": verr.Fields})
		case errors.Is(err, checkout.ErrEmptyCart):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Your cart is empty"})
		case errors.As(err, &lerr):
			c.JSON(http.StatusConflict, gin.H{"error": lerr.Err.Error(), "lineId": lerr.LineID, "productId": lerr.ProductID})
		case errors.Is(err, checkout.ErrPaymentDeclined):
			c.JSON(http.StatusPaymentRequired, gin.H{"error": "Payment was declined"})
		default:
			h.internalError(c, "Checkout failed", err)
		}
		return
	}

	// 4. --- Success ---
	c.JSON(http.StatusCreated, gin.H{
		"message": "Order placed successfully!",
		"order":   order,
	})
}

// GetMyOrders is the handler for GET /v1/orders
func (h *Handlers) GetMyOrders(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	orders, err := h.Orders.ListByUser(c.Request.Context(), userID)
	if err != nil {
		h.internalError(c, "Failed to retrieve orders", err)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// GetOrderDetails is the handler for GET /v1/orders/:id
// Account orders are visible to their owner only. Guest orders are looked up
// with the email used at checkout (?email=). Every miss is a 404 so order ids
// cannot be guessed.
func (h *Handlers) GetOrderDetails(c *gin.Context) {
	// 1. --- Fetch the order ---
	order, err := h.Orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		h.internalError(c, "Failed to retrieve order", err)
		return
	}

	// 2. --- Ownership check ---
	if !canView(c, order) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

func canView(c *gin.Context, order *models.Order) bool {
	if order.UserID != nil {
		userID, ok := middleware.UserID(c)
		return ok && userID == *order.UserID
	}
	email := strings.TrimSpace(c.Query("email"))
	return email != "" && strings.EqualFold(email, order.Email)
}
