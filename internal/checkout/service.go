// Package checkout validates checkout forms and turns a cart into an order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/01moynul/storefront-golang/internal/cart"
	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/01moynul/storefront-golang/internal/pricing"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrLineUnavailable   = errors.New("cart item is unavailable")
	ErrProductNotInStore = errors.New("product no longer exists")
)

// ShippingForm is the shipping step of the checkout form.
type ShippingForm struct {
	Email        string `json:"email"`
	FullName     string `json:"fullName"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZIP          string `json:"zip"`
	Phone        string `json:"phone"`
}

// PaymentForm is the payment step of the checkout form.
type PaymentForm struct {
	CardName   string `json:"cardName"`
	CardNumber string `json:"cardNumber"`
	Expiry     string `json:"expiry"`
	CVV        string `json:"cvv"`
}

// Request is everything needed to place an order.
type Request struct {
	CartID   string
	UserID   *int64
	Email    string // account email, used when the form leaves it blank
	Shipping ShippingForm
	Payment  PaymentForm
}

// LineError names the cart line that blocked checkout.
type LineError struct {
	LineID    string
	ProductID string
	Err       error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("cart item %s (product %s): %v", e.LineID, e.ProductID, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// ProductSource looks up catalog products by id.
type ProductSource interface {
	Get(id string) (models.Product, error)
}

// OrderWriter persists placed orders.
type OrderWriter interface {
	Create(ctx context.Context, o *models.Order) error
}

// Notifier tells the shopper about a placed order.
type Notifier interface {
	SendOrderConfirmation(o *models.Order) error
}

// Service places orders.
type Service struct {
	Catalog  ProductSource
	Carts    cart.Store
	Orders   OrderWriter
	Payments PaymentGateway
	Notifier Notifier
	Options  cart.Options
	Logger   *zap.Logger
	Now      func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// PlaceOrder validates the request, re-prices the cart against the catalog,
// charges the (simulated) card, stores the order and empties the cart.
func (s *Service) PlaceOrder(ctx context.Context, req Request) (*models.Order, error) {
	now := s.now()

	if strings.TrimSpace(req.Shipping.Email) == "" {
		req.Shipping.Email = req.Email
	}
	fields := ValidateShipping(req.Shipping, req.UserID == nil)
	for k, v := range ValidatePayment(req.Payment, now) {
		fields[k] = v
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	lines, err := s.Carts.Load(ctx, req.CartID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	priced, err := s.reprice(lines)
	if err != nil {
		return nil, err
	}
	totals := cart.ComputeTotals(priced, s.Options)

	receipt, err := s.Payments.Charge(ctx, req.Payment, totals.Total)
	if err != nil {
		return nil, fmt.Errorf("charge: %w", err)
	}

	order := &models.Order{
		ID:     uuid.NewString(),
		UserID: req.UserID,
		Email:  strings.TrimSpace(req.Shipping.Email),
		Status: models.OrderStatusConfirmed,
		Lines:  priced,
		Totals: totals,
		ShippingAddress: models.ShippingAddress{
			FullName:     strings.TrimSpace(req.Shipping.FullName),
			AddressLine1: strings.TrimSpace(req.Shipping.AddressLine1),
			AddressLine2: strings.TrimSpace(req.Shipping.AddressLine2),
			City:         strings.TrimSpace(req.Shipping.City),
			State:        strings.TrimSpace(req.Shipping.State),
			ZIP:          strings.TrimSpace(req.Shipping.ZIP),
			Phone:        strings.TrimSpace(req.Shipping.Phone),
		},
		Payment:   receipt,
		CreatedAt: now.UTC(),
	}

	if err := s.Orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("save order: %w", err)
	}

	// The order exists from here on; cart and email failures are logged only.
	if err := s.Carts.Delete(ctx, req.CartID); err != nil {
		s.Logger.Warn("failed to clear cart after checkout", zap.String("cart_id", req.CartID), zap.Error(err))
	}
	if s.Notifier != nil {
		if err := s.Notifier.SendOrderConfirmation(order); err != nil {
			s.Logger.Warn("order confirmation not sent", zap.String("order_id", order.ID), zap.Error(err))
		}
	}

	s.Logger.Info("order placed",
		zap.String("order_id", order.ID),
		zap.Float64("total", totals.Total),
		zap.Int("items", totals.ItemCount),
		zap.Bool("guest", req.UserID == nil),
	)
	return order, nil
}

func (s *Service) reprice(lines []models.CartLine) ([]models.CartLine, error) {
	out := make([]models.CartLine, 0, len(lines))
	for _, l := range lines {
		p, err := s.Catalog.Get(l.ProductID)
		if err != nil {
			return nil, &LineError{LineID: l.ID, ProductID: l.ProductID, Err: ErrProductNotInStore}
		}
		r := pricing.Resolve(p, l.Selection)
		if !r.InStock || r.StockQuantity < l.Quantity {
			return nil, &LineError{LineID: l.ID, ProductID: l.ProductID, Err: ErrLineUnavailable}
		}
		l.UnitPrice = r.Price
		l.InStock = r.InStock
		out = append(out, l)
	}
	return out, nil
}
