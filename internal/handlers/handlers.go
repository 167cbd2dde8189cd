package handlers

import (
	"context"
	"net/http"

	"github.com/01moynul/storefront-golang/internal/auth"
	"github.com/01moynul/storefront-golang/internal/cart"
	"github.com/01moynul/storefront-golang/internal/catalog"
	"github.com/01moynul/storefront-golang/internal/checkout"
	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// OrderStore reads and writes placed orders.
type OrderStore interface {
	Create(ctx context.Context, o *models.Order) error
	Get(ctx context.Context, id string) (*models.Order, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Order, error)
}

// UserStore persists shopper accounts.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// FavoriteStore persists starred products.
type FavoriteStore interface {
	Add(ctx context.Context, userID int64, productID string) error
	Remove(ctx context.Context, userID int64, productID string) error
	List(ctx context.Context, userID int64) ([]string, error)
}

// Welcomer greets new accounts.
type Welcomer interface {
	SendWelcome(u *models.User) error
}

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	Catalog   *catalog.Catalog
	Carts     cart.Store
	Orders    OrderStore
	Users     UserStore
	Favorites FavoriteStore
	Checkout  *checkout.Service
	Tokens    *auth.Tokens
	Mailer    Welcomer
	Totals    cart.Options
	Logger    *zap.Logger
}

// internalError logs err and answers with a generic 500.
func (h *Handlers) internalError(c *gin.Context, msg string, err error) {
	h.Logger.Error(msg, zap.Error(err), zap.String("path", c.FullPath()))
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}
