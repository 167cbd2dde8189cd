package cart

import (
	"context"
	"time"

	"github.com/01moynul/storefront-golang/internal/models"
)

// UpdateFunc transforms the current lines of a cart into the lines to store.
type UpdateFunc func(lines []models.CartLine) ([]models.CartLine, error)

// Store persists cart lines by cart ID.
// Loading an unknown cart yields an empty slice and no error.
type Store interface {
	Load(ctx context.Context, cartID string) ([]models.CartLine, error)
	Save(ctx context.Context, cartID string, lines []models.CartLine) error
	Delete(ctx context.Context, cartID string) error
	// Update loads the cart, applies fn and saves the result. Concurrent
	// updates of one cart are serialized. When fn fails the cart is left as
	// it was and fn's error is returned unwrapped.
	Update(ctx context.Context, cartID string, fn UpdateFunc) ([]models.CartLine, error)
	// PurgeStale removes carts last saved before the given time.
	PurgeStale(ctx context.Context, before time.Time) (int64, error)
}
