package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/01moynul/storefront-golang/internal/auth"
	"github.com/01moynul/storefront-golang/internal/cart"
	"github.com/01moynul/storefront-golang/internal/catalog"
	"github.com/01moynul/storefront-golang/internal/checkout"
	"github.com/01moynul/storefront-golang/internal/database"
	"github.com/01moynul/storefront-golang/internal/handlers"
	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/01moynul/storefront-golang/internal/routes"
	"github.com/01moynul/storefront-golang/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type api struct {
	router *gin.Engine
	carts  *store.MemoryCartStore
}

func newAPI(t *testing.T) *api {
	t.Helper()
	ctx := context.Background()

	db, err := database.OpenDB(ctx, database.DriverSQLite, ":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(ctx, db, database.DriverSQLite))
	t.Cleanup(func() { db.Close() })

	products, err := catalog.Load()
	require.NoError(t, err)

	carts := store.NewMemoryCartStore()
	orders := &store.SQLOrderStore{DB: db}
	h := &handlers.Handlers{
		Catalog:   products,
		Carts:     carts,
		Orders:    orders,
		Users:     &store.SQLUserStore{DB: db},
		Favorites: &store.SQLFavoriteStore{DB: db},
		Checkout: &checkout.Service{
			Catalog:  products,
			Carts:    carts,
			Orders:   orders,
			Payments: checkout.SimulatedGateway{},
			Options:  cart.DefaultOptions,
			Logger:   zap.NewNop(),
			Now:      func() time.Time { return time.Date(2026, time.October, 19, 10, 0, 0, 0, time.UTC) },
		},
		Tokens: auth.NewTokens("test-secret", time.Hour),
		Totals: cart.DefaultOptions,
		Logger: zap.NewNop(),
	}
	return &api{router: routes.SetupRouter(h, "http://localhost:3000"), carts: carts}
}

type request struct {
	method  string
	path    string
	body    any
	cartID  string
	token   string
	headers map[string]string
}

func (a *api) do(t *testing.T, r request) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if r.body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(r.body))
	}
	req := httptest.NewRequest(r.method, r.path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if r.cartID != "" {
		req.Header.Set(handlers.CartHeader, r.cartID)
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
	LineID string            `json:"lineId"`
}

type authBody struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

type orderBody struct {
	Order models.Order `json:"order"`
}

func validCheckout(email string) handlers.CheckoutInput {
	return handlers.CheckoutInput{
		Shipping: checkout.ShippingForm{
			Email:        email,
			FullName:     "Gus Guest",
			AddressLine1: "10 Elm St",
			City:         "Portland",
			State:        "OR",
			ZIP:          "97201",
			Phone:        "503-555-0199",
		},
		Payment: checkout.PaymentForm{
			CardName:   "Gus Guest",
			CardNumber: "4242 4242 4242 4242",
			Expiry:     "12/30",
			CVV:        "123",
		},
	}
}

func TestPing(t *testing.T) {
	a := newAPI(t)
	w := a.do(t, request{method: http.MethodGet, path: "/v1/ping"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestGetProduct(t *testing.T) {
	a := newAPI(t)

	t.Run("resolves selection from query", func(t *testing.T) {
		w := a.do(t, request{method: http.MethodGet, path: "/v1/products/1?color=glacier&storage=256gb"})
		require.Equal(t, http.StatusOK, w.Code)

		got := decode[models.ResolvedProduct](t, w)
		assert.Equal(t, 799.0, got.Price)
		assert.True(t, got.InStock)
		assert.Equal(t, 10, got.StockQuantity)
		assert.Equal(t, models.Selection{models.AxisColor: "glacier", models.AxisStorage: "256gb"}, got.Selection)
		assert.Equal(t, "/images/aurora-x-blue-1.jpg", got.Images[0])
	})

	t.Run("defaults without a selection", func(t *testing.T) {
		w := a.do(t, request{method: http.MethodGet, path: "/v1/products/1"})
		require.Equal(t, http.StatusOK, w.Code)

		got := decode[models.ResolvedProduct](t, w)
		assert.Equal(t, 699.0, got.Price)
		assert.Equal(t, "midnight", got.Selection[models.AxisColor])
		assert.Equal(t, "128gb", got.Selection[models.AxisStorage])
	})

	t.Run("ignores non-axis query parameters", func(t *testing.T) {
		w := a.do(t, request{method: http.MethodGet, path: "/v1/products/1?flavor=mint&utm_source=mail&storage=512gb"})
		require.Equal(t, http.StatusOK, w.Code)

		got := decode[models.ResolvedProduct](t, w)
		assert.Equal(t, models.Selection{models.AxisColor: "midnight", models.AxisStorage: "512gb"}, got.Selection)
		assert.Equal(t, 999.0, got.Price)
	})

	t.Run("by slug", func(t *testing.T) {
		w := a.do(t, request{method: http.MethodGet, path: "/v1/products/stoneware-coffee-mug"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "6", decode[models.ResolvedProduct](t, w).Product.ID)
	})

	t.Run("unknown", func(t *testing.T) {
		w := a.do(t, request{method: http.MethodGet, path: "/v1/products/nope"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestListProducts(t *testing.T) {
	a := newAPI(t)

	type listBody struct {
		Products []models.ResolvedProduct `json:"products"`
		Count    int                      `json:"count"`
	}

	w := a.do(t, request{method: http.MethodGet, path: "/v1/products?category=electronics&sort=price_desc"})
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[listBody](t, w)
	assert.Equal(t, 4, got.Count)
	assert.Equal(t, "3", got.Products[0].Product.ID)

	w = a.do(t, request{method: http.MethodGet, path: "/v1/products?inStock=true"})
	require.Equal(t, http.StatusOK, w.Code)
	inStock := decode[listBody](t, w)
	assert.Equal(t, 9, inStock.Count)
	for _, p := range inStock.Products {
		assert.True(t, p.InStock, "listed product %s must resolve in stock", p.Product.ID)
	}

	w = a.do(t, request{method: http.MethodGet, path: "/v1/products?sort=cheapest"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(t, request{method: http.MethodGet, path: "/v1/categories"})
	require.Equal(t, http.StatusOK, w.Code)
	cats := decode[struct {
		Categories []models.Category `json:"categories"`
	}](t, w)
	assert.NotEmpty(t, cats.Categories)
}

func TestGuestCart(t *testing.T) {
	a := newAPI(t)

	// First add issues a cart id.
	w := a.do(t, request{method: http.MethodPost, path: "/v1/cart/items", body: gin.H{"productId": "6", "quantity": 2}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	cartID := w.Header().Get(handlers.CartHeader)
	require.NotEmpty(t, cartID)

	// Same item again merges into one line.
	w = a.do(t, request{method: http.MethodPost, path: "/v1/cart/items", cartID: cartID, body: gin.H{"productId": "6", "quantity": 1}})
	require.Equal(t, http.StatusCreated, w.Code)
	got := decode[handlers.CartResponse](t, w)
	assert.Equal(t, cartID, got.CartID)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 3, got.Items[0].Quantity)
	assert.Equal(t, models.CartTotals{Subtotal: 43.5, Tax: 3.48, Shipping: 5.99, Total: 52.97, ItemCount: 3}, got.Totals)

	lineID := got.Items[0].ID

	w = a.do(t, request{method: http.MethodPut, path: "/v1/cart/items/" + lineID, cartID: cartID, body: gin.H{"quantity": 0}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[handlers.CartResponse](t, w).Items[0].Quantity, "quantity clamps to 1")

	w = a.do(t, request{method: http.MethodPut, path: "/v1/cart/items/missing", cartID: cartID, body: gin.H{"quantity": 2}})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(t, request{method: http.MethodDelete, path: "/v1/cart/items/" + lineID, cartID: cartID})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[handlers.CartResponse](t, w).Items)

	w = a.do(t, request{method: http.MethodDelete, path: "/v1/cart/items/" + lineID, cartID: cartID})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(t, request{method: http.MethodGet, path: "/v1/cart", cartID: cartID})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.CartTotals{}, decode[handlers.CartResponse](t, w).Totals)
}

func TestAddToCart_ConcurrentRequestsOnOneCart(t *testing.T) {
	a := newAPI(t)
	w := a.do(t, request{method: http.MethodPost, path: "/v1/cart/items", body: gin.H{"productId": "6"}})
	require.Equal(t, http.StatusCreated, w.Code)
	cartID := w.Header().Get(handlers.CartHeader)

	const adds = 30
	var wg sync.WaitGroup
	for i := 0; i < adds; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := a.do(t, request{method: http.MethodPost, path: "/v1/cart/items", cartID: cartID, body: gin.H{"productId": "6"}})
			assert.Equal(t, http.StatusCreated, w.Code)
		}()
	}
	wg.Wait()

	w = a.do(t, request{method: http.MethodGet, path: "/v1/cart", cartID: cartID})
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[handlers.CartResponse](t, w)
	require.Len(t, got.Items, 1)
	assert.Equal(t, adds+1, got.Items[0].Quantity)
}

func TestAddToCart_Rejections(t *testing.T) {
	a := newAPI(t)

	tests := []struct {
		name string
		body gin.H
		want int
	}{
		{"missing product", gin.H{"quantity": 1}, http.StatusBadRequest},
		{"unknown axis", gin.H{"productId": "1", "selection": gin.H{"flavor": "mint"}}, http.StatusBadRequest},
		{"unknown product", gin.H{"productId": "nope"}, http.StatusNotFound},
		{"sold out", gin.H{"productId": "9"}, http.StatusConflict},
		{"out of stock variant", gin.H{"productId": "1", "selection": gin.H{"color": "coral"}}, http.StatusConflict},
		{"more than stock", gin.H{"productId": "1", "quantity": 4, "selection": gin.H{"storage": "512gb"}}, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := a.do(t, request{method: http.MethodPost, path: "/v1/cart/items", body: tt.body})
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestAddToCart_PriceComesFromCatalog(t *testing.T) {
	a := newAPI(t)
	w := a.do(t, request{method: http.MethodPost, path: "/v1/cart/items", body: gin.H{
		"productId": "1",
		"unitPrice": 1,
		"selection": gin.H{"color": "glacier", "storage": "512gb"},
	}})
	require.Equal(t, http.StatusCreated, w.Code)

	line := decode[handlers.CartResponse](t, w).Items[0]
	assert.Equal(t, 999.0, line.UnitPrice)
	assert.Equal(t, "Glacier Blue", line.SelectedVariants[models.AxisColor])
}

func TestGuestCheckout(t *testing.T) {
	a := newAPI(t)

	w := a.do(t, request{method: http.MethodPost, path: "/v1/cart/items", body: gin.H{"productId": "10"}})
	require.Equal(t, http.StatusCreated, w.Code)
	cartID := w.Header().Get(handlers.CartHeader)

	t.Run("invalid form", func(t *testing.T) {
		in := validCheckout("")
		in.Payment.CVV = "1"
		w := a.do(t, request{method: http.MethodPost, path: "/v1/checkout", cartID: cartID, body: in})
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		body := decode[errorBody](t, w)
		assert.Contains(t, body.Fields, "email")
		assert.Contains(t, body.Fields, "cvv")
	})

	t.Run("declined", func(t *testing.T) {
		in := validCheckout("guest@example.com")
		in.Payment.CardNumber = "4000 0000 0000 0002"
		w := a.do(t, request{method: http.MethodPost, path: "/v1/checkout", cartID: cartID, body: in})
		assert.Equal(t, http.StatusPaymentRequired, w.Code)
	})

	w = a.do(t, request{method: http.MethodPost, path: "/v1/checkout", cartID: cartID, body: validCheckout("Guest@Example.com")})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := decode[orderBody](t, w).Order
	assert.Nil(t, order.UserID)
	assert.Equal(t, models.CartTotals{Subtotal: 45, Tax: 3.6, Shipping: 5.99, Total: 54.59, ItemCount: 1}, order.Totals)

	// The cart is gone; checking out again is an empty-cart error.
	w = a.do(t, request{method: http.MethodPost, path: "/v1/checkout", cartID: cartID, body: validCheckout("guest@example.com")})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Guest lookup needs the checkout email.
	w = a.do(t, request{method: http.MethodGet, path: "/v1/orders/" + order.ID + "?email=guest@example.com"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, order.ID, decode[orderBody](t, w).Order.ID)

	w = a.do(t, request{method: http.MethodGet, path: "/v1/orders/" + order.ID})
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = a.do(t, request{method: http.MethodGet, path: "/v1/orders/" + order.ID + "?email=someone@else.com"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCheckout_LineUnavailable(t *testing.T) {
	a := newAPI(t)
	cartID := "0b8f5a6e-5c39-4a0e-9d1c-3f8f2a3f6b11"
	require.NoError(t, a.carts.Save(context.Background(), cartID, []models.CartLine{
		{ID: "l1", ProductID: "9", Quantity: 1, UnitPrice: 199},
	}))

	w := a.do(t, request{method: http.MethodPost, path: "/v1/checkout", cartID: cartID, body: validCheckout("guest@example.com")})
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "l1", decode[errorBody](t, w).LineID)
}

func register(t *testing.T, a *api, email, cartID string) authBody {
	t.Helper()
	w := a.do(t, request{method: http.MethodPost, path: "/v1/register", cartID: cartID, body: gin.H{
		"fullName": "Mia Member",
		"email":    email,
		"password": "correct-horse",
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[authBody](t, w)
}

func TestAuthFlow(t *testing.T) {
	a := newAPI(t)

	reg := register(t, a, "Mia@Example.com", "")
	assert.NotEmpty(t, reg.Token)
	assert.Equal(t, "mia@example.com", reg.User.Email)

	w := a.do(t, request{method: http.MethodPost, path: "/v1/register", body: gin.H{
		"fullName": "Other", "email": "mia@example.com", "password": "another-pass",
	}})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = a.do(t, request{method: http.MethodPost, path: "/v1/register", body: gin.H{
		"fullName": "Short", "email": "short@example.com", "password": "123",
	}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(t, request{method: http.MethodPost, path: "/v1/login", body: gin.H{"email": "mia@example.com", "password": "wrong-password"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(t, request{method: http.MethodPost, path: "/v1/login", body: gin.H{"email": "nobody@example.com", "password": "whatever1"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(t, request{method: http.MethodPost, path: "/v1/login", body: gin.H{"email": "MIA@example.com", "password": "correct-horse"}})
	require.Equal(t, http.StatusOK, w.Code)
	login := decode[authBody](t, w)

	w = a.do(t, request{method: http.MethodGet, path: "/v1/me", token: login.Token})
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[struct {
		User models.User `json:"user"`
	}](t, w)
	assert.Equal(t, reg.User.ID, me.User.ID)

	w = a.do(t, request{method: http.MethodGet, path: "/v1/me"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// A bad token on an optional-auth route is rejected, not downgraded to guest.
	w = a.do(t, request{method: http.MethodGet, path: "/v1/cart", token: "not-a-token"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogin_MergesGuestCart(t *testing.T) {
	a := newAPI(t)
	reg := register(t, a, "mia@example.com", "")

	// Account cart already holds two mugs.
	w := a.do(t, request{method: http.MethodPost, path: "/v1/cart/items", token: reg.Token, body: gin.H{"productId": "6", "quantity": 2}})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Empty(t, w.Header().Get(handlers.CartHeader), "signed-in carts are not keyed by header")

	// Guest adds one mug and a wallet.
	w = a.do(t, request{method: http.MethodPost, path: "/v1/cart/items", body: gin.H{"productId": "6"}})
	require.Equal(t, http.StatusCreated, w.Code)
	guestID := w.Header().Get(handlers.CartHeader)
	w = a.do(t, request{method: http.MethodPost, path: "/v1/cart/items", cartID: guestID, body: gin.H{"productId": "10"}})
	require.Equal(t, http.StatusCreated, w.Code)

	w = a.do(t, request{method: http.MethodPost, path: "/v1/login", cartID: guestID, body: gin.H{"email": "mia@example.com", "password": "correct-horse"}})
	require.Equal(t, http.StatusOK, w.Code)
	token := decode[authBody](t, w).Token

	w = a.do(t, request{method: http.MethodGet, path: "/v1/cart", token: token})
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[handlers.CartResponse](t, w)
	require.Len(t, got.Items, 2)
	assert.Equal(t, 3, got.Items[0].Quantity)
	assert.Equal(t, "10", got.Items[1].ProductID)

	guest, err := a.carts.Load(context.Background(), guestID)
	require.NoError(t, err)
	assert.Empty(t, guest, "guest cart is removed after merge")
}

func TestSignedInOrders(t *testing.T) {
	a := newAPI(t)
	mia := register(t, a, "mia@example.com", "")
	other := register(t, a, "other@example.com", "")

	w := a.do(t, request{method: http.MethodPost, path: "/v1/cart/items", token: mia.Token, body: gin.H{"productId": "4", "selection": gin.H{"size": "xl"}}})
	require.Equal(t, http.StatusCreated, w.Code)

	// No email in the form: the account email is used.
	w = a.do(t, request{method: http.MethodPost, path: "/v1/checkout", token: mia.Token, body: validCheckout("")})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := decode[orderBody](t, w).Order
	assert.Equal(t, "mia@example.com", order.Email)
	require.NotNil(t, order.UserID)
	assert.Equal(t, mia.User.ID, *order.UserID)

	w = a.do(t, request{method: http.MethodGet, path: "/v1/orders", token: mia.Token})
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Orders []models.Order `json:"orders"`
	}](t, w)
	require.Len(t, list.Orders, 1)
	assert.Equal(t, order.ID, list.Orders[0].ID)

	w = a.do(t, request{method: http.MethodGet, path: "/v1/orders/" + order.ID, token: mia.Token})
	assert.Equal(t, http.StatusOK, w.Code)
	w = a.do(t, request{method: http.MethodGet, path: "/v1/orders/" + order.ID, token: other.Token})
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = a.do(t, request{method: http.MethodGet, path: "/v1/orders/" + order.ID + "?email=mia@example.com"})
	assert.Equal(t, http.StatusNotFound, w.Code, "account orders need the owner's token")

	w = a.do(t, request{method: http.MethodGet, path: "/v1/orders", token: other.Token})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"orders":[]}`, w.Body.String())
}

func TestFavorites(t *testing.T) {
	a := newAPI(t)
	mia := register(t, a, "mia@example.com", "")

	w := a.do(t, request{method: http.MethodGet, path: "/v1/favorites"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(t, request{method: http.MethodPost, path: "/v1/favorites/6", token: mia.Token})
	assert.Equal(t, http.StatusCreated, w.Code)
	w = a.do(t, request{method: http.MethodPost, path: "/v1/favorites/6", token: mia.Token})
	assert.Equal(t, http.StatusCreated, w.Code, "adding twice is a no-op")
	w = a.do(t, request{method: http.MethodPost, path: "/v1/favorites/nope", token: mia.Token})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(t, request{method: http.MethodGet, path: "/v1/favorites", token: mia.Token})
	require.Equal(t, http.StatusOK, w.Code)
	favs := decode[struct {
		Products []models.Product `json:"products"`
		Count    int              `json:"count"`
	}](t, w)
	require.Equal(t, 1, favs.Count)
	assert.Equal(t, "Stoneware Coffee Mug", favs.Products[0].Name)

	w = a.do(t, request{method: http.MethodDelete, path: "/v1/favorites/6", token: mia.Token})
	assert.Equal(t, http.StatusOK, w.Code)
	w = a.do(t, request{method: http.MethodDelete, path: "/v1/favorites/6", token: mia.Token})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPurgeStaleCarts(t *testing.T) {
	carts := store.NewMemoryCartStore()
	carts.Now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	require.NoError(t, carts.Save(context.Background(), "old", []models.CartLine{{ID: "l", ProductID: "6", Quantity: 1}}))

	h := &handlers.Handlers{Carts: carts, Logger: zap.NewNop()}
	h.PurgeStaleCarts(context.Background(), 24*time.Hour)

	lines, err := carts.Load(context.Background(), "old")
	require.NoError(t, err)
	assert.Empty(t, lines)
}
