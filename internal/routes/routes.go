package routes

import (
	"net/http"

	"github.com/01moynul/storefront-golang/internal/handlers"
	"github.com/01moynul/storefront-golang/internal/middleware"
	"github.com/gin-gonic/gin"
)

func SetupRouter(h *handlers.Handlers, corsOrigin string) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestLogger(h.Logger), gin.Recovery())

	// --- APPLY THE CORS GUARD ---
	router.Use(middleware.CORSMiddleware(corsOrigin))

	v1 := router.Group("/v1")
	{
		// --- Ping Route (Public) ---
		v1.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "pong!"})
		})

		// --- Auth Routes (Public) ---
		v1.POST("/register", h.Register)
		v1.POST("/login", h.Login)

		// --- Catalog Routes (Public) ---
		v1.GET("/products", h.ListProducts)
		v1.GET("/products/:id", h.GetProduct)
		v1.GET("/categories", h.GetAllCategories)
		v1.GET("/brands", h.GetAllBrands)

		// --- Cart & Checkout (Guest or Signed In) ---
		shop := v1.Group("/")
		shop.Use(middleware.OptionalAuth(h.Tokens))
		{
			shop.GET("/cart", h.GetCart)
			shop.DELETE("/cart", h.ClearCart)
			shop.POST("/cart/items", h.AddToCart)
			shop.PUT("/cart/items/:line_id", h.UpdateCartItem)
			shop.DELETE("/cart/items/:line_id", h.DeleteCartItem)

			shop.POST("/checkout", h.PlaceOrder)
			shop.GET("/orders/:id", h.GetOrderDetails)
		}

		// --- Protected Routes (Login Required) ---
		auth := v1.Group("/")
		auth.Use(middleware.AuthMiddleware(h.Tokens))
		{
			auth.GET("/me", h.Me)
			auth.GET("/orders", h.GetMyOrders)

			auth.GET("/favorites", h.GetFavorites)
			auth.POST("/favorites/:product_id", h.AddFavorite)
			auth.DELETE("/favorites/:product_id", h.RemoveFavorite)
		}
	}

	return router
}
