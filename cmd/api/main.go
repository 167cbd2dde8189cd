package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/01moynul/storefront-golang/internal/auth"
	"github.com/01moynul/storefront-golang/internal/cart"
	"github.com/01moynul/storefront-golang/internal/catalog"
	"github.com/01moynul/storefront-golang/internal/checkout"
	"github.com/01moynul/storefront-golang/internal/config"
	"github.com/01moynul/storefront-golang/internal/database"
	"github.com/01moynul/storefront-golang/internal/email"
	"github.com/01moynul/storefront-golang/internal/handlers"
	"github.com/01moynul/storefront-golang/internal/routes"
	"github.com/01moynul/storefront-golang/internal/store"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// 0. --- Load Configuration (.env + environment) ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. --- Database Connection ---
	db, err := database.OpenDB(ctx, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(ctx, db, cfg.DBDriver); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	// 2. --- Catalog ---
	products, err := catalog.Load()
	if err != nil {
		logger.Fatal("failed to load catalog", zap.Error(err))
	}
	logger.Info("catalog loaded", zap.Int("products", products.Len()))

	// 3. --- Stores & Services ---
	var carts cart.Store = &store.SQLCartStore{DB: db, Driver: cfg.DBDriver}
	if cfg.CartStore == "memory" {
		carts = store.NewMemoryCartStore()
	}
	orders := &store.SQLOrderStore{DB: db}
	mailer := &email.LogSender{Logger: logger.Named("email")}

	app := &handlers.Handlers{
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
			Notifier: mailer,
			Options:  cfg.Totals,
			Logger:   logger.Named("checkout"),
		},
		Tokens: auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL),
		Mailer: mailer,
		Totals: cfg.Totals,
		Logger: logger,
	}

	// --- 4. Background Workers (Cron) ---
	// Sweeps abandoned carts until shutdown.
	go func() {
		ticker := time.NewTicker(cfg.CartSweepInterval)
		defer ticker.Stop()

		logger.Info("background worker started: sweeping stale carts",
			zap.Duration("interval", cfg.CartSweepInterval), zap.Duration("ttl", cfg.CartTTL))

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				app.PurgeStaleCarts(ctx, cfg.CartTTL)
			}
		}
	}()

	// --- Router Setup ---
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := routes.SetupRouter(app, cfg.CORSOrigin)

	// --- Start Server ---
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("starting storefront API server", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
