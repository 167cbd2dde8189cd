// Package config reads service settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/01moynul/storefront-golang/internal/cart"
	"github.com/joho/godotenv"
)

type Config struct {
	Port       string
	Env        string // development or production
	CORSOrigin string

	DBDriver string
	DBDSN    string

	JWTSecret string
	TokenTTL  time.Duration

	Totals cart.Options

	CartStore         string // sql or memory
	CartTTL           time.Duration
	CartSweepInterval time.Duration
}

const devJWTSecret = "dev-only-secret-change-me"

// Load reads .env (when present) and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function, applying defaults.
func FromEnv(getenv func(string) string) (*Config, error) {
	// 1. --- Read every key, collecting parse errors ---
	r := reader{getenv: getenv}
	cfg := &Config{
		Port:       r.str("PORT", "8080"),
		Env:        r.str("APP_ENV", "development"),
		CORSOrigin: r.str("CORS_ORIGIN", "http://localhost:3000"),

		DBDriver: r.str("DB_DRIVER", "sqlite"),
		DBDSN:    r.str("DB_DSN", "file:storefront.db?_pragma=busy_timeout(5000)"),

		JWTSecret: r.str("JWT_SECRET", ""),
		TokenTTL:  r.duration("TOKEN_TTL", 72*time.Hour),

		Totals: cart.Options{
			TaxRate:               r.float("TAX_RATE", cart.DefaultOptions.TaxRate),
			FreeShippingThreshold: r.float("FREE_SHIPPING_THRESHOLD", cart.DefaultOptions.FreeShippingThreshold),
			FlatShippingFee:       r.float("FLAT_SHIPPING_FEE", cart.DefaultOptions.FlatShippingFee),
		},

		CartStore:         r.str("CART_STORE", "sql"),
		CartTTL:           r.duration("CART_TTL", 30*24*time.Hour),
		CartSweepInterval: r.duration("CART_SWEEP_INTERVAL", time.Hour),
	}
	if len(r.errs) > 0 {
		return nil, errors.Join(r.errs...)
	}

	// 2. --- JWT secret (only optional outside production) ---
	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, errors.New("JWT_SECRET must be set in production")
		}
		cfg.JWTSecret = devJWTSecret
	}
	// 3. --- Sanity checks ---
	if cfg.Totals.TaxRate < 0 || cfg.Totals.FreeShippingThreshold < 0 || cfg.Totals.FlatShippingFee < 0 {
		return nil, errors.New("TAX_RATE, FREE_SHIPPING_THRESHOLD and FLAT_SHIPPING_FEE must not be negative")
	}
	if cfg.CartStore != "sql" && cfg.CartStore != "memory" {
		return nil, fmt.Errorf("CART_STORE must be sql or memory, got %q", cfg.CartStore)
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool { return c.Env == "production" }

type reader struct {
	getenv func(string) string
	errs   []error
}

func (r *reader) str(key, def string) string {
	if v := strings.TrimSpace(r.getenv(key)); v != "" {
		return v
	}
	return def
}

func (r *reader) float(key string, def float64) float64 {
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return f
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}
