package config

import (
	"log"
	"strings"

	"github.com/Skotchmaster/restaurant_orders/pkg/config"
	"github.com/Skotchmaster/restaurant_orders/pkg/pagination"
	"github.com/Skotchmaster/restaurant_orders/services/shop/internal/models"
)

type ServiceConfig struct {
	config.Config

	DefaultPageSize int
	MaxPageSize     int

	// PricingMode selects the unit price used for order totals: the price
	// captured when the line was created or the product's current price.
	PricingMode models.PriceSource

	SearchIndex string

	// LocalCacheSize bounds the in-process cache used without redis.
	LocalCacheSize int
}

func Load() ServiceConfig {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "shop"
	}

	config.Require(cfg.ServiceName,
		config.Str("DATABASE_URL", cfg.DatabaseURL),
		config.Bytes("JWT_SECRET", cfg.JWTAccessSecret),
		config.Str("AUTH_URL", cfg.AuthHTTPURL),
	)

	sc := FromEnv(cfg)
	if sc.PricingMode == "" {
		log.Fatalf("%s: invalid ORDER_PRICING, expected %s or %s", cfg.ServiceName, models.PriceSnapshot, models.PriceLive)
	}
	return sc
}

// FromEnv reads the shop specific settings on top of an already loaded base
// config. An unknown pricing mode leaves PricingMode empty.
func FromEnv(base config.Config) ServiceConfig {
	return ServiceConfig{
		Config:          base,
		DefaultPageSize: config.EnvIntDefault("PAGE_SIZE_DEFAULT", pagination.DefaultPageSize),
		MaxPageSize:     config.EnvIntDefault("PAGE_SIZE_MAX", pagination.MaxPageSize),
		PricingMode:     parsePricing(config.EnvDefault("ORDER_PRICING", string(models.PriceSnapshot))),
		SearchIndex:     config.EnvDefault("ES_PRODUCT_INDEX", "products"),
		LocalCacheSize:  config.EnvIntDefault("LOCAL_CACHE_SIZE", 128),
	}
}

func parsePricing(v string) models.PriceSource {
	switch src := models.PriceSource(strings.ToLower(strings.TrimSpace(v))); src {
	case models.PriceSnapshot, models.PriceLive:
		return src
	}
	return ""
}

func (c ServiceConfig) Pagination() pagination.Params {
	return pagination.NewParams(c.DefaultPageSize, c.MaxPageSize)
}
