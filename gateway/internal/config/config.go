package config

import (
	"github.com/Skotchmaster/restaurant_orders/pkg/config"
)

type Config struct {
	config.Config

	AuthURL string
	ShopURL string

	// RateLimitRPS caps requests per second per client IP; 0 disables it.
	RateLimitRPS float64
	RateBurst    int

	CSRFEnabled bool
	CSRFSecure  bool
}

func Load() Config {
	base := config.Load()
	if base.ServiceName == "" {
		base.ServiceName = "gateway"
	}
	cfg := FromEnv(base)
	config.Require(base.ServiceName,
		config.Str("AUTH_URL", cfg.AuthURL),
		config.Str("SHOP_URL", cfg.ShopURL),
	)
	return cfg
}

func FromEnv(base config.Config) Config {
	return Config{
		Config:       base,
		AuthURL:      base.AuthHTTPURL,
		ShopURL:      config.EnvDefault("SHOP_URL", ""),
		RateLimitRPS: float64(config.EnvIntDefault("RATE_LIMIT_RPS", 0)),
		RateBurst:    config.EnvIntDefault("RATE_LIMIT_BURST", 20),
		CSRFEnabled:  config.EnvBoolDefault("CSRF_ENABLED", true),
		CSRFSecure:   config.EnvBoolDefault("CSRF_COOKIE_SECURE", false),
	}
}
