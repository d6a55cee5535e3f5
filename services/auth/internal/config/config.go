package config

import (
	"time"

	"github.com/Skotchmaster/restaurant_orders/pkg/config"
	"github.com/Skotchmaster/restaurant_orders/pkg/pagination"
)

type ServiceConfig struct {
	config.Config

	AccessTTL  time.Duration
	RefreshTTL time.Duration

	DefaultPageSize int
	MaxPageSize     int

	// AdminUsername, when set, is created or promoted to admin on startup.
	AdminUsername string
	AdminPassword string
}

func Load() ServiceConfig {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "auth"
	}

	sc := FromEnv(cfg)
	required := []config.Setting{
		config.Str("DATABASE_URL", cfg.DatabaseURL),
		config.Bytes("JWT_SECRET", cfg.JWTAccessSecret),
		config.Bytes("JWT_REFRESH_SECRET", cfg.JWTRefreshSecret),
	}
	if sc.AdminUsername != "" {
		required = append(required, config.Str("ADMIN_PASSWORD", sc.AdminPassword))
	}
	config.Require(cfg.ServiceName, required...)
	return sc
}

func FromEnv(base config.Config) ServiceConfig {
	return ServiceConfig{
		Config:          base,
		AccessTTL:       config.EnvDurationDefault("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTTL:      config.EnvDurationDefault("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		DefaultPageSize: config.EnvIntDefault("PAGE_SIZE_DEFAULT", pagination.DefaultPageSize),
		MaxPageSize:     config.EnvIntDefault("PAGE_SIZE_MAX", pagination.MaxPageSize),
		AdminUsername:   config.EnvDefault("ADMIN_USERNAME", ""),
		AdminPassword:   config.EnvDefault("ADMIN_PASSWORD", ""),
	}
}

func (c ServiceConfig) Pagination() pagination.Params {
	return pagination.NewParams(c.DefaultPageSize, c.MaxPageSize)
}
