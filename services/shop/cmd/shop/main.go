package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/restaurant_orders/pkg/authclient"
	pkgdb "github.com/Skotchmaster/restaurant_orders/pkg/db"
	"github.com/Skotchmaster/restaurant_orders/pkg/events"
	"github.com/Skotchmaster/restaurant_orders/pkg/logging"
	loggingmw "github.com/Skotchmaster/restaurant_orders/pkg/middleware/logging"

	"github.com/Skotchmaster/restaurant_orders/services/shop/internal/cache"
	shopcfg "github.com/Skotchmaster/restaurant_orders/services/shop/internal/config"
	"github.com/Skotchmaster/restaurant_orders/services/shop/internal/httpserver"
	"github.com/Skotchmaster/restaurant_orders/services/shop/internal/models"
	"github.com/Skotchmaster/restaurant_orders/services/shop/internal/repo"
	"github.com/Skotchmaster/restaurant_orders/services/shop/internal/search"
	"github.com/Skotchmaster/restaurant_orders/services/shop/internal/service"
)

func main() {
	if err := godotenv.Load("services/shop/.env"); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg := shopcfg.Load()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}

	if cfg.AutoMigrate {
		if err := db.AutoMigrate(models.All()...); err != nil {
			log.Fatalf("db migrate: %v", err)
		}
	}

	txOpts, err := pkgdb.TxOptions(cfg.TxIsolation)
	if err != nil {
		log.Fatalf("db tx options: %v", err)
	}

	publisher := events.New(cfg.KafkaBrokers, cfg.ServiceName)
	defer publisher.Close()

	r := repo.New(db, txOpts)
	catalog := &service.CatalogService{Repo: r, Events: publisher, CacheTTL: cfg.CacheTTL}
	var readyCache httpserver.Pinger

	if cfg.RedisAddr != "" {
		c := cache.NewRedis(cache.NewRedisClient(cfg.RedisAddr))
		defer c.Close()
		catalog.Cache = c
		readyCache = c
		logger.Info("products_info_cache_enabled", "addr", cfg.RedisAddr)
	} else {
		catalog.Cache = cache.NewLocal(cfg.LocalCacheSize, cfg.CacheTTL)
	}

	if cfg.ElasticURL != "" {
		es, err := search.NewClient(cfg.ElasticURL, cfg.ElasticUser, cfg.ElasticPassword)
		if err != nil {
			log.Fatalf("elasticsearch client: %v", err)
		}
		idx := search.New(es, cfg.SearchIndex)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := idx.EnsureIndex(ctx); err != nil {
			logger.Warn("search_index_unavailable", "error", err)
		} else {
			catalog.Index = idx
		}
		cancel()
	}

	pages := cfg.Pagination()
	orders := &service.OrderService{Repo: r, Pricing: cfg.PricingMode, Events: publisher}
	reviews := &service.ReviewService{Repo: r, Events: publisher}

	e := echo.New()
	e.HideBanner = true
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())
	e.Use(echomw.Secure())

	httpserver.Register(e, &httpserver.Deps{
		CatalogHandler: &httpserver.CatalogHTTP{Svc: catalog, Pages: pages},
		OrderHandler:   &httpserver.OrderHTTP{Svc: orders, Pages: pages},
		ReviewHandler:  &httpserver.ReviewHTTP{Svc: reviews, Pages: pages},
		JWTSecret:      cfg.JWTAccessSecret,
		AuthClient:     authclient.NewClient(cfg.AuthHTTPURL),
		DB:             db,
		Cache:          readyCache,
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("shop_listening", "addr", srv.Addr, "pricing", cfg.PricingMode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	_ = pkgdb.Close(db)

	logger.Info("shop_stopped")
}
