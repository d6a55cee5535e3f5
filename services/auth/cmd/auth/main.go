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

	pkgdb "github.com/Skotchmaster/restaurant_orders/pkg/db"
	"github.com/Skotchmaster/restaurant_orders/pkg/events"
	"github.com/Skotchmaster/restaurant_orders/pkg/logging"
	loggingmw "github.com/Skotchmaster/restaurant_orders/pkg/middleware/logging"

	authcfg "github.com/Skotchmaster/restaurant_orders/services/auth/internal/config"
	"github.com/Skotchmaster/restaurant_orders/services/auth/internal/httpserver"
	"github.com/Skotchmaster/restaurant_orders/services/auth/internal/models"
	"github.com/Skotchmaster/restaurant_orders/services/auth/internal/repo"
	"github.com/Skotchmaster/restaurant_orders/services/auth/internal/service"
)

func main() {
	if err := godotenv.Load("services/auth/.env"); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg := authcfg.Load()

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

	svc := &service.AuthService{
		Repo:          repo.New(db, txOpts),
		AccessSecret:  cfg.JWTAccessSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
		Events:        publisher,
	}

	if cfg.AdminUsername != "" {
		ctx, cancel := context.WithTimeout(logging.IntoContext(context.Background(), logger), 10*time.Second)
		if err := svc.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
			log.Fatalf("bootstrap admin: %v", err)
		}
		cancel()
		logger.Info("admin_ready", "username", cfg.AdminUsername)
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.Secure())

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler: &httpserver.AuthHTTP{Svc: svc, Pages: cfg.Pagination()},
		JWTSecret:   cfg.JWTAccessSecret,
		DB:          db,
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("auth_listening", "addr", srv.Addr)
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

	logger.Info("auth_stopped")
}
