package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "adgate/internal/adapter/http"
	"adgate/internal/adapter/postgres"
	rediscache "adgate/internal/adapter/redis"
	"adgate/internal/adapter/usecase"
	"adgate/internal/config"
	"adgate/internal/core/port"
	"adgate/internal/db"
	"adgate/internal/scheduler"
)

// main is the entry point of the ad delivery gate. It loads
// configuration, optionally runs database migrations, initializes the
// database pool, the optional Redis view cache, the repositories and
// the background sweeper, then starts the HTTP server. On receiving a
// termination signal it gracefully shuts down the server.
func main() {
	exitCode := 1
	defer func() {
		if r := recover(); r != nil {
			panic(r)
		} else {
			os.Exit(exitCode)
		}
	}()

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	var logger *slog.Logger
	{
		// Initialise structured logger based on configuration.
		var handler slog.Handler
		level := cfg.Log.SlogLevel()
		switch cfg.Log.SlogFormat() {
		case "json":
			handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
		default:
			handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
		}
		logger = slog.New(handler)
	}

	// Optionally run migrations if configured. We use the Psql sub-config.
	if cfg.Psql.RunMigrations {
		if err = db.Migrate(cfg.Psql.Addr.String()); err != nil {
			logger.Error("migration error", slog.Any("error", err))
		} else {
			logger.Info("migrations applied successfully")
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.Psql)
	if err != nil {
		logger.Error("database connection error", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	ledger := postgres.NewLedgerRepository(pool)
	catalog := postgres.NewCatalogRepository(pool)

	// The view cache is optional; without it frequency caps are checked
	// against the database only.
	var cache port.ViewCache
	if cfg.Redis.Addr != "" {
		vc, err := rediscache.NewViewCacheFromAddr(ctx, cfg.Redis.Addr)
		if err != nil {
			logger.Error("redis connection error", slog.Any("error", err))
			os.Exit(1)
		}
		defer vc.Close()
		cache = vc
		logger.Info("view cache enabled", slog.String("addr", cfg.Redis.Addr))
	}

	delivery := usecase.NewDeliveryService(ledger, cache, logger)
	manage := usecase.NewManageService(ledger, catalog, logger)

	sweeper := scheduler.New(catalog, logger)
	if err = sweeper.Start(); err != nil {
		logger.Error("scheduler start error", slog.Any("error", err))
		os.Exit(1)
	}
	defer sweeper.Stop()

	handler := httpadapter.NewHandler(delivery, manage, logger)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler: handler.Router(),
	}

	go func() {
		logger.Info("server listening", slog.Int("port", int(cfg.HTTP.Port)))
		if err = srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	value := <-quit
	exitCode = 128 + int(value.(syscall.Signal))

	ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err = srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
	} else {
		logger.Info("server gracefully stopped")
	}
}
