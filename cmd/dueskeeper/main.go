package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/societyops/dueskeeper/internal/config"
	"github.com/societyops/dueskeeper/internal/domain"
	"github.com/societyops/dueskeeper/internal/handler"
	"github.com/societyops/dueskeeper/internal/infra/boltstore"
	"github.com/societyops/dueskeeper/internal/infra/cache"
	"github.com/societyops/dueskeeper/internal/infra/jsonstore"
	"github.com/societyops/dueskeeper/internal/infra/observability"
	"github.com/societyops/dueskeeper/internal/infra/resilience"
	"github.com/societyops/dueskeeper/internal/port"
	"github.com/societyops/dueskeeper/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("store_backend", cfg.StoreBackend),
		zap.String("data_dir", cfg.DataDir),
		zap.Duration("lock_timeout", cfg.LockTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Bool("allow_replace", cfg.AllowReplace),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "dueskeeper")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	ledgerCache := cache.New[*domain.Ledger](cfg.CacheTTL)

	// --- Seed (canonical defaults, or a YAML override) ---
	seed, err := config.LoadSeed(cfg.SeedFile, cfg.DefaultMonthlyFee)
	if err != nil {
		logger.Fatal("failed to load seed", zap.Error(err))
	}

	// --- Store ---
	var store port.LedgerStore
	switch cfg.StoreBackend {
	case config.BackendBolt:
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			logger.Fatal("failed to create data dir", zap.Error(err))
		}
		path := cfg.BoltFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(cfg.DataDir, path)
		}
		store, err = boltstore.New(path, seed, logger)
	case config.BackendJSON:
		store, err = jsonstore.New(cfg.DataDir, cfg.LedgerFile, cfg.MembersFile, seed, logger)
	default:
		logger.Fatal("unknown store backend", zap.String("backend", cfg.StoreBackend))
	}
	if err != nil {
		logger.Fatal("failed to open store", zap.Error(err))
	}
	defer store.Close()

	// --- Service ---
	svc := service.NewLedgerService(store, ledgerCache, metrics, logger, service.Options{
		LockTimeout:  cfg.LockTimeout,
		AllowReplace: cfg.AllowReplace,
		Retry: resilience.Config{
			MaxRetries:     cfg.MaxRetries,
			InitialBackoff: cfg.InitialBackoff,
		},
	})

	// --- Router ---
	router := handler.NewRouter(svc, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
