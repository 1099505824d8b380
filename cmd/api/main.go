// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

// Command api is the entry point for the Toniewert HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Wire domain services and HTTP handlers.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/toniewert/toniewert/internal/api"
	"github.com/toniewert/toniewert/internal/catalog"
	"github.com/toniewert/toniewert/internal/market"
	"github.com/toniewert/toniewert/internal/platform/config"
	"github.com/toniewert/toniewert/internal/platform/constants"
	"github.com/toniewert/toniewert/internal/platform/migration"
	pgstore "github.com/toniewert/toniewert/internal/platform/postgres"
	redisstore "github.com/toniewert/toniewert/internal/platform/redis"
	"github.com/toniewert/toniewert/internal/pricing"
	"github.com/toniewert/toniewert/internal/recognizer"
	"github.com/toniewert/toniewert/internal/refresh"
	"github.com/toniewert/toniewert/internal/resolver"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", "toniewert"))
	slog.SetDefault(log)

	log.Info("[Toniewert] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", "toniewert"))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
	}, log)

	// ── 7. Catalog & Recognition Wiring ───────────────────────────────────
	catalogRepository := catalog.NewPostgresRepository(pool)
	catalogService := catalog.NewService(catalogRepository, log)
	catalogHandler := catalog.NewHandler(catalogService)

	resolverService := resolver.NewService(catalogService, log)
	must(log, resolverService.Reload(startupCtx), "load resolver index")
	resolverHandler := resolver.NewHandler(resolverService)

	recognizerRepository := recognizer.NewPostgresRepository(pool)
	recognizerService := recognizer.NewService(recognizerRepository, catalogService, recognizer.Thresholds{
		MinScore:      cfg.RecognitionMinScore,
		ResolvedScore: cfg.RecognitionResolvedScore,
		ResolvedGap:   cfg.RecognitionResolvedGap,
	}, log)
	must(log, recognizerService.Reload(startupCtx), "load recognition index")
	recognizerHandler := recognizer.NewHandler(recognizerService)

	// ── 8. Market Wiring ──────────────────────────────────────────────────
	fetcher := market.NewFetcher(market.FetcherOptions{
		Timeout:       time.Duration(cfg.FetchTimeoutSeconds) * time.Second,
		Retries:       cfg.FetchRetries,
		RatePerSecond: cfg.FetchRatePerSecond,
	}, log)

	adapters := []market.Adapter{
		market.NewEbayAdapter(fetcher, market.EbayOptions{
			MinPriceEUR:    cfg.MarketPriceMinEUR,
			RawMaxPriceEUR: cfg.MarketRawPriceMaxEUR,
		}, log),
		market.NewKleinanzeigenAdapter(fetcher, market.KleinanzeigenOptions{
			MinPriceEUR:    cfg.MarketPriceMinEUR,
			RawMaxPriceEUR: cfg.MarketRawPriceMaxEUR,
		}, log),
	}

	marketRepository := market.NewPostgresRepository(pool)
	marketService := market.NewService(marketRepository, adapters, market.ServiceOptions{
		HistoryDays:   cfg.MarketHistoryDays,
		MaxItems:      cfg.AutoRefreshMaxItems,
		SourceWeights: cfg.SourceWeights,
		DefaultWeight: cfg.MarketDefaultSourceWeight,
	}, log)
	marketHandler := market.NewHandler(marketService)

	// ── 9. Refresh Coordination ───────────────────────────────────────────
	refreshRepository := refresh.NewPostgresRepository(pool)
	refreshCoordinator := refresh.NewCoordinator(catalogService, marketService, refreshRepository, refresh.CoordinatorOptions{
		ItemDelay: 2 * time.Second,
	}, log)
	refreshHandler := refresh.NewHandler(refreshCoordinator)

	// ── 10. Pricing Wiring ────────────────────────────────────────────────
	cacheTTL := time.Duration(cfg.MarketCacheTTLMinutes) * time.Minute

	pricingEngine := pricing.NewEngine(pricing.EngineOptions{
		MinPriceEUR:         cfg.MarketPriceMinEUR,
		MaxPriceEUR:         cfg.MarketPriceMaxEUR,
		IQRFactor:           cfg.MarketOutlierIQRFactor,
		MinSamples:          cfg.MarketMinSamples,
		MinEffectiveSamples: cfg.MarketMinEffectiveSamples,
		SourceWeights:       cfg.SourceWeights,
		DefaultWeight:       cfg.MarketDefaultSourceWeight,
	})

	pricingRepository := pricing.NewPostgresRepository(pool)
	snapshotCache := pricing.NewSnapshotCache(rdb, cacheTTL, log)
	pricingService := pricing.NewService(
		catalogService,
		marketService,
		pricingRepository,
		snapshotCache,
		pricingEngine,
		refreshCoordinator,
		pricing.ServiceOptions{CacheTTL: cacheTTL},
		log,
	)
	pricingHandler := pricing.NewHandler(pricingService)

	// ── 11. HTTP Server ───────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:   liveness,
		Readiness:  readiness,
		Catalog:    catalogHandler,
		Resolver:   resolverHandler,
		Recognizer: recognizerHandler,
		Pricing:    pricingHandler,
		Market:     marketHandler,
		Refresh:    refreshHandler,
	}

	// Application context outlives startup; cancelled once shutdown begins
	// so background workers (rate limiter janitor, scheduler) stop cleanly.
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	server := api.NewServer(appCtx, cfg, log, handlers)

	// ── 12. Background Scheduler ──────────────────────────────────────────
	if cfg.AutoRefreshEnabled {
		scheduler := refresh.NewScheduler(refreshCoordinator, refresh.SchedulerOptions{
			Interval: time.Duration(cfg.AutoRefreshIntervalMinutes) * time.Minute,
			Limit:    cfg.AutoRefreshLimit,
		}, log)
		go scheduler.Run(appCtx)
	}

	// ── 13. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	appCancel()

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
