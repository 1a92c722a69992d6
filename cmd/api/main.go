package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"caffinity/internal/auth"
	"caffinity/internal/cache"
	"caffinity/internal/config"
	"caffinity/internal/database"
	"caffinity/internal/handler"
	"caffinity/internal/metrics"
	"caffinity/internal/promotion"
	"caffinity/internal/repository"
	"caffinity/internal/router"
	"caffinity/internal/service"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger, os.Stdout)
	logger.Info().Msg("starting caffinity store server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialise database: %w", err)
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, pool, logger); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	resolver, err := newPromotionResolver(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialise promotions: %w", err)
	}

	statsCache := cache.StatsCache(cache.Noop{})
	if cfg.Redis.URL != "" {
		client, err := cache.NewClient(ctx, cfg.Redis.URL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, dashboard stats will not be cached")
		} else {
			defer client.Close()
			statsCache = cache.NewRedisStatsCache(client, cfg.Redis.StatsTTL)
			logger.Info().Dur("ttl", cfg.Redis.StatsTTL).Msg("dashboard stats cache enabled")
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	storeMetrics := metrics.NewStoreMetrics(reg)

	// Repositories
	productRepo := repository.NewProductRepository(pool, logger)
	cartRepo := repository.NewCartRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	statsRepo := repository.NewStatsRepository(pool, logger)

	// Services
	statsService := service.NewStatsService(statsRepo, statsCache, logger)
	productService := service.NewProductService(productRepo, statsService, logger)
	cartService := service.NewCartService(cartRepo, productRepo, storeMetrics, logger)
	orderService := service.NewOrderService(service.OrderDeps{
		Orders:     orderRepo,
		Products:   productRepo,
		Cart:       cartRepo,
		Promotions: resolver,
		Stats:      statsService,
		Metrics:    storeMetrics,
	}, logger)

	mux := router.New(router.Handlers{
		Products: handler.NewProductHandler(productService, logger),
		Cart:     handler.NewCartHandler(cartService, logger),
		Orders:   handler.NewOrderHandler(orderService, logger),
		Stats:    handler.NewStatsHandler(statsService, logger),
	}, router.Options{
		Auth: auth.Config{
			Secret: cfg.Auth.JWTSecret,
			Issuer: cfg.Auth.JWTIssuer,
			TTL:    cfg.Auth.TokenTTL,
		},
		Metrics:  storeMetrics,
		Gatherer: reg,
		Logger:   logger,
	})

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// newPromotionResolver loads the built-in rules plus any provisioned files,
// reading from S3 first when it is enabled.
func newPromotionResolver(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*promotion.Resolver, error) {
	fileLoader := promotion.NewFileLoader(logger)
	var s3Loader promotion.Loader

	if cfg.S3.Enabled {
		loader, err := promotion.NewS3Loader(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 loader, falling back to local file system only")
		} else {
			s3Loader = loader
		}
	} else {
		logger.Info().Msg("using local file system for promotion files (S3 disabled)")
	}

	loader := promotion.NewFallbackLoader(s3Loader, fileLoader, cfg.S3.Prefix, logger)
	return promotion.NewResolver(ctx, &promotion.ResolverConfig{FilePaths: cfg.Promotions.FilePaths}, loader, logger)
}
