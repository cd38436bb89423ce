package main

import (
	"context"
	"database/sql"
	"errors"
	"farm-delivery-service/internal/adapters/cache"
	"farm-delivery-service/internal/adapters/loadingstore"
	"farm-delivery-service/internal/adapters/orderfile"
	"farm-delivery-service/internal/adapters/ors"
	"farm-delivery-service/internal/adapters/shopify"
	"farm-delivery-service/internal/adapters/solver"
	"farm-delivery-service/internal/api"
	"farm-delivery-service/internal/config"
	"farm-delivery-service/internal/platform/db"
	"farm-delivery-service/internal/platform/logging"
	"farm-delivery-service/internal/platform/metrics"
	"farm-delivery-service/internal/ports"
	"farm-delivery-service/internal/services"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// loadedStateTTL keeps a day's loaded-state table around long enough to survive
// an overnight restart.
const loadedStateTTL = 48 * time.Hour

// main is the application composition root.
// It wires concrete adapters (Shopify, ORS, Postgres, Redis) behind ports and starts the HTTP server.
func main() {
	dotenv := config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.New(logging.Config{
		Level:       cfg.LogLevel,
		ServiceName: "farm-delivery-service",
		Environment: cfg.Environment,
	})
	slog.SetDefault(logger)
	if !dotenv {
		logger.Info("no .env file found, using environment variables")
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New("farm_delivery")

	orsClient := ors.NewClient(ors.Config{
		APIKey:  cfg.ORSAPIKey,
		BaseURL: cfg.ORSBaseURL,
		Timeout: cfg.OptimizeTimeout,
	}, logger, m)
	if !orsClient.Configured() {
		logger.Warn("ORS_API_KEY is not set; geocoding and ORS routing will report a configuration error")
	}

	var geocoder ports.Geocoder = orsClient
	if cfg.DatabaseURL != "" {
		sqlDB, err := openCacheDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer sqlDB.Close()
		geocoder = cache.NewCachingGeocoder(orsClient, cache.NewSQLGeocodeCache(sqlDB, "90 days", logger), logger)
		logger.Info("geocode cache enabled")
	}

	var routeSolver ports.RouteSolver = orsClient
	if cfg.RoutingSolver == "local" {
		routeSolver = solver.NewNearestNeighbor(solver.DefaultSpeedKPH)
		logger.Info("using local nearest-neighbour solver")
	}

	var source ports.OrderSource
	switch cfg.OrderSource {
	case "file":
		source = orderfile.NewSource(cfg.OrdersFile)
		logger.Info("reading orders from file", "path", cfg.OrdersFile)
	default:
		source = shopify.NewClient(shopify.Config{
			Shop:        cfg.ShopifyShop,
			AccessToken: cfg.ShopifyAccessToken,
			APIVersion:  cfg.ShopifyAPIVersion,
		}, logger, m)
	}

	var store ports.LoadingStore = loadingstore.NewMemoryStore()
	if cfg.RedisURL != "" {
		client, err := loadingstore.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()
		store = loadingstore.NewRedisStore(client, loadedStateTTL)
		logger.Info("loaded state persisted in redis")
	}

	resolver := services.NewAddressResolver(geocoder, services.ResolverConfig{
		Country:     cfg.GeocodeCountry,
		Concurrency: cfg.GeocodeConcurrency,
		Timeout:     cfg.GeocodeTimeout,
	}, logger, m)
	optimizer := services.NewRouteOptimizer(routeSolver, services.OptimizerConfig{
		Depot:           cfg.Depot,
		End:             cfg.End,
		ServiceDuration: cfg.ServiceDuration,
	}, logger, m)
	tracker := services.NewLoadingTracker(store, logger, m)

	session := services.NewController(
		source,
		services.NewClassifier(logger),
		resolver,
		optimizer,
		tracker,
		services.ControllerConfig{DefaultLookbackDays: cfg.DefaultLookbackDays},
		logger,
		m,
	)

	router := api.NewRouter(api.Deps{Session: session, Metrics: m, Logger: logger})

	// Timeouts are tuned for a full fetch + geocode + optimize cycle against external APIs.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openCacheDB(ctx context.Context, databaseURL string) (*sql.DB, error) {
	sqlDB, err := db.Open(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.InitSchema(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return sqlDB, nil
}
