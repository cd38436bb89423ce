package config

import (
	"errors"
	"farm-delivery-service/internal/domain"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full runtime configuration, read from the environment.
type Config struct {
	Port        string
	LogLevel    string
	Environment string

	ORSAPIKey          string
	ORSBaseURL         string
	GeocodeCountry     string
	GeocodeConcurrency int
	GeocodeTimeout     time.Duration
	OptimizeTimeout    time.Duration
	ServiceDuration    time.Duration
	Depot              domain.Coordinates
	End                domain.Coordinates
	RoutingSolver      string

	OrderSource         string
	OrdersFile          string
	ShopifyShop         string
	ShopifyAccessToken  string
	ShopifyAPIVersion   string
	DefaultLookbackDays int

	DatabaseURL string
	RedisURL    string

	ScannerDebounce time.Duration
	ServerURL       string
}

// LoadDotEnv loads .env into the process environment when the file exists.
// It reports whether a file was loaded.
func LoadDotEnv(paths ...string) bool {
	return godotenv.Load(paths...) == nil
}

// Get returns the environment value for key, or fallback when unset.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// Load reads the configuration from the environment.
// Missing ORS credentials are not an error here; the affected operations report them.
func Load() (Config, error) {
	var errs []error

	intVal := func(key string, fallback int) int {
		raw := Get(key, "")
		if raw == "" {
			return fallback
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return fallback
		}
		return v
	}
	floatVal := func(key string, fallback float64) float64 {
		raw := Get(key, "")
		if raw == "" {
			return fallback
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return fallback
		}
		return v
	}
	durVal := func(key string, fallback time.Duration) time.Duration {
		raw := Get(key, "")
		if raw == "" {
			return fallback
		}
		v, err := time.ParseDuration(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return fallback
		}
		return v
	}

	cfg := Config{
		Port:        Get("PORT", "8080"),
		LogLevel:    Get("LOG_LEVEL", "info"),
		Environment: Get("ENVIRONMENT", "development"),

		ORSAPIKey:          Get("ORS_API_KEY", ""),
		ORSBaseURL:         Get("ORS_BASE_URL", "https://api.openrouteservice.org"),
		GeocodeCountry:     Get("GEOCODE_COUNTRY", "AU"),
		GeocodeConcurrency: intVal("GEOCODE_CONCURRENCY", 3),
		GeocodeTimeout:     durVal("GEOCODE_TIMEOUT", 10*time.Second),
		OptimizeTimeout:    durVal("OPTIMIZE_TIMEOUT", 30*time.Second),
		ServiceDuration:    durVal("SERVICE_DURATION", 5*time.Minute),
		Depot: domain.Coordinates{
			Lon: floatVal("DEPOT_LON", 151.6917),
			Lat: floatVal("DEPOT_LAT", -32.7336),
		},
		End: domain.Coordinates{
			Lon: floatVal("END_LON", 151.7817),
			Lat: floatVal("END_LAT", -32.9283),
		},
		RoutingSolver: strings.ToLower(Get("ROUTING_SOLVER", "ors")),

		OrderSource:         strings.ToLower(Get("ORDER_SOURCE", "shopify")),
		OrdersFile:          Get("ORDERS_FILE", "data/orders.json"),
		ShopifyShop:         Get("SHOPIFY_SHOP", ""),
		ShopifyAccessToken:  Get("SHOPIFY_ACCESS_TOKEN", ""),
		ShopifyAPIVersion:   Get("SHOPIFY_API_VERSION", "2024-01"),
		DefaultLookbackDays: intVal("DEFAULT_LOOKBACK_DAYS", 7),

		DatabaseURL: Get("DATABASE_URL", ""),
		RedisURL:    Get("REDIS_URL", ""),

		ScannerDebounce: durVal("SCANNER_DEBOUNCE", 100*time.Millisecond),
		ServerURL:       Get("SERVER_URL", "http://localhost:8080"),
	}

	if cfg.GeocodeConcurrency < 1 {
		errs = append(errs, errors.New("GEOCODE_CONCURRENCY must be at least 1"))
	}
	switch cfg.RoutingSolver {
	case "ors", "local":
	default:
		errs = append(errs, fmt.Errorf("ROUTING_SOLVER must be ors or local, got %q", cfg.RoutingSolver))
	}
	switch cfg.OrderSource {
	case "shopify", "file":
	default:
		errs = append(errs, fmt.Errorf("ORDER_SOURCE must be shopify or file, got %q", cfg.OrderSource))
	}

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("load config: %w", errors.Join(errs...))
	}
	return cfg, nil
}
