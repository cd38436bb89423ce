// Package ors talks to OpenRouteService: address search for geocoding and the
// VROOM-backed optimization endpoint for single-vehicle routing.
package ors

import (
	"context"
	"errors"
	"farm-delivery-service/internal/platform/metrics"
	"farm-delivery-service/internal/platform/resilience"
	"farm-delivery-service/internal/ports"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://api.openrouteservice.org"
	DefaultProfile = "driving-car"
)

type Config struct {
	APIKey  string
	BaseURL string
	Profile string
	// Timeout bounds one HTTP exchange; callers set their own deadline on top.
	Timeout time.Duration
}

// Client implements ports.Geocoder and ports.RouteSolver.
// It is safe for concurrent use.
type Client struct {
	session *http.Client
	apiKey  string
	baseURL string
	profile string
	logger  *slog.Logger

	geocodeBreaker  *resilience.Breaker
	optimizeBreaker *resilience.Breaker

	maxAttempts int
	backoff     time.Duration
}

// NewClient builds a client. An empty API key is accepted; calls then fail with
// ports.ErrMissingCredentials so the service can start without routing configured.
func NewClient(cfg Config, logger *slog.Logger, m *metrics.Metrics) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Profile == "" {
		cfg.Profile = DefaultProfile
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		session:         &http.Client{Timeout: cfg.Timeout},
		apiKey:          strings.TrimSpace(cfg.APIKey),
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		profile:         cfg.Profile,
		logger:          logger,
		geocodeBreaker:  resilience.NewBreaker(resilience.DefaultBreakerConfig("ors-geocode"), logger, m.BreakerState),
		optimizeBreaker: resilience.NewBreaker(resilience.DefaultBreakerConfig("ors-optimization"), logger, m.BreakerState),
		maxAttempts:     4,
		backoff:         200 * time.Millisecond,
	}
}

// Configured reports whether an API key is set.
func (o *Client) Configured() bool { return o.apiKey != "" }

// countsAgainstBreaker is true for upstream trouble: 429, 5xx and transport errors.
// Client-side errors and cancellations leave the breaker alone.
func countsAgainstBreaker(err error) bool {
	if errors.Is(err, ports.ErrNoGeocodeMatch) {
		return false
	}
	var he *httpStatusError
	if errors.As(err, &he) {
		return isTransientStatus(he.Code)
	}
	return !errors.Is(err, context.Canceled)
}
