package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ORS_API_KEY", "")
	t.Setenv("GEOCODE_CONCURRENCY", "")
	t.Setenv("ROUTING_SOLVER", "")
	t.Setenv("ORDER_SOURCE", "")
	t.Setenv("SCANNER_DEBOUNCE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "AU", cfg.GeocodeCountry)
	assert.Equal(t, 3, cfg.GeocodeConcurrency)
	assert.Equal(t, "ors", cfg.RoutingSolver)
	assert.Equal(t, "shopify", cfg.OrderSource)
	assert.Equal(t, 100*time.Millisecond, cfg.ScannerDebounce)
	assert.Empty(t, cfg.ORSAPIKey)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("GEOCODE_CONCURRENCY", "0")
	t.Setenv("ROUTING_SOLVER", "magic")
	t.Setenv("GEOCODE_TIMEOUT", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEOCODE_CONCURRENCY")
	assert.Contains(t, err.Error(), "ROUTING_SOLVER")
	assert.Contains(t, err.Error(), "GEOCODE_TIMEOUT")
}
