package ports

import (
	"context"
	"errors"
	"farm-delivery-service/internal/domain"
)

// ErrNoGeocodeMatch is returned when a lookup yields zero results.
var ErrNoGeocodeMatch = errors.New("no geocode match")

// Free-text address lookup restricted to one country.
type GeocodeQuery struct {
	Text    string
	Country string
}

// Best match for a geocode query.
type GeocodeMatch struct {
	Coordinates domain.Coordinates
	Confidence  float64
	Label       string
	// Cached is set when the match came from a local cache instead of the upstream service.
	Cached bool
}

// Contract for converting a street address into coordinates.
type Geocoder interface {
	// Return the top-confidence match or ErrNoGeocodeMatch.
	Geocode(ctx context.Context, q GeocodeQuery) (GeocodeMatch, error)
}

// Persistent address -> coordinate cache. Keys are normalized by the caller.
type GeocodeCache interface {
	GetMany(ctx context.Context, keys []string) (map[string]domain.Coordinates, error)
	PutMany(ctx context.Context, results map[string]domain.Coordinates) error
}
