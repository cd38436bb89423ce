package cache

import (
	"context"
	"farm-delivery-service/internal/domain"
	"farm-delivery-service/internal/ports"
	"log/slog"
	"strings"
)

// CachingGeocoder consults a GeocodeCache before delegating to the upstream
// geocoder and stores fresh matches. Cache failures degrade to a live lookup.
type CachingGeocoder struct {
	next   ports.Geocoder
	cache  ports.GeocodeCache
	logger *slog.Logger
}

func NewCachingGeocoder(next ports.Geocoder, c ports.GeocodeCache, logger *slog.Logger) *CachingGeocoder {
	return &CachingGeocoder{next: next, cache: c, logger: logger}
}

// Key normalizes a query into a cache key: case and whitespace folded, country appended.
func Key(q ports.GeocodeQuery) string {
	text := strings.ToLower(strings.Join(strings.Fields(q.Text), " "))
	if q.Country == "" {
		return text
	}
	return text + "|" + strings.ToLower(strings.TrimSpace(q.Country))
}

func (g *CachingGeocoder) Geocode(ctx context.Context, q ports.GeocodeQuery) (ports.GeocodeMatch, error) {
	key := Key(q)

	hits, err := g.cache.GetMany(ctx, []string{key})
	if err != nil {
		g.warn("geocode cache read failed", key, err)
	} else if c, ok := hits[key]; ok {
		return ports.GeocodeMatch{Coordinates: c, Confidence: 1, Cached: true}, nil
	}

	m, err := g.next.Geocode(ctx, q)
	if err != nil {
		return ports.GeocodeMatch{}, err
	}

	if err := g.cache.PutMany(ctx, map[string]domain.Coordinates{key: m.Coordinates}); err != nil {
		g.warn("geocode cache write failed", key, err)
	}
	return m, nil
}

func (g *CachingGeocoder) warn(msg, key string, err error) {
	if g.logger != nil {
		g.logger.Warn(msg, "key", key, "error", err)
	}
}
