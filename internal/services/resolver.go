package services

import (
	"context"
	"errors"
	"farm-delivery-service/internal/domain"
	"farm-delivery-service/internal/platform/metrics"
	"farm-delivery-service/internal/ports"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrIncompleteAddress is returned for addresses with nothing to look up.
var ErrIncompleteAddress = errors.New("address has no street line or city")

type ResolverConfig struct {
	Country     string
	Concurrency int
	Timeout     time.Duration
}

// AddressResolver turns delivery addresses into coordinates. Failures are
// isolated per address: a batch never fails because one lookup did.
type AddressResolver struct {
	geocoder ports.Geocoder
	cfg      ResolverConfig
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewAddressResolver(g ports.Geocoder, cfg ResolverConfig, logger *slog.Logger, m *metrics.Metrics) *AddressResolver {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &AddressResolver{geocoder: g, cfg: cfg, logger: logger, metrics: m}
}

// BuildQuery renders the free-text lookup from street line, city, province and country.
func BuildQuery(a *domain.Address) string {
	if a == nil {
		return ""
	}
	parts := make([]string, 0, 4)
	for _, p := range []string{a.Address1, a.City, a.Province, a.Country} {
		p = strings.Join(strings.Fields(p), " ")
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Resolve looks up one address under the per-call timeout.
func (r *AddressResolver) Resolve(ctx context.Context, a *domain.Address) (ports.GeocodeMatch, error) {
	if !a.Present() {
		return ports.GeocodeMatch{}, ErrIncompleteAddress
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	match, err := r.geocoder.Geocode(ctx, ports.GeocodeQuery{Text: BuildQuery(a), Country: r.cfg.Country})
	if err != nil {
		return ports.GeocodeMatch{}, fmt.Errorf("resolve address: %w", err)
	}
	return match, nil
}

// ResolveAll geocodes the delivery orders of a batch with bounded concurrency and
// returns a copy with coordinates or a failure status attached. Pickup orders are
// returned unchanged. Order of the input is preserved.
//
// Per-address failures are recorded on the order only. A geocoder without
// credentials fails every lookup the same way, so it is returned as an error
// wrapping ports.ErrMissingCredentials.
func (r *AddressResolver) ResolveAll(ctx context.Context, orders []domain.ClassifiedOrder) ([]domain.ClassifiedOrder, error) {
	out := make([]domain.ClassifiedOrder, len(orders))
	copy(out, orders)

	var g errgroup.Group
	g.SetLimit(r.cfg.Concurrency)

	for i := range out {
		if out[i].DeliveryType != domain.DeliveryTypeDelivery {
			continue
		}
		i := i
		g.Go(func() error {
			o := &out[i]
			match, err := r.Resolve(ctx, o.Customer.ShippingAddress)
			if err != nil {
				o.Coordinates = nil
				o.GeocodeStatus = domain.GeocodeFailed
				o.GeocodeError = err.Error()
				if errors.Is(err, ports.ErrMissingCredentials) {
					return err
				}
				r.metrics.Geocode("failed")
				if r.logger != nil {
					r.logger.Warn("address not resolved", "order_id", o.ID, "order_number", o.OrderNumber, "error", err)
				}
				return nil
			}
			c := match.Coordinates
			o.Coordinates = &c
			o.GeocodeStatus = domain.GeocodeResolved
			o.GeocodeError = ""
			if match.Cached {
				r.metrics.Geocode("cached")
			} else {
				r.metrics.Geocode("resolved")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return out, fmt.Errorf("resolve addresses: %w", err)
	}

	return out, nil
}
