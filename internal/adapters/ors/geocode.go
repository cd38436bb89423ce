package ors

import (
	"context"
	"encoding/json"
	"farm-delivery-service/internal/domain"
	"farm-delivery-service/internal/platform/obs"
	"farm-delivery-service/internal/platform/resilience"
	"farm-delivery-service/internal/ports"
	"fmt"
	"net/http"
	"strings"
)

type geocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties struct {
			Label      string  `json:"label"`
			Confidence float64 `json:"confidence"`
		} `json:"properties"`
	} `json:"features"`
}

// Geocode resolves one free-text address with /geocode/search, keeping only the
// top result. Transient failures are retried.
func (o *Client) Geocode(ctx context.Context, q ports.GeocodeQuery) (_ ports.GeocodeMatch, err error) {
	defer obs.Time(ctx, o.logger, "ors.Geocode")(&err)

	if !o.Configured() {
		return ports.GeocodeMatch{}, ports.ErrMissingCredentials
	}
	text := strings.Join(strings.Fields(q.Text), " ")
	if text == "" {
		return ports.GeocodeMatch{}, fmt.Errorf("geocode: empty query")
	}

	return resilience.Do(o.geocodeBreaker, func() (ports.GeocodeMatch, error) {
		return o.geocode(ctx, text, q.Country)
	}, countsAgainstBreaker)
}

func (o *Client) geocode(ctx context.Context, text, country string) (ports.GeocodeMatch, error) {
	endpoint := o.baseURL + "/geocode/search"

	resp, err := o.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := o.newRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("text", text)
		if country != "" {
			q.Set("boundary.country", country)
		}
		q.Set("size", "1")
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	if err != nil {
		return ports.GeocodeMatch{}, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return ports.GeocodeMatch{}, fmt.Errorf("decode geocode response: %w", err)
	}

	if len(decoded.Features) == 0 {
		return ports.GeocodeMatch{}, fmt.Errorf("%w for %q", ports.ErrNoGeocodeMatch, text)
	}

	top := decoded.Features[0]
	coords := top.Geometry.Coordinates
	if len(coords) != 2 {
		return ports.GeocodeMatch{}, fmt.Errorf("invalid coordinate format for %q", text)
	}

	return ports.GeocodeMatch{
		Coordinates: domain.Coordinates{Lon: coords[0], Lat: coords[1]},
		Confidence:  top.Properties.Confidence,
		Label:       top.Properties.Label,
	}, nil
}
