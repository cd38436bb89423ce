package ors

import (
	"context"
	"encoding/json"
	"farm-delivery-service/internal/domain"
	"farm-delivery-service/internal/platform/resilience"
	"farm-delivery-service/internal/ports"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL, Timeout: 2 * time.Second}, nil, nil)
	c.backoff = time.Millisecond
	return c
}

func TestGeocodeSendsQueryAndReadsTopFeature(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/geocode/search", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "1 Farm Rd, Newcastle, NSW", r.URL.Query().Get("text"))
		assert.Equal(t, "AU", r.URL.Query().Get("boundary.country"))
		assert.Equal(t, "1", r.URL.Query().Get("size"))
		_, _ = w.Write([]byte(`{"features":[{"geometry":{"coordinates":[151.7,-32.9]},"properties":{"label":"1 Farm Rd","confidence":0.9}}]}`))
	})

	m, err := c.Geocode(context.Background(), ports.GeocodeQuery{Text: " 1 Farm Rd,  Newcastle, NSW ", Country: "AU"})
	require.NoError(t, err)
	assert.Equal(t, domain.Coordinates{Lon: 151.7, Lat: -32.9}, m.Coordinates)
	assert.Equal(t, 0.9, m.Confidence)
	assert.Equal(t, "1 Farm Rd", m.Label)
}

func TestGeocodeNoFeatures(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"features":[]}`))
	})

	_, err := c.Geocode(context.Background(), ports.GeocodeQuery{Text: "nowhere"})
	assert.ErrorIs(t, err, ports.ErrNoGeocodeMatch)
}

func TestGeocodeRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"features":[{"geometry":{"coordinates":[1,2]}}]}`))
	})

	m, err := c.Geocode(context.Background(), ports.GeocodeQuery{Text: "x"})
	require.NoError(t, err)
	assert.Equal(t, domain.Coordinates{Lon: 1, Lat: 2}, m.Coordinates)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGeocodeDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad key", http.StatusForbidden)
	})

	_, err := c.Geocode(context.Background(), ports.GeocodeQuery{Text: "x"})
	require.Error(t, err)
	var he *httpStatusError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusForbidden, he.Code)
	assert.Equal(t, int32(1), calls.Load())
}

func TestMissingKeyReportsMissingCredentials(t *testing.T) {
	c := NewClient(Config{}, nil, nil)

	_, err := c.Geocode(context.Background(), ports.GeocodeQuery{Text: "x"})
	assert.ErrorIs(t, err, ports.ErrMissingCredentials)

	_, err = c.Solve(context.Background(), ports.RouteRequest{})
	assert.ErrorIs(t, err, ports.ErrMissingCredentials)
}

func TestSolveBuildsRequestAndMapsSteps(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/optimization", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var body optimizationRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&body)) ||
			!assert.Len(t, body.Jobs, 2) || !assert.Len(t, body.Vehicles, 1) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		assert.Equal(t, int64(1001), body.Jobs[0].ID)
		assert.Equal(t, 300, body.Jobs[0].Service)
		assert.Equal(t, []float64{151.1, -32.1}, body.Jobs[0].Location)
		assert.Equal(t, "driving-car", body.Vehicles[0].Profile)
		assert.Equal(t, []int{2}, body.Vehicles[0].Capacity)
		assert.Equal(t, []float64{151.6, -32.7}, body.Vehicles[0].Start)
		assert.True(t, body.Options.Geometry, "distances are only reported with geometry")

		_, _ = w.Write([]byte(`{
			"code": 0,
			"summary": {"distance": 15234.6, "duration": 1805.2},
			"unassigned": [],
			"routes": [{"vehicle": 1, "steps": [
				{"type": "start", "arrival": 0, "location": [151.6, -32.7]},
				{"type": "job", "job": 1002, "arrival": 600.4, "location": [151.2, -32.2]},
				{"type": "job", "job": 1001, "arrival": 1200, "location": [151.1, -32.1]},
				{"type": "end", "arrival": 1805, "location": [151.8, -32.9]}
			]}]
		}`))
	})

	sol, err := c.Solve(context.Background(), ports.RouteRequest{
		Jobs: []ports.Job{
			{ID: 1001, Location: domain.Coordinates{Lon: 151.1, Lat: -32.1}, ServiceSeconds: 300},
			{ID: 1002, Location: domain.Coordinates{Lon: 151.2, Lat: -32.2}, ServiceSeconds: 300},
		},
		Vehicle: ports.Vehicle{
			ID:       1,
			Start:    domain.Coordinates{Lon: 151.6, Lat: -32.7},
			End:      domain.Coordinates{Lon: 151.8, Lat: -32.9},
			Capacity: 2,
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 15235, sol.DistanceMeters)
	assert.Equal(t, 1805, sol.DurationSeconds)
	assert.Empty(t, sol.Unassigned)
	require.Len(t, sol.Steps, 4)
	assert.Equal(t, ports.StepStart, sol.Steps[0].Type)
	assert.Equal(t, ports.RouteStep{Type: ports.StepJob, JobID: 1002, ArrivalSeconds: 600, Location: domain.Coordinates{Lon: 151.2, Lat: -32.2}}, sol.Steps[1])
	assert.Equal(t, int64(1001), sol.Steps[2].JobID)
	assert.Equal(t, ports.StepEnd, sol.Steps[3].Type)
}

func TestSolveReportsUnassigned(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":0,"summary":{},"routes":[],"unassigned":[{"id":7}]}`))
	})

	sol, err := c.Solve(context.Background(), ports.RouteRequest{Jobs: []ports.Job{{ID: 7}}})
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, sol.Unassigned)
}

func TestSolveIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.Solve(context.Background(), ports.RouteRequest{Jobs: []ports.Job{{ID: 1}}})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSolveBreakerOpensOnRepeatedUpstreamFailure(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	for i := 0; i < 5; i++ {
		_, err := c.Solve(context.Background(), ports.RouteRequest{})
		require.Error(t, err)
	}
	_, err := c.Solve(context.Background(), ports.RouteRequest{})
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, int32(5), calls.Load())
}
