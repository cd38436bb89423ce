package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	GeocodeLookups      *prometheus.CounterVec
	OptimizeRuns        *prometheus.CounterVec
	OptimizeDuration    prometheus.Histogram
	ScanEvents          *prometheus.CounterVec
	LoadingTransitions  *prometheus.CounterVec
	CircuitBreakerState *prometheus.GaugeVec
}

// New registers every collector under the given namespace.
func New(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		GeocodeLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_lookups_total",
			Help:      "Address resolutions by outcome (resolved, cached, failed).",
		}, []string{"outcome"}),
		OptimizeRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "route_optimizations_total",
			Help:      "Route optimization calls by outcome.",
		}, []string{"outcome"}),
		OptimizeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "route_optimization_duration_seconds",
			Help:      "Route solver latency.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30},
		}),
		ScanEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scan_events_total",
			Help:      "Scan and manual lookups by outcome.",
		}, []string{"outcome"}),
		LoadingTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loading_transitions_total",
			Help:      "Loaded-state transitions by section and direction.",
		}, []string{"section", "transition"}),
		CircuitBreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0 closed, 1 half-open, 2 open).",
		}, []string{"name"}),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.GeocodeLookups,
		m.OptimizeRuns,
		m.OptimizeDuration,
		m.ScanEvents,
		m.LoadingTransitions,
		m.CircuitBreakerState,
	)

	return m
}

// Handler exposes the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveHTTP records one finished request.
func (m *Metrics) ObserveHTTP(method, route string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(dur.Seconds())
}

// The helpers below are nil-safe so components can run without metrics in tests.

func (m *Metrics) Geocode(outcome string) {
	if m != nil {
		m.GeocodeLookups.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) Optimize(outcome string, dur time.Duration) {
	if m != nil {
		m.OptimizeRuns.WithLabelValues(outcome).Inc()
		m.OptimizeDuration.Observe(dur.Seconds())
	}
}

func (m *Metrics) Scan(outcome string) {
	if m != nil {
		m.ScanEvents.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) Loading(section, transition string) {
	if m != nil {
		m.LoadingTransitions.WithLabelValues(section, transition).Inc()
	}
}

func (m *Metrics) BreakerState(name string, state float64) {
	if m != nil {
		m.CircuitBreakerState.WithLabelValues(name).Set(state)
	}
}
