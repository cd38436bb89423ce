package resilience

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// ErrCircuitOpen is returned while the breaker rejects calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      1,
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// Breaker wraps gobreaker with slog state-change logging.
type Breaker struct {
	cb   *gobreaker.CircuitBreaker
	name string
}

// NewBreaker builds a breaker. onState, when non-nil, receives 0 closed, 1 half-open, 2 open.
func NewBreaker(cfg BreakerConfig, logger *slog.Logger, onState func(name string, state float64)) *Breaker {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if logger != nil {
				logger.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
			}
			if onState != nil {
				onState(name, stateValue(to))
			}
		},
	}

	return &Breaker{cb: gobreaker.NewCircuitBreaker(settings), name: cfg.Name}
}

// Do runs fn through the breaker. Only errors for which isFailure returns true
// count against the breaker; a nil isFailure counts every error.
func Do[T any](b *Breaker, fn func() (T, error), isFailure func(error) bool) (T, error) {
	var zero T
	if b == nil {
		return fn()
	}

	var passthrough error
	res, err := b.cb.Execute(func() (interface{}, error) {
		v, err := fn()
		if err != nil && isFailure != nil && !isFailure(err) {
			// report success to the breaker but hand the error back
			passthrough = err
			return v, nil
		}
		return v, err
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return zero, fmt.Errorf("%s: %w", b.name, ErrCircuitOpen)
	}
	if err != nil {
		return zero, err
	}
	if passthrough != nil {
		v, _ := res.(T)
		return v, passthrough
	}
	v, _ := res.(T)
	return v, nil
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
