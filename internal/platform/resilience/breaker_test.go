package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	cfg := DefaultBreakerConfig("test")
	cfg.FailureThreshold = 2
	cfg.Timeout = time.Hour

	var states []float64
	b := NewBreaker(cfg, nil, func(_ string, s float64) { states = append(states, s) })

	fail := func() (int, error) { return 0, errBoom }
	for i := 0; i < 2; i++ {
		_, err := Do(b, fail, nil)
		require.ErrorIs(t, err, errBoom)
	}

	calls := 0
	_, err := Do(b, func() (int, error) { calls++; return 1, nil }, nil)
	require.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 0, calls)
	assert.Equal(t, []float64{2}, states)
}

func TestBreakerIgnoresNonFailures(t *testing.T) {
	cfg := DefaultBreakerConfig("test")
	cfg.FailureThreshold = 1
	b := NewBreaker(cfg, nil, nil)

	errClient := errors.New("bad request")
	notCounted := func(err error) bool { return !errors.Is(err, errClient) }

	for i := 0; i < 3; i++ {
		v, err := Do(b, func() (string, error) { return "partial", errClient }, notCounted)
		require.ErrorIs(t, err, errClient)
		assert.Equal(t, "partial", v)
	}

	v, err := Do(b, func() (string, error) { return "ok", nil }, notCounted)
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestNilBreakerRunsDirectly(t *testing.T) {
	v, err := Do(nil, func() (int, error) { return 7, nil }, nil)
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}
