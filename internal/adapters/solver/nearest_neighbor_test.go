package solver

import (
	"context"
	"farm-delivery-service/internal/domain"
	"farm-delivery-service/internal/ports"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jobsAlongLine(ids ...int64) []ports.Job {
	out := make([]ports.Job, 0, len(ids))
	for _, id := range ids {
		out = append(out, ports.Job{ID: id, Location: domain.Coordinates{Lon: 151 + float64(id)/100, Lat: -32.9}, ServiceSeconds: 60})
	}
	return out
}

func TestNearestNeighborVisitsClosestFirst(t *testing.T) {
	s := NewNearestNeighbor(0)
	start := domain.Coordinates{Lon: 151, Lat: -32.9}

	sol, err := s.Solve(context.Background(), ports.RouteRequest{
		Jobs:    jobsAlongLine(3, 1, 2),
		Vehicle: ports.Vehicle{ID: 1, Start: start, End: start, Capacity: 3},
	})
	require.NoError(t, err)

	require.Len(t, sol.Steps, 5)
	assert.Equal(t, ports.StepStart, sol.Steps[0].Type)
	assert.Equal(t, ports.StepEnd, sol.Steps[4].Type)

	var order []int64
	prev := 0
	for _, st := range sol.Steps[1:4] {
		assert.Equal(t, ports.StepJob, st.Type)
		assert.Greater(t, st.ArrivalSeconds, prev)
		prev = st.ArrivalSeconds
		order = append(order, st.JobID)
	}
	assert.Equal(t, []int64{1, 2, 3}, order)
	assert.Positive(t, sol.DistanceMeters)
	assert.Equal(t, sol.Steps[4].ArrivalSeconds, sol.DurationSeconds)
	assert.Empty(t, sol.Unassigned)
}

func TestNearestNeighborTieBreaksOnJobID(t *testing.T) {
	s := NewNearestNeighbor(DefaultSpeedKPH)
	here := domain.Coordinates{Lon: 151.5, Lat: -32.9}

	sol, err := s.Solve(context.Background(), ports.RouteRequest{
		Jobs:    []ports.Job{{ID: 9, Location: here}, {ID: 4, Location: here}},
		Vehicle: ports.Vehicle{Start: here, End: here},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), sol.Steps[1].JobID)
	assert.Equal(t, int64(9), sol.Steps[2].JobID)
}

func TestNearestNeighborEmpty(t *testing.T) {
	sol, err := NewNearestNeighbor(0).Solve(context.Background(), ports.RouteRequest{})
	require.NoError(t, err)
	assert.Len(t, sol.Steps, 2)
}

func TestNearestNeighborHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewNearestNeighbor(0).Solve(ctx, ports.RouteRequest{Jobs: jobsAlongLine(1)})
	assert.ErrorIs(t, err, context.Canceled)
}
