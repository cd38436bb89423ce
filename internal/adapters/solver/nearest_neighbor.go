// Package solver holds a local route solver used when no external optimizer is
// configured.
package solver

import (
	"context"
	"errors"
	"farm-delivery-service/internal/ports"
	"math"
)

// DefaultSpeedKPH is the average road speed assumed for haversine legs.
const DefaultSpeedKPH = 40.0

// NearestNeighbor plans a route with a greedy nearest-neighbor walk over
// great-circle distances.
//
// It does not attempt global optimization. Determinism and simplicity are
// preferred over optimality; equal distances are broken by the lower job id.
type NearestNeighbor struct {
	speedMPS float64
}

func NewNearestNeighbor(speedKPH float64) *NearestNeighbor {
	if speedKPH <= 0 {
		speedKPH = DefaultSpeedKPH
	}
	return &NearestNeighbor{speedMPS: speedKPH * 1000 / 3600}
}

func (n *NearestNeighbor) Solve(ctx context.Context, req ports.RouteRequest) (ports.RouteSolution, error) {
	if err := ctx.Err(); err != nil {
		return ports.RouteSolution{}, err
	}
	if req.Vehicle.Capacity > 0 && len(req.Jobs) > req.Vehicle.Capacity {
		return ports.RouteSolution{}, errors.New("solve: more jobs than vehicle capacity")
	}

	remaining := make(map[int64]ports.Job, len(req.Jobs))
	for _, j := range req.Jobs {
		remaining[j.ID] = j
	}

	current := req.Vehicle.Start
	elapsed := 0
	totalMeters := 0.0
	steps := []ports.RouteStep{{Type: ports.StepStart, Location: current}}

	for len(remaining) > 0 {
		if err := ctx.Err(); err != nil {
			return ports.RouteSolution{}, err
		}

		var best ports.Job
		bestMeters := math.MaxFloat64
		found := false

		// Select next stop by minimum distance (greedy step).
		for id, j := range remaining {
			d := current.HaversineMeters(j.Location)
			if d < bestMeters || (d == bestMeters && id < best.ID) {
				best, bestMeters, found = j, d, true
			}
		}
		if !found {
			return ports.RouteSolution{}, errors.New("solve: failed to select next job")
		}

		elapsed += n.travelSeconds(bestMeters)
		totalMeters += bestMeters
		steps = append(steps, ports.RouteStep{
			Type:           ports.StepJob,
			JobID:          best.ID,
			ArrivalSeconds: elapsed,
			Location:       best.Location,
		})
		elapsed += best.ServiceSeconds

		delete(remaining, best.ID)
		current = best.Location
	}

	back := current.HaversineMeters(req.Vehicle.End)
	elapsed += n.travelSeconds(back)
	totalMeters += back
	steps = append(steps, ports.RouteStep{Type: ports.StepEnd, ArrivalSeconds: elapsed, Location: req.Vehicle.End})

	return ports.RouteSolution{
		Steps:           steps,
		DistanceMeters:  int(math.Round(totalMeters)),
		DurationSeconds: elapsed,
	}, nil
}

func (n *NearestNeighbor) travelSeconds(meters float64) int {
	return int(math.Round(meters / n.speedMPS))
}
