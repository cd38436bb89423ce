package ors

import (
	"bytes"
	"context"
	"encoding/json"
	"farm-delivery-service/internal/domain"
	"farm-delivery-service/internal/platform/obs"
	"farm-delivery-service/internal/platform/resilience"
	"farm-delivery-service/internal/ports"
	"fmt"
	"math"
	"net/http"
)

type optimizationJob struct {
	ID       int64     `json:"id"`
	Service  int       `json:"service"`
	Location []float64 `json:"location"`
	Amount   []int     `json:"amount"`
}

type optimizationVehicle struct {
	ID       int       `json:"id"`
	Profile  string    `json:"profile"`
	Start    []float64 `json:"start"`
	End      []float64 `json:"end"`
	Capacity []int     `json:"capacity"`
}

// Distances are only reported by VROOM when route geometry is requested.
type optimizationOptions struct {
	Geometry bool `json:"g"`
}

type optimizationRequest struct {
	Jobs     []optimizationJob     `json:"jobs"`
	Vehicles []optimizationVehicle `json:"vehicles"`
	Options  optimizationOptions   `json:"options"`
}

type optimizationResponse struct {
	Code    int `json:"code"`
	Summary struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
	} `json:"summary"`
	Routes []struct {
		Vehicle  int     `json:"vehicle"`
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Steps    []struct {
			Type     string    `json:"type"`
			Job      int64     `json:"job"`
			Arrival  float64   `json:"arrival"`
			Location []float64 `json:"location"`
		} `json:"steps"`
	} `json:"routes"`
	Unassigned []struct {
		ID int64 `json:"id"`
	} `json:"unassigned"`
}

// Solve submits the jobs and the vehicle to /optimization. The call is made
// once: an optimization is expensive upstream and the operator retries by hand.
func (o *Client) Solve(ctx context.Context, req ports.RouteRequest) (_ ports.RouteSolution, err error) {
	defer obs.Time(ctx, o.logger, "ors.Solve")(&err)

	if !o.Configured() {
		return ports.RouteSolution{}, ports.ErrMissingCredentials
	}

	return resilience.Do(o.optimizeBreaker, func() (ports.RouteSolution, error) {
		return o.solve(ctx, req)
	}, countsAgainstBreaker)
}

func (o *Client) solve(ctx context.Context, req ports.RouteRequest) (ports.RouteSolution, error) {
	bodyObj := optimizationRequest{
		Jobs: make([]optimizationJob, 0, len(req.Jobs)),
		Vehicles: []optimizationVehicle{{
			ID:       req.Vehicle.ID,
			Profile:  o.profile,
			Start:    req.Vehicle.Start.CoordsToList(),
			End:      req.Vehicle.End.CoordsToList(),
			Capacity: []int{req.Vehicle.Capacity},
		}},
		Options: optimizationOptions{Geometry: true},
	}
	for _, j := range req.Jobs {
		bodyObj.Jobs = append(bodyObj.Jobs, optimizationJob{
			ID:       j.ID,
			Service:  j.ServiceSeconds,
			Location: j.Location.CoordsToList(),
			Amount:   []int{1},
		})
	}

	payload, err := json.Marshal(bodyObj)
	if err != nil {
		return ports.RouteSolution{}, fmt.Errorf("marshal optimization request: %w", err)
	}

	httpReq, err := o.newRequest(ctx, http.MethodPost, o.baseURL+"/optimization", bytes.NewReader(payload))
	if err != nil {
		return ports.RouteSolution{}, err
	}
	resp, err := o.do(httpReq)
	if err != nil {
		return ports.RouteSolution{}, fmt.Errorf("optimization request: %w", err)
	}
	defer resp.Body.Close()

	var decoded optimizationResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return ports.RouteSolution{}, fmt.Errorf("decode optimization response: %w", err)
	}
	if decoded.Code != 0 {
		return ports.RouteSolution{}, fmt.Errorf("optimization returned code %d", decoded.Code)
	}
	if len(decoded.Routes) > 1 {
		return ports.RouteSolution{}, fmt.Errorf("expected one route, got %d", len(decoded.Routes))
	}

	sol := ports.RouteSolution{
		DistanceMeters:  int(math.Round(decoded.Summary.Distance)),
		DurationSeconds: int(math.Round(decoded.Summary.Duration)),
	}
	for _, u := range decoded.Unassigned {
		sol.Unassigned = append(sol.Unassigned, u.ID)
	}
	if len(decoded.Routes) == 0 {
		return sol, nil
	}

	route := decoded.Routes[0]
	if sol.DistanceMeters == 0 {
		sol.DistanceMeters = int(math.Round(route.Distance))
	}
	for _, s := range route.Steps {
		step := ports.RouteStep{
			Type:           ports.StepType(s.Type),
			ArrivalSeconds: int(math.Round(s.Arrival)),
		}
		if step.Type == ports.StepJob {
			step.JobID = s.Job
		}
		if len(s.Location) == 2 {
			step.Location = domain.Coordinates{Lon: s.Location[0], Lat: s.Location[1]}
		}
		sol.Steps = append(sol.Steps, step)
	}
	return sol, nil
}
