package ports

import (
	"context"
	"errors"
	"farm-delivery-service/internal/domain"
)

// ErrMissingCredentials marks a solver or geocoder that has no API key configured.
var ErrMissingCredentials = errors.New("missing api credentials")

// One deliverable stop submitted to the solver.
type Job struct {
	ID             int64
	Location       domain.Coordinates
	ServiceSeconds int
}

// The single vehicle of a route request.
type Vehicle struct {
	ID       int
	Start    domain.Coordinates
	End      domain.Coordinates
	Capacity int
}

type RouteRequest struct {
	Jobs    []Job
	Vehicle Vehicle
}

type StepType string

const (
	StepStart StepType = "start"
	StepJob   StepType = "job"
	StepEnd   StepType = "end"
)

type RouteStep struct {
	Type StepType
	// Set only for job steps.
	JobID          int64
	ArrivalSeconds int
	Location       domain.Coordinates
}

// Solver output. Steps are in arrival order.
type RouteSolution struct {
	Steps           []RouteStep
	DistanceMeters  int
	DurationSeconds int
	Unassigned      []int64
}

// Contract for an external vehicle-routing solver.
type RouteSolver interface {
	Solve(ctx context.Context, req RouteRequest) (RouteSolution, error)
}
