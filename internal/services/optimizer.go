package services

import (
	"context"
	"errors"
	"farm-delivery-service/internal/domain"
	"farm-delivery-service/internal/platform/apperr"
	"farm-delivery-service/internal/platform/metrics"
	"farm-delivery-service/internal/platform/obs"
	"farm-delivery-service/internal/ports"
	"fmt"
	"hash/fnv"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrJobJoin means the solver answer could not be matched exactly to the submitted orders.
	ErrJobJoin = errors.New("solver steps do not match submitted orders")
	// ErrUnassignedJobs means the solver left stops off the route.
	ErrUnassignedJobs = errors.New("solver left jobs unassigned")
	// ErrJobIDCollision means two orders mapped to the same job id.
	ErrJobIDCollision = errors.New("job id collision")
)

// NothingToOptimize is the message of the successful no-op result.
const NothingToOptimize = "no delivery orders with resolved coordinates to optimize"

type OptimizerConfig struct {
	Depot           domain.Coordinates
	End             domain.Coordinates
	ServiceDuration time.Duration
}

// RouteOptimizer submits geocoded delivery orders to the route solver and turns
// the answer into an arrival-ordered route plus its packing order.
type RouteOptimizer struct {
	solver  ports.RouteSolver
	cfg     OptimizerConfig
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewRouteOptimizer(solver ports.RouteSolver, cfg OptimizerConfig, logger *slog.Logger, m *metrics.Metrics) *RouteOptimizer {
	return &RouteOptimizer{solver: solver, cfg: cfg, logger: logger, metrics: m, now: time.Now}
}

// JobID derives the numeric solver id of an order. Numeric order ids are used
// as-is; anything else is hashed into the positive 53-bit range.
func JobID(orderID string) int64 {
	if n, err := strconv.ParseInt(strings.TrimSpace(orderID), 10, 64); err == nil && n > 0 && n < 1<<53 {
		return n
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(orderID))
	return int64(h.Sum64()&(1<<53-1)) | 1
}

// Optimize computes a single-vehicle route over the routable orders.
// Orders without coordinates or that are not deliveries are never submitted.
func (o *RouteOptimizer) Optimize(ctx context.Context, orders []domain.ClassifiedOrder) (_ *domain.OptimizedRoute, err error) {
	defer obs.Time(ctx, o.logger, "optimizer.Optimize")(&err)

	byJob := make(map[int64]domain.ClassifiedOrder, len(orders))
	jobs := make([]ports.Job, 0, len(orders))
	for _, ord := range orders {
		if !ord.Routable() {
			continue
		}
		id := JobID(ord.ID)
		if prev, dup := byJob[id]; dup {
			if prev.ID == ord.ID {
				continue
			}
			return nil, apperr.Wrap(apperr.KindValidation,
				fmt.Sprintf("orders %s and %s map to the same job", prev.OrderNumber, ord.OrderNumber), ErrJobIDCollision)
		}
		byJob[id] = ord
		jobs = append(jobs, ports.Job{
			ID:             id,
			Location:       *ord.Coordinates,
			ServiceSeconds: int(o.cfg.ServiceDuration.Seconds()),
		})
	}

	if len(jobs) == 0 {
		return &domain.OptimizedRoute{
			Stops:        []domain.RouteStop{},
			PackingOrder: []domain.RouteStop{},
			Message:      NothingToOptimize,
		}, nil
	}

	req := ports.RouteRequest{
		Jobs: jobs,
		Vehicle: ports.Vehicle{
			ID:       1,
			Start:    o.cfg.Depot,
			End:      o.cfg.End,
			Capacity: len(jobs),
		},
	}

	departAt := o.now()
	start := time.Now()
	sol, err := o.solver.Solve(ctx, req)
	if err != nil {
		o.metrics.Optimize("failed", time.Since(start))
		if errors.Is(err, ports.ErrMissingCredentials) {
			return nil, apperr.Config("route optimization is not configured", err)
		}
		return nil, apperr.Upstream("route optimization failed", err).WithDebug("jobs", len(jobs))
	}

	route, err := joinSolution(sol, byJob, departAt)
	if err != nil {
		o.metrics.Optimize("invalid", time.Since(start))
		return nil, err
	}
	o.metrics.Optimize("ok", time.Since(start))

	if o.logger != nil {
		o.logger.Info("route optimized",
			"stops", len(route.Stops),
			"distance_m", route.TotalDistanceMeters,
			"duration_s", route.TotalDurationSeconds,
		)
	}
	return route, nil
}

// joinSolution keeps only job steps, in solver order, and re-attaches every order.
// The join must be exact in both directions.
func joinSolution(sol ports.RouteSolution, byJob map[int64]domain.ClassifiedOrder, departAt time.Time) (*domain.OptimizedRoute, error) {
	if len(sol.Unassigned) > 0 {
		labels := make([]string, 0, len(sol.Unassigned))
		for _, id := range sol.Unassigned {
			if ord, ok := byJob[id]; ok {
				labels = append(labels, ord.OrderNumber)
			} else {
				labels = append(labels, strconv.FormatInt(id, 10))
			}
		}
		return nil, apperr.Wrap(apperr.KindUpstream,
			"route optimizer could not place orders "+strings.Join(labels, ", "), ErrUnassignedJobs).
			WithDebug("unassigned", len(sol.Unassigned))
	}

	stops := make([]domain.RouteStop, 0, len(byJob))
	seen := make(map[int64]struct{}, len(byJob))
	for _, step := range sol.Steps {
		if step.Type != ports.StepJob {
			continue
		}
		ord, ok := byJob[step.JobID]
		if !ok {
			return nil, apperr.Wrap(apperr.KindUpstream,
				fmt.Sprintf("route optimizer returned unknown job %d", step.JobID), ErrJobJoin)
		}
		if _, dup := seen[step.JobID]; dup {
			return nil, apperr.Wrap(apperr.KindUpstream,
				fmt.Sprintf("route optimizer returned job %d twice", step.JobID), ErrJobJoin)
		}
		seen[step.JobID] = struct{}{}

		stops = append(stops, domain.RouteStop{
			Sequence:    len(stops) + 1,
			ArrivalTime: departAt.Add(time.Duration(step.ArrivalSeconds) * time.Second),
			Order:       ord,
		})
	}

	if len(stops) != len(byJob) {
		return nil, apperr.Wrap(apperr.KindUpstream,
			fmt.Sprintf("route optimizer returned %d of %d stops", len(stops), len(byJob)), ErrJobJoin).
			WithDebug("submitted", len(byJob)).
			WithDebug("returned", len(stops))
	}

	return &domain.OptimizedRoute{
		Stops:                stops,
		PackingOrder:         PackingOrder(stops),
		TotalDistanceMeters:  sol.DistanceMeters,
		TotalDurationSeconds: sol.DurationSeconds,
	}, nil
}
