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
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrSuperseded is returned to an optimize call whose result was discarded
// because a newer optimize or reset happened meanwhile.
var ErrSuperseded = errors.New("superseded by a newer request")

type SessionState string

const (
	StateIdle           SessionState = "idle"
	StateOrdersLoaded   SessionState = "orders_loaded"
	StateRouteOptimized SessionState = "route_optimized"
)

// Loading actions accepted by Track.
const (
	ActionLoad   = "load"
	ActionUnload = "unload"
	ActionToggle = "toggle"
)

// Session is the working state of one truck-loading operator.
type Session struct {
	ID           string
	Day          string
	StartedAt    time.Time
	State        SessionState
	LookbackDays int
	FetchedAt    time.Time
	Orders       []domain.ClassifiedOrder
	Route        *domain.OptimizedRoute
}

func newSession(now time.Time) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Day:       now.Format("2006-01-02"),
		StartedAt: now,
		State:     StateIdle,
	}
}

// trackerKey addresses the loaded-state table. It is the session day, so a
// durable store restores progress after a restart on the same day.
func (s *Session) trackerKey() string { return s.Day }

type ControllerConfig struct {
	FetchTimeout        time.Duration
	DefaultLookbackDays int
}

// Controller orchestrates fetch, classification, geocoding, optimization and
// loading for a single operator session.
type Controller struct {
	source     ports.OrderSource
	classifier *Classifier
	resolver   *AddressResolver
	optimizer  *RouteOptimizer
	tracker    *LoadingTracker
	cfg        ControllerConfig
	logger     *slog.Logger
	metrics    *metrics.Metrics
	now        func() time.Time

	mu             sync.Mutex
	session        *Session
	optimizeGen    uint64
	cancelOptimize context.CancelFunc
}

func NewController(
	source ports.OrderSource,
	classifier *Classifier,
	resolver *AddressResolver,
	optimizer *RouteOptimizer,
	tracker *LoadingTracker,
	cfg ControllerConfig,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Controller {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	if cfg.DefaultLookbackDays <= 0 {
		cfg.DefaultLookbackDays = 7
	}
	c := &Controller{
		source:     source,
		classifier: classifier,
		resolver:   resolver,
		optimizer:  optimizer,
		tracker:    tracker,
		cfg:        cfg,
		logger:     logger,
		metrics:    m,
		now:        time.Now,
	}
	c.session = newSession(c.now())
	return c
}

// OrdersResult is the outcome of a fetch-and-classify run.
type OrdersResult struct {
	Orders     []domain.ClassifiedOrder `json:"orders"`
	Pickup     int                      `json:"pickupCount"`
	Delivery   int                      `json:"deliveryCount"`
	Unresolved int                      `json:"unresolvedCount"`
	Fetched    int                      `json:"fetchedCount"`
}

// LoadOrders fetches eligible orders for the lookback window, classifies them and
// geocodes the deliveries. Any previous route is dropped because it refers to the
// old batch; loaded state is kept.
func (c *Controller) LoadOrders(ctx context.Context, lookbackDays int) (_ OrdersResult, err error) {
	defer obs.Time(ctx, c.logger, "session.LoadOrders")(&err)

	if lookbackDays < 0 || lookbackDays > 365 {
		return OrdersResult{}, apperr.Validation("days must be between 1 and 365")
	}
	if lookbackDays == 0 {
		lookbackDays = c.cfg.DefaultLookbackDays
	}

	fetchCtx, cancel := context.WithTimeout(ctx, c.cfg.FetchTimeout)
	raw, err := c.source.ListOrders(fetchCtx, ports.OrderQuery{
		Statuses:     []string{domain.FulfillmentUnfulfilled, domain.FulfillmentPartial},
		LookbackDays: lookbackDays,
	})
	cancel()
	if err != nil {
		if errors.Is(err, ports.ErrMissingCredentials) {
			return OrdersResult{}, apperr.Config("order source is not configured", err)
		}
		return OrdersResult{}, apperr.Upstream("fetch orders failed", err)
	}

	seen := make(map[string]struct{}, len(raw))
	classified := make([]domain.ClassifiedOrder, 0, len(raw))
	for _, o := range raw {
		if !o.Eligible() {
			continue
		}
		if _, dup := seen[o.ID]; dup {
			continue
		}
		seen[o.ID] = struct{}{}
		classified = append(classified, c.classifier.ClassifyOrder(o))
	}

	classified, err = c.resolver.ResolveAll(ctx, classified)
	if err != nil {
		if errors.Is(err, ports.ErrMissingCredentials) {
			return OrdersResult{}, apperr.Config("geocoding is not configured", err)
		}
		return OrdersResult{}, apperr.Internal("resolve addresses", err)
	}
	// a batch geocoded under a cancelled request is all failures; keep the old one
	if err := ctx.Err(); err != nil {
		return OrdersResult{}, apperr.Upstream("order load interrupted", err)
	}

	res := OrdersResult{Orders: classified, Fetched: len(raw)}
	for _, o := range classified {
		if o.DeliveryType == domain.DeliveryTypePickup {
			res.Pickup++
			continue
		}
		res.Delivery++
		if o.GeocodeStatus == domain.GeocodeFailed {
			res.Unresolved++
		}
	}

	c.mu.Lock()
	c.invalidateOptimizeLocked()
	c.session.Orders = classified
	c.session.Route = nil
	c.session.LookbackDays = lookbackDays
	c.session.FetchedAt = c.now()
	c.session.State = StateOrdersLoaded
	c.mu.Unlock()

	if c.logger != nil {
		c.logger.Info("orders loaded",
			"fetched", res.Fetched,
			"pickup", res.Pickup,
			"delivery", res.Delivery,
			"unresolved", res.Unresolved,
		)
	}
	return res, nil
}

// Optimize runs the route solver over the selected delivery orders, or over every
// order of the session when orderIDs is empty. Only the latest call may apply its
// result; an older in-flight call is cancelled and reports ErrSuperseded. A call
// with nothing routable clears the current route.
func (c *Controller) Optimize(ctx context.Context, orderIDs []string) (*domain.OptimizedRoute, error) {
	c.mu.Lock()
	if c.session.State == StateIdle {
		c.mu.Unlock()
		return nil, apperr.Validation("no orders loaded; fetch orders before optimizing")
	}

	subset, err := selectOrders(c.session.Orders, orderIDs)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}

	c.invalidateOptimizeLocked()
	gen := c.optimizeGen
	runCtx, cancel := context.WithCancel(ctx)
	c.cancelOptimize = cancel
	c.mu.Unlock()
	defer cancel()

	route, err := c.optimizer.Optimize(runCtx, subset)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.optimizeGen {
		return nil, apperr.Wrap(apperr.KindConflict, "optimize request was superseded", ErrSuperseded)
	}
	c.cancelOptimize = nil
	if err != nil {
		return nil, err
	}
	if route.Empty() {
		// the latest request routed nothing, so an older route must not stay on display
		c.session.Route = nil
		c.session.State = StateOrdersLoaded
		return route, nil
	}

	c.session.Route = route
	c.session.State = StateRouteOptimized
	return route, nil
}

// ResetRoute drops the optimized route and packing order. Loaded state is kept.
func (c *Controller) ResetRoute() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.invalidateOptimizeLocked()
	c.session.Route = nil
	if c.session.State == StateRouteOptimized {
		c.session.State = StateOrdersLoaded
	}
}

// ResetSession ends the session: orders, route and the loaded-state table are cleared.
func (c *Controller) ResetSession(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.tracker.Clear(ctx, c.session.trackerKey()); err != nil {
		return apperr.Internal("clear loading state", err)
	}
	c.invalidateOptimizeLocked()
	c.session = newSession(c.now())
	return nil
}

// TrackResult is the outcome of a load/unload action.
type TrackResult struct {
	Order   domain.ClassifiedOrder `json:"order"`
	Loaded  bool                   `json:"loaded"`
	Changed bool                   `json:"changed"`
	Entry   *domain.LoadedEntry    `json:"entry,omitempty"`
}

// Track applies a manual load, unload or toggle to one order of the session.
// The section must be the one fixed at classification.
func (c *Controller) Track(ctx context.Context, orderID string, section domain.Section, action string) (TrackResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ord, ok := findByID(c.session.Orders, orderID)
	if !ok {
		return TrackResult{}, apperr.NotFound(fmt.Sprintf("order %s is not in the current session", orderID))
	}
	if section != "" && section != ord.Section {
		return TrackResult{}, apperr.Validation(
			fmt.Sprintf("order %s belongs in the %s, not the %s", ord.OrderNumber, ord.Section, section))
	}

	key := c.session.trackerKey()
	res := TrackResult{Order: ord}
	switch action {
	case ActionLoad:
		entry, changed, err := c.tracker.Load(ctx, key, ord)
		if err != nil {
			return TrackResult{}, apperr.Internal("record load", err)
		}
		res.Loaded, res.Changed, res.Entry = true, changed, &entry
	case ActionUnload:
		changed, err := c.tracker.Unload(ctx, key, ord)
		if err != nil {
			return TrackResult{}, apperr.Internal("record unload", err)
		}
		res.Changed = changed
	case ActionToggle:
		loaded, err := c.tracker.Toggle(ctx, key, ord)
		if err != nil {
			return TrackResult{}, apperr.Internal("record toggle", err)
		}
		res.Loaded, res.Changed = loaded, true
		if loaded {
			if entry, ok, err := c.tracker.Entry(ctx, key, ord.ID); err == nil && ok {
				res.Entry = &entry
			}
		}
	default:
		return TrackResult{}, apperr.Validation(fmt.Sprintf("unknown action %q", action))
	}
	return res, nil
}

// ScanResult is the outcome of a scanned or typed code.
type ScanResult struct {
	Order         domain.ClassifiedOrder `json:"order"`
	Entry         domain.LoadedEntry     `json:"entry"`
	AlreadyLoaded bool                   `json:"alreadyLoaded"`
	Lookup        LookupResult           `json:"lookup"`
}

// Scan resolves a code to one order and marks it loaded. Codes that match no
// single order report NotFound, which is operator-correctable and not a failure.
func (c *Controller) Scan(ctx context.Context, code string) (ScanResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if strings.TrimSpace(code) == "" {
		return ScanResult{}, apperr.Validation("code is required")
	}

	ord, lookup, err := FindByCode(c.session.Orders, code)
	if err != nil {
		c.metrics.Scan("not_found")
		if c.logger != nil {
			c.logger.Info("scan matched no single order", "code", code,
				"exact_candidates", lookup.ExactCandidates, "substring_candidates", lookup.Candidates)
		}
		return ScanResult{}, apperr.NotFound(fmt.Sprintf("no single order matches %q", strings.TrimSpace(code))).
			WithDebug("ordersConsidered", len(c.session.Orders)).
			WithDebug("exactCandidates", lookup.ExactCandidates).
			WithDebug("substringCandidates", lookup.Candidates)
	}

	entry, changed, err := c.tracker.Load(ctx, c.session.trackerKey(), ord)
	if err != nil {
		return ScanResult{}, apperr.Internal("record scan", err)
	}
	c.metrics.Scan(string(lookup.Match))
	return ScanResult{Order: ord, Entry: entry, AlreadyLoaded: !changed, Lookup: lookup}, nil
}

// OrderView is an order merged with its loaded state.
type OrderView struct {
	domain.ClassifiedOrder
	Loaded   bool       `json:"loaded"`
	LoadedAt *time.Time `json:"loadedAt,omitempty"`
}

// StopView is a route stop merged with its loaded state.
type StopView struct {
	Sequence    int       `json:"sequence"`
	ArrivalTime time.Time `json:"arrivalTime"`
	Order       OrderView `json:"order"`
}

// RouteView is the optimized route merged with loaded state.
type RouteView struct {
	Stops                []StopView `json:"stops"`
	PackingOrder         []StopView `json:"packingOrder"`
	TotalDistanceMeters  int        `json:"totalDistance"`
	TotalDurationSeconds int        `json:"totalTime"`
}

// SessionView is the dashboard's snapshot of the session.
type SessionView struct {
	ID        string        `json:"id"`
	Day       string        `json:"day"`
	State     SessionState  `json:"state"`
	StartedAt time.Time     `json:"startedAt"`
	FetchedAt *time.Time    `json:"fetchedAt,omitempty"`
	Orders    []OrderView   `json:"orders"`
	Route     *RouteView    `json:"route,omitempty"`
	Status    LoadingStatus `json:"status"`
}

// View merges orders and route with the current loaded-state table.
func (c *Controller) View(ctx context.Context) (SessionView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.session
	status, err := c.tracker.Status(ctx, s.trackerKey(), s.Orders)
	if err != nil {
		return SessionView{}, apperr.Internal("read loading state", err)
	}

	merge := func(o domain.ClassifiedOrder) OrderView {
		v := OrderView{ClassifiedOrder: o}
		if e, ok := status.Entries[o.ID]; ok {
			at := e.LoadedAt
			v.Loaded, v.LoadedAt = true, &at
		}
		return v
	}

	view := SessionView{
		ID:        s.ID,
		Day:       s.Day,
		State:     s.State,
		StartedAt: s.StartedAt,
		Orders:    make([]OrderView, 0, len(s.Orders)),
		Status:    status,
	}
	if !s.FetchedAt.IsZero() {
		at := s.FetchedAt
		view.FetchedAt = &at
	}
	for _, o := range s.Orders {
		view.Orders = append(view.Orders, merge(o))
	}

	if !s.Route.Empty() {
		rv := &RouteView{
			Stops:                make([]StopView, 0, len(s.Route.Stops)),
			PackingOrder:         make([]StopView, 0, len(s.Route.PackingOrder)),
			TotalDistanceMeters:  s.Route.TotalDistanceMeters,
			TotalDurationSeconds: s.Route.TotalDurationSeconds,
		}
		for _, st := range s.Route.Stops {
			rv.Stops = append(rv.Stops, StopView{Sequence: st.Sequence, ArrivalTime: st.ArrivalTime, Order: merge(st.Order)})
		}
		for _, st := range s.Route.PackingOrder {
			rv.PackingOrder = append(rv.PackingOrder, StopView{Sequence: st.Sequence, ArrivalTime: st.ArrivalTime, Order: merge(st.Order)})
		}
		view.Route = rv
	}

	return view, nil
}

// Status returns aggregate loading progress for the session's orders.
func (c *Controller) Status(ctx context.Context) (LoadingStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, err := c.tracker.Status(ctx, c.session.trackerKey(), c.session.Orders)
	if err != nil {
		return LoadingStatus{}, apperr.Internal("read loading state", err)
	}
	return st, nil
}

// invalidateOptimizeLocked makes any in-flight optimize result stale. c.mu must be held.
func (c *Controller) invalidateOptimizeLocked() {
	c.optimizeGen++
	if c.cancelOptimize != nil {
		c.cancelOptimize()
		c.cancelOptimize = nil
	}
}

func selectOrders(orders []domain.ClassifiedOrder, ids []string) ([]domain.ClassifiedOrder, error) {
	if len(ids) == 0 {
		out := make([]domain.ClassifiedOrder, len(orders))
		copy(out, orders)
		return out, nil
	}

	out := make([]domain.ClassifiedOrder, 0, len(ids))
	var unknown []string
	for _, id := range ids {
		o, ok := findByID(orders, id)
		if !ok {
			unknown = append(unknown, id)
			continue
		}
		out = append(out, o)
	}
	if len(unknown) > 0 {
		return nil, apperr.Validation("unknown order ids: " + strings.Join(unknown, ", ")).
			WithDebug("unknown", len(unknown))
	}
	return out, nil
}

func findByID(orders []domain.ClassifiedOrder, id string) (domain.ClassifiedOrder, bool) {
	id = strings.TrimSpace(id)
	for _, o := range orders {
		if o.ID == id {
			return o, true
		}
	}
	return domain.ClassifiedOrder{}, false
}
