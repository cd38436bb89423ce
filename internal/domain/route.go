package domain

import "time"

// RouteStop is one arrival in an optimized route.
type RouteStop struct {
	Sequence    int             `json:"sequence"`
	ArrivalTime time.Time       `json:"arrivalTime"`
	Order       ClassifiedOrder `json:"order"`
}

// OptimizedRoute is the single-vehicle delivery route produced by the solver.
// PackingOrder is always the exact reverse of Stops.
type OptimizedRoute struct {
	Stops                []RouteStop `json:"stops"`
	PackingOrder         []RouteStop `json:"packingOrder"`
	TotalDistanceMeters  int         `json:"totalDistance"`
	TotalDurationSeconds int         `json:"totalTime"`
	Message              string      `json:"message,omitempty"`
}

// Empty reports whether the route holds no stops.
func (r *OptimizedRoute) Empty() bool { return r == nil || len(r.Stops) == 0 }

// LoadedEntry records that an order was loaded. Presence implies loaded.
type LoadedEntry struct {
	OrderID  string    `json:"orderId"`
	LoadedAt time.Time `json:"timestamp"`
	Section  Section   `json:"section"`
}
