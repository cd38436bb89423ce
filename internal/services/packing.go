package services

import "farm-delivery-service/internal/domain"

// PackingOrder returns the stops in physical loading order: the last delivery is
// loaded first. Stops keep their delivery sequence number.
func PackingOrder(stops []domain.RouteStop) []domain.RouteStop {
	out := make([]domain.RouteStop, len(stops))
	for i, s := range stops {
		out[len(stops)-1-i] = s
	}
	return out
}
