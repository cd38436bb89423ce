package ports

import (
	"context"
	"farm-delivery-service/internal/domain"
)

// OrderQuery narrows an order fetch.
type OrderQuery struct {
	// Fulfillment statuses to include, e.g. unfulfilled and partial.
	Statuses []string
	// Only orders created within the last LookbackDays days.
	LookbackDays int
}

// Port: a boundary for retrieving storefront orders.
type OrderSource interface {
	// Retrieve orders matching the query.
	ListOrders(ctx context.Context, q OrderQuery) ([]domain.Order, error)
}
