package ports

import (
	"context"
	"farm-delivery-service/internal/domain"
)

// LoadingStore holds loaded-state tables. Each table is addressed by a key
// (one per loading session) and maps order id -> entry.
type LoadingStore interface {
	Get(ctx context.Context, key, orderID string) (domain.LoadedEntry, bool, error)
	Put(ctx context.Context, key string, entry domain.LoadedEntry) error
	Delete(ctx context.Context, key, orderID string) error
	All(ctx context.Context, key string) (map[string]domain.LoadedEntry, error)
	Clear(ctx context.Context, key string) error
}
