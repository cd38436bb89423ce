package services

import (
	"context"
	"farm-delivery-service/internal/domain"
	"farm-delivery-service/internal/platform/metrics"
	"farm-delivery-service/internal/ports"
	"fmt"
	"log/slog"
	"time"
)

// SectionStatus is the loading progress of one truck section.
type SectionStatus struct {
	Total  int `json:"total"`
	Loaded int `json:"loaded"`
}

// LoadingStatus aggregates progress over a batch of orders.
type LoadingStatus struct {
	Total     int                              `json:"total"`
	Loaded    int                              `json:"loaded"`
	Remaining int                              `json:"remaining"`
	Percent   float64                          `json:"percent"`
	Sections  map[domain.Section]SectionStatus `json:"sections"`
	Entries   map[string]domain.LoadedEntry    `json:"entries"`
}

// LoadingTracker keeps the per-session loaded-state table. An order is either
// NotLoaded (no entry) or Loaded (entry with timestamp and its fixed section).
type LoadingTracker struct {
	store   ports.LoadingStore
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewLoadingTracker(store ports.LoadingStore, logger *slog.Logger, m *metrics.Metrics) *LoadingTracker {
	return &LoadingTracker{store: store, logger: logger, metrics: m, now: time.Now}
}

// Load marks the order loaded. It reports changed=false when it already was.
func (t *LoadingTracker) Load(ctx context.Context, key string, o domain.ClassifiedOrder) (domain.LoadedEntry, bool, error) {
	existing, ok, err := t.store.Get(ctx, key, o.ID)
	if err != nil {
		return domain.LoadedEntry{}, false, fmt.Errorf("load order %s: %w", o.ID, err)
	}
	if ok {
		return existing, false, nil
	}

	entry := domain.LoadedEntry{OrderID: o.ID, LoadedAt: t.now().UTC(), Section: o.Section}
	if err := t.store.Put(ctx, key, entry); err != nil {
		return domain.LoadedEntry{}, false, fmt.Errorf("load order %s: %w", o.ID, err)
	}
	t.metrics.Loading(string(o.Section), "load")
	if t.logger != nil {
		t.logger.Info("order loaded", "order_id", o.ID, "order_number", o.OrderNumber, "section", o.Section)
	}
	return entry, true, nil
}

// Unload clears the order's entry. It reports changed=false when it was not loaded.
func (t *LoadingTracker) Unload(ctx context.Context, key string, o domain.ClassifiedOrder) (bool, error) {
	_, ok, err := t.store.Get(ctx, key, o.ID)
	if err != nil {
		return false, fmt.Errorf("unload order %s: %w", o.ID, err)
	}
	if !ok {
		return false, nil
	}
	if err := t.store.Delete(ctx, key, o.ID); err != nil {
		return false, fmt.Errorf("unload order %s: %w", o.ID, err)
	}
	t.metrics.Loading(string(o.Section), "unload")
	if t.logger != nil {
		t.logger.Info("order unloaded", "order_id", o.ID, "order_number", o.OrderNumber, "section", o.Section)
	}
	return true, nil
}

// Toggle flips the order between NotLoaded and Loaded and returns the new state.
func (t *LoadingTracker) Toggle(ctx context.Context, key string, o domain.ClassifiedOrder) (bool, error) {
	_, ok, err := t.store.Get(ctx, key, o.ID)
	if err != nil {
		return false, fmt.Errorf("toggle order %s: %w", o.ID, err)
	}
	if ok {
		_, err := t.Unload(ctx, key, o)
		return false, err
	}
	_, _, err = t.Load(ctx, key, o)
	return err == nil, err
}

// Entry returns the loaded entry of an order, if any.
func (t *LoadingTracker) Entry(ctx context.Context, key, orderID string) (domain.LoadedEntry, bool, error) {
	return t.store.Get(ctx, key, orderID)
}

// Entries returns the whole table.
func (t *LoadingTracker) Entries(ctx context.Context, key string) (map[string]domain.LoadedEntry, error) {
	return t.store.All(ctx, key)
}

// Clear drops the table of a session.
func (t *LoadingTracker) Clear(ctx context.Context, key string) error {
	return t.store.Clear(ctx, key)
}

// Status aggregates progress for the given orders. Entries for orders outside the
// batch are reported but not counted.
func (t *LoadingTracker) Status(ctx context.Context, key string, orders []domain.ClassifiedOrder) (LoadingStatus, error) {
	entries, err := t.store.All(ctx, key)
	if err != nil {
		return LoadingStatus{}, fmt.Errorf("loading status: %w", err)
	}

	st := LoadingStatus{
		Sections: map[domain.Section]SectionStatus{
			domain.SectionFridge:  {},
			domain.SectionFreezer: {},
		},
		Entries: entries,
	}
	for _, o := range orders {
		sec := st.Sections[o.Section]
		sec.Total++
		st.Total++
		if _, ok := entries[o.ID]; ok {
			sec.Loaded++
			st.Loaded++
		}
		st.Sections[o.Section] = sec
	}
	st.Remaining = st.Total - st.Loaded
	if st.Total > 0 {
		st.Percent = float64(st.Loaded) * 100 / float64(st.Total)
	}
	return st, nil
}
