package loadingstore

import (
	"context"
	"farm-delivery-service/internal/domain"
	"sync"
)

// MemoryStore keeps loaded-state tables in process memory. Contents are lost on restart.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string]map[string]domain.LoadedEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tables: make(map[string]map[string]domain.LoadedEntry)}
}

func (m *MemoryStore) Get(_ context.Context, key, orderID string) (domain.LoadedEntry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.tables[key][orderID]
	return e, ok, nil
}

func (m *MemoryStore) Put(_ context.Context, key string, entry domain.LoadedEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[key]
	if !ok {
		t = make(map[string]domain.LoadedEntry)
		m.tables[key] = t
	}
	t[entry.OrderID] = entry
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tables[key], orderID)
	return nil
}

func (m *MemoryStore) All(_ context.Context, key string) (map[string]domain.LoadedEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]domain.LoadedEntry, len(m.tables[key]))
	for id, e := range m.tables[key] {
		out[id] = e
	}
	return out, nil
}

func (m *MemoryStore) Clear(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tables, key)
	return nil
}
