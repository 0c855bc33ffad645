package kvstore

import (
	"context"
	"sync"

	"github.com/suteetoe/tenant-onboarding/prometheus"
)

const backendMemory = "memory"

// MemoryStore keeps tables in process memory. Scans return items in
// insertion order.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string]*memTable
}

type memTable struct {
	items map[string]Item
	order []string
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tables: make(map[string]*memTable)}
}

func (m *MemoryStore) table(name string) *memTable {
	t, ok := m.tables[name]
	if !ok {
		t = &memTable{items: make(map[string]Item)}
		m.tables[name] = t
	}
	return t
}

func (m *MemoryStore) Put(ctx context.Context, table, key string, item Item) error {
	defer prometheus.TrackKVOperation(backendMemory, "put")()
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.table(table)
	if _, exists := t.items[key]; !exists {
		t.order = append(t.order, key)
	}
	t.items[key] = item.Clone()
	return nil
}

func (m *MemoryStore) PutIfAbsent(ctx context.Context, table, key string, item Item) (bool, error) {
	defer prometheus.TrackKVOperation(backendMemory, "put_if_absent")()
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.table(table)
	if _, exists := t.items[key]; exists {
		return false, nil
	}
	t.order = append(t.order, key)
	t.items[key] = item.Clone()
	return true, nil
}

func (m *MemoryStore) Get(ctx context.Context, table, key string) (Item, error) {
	defer prometheus.TrackKVOperation(backendMemory, "get")()
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tables[table]
	if !ok {
		return nil, ErrNotFound
	}
	item, ok := t.items[key]
	if !ok {
		return nil, ErrNotFound
	}
	return item.Clone(), nil
}

func (m *MemoryStore) ScanFiltered(ctx context.Context, table string, filter Filter) ([]Item, error) {
	defer prometheus.TrackKVOperation(backendMemory, "scan")()
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tables[table]
	if !ok {
		return nil, nil
	}
	var out []Item
	for _, key := range t.order {
		if item := t.items[key]; filter.Match(item) {
			out = append(out, item.Clone())
		}
	}
	return out, nil
}

func (m *MemoryStore) QueryByKey(ctx context.Context, table, key string) ([]Item, error) {
	return queryByKey(ctx, m, table, key)
}

func (m *MemoryStore) Close() error { return nil }
