package knowledge

import (
	"context"
	"sync"
)

// MemKV is an in-memory KV implementation with the same revision semantics
// as the JetStream-backed store. Intended for tests and single-process use.
type MemKV struct {
	mu      sync.Mutex
	entries map[string]*Entry
	nextRev uint64
}

// NewMemKV creates an empty in-memory store.
func NewMemKV() *MemKV {
	return &MemKV{
		entries: make(map[string]*Entry),
	}
}

// Get returns the entry for a key, or ErrNotFound.
func (m *MemKV) Get(_ context.Context, key string) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return nil, ErrNotFound
	}

	// Copy so callers cannot mutate stored state
	value := make([]byte, len(entry.Value))
	copy(value, entry.Value)
	return &Entry{Value: value, Revision: entry.Revision}, nil
}

// Create stores a value only if the key does not exist yet.
func (m *MemKV) Create(_ context.Context, key string, value []byte) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[key]; ok {
		return 0, ErrRevisionConflict
	}

	return m.store(key, value), nil
}

// Update stores a value only if the key is at the given revision.
func (m *MemKV) Update(_ context.Context, key string, value []byte, revision uint64) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok || entry.Revision != revision {
		return 0, ErrRevisionConflict
	}

	return m.store(key, value), nil
}

// Put stores a value unconditionally.
func (m *MemKV) Put(_ context.Context, key string, value []byte) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.store(key, value), nil
}

// Delete removes a key.
func (m *MemKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
	return nil
}

// store must be called with the mutex held.
func (m *MemKV) store(key string, value []byte) uint64 {
	m.nextRev++
	stored := make([]byte, len(value))
	copy(stored, value)
	m.entries[key] = &Entry{Value: stored, Revision: m.nextRev}
	return m.nextRev
}
