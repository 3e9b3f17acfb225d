package store

import (
	"context"
	"sync"
)

// MemoryStore keeps session markers in a map.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

// Get returns the identifier stored for specDir.
func (m *MemoryStore) Get(_ context.Context, specDir string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.data[specDir]
	return id, ok, nil
}

// Put records id for specDir.
func (m *MemoryStore) Put(_ context.Context, specDir, id string) error {
	if specDir == "" {
		return ErrNoSpecDir
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[specDir] = id
	return nil
}

var _ SessionStore = (*MemoryStore)(nil)
