package server

import (
	"sync"

	"github.com/google/uuid"

	hferrors "github.com/hydroflow/hydroflow/pkg/errors"
)

// ValidateID checks that id is a well-formed resource identifier.
func ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return hferrors.InvalidResourceID(id)
	}
	return nil
}

// Manager is a mutex-guarded registry of live resources keyed by generated
// identifiers. The registry owns its entries until they are removed.
type Manager[T any] struct {
	kind string

	mu    sync.RWMutex
	items map[string]T
}

// NewManager creates an empty registry. kind names the resource in errors.
func NewManager[T any](kind string) *Manager[T] {
	return &Manager[T]{
		kind:  kind,
		items: make(map[string]T),
	}
}

// Create stores v under a fresh identifier and returns it.
func (m *Manager[T]) Create(v T) string {
	id := uuid.New().String()
	m.mu.Lock()
	m.items[id] = v
	m.mu.Unlock()
	return id
}

// Get returns the resource stored under id.
func (m *Manager[T]) Get(id string) (T, error) {
	var zero T
	if err := ValidateID(id); err != nil {
		return zero, err
	}
	m.mu.RLock()
	v, ok := m.items[id]
	m.mu.RUnlock()
	if !ok {
		return zero, hferrors.NotFound(m.kind, id)
	}
	return v, nil
}

// Remove evicts and returns the resource stored under id. Removing an
// unknown id is an error, not a crash.
func (m *Manager[T]) Remove(id string) (T, error) {
	var zero T
	if err := ValidateID(id); err != nil {
		return zero, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[id]
	if !ok {
		return zero, hferrors.NotFound(m.kind, id)
	}
	delete(m.items, id)
	return v, nil
}

// Len returns the number of live resources.
func (m *Manager[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// IDs returns the identifiers of all live resources.
func (m *Manager[T]) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.items))
	for id := range m.items {
		ids = append(ids, id)
	}
	return ids
}
