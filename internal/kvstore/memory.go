package kvstore

import (
	"context"
	"sync"
)

// memory implements Store using an in-memory map.
type memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates a new in-memory Store. State is lost on restart;
// intended for tests and local development.
func NewMemoryStore() Store {
	return &memory{
		values: make(map[string]string),
	}
}

// Get retrieves a value by its key.
func (s *memory) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	return v, ok, nil
}

// Set stores a value under the given key.
func (s *memory) Set(_ context.Context, key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	return nil
}

// Delete removes a value by its key.
func (s *memory) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	return nil
}
