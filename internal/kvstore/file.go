package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// fileStore implements Store using a single JSON file on disk. It is the
// server-side analog of browser local storage: one flat key/value map,
// rewritten in full on every mutation.
type fileStore struct {
	mu     sync.Mutex
	path   string
	values map[string]string
}

// NewFileStore creates a Store backed by the JSON file at path. The file is
// created on first write; an existing file is loaded at construction.
// A file that cannot be parsed is treated as empty rather than fatal.
func NewFileStore(path string) (Store, error) {
	s := &fileStore{
		path:   path,
		values: make(map[string]string),
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read store file %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &s.values); err != nil {
		// Corrupt store files degrade to an empty store; the next write replaces them.
		s.values = make(map[string]string)
	}
	return s, nil
}

// Get retrieves a value by its key.
func (s *fileStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.values[key]
	return v, ok, nil
}

// Set stores a value under the given key and flushes the file.
func (s *fileStore) Set(_ context.Context, key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	return s.flush()
}

// Delete removes a value by its key and flushes the file.
func (s *fileStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.values[key]; !ok {
		return nil
	}
	delete(s.values, key)
	return s.flush()
}

// flush writes the full map to a temporary file and renames it into place,
// so a crash mid-write never leaves a truncated store. Callers must hold mu.
func (s *fileStore) flush() error {
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal store: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".kvstore-*")
	if err != nil {
		return fmt.Errorf("failed to create temp store file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write temp store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp store file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace store file: %w", err)
	}
	return nil
}
