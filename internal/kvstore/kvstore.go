// Package kvstore provides the persistent key/value substrate backing the
// cart and account state. Values are opaque strings; callers own the
// serialization format.
package kvstore

import "context"

// Store is an interface for key/value persistence.
// It abstracts the underlying data store, allowing for different implementations
// (e.g., in-memory, file, PostgreSQL, Redis).
type Store interface {
	// Get retrieves the value stored under key.
	// The boolean result reports whether the key was present.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value string) error

	// Delete removes the value stored under key.
	// Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
