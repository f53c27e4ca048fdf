package cache

import (
	"context"
	"time"
)

// Store is a key-value cache with TTL semantics. The prerequisite service
// depends on this interface, never on a concrete backend, so tests can swap
// in the in-memory implementation.
type Store interface {
	// Get returns the cached value for key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Put stores value under key for at most ttl.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Forget removes key. Removing an absent key is not an error.
	Forget(ctx context.Context, key string) error
}
