package cache

import (
	"context"
	"time"
)

// Cache is the key/value backend behind the OAuth session and token stores.
type Cache interface {
	// Get retrieves a value by key. Missing or expired keys return ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value. A zero TTL falls back to the driver default;
	// a negative TTL stores without expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Take atomically retrieves and removes a value, so a key can be
	// consumed at most once.
	Take(ctx context.Context, key string) ([]byte, error)

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Ping checks that the backend is reachable
	Ping(ctx context.Context) error

	// Close releases driver resources
	Close() error
}
