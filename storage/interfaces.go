package storage

import (
	"context"
	"time"
)

// ResultStore is a byte-oriented key/value store with per-entry expiry.
// Implementations must be thread-safe.
type ResultStore interface {
	// Get returns the stored value for key.
	// Returns ErrNotFound if the key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes every key starting with prefix.
	DeletePrefix(ctx context.Context, prefix string) error

	// Close releases the store. The store must not be used afterwards.
	Close() error
}
