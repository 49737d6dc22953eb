package repository

import (
	"context"
	"time"
)

// CacheRepository defines short-lived key-value storage used for the DND
// suppression lookup on the event path.
type CacheRepository interface {
	// Set stores a value under key with a TTL.
	Set(ctx context.Context, key, value string, expiration time.Duration) error

	// Get retrieves the value under key. A miss surfaces as an error
	// recognized by IsNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Delete removes the given keys.
	Delete(ctx context.Context, keys ...string) error

	// IsNotFound reports whether err represents a cache miss.
	IsNotFound(err error) bool
}
