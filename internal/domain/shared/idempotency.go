package shared

import (
	"context"
	"time"
)

// IdempotencyStore maps caller-supplied idempotency keys to the result of the
// request that first carried them, so a retried request can replay the
// original result instead of executing again.
type IdempotencyStore interface {
	// Remember stores key -> value with a TTL if the key is not already
	// present. Returns true if the key was newly stored, false if a value
	// already existed.
	Remember(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// Lookup returns the stored value for a key, and whether it was present
	Lookup(ctx context.Context, key string) (string, bool, error)

	// Close closes the store and releases resources
	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL is the time-to-live for remembered keys. After this duration the
	// same key executes as a fresh request again. Default: 24 hours.
	TTL time.Duration

	// Enabled determines whether idempotency checking is enabled
	// Default: true
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
