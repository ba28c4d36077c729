package store

import (
	"context"
	"time"
)

// CounterStore is the shared windowed-counter backend used by the rate
// limiters. Increment must be atomic (increment-and-return), so
// concurrent requests never observe the same count. Counters expire on
// their own via TTL; PurgeExpired only reclaims storage.
type CounterStore interface {
	// Increment adds one to the counter at key, creating it with the
	// given TTL if absent, and returns the post-increment count.
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// PurgeExpired removes counters whose TTL has elapsed.
	PurgeExpired(ctx context.Context) error
}
