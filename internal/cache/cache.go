// Package cache implements the cache contract: a keyed store with
// best-effort TTL, used for ephemeral state, rate-limit counters and
// adapter-credential metadata — never as a source of truth. Two
// backends satisfy the same Cache interface: an in-process one
// (github.com/patrickmn/go-cache) and a Redis-backed one
// (github.com/redis/go-redis/v9) selected by REDIS_URL.
package cache

import (
	"context"
	"time"
)

// Cache is the package's storage contract. Get reports whether the key was present
// (not whether it had a truthy value) so callers can distinguish a
// cached "false"/"0" from a miss.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// ClearPattern deletes every key matching a glob pattern
	// (path.Match syntax, e.g. "integration_credentials:social:b1:*").
	ClearPattern(ctx context.Context, pattern string) error
	// Incr atomically increments key by 1, creating it at 1 with ttl
	// if absent, and returns the new value.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}
