package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache backs Cache with github.com/redis/go-redis/v9, the
// production backend selected when REDIS_URL is set. Unlike MemCache
// it is shared across every agent process in the deployment, which is
// what makes the API-key rate-limit counters and credential-refresh
// coalescing meaningful across restarts.
type RedisCache struct {
	c *redis.Client
}

// NewRedisCache parses url (redis://[:password@]host:port/db) and
// returns a client without blocking on connectivity; callers should
// Ping once during startup health checks.
func NewRedisCache(url string) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &RedisCache{c: redis.NewClient(opts)}, nil
}

// Ping verifies connectivity, used by the runner's health checks.
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.c.Ping(ctx).Err()
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := r.c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.c.Set(ctx, key, value, ttl).Err()
}

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	return r.c.Del(ctx, key).Err()
}

// ClearPattern uses SCAN rather than KEYS to avoid blocking the shared
// Redis instance on large keyspaces.
func (r *RedisCache) ClearPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, next, err := r.c.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := r.c.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return nil
}

// Incr relies on Redis's native atomic INCR and only sets an
// expiration the first time the key is created, matching MemCache's
// never-extend-the-window semantics.
func (r *RedisCache) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	n, err := r.c.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 && ttl > 0 {
		if err := r.c.Expire(ctx, key, ttl).Err(); err != nil {
			return n, err
		}
	}
	return n, nil
}
