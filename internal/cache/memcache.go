package cache

import (
	"context"
	"path"
	"strconv"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemCache backs Cache with an in-process github.com/patrickmn/go-cache
// instance. Read-your-writes is trivially consistent (single process);
// no cross-process ordering is offered.
type MemCache struct {
	c *gocache.Cache
	// incrMu serializes the read-modify-write cycle Incr needs; go-cache
	// itself locks internally but doesn't expose atomic incr-with-ttl.
	incrMu sync.Mutex
}

// NewMemCache creates a MemCache with a default 5-minute TTL for Set
// calls made with ttl<=0, and a 1-minute cleanup sweep.
func NewMemCache() *MemCache {
	return &MemCache{c: gocache.New(5*time.Minute, time.Minute)}
}

func (m *MemCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, found := m.c.Get(key)
	if !found {
		return nil, false, nil
	}
	b, _ := v.([]byte)
	return b, true, nil
}

func (m *MemCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	m.c.Set(key, value, ttl)
	return nil
}

func (m *MemCache) Delete(_ context.Context, key string) error {
	m.c.Delete(key)
	return nil
}

func (m *MemCache) ClearPattern(_ context.Context, pattern string) error {
	for key := range m.c.Items() {
		if ok, _ := path.Match(pattern, key); ok {
			m.c.Delete(key)
		}
	}
	return nil
}

func (m *MemCache) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	m.incrMu.Lock()
	defer m.incrMu.Unlock()

	v, found := m.c.Get(key)
	if !found {
		if ttl <= 0 {
			ttl = gocache.DefaultExpiration
		}
		m.c.Set(key, []byte("1"), ttl)
		return 1, nil
	}

	b, _ := v.([]byte)
	n, _ := strconv.ParseInt(string(b), 10, 64)
	n++
	// Preserve remaining TTL on the existing bucket rather than
	// resetting it, so Incr never extends a rate-limit window.
	_, expiresAt, _ := m.c.GetWithExpiration(key)
	if expiresAt.IsZero() {
		m.c.Set(key, []byte(strconv.FormatInt(n, 10)), gocache.NoExpiration)
	} else {
		m.c.Set(key, []byte(strconv.FormatInt(n, 10)), time.Until(expiresAt))
	}
	return n, nil
}
