// Package keyedmutex serializes work per key without serializing
// unrelated keys, used by the auth/integration agent so setup and
// health-check work targeting the same (brand_id, platform) serialize
// while different pairs run concurrently.
package keyedmutex

import "sync"

type refcounted struct {
	mu  sync.Mutex
	ref int
}

// Map is a registry of per-key mutexes, garbage-collecting a key's
// entry once its last holder releases it so long-lived processes
// don't accumulate one mutex per (brand_id, platform) pair ever seen.
type Map struct {
	mu    sync.Mutex
	locks map[string]*refcounted
}

func New() *Map {
	return &Map{locks: make(map[string]*refcounted)}
}

// Lock acquires the mutex for key, blocking if another goroutine
// holds it. The returned func releases it; callers must call it
// exactly once.
func (m *Map) Lock(key string) func() {
	m.mu.Lock()
	l, ok := m.locks[key]
	if !ok {
		l = &refcounted{}
		m.locks[key] = l
	}
	l.ref++
	m.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		m.mu.Lock()
		l.ref--
		if l.ref == 0 {
			delete(m.locks, key)
		}
		m.mu.Unlock()
	}
}

// Key builds the canonical (brand_id, platform) lock key.
func Key(brandID, platform string) string {
	return brandID + "/" + platform
}
