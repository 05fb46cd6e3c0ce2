package audit

import (
	"context"
	"sync"
)

// MemLog is an in-memory Log for tests, substituting a deterministic
// implementation for the PG-backed store.
type MemLog struct {
	mu      sync.Mutex
	entries []Entry
}

func NewMemLog() *MemLog { return &MemLog{} }

func (m *MemLog) Record(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

// Entries returns a snapshot of everything recorded so far, in order.
func (m *MemLog) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}
