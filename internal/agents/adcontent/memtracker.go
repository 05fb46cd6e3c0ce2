package adcontent

import (
	"context"
	"sync"
)

// MemTracker is the in-memory Tracker; no tracked-content table is
// named alongside the persisted integration/audit/api-key/webhook
// state, so this stays process-local until a durable one is wired in.
type MemTracker struct {
	mu    sync.RWMutex
	items map[string]TrackedContent
}

func NewMemTracker() *MemTracker {
	return &MemTracker{items: make(map[string]TrackedContent)}
}

func (t *MemTracker) Track(_ context.Context, item TrackedContent) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items[item.ContentID] = item
	return nil
}

func (t *MemTracker) List(_ context.Context) ([]TrackedContent, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]TrackedContent, 0, len(t.items))
	for _, item := range t.items {
		out = append(out, item)
	}
	return out, nil
}
