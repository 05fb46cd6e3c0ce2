package credentials

import (
	"context"
	"sync"

	"github.com/umt-agenthub/core/internal/errkind"
)

// MemRepository is the in-memory Repository used when DATABASE_URL is
// unset. PGRepository is the production path against
// umt.integration_health.
type MemRepository struct {
	mu   sync.RWMutex
	byID map[string]*Integration
}

func NewMemRepository() *MemRepository {
	return &MemRepository{byID: make(map[string]*Integration)}
}

func (r *MemRepository) Get(_ context.Context, integrationID string) (*Integration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	in, ok := r.byID[integrationID]
	if !ok {
		return nil, errkind.Newf(errkind.NotFound, "credentials: no integration %s", integrationID)
	}
	cp := *in
	return &cp, nil
}

func (r *MemRepository) ListByBrand(_ context.Context, brandID string) ([]*Integration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Integration
	for _, in := range r.byID {
		if in.BrandID == brandID {
			cp := *in
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MemRepository) ListAll(_ context.Context) ([]*Integration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Integration, 0, len(r.byID))
	for _, in := range r.byID {
		cp := *in
		out = append(out, &cp)
	}
	return out, nil
}

func (r *MemRepository) Create(_ context.Context, in *Integration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *in
	r.byID[in.IntegrationID] = &cp
	return nil
}

func (r *MemRepository) Update(_ context.Context, in *Integration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[in.IntegrationID]; !ok {
		return errkind.Newf(errkind.NotFound, "credentials: no integration %s", in.IntegrationID)
	}
	cp := *in
	r.byID[in.IntegrationID] = &cp
	return nil
}

func (r *MemRepository) Delete(_ context.Context, integrationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, integrationID)
	return nil
}
