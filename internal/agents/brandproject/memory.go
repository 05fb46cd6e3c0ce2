package brandproject

import (
	"context"
	"sync"

	"github.com/umt-agenthub/core/internal/cache"
	"github.com/umt-agenthub/core/internal/errkind"
)

// MemBrandRepository is the in-memory BrandRepository. Brand/project
// records have no dedicated persisted-state table named alongside
// integration/audit/api-key/webhook state; a durable repository can
// satisfy the same interface later without touching the agent.
type MemBrandRepository struct {
	mu     sync.RWMutex
	brands map[string]*Brand
}

func NewMemBrandRepository() *MemBrandRepository {
	return &MemBrandRepository{brands: make(map[string]*Brand)}
}

func (r *MemBrandRepository) Create(_ context.Context, b *Brand) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *b
	r.brands[b.BrandID] = &cp
	return nil
}

func (r *MemBrandRepository) Update(_ context.Context, b *Brand) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.brands[b.BrandID]; !ok {
		return errkind.New(errkind.NotFound, "brand not found")
	}
	cp := *b
	r.brands[b.BrandID] = &cp
	return nil
}

func (r *MemBrandRepository) Get(_ context.Context, brandID string) (*Brand, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.brands[brandID]
	if !ok {
		return nil, errkind.New(errkind.NotFound, "brand not found")
	}
	cp := *b
	return &cp, nil
}

// MemProjectRepository is the in-memory ProjectRepository.
type MemProjectRepository struct {
	mu       sync.RWMutex
	projects map[string]*Project
}

func NewMemProjectRepository() *MemProjectRepository {
	return &MemProjectRepository{projects: make(map[string]*Project)}
}

func (r *MemProjectRepository) Create(_ context.Context, p *Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.projects[p.ProjectID] = &cp
	return nil
}

func (r *MemProjectRepository) Update(_ context.Context, p *Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.projects[p.ProjectID]; !ok {
		return errkind.New(errkind.NotFound, "project not found")
	}
	cp := *p
	r.projects[p.ProjectID] = &cp
	return nil
}

func (r *MemProjectRepository) Get(_ context.Context, projectID string) (*Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.projects[projectID]
	if !ok {
		return nil, errkind.New(errkind.NotFound, "project not found")
	}
	cp := *p
	return &cp, nil
}

func (r *MemProjectRepository) ListByBrand(_ context.Context, brandID string) ([]*Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Project
	for _, p := range r.projects {
		if p.BrandID == brandID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

// CacheProjectTypeRegistry is the project-type registry. The list lives
// in process memory and List reads only that copy; the cache is never
// read or written apart from Create deleting projectTypesCacheKey, so a
// type created in one process is not seen by another process, even
// when both share a Redis cache backend.
type CacheProjectTypeRegistry struct {
	mu    sync.RWMutex
	types []ProjectType
	c     cache.Cache
}

const projectTypesCacheKey = "project_types:registry"

func NewCacheProjectTypeRegistry(c cache.Cache) *CacheProjectTypeRegistry {
	return &CacheProjectTypeRegistry{
		c: c,
		types: []ProjectType{
			{Key: "blog", Name: "Blog", Description: "Long-form written content"},
			{Key: "email", Name: "Email", Description: "Email campaign content"},
			{Key: "social", Name: "Social", Description: "Social media posts"},
			{Key: "ad", Name: "Ad", Description: "Paid advertising creative"},
		},
	}
}

func (r *CacheProjectTypeRegistry) List(_ context.Context) ([]ProjectType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ProjectType, len(r.types))
	copy(out, r.types)
	return out, nil
}

func (r *CacheProjectTypeRegistry) Create(ctx context.Context, pt ProjectType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.types {
		if existing.Key == pt.Key {
			return errkind.Newf(errkind.Conflict, "project type %q already exists", pt.Key)
		}
	}
	r.types = append(r.types, pt)
	if r.c != nil {
		// Drop any cached listing stored under projectTypesCacheKey.
		_ = r.c.Delete(ctx, projectTypesCacheKey)
	}
	return nil
}
