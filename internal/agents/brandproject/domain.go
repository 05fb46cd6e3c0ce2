// Package brandproject implements the Brand & Project agent
// (brand onboarding with website enrichment,
// project lifecycle, logo upload, and project-type registry).
package brandproject

import (
	"context"
	"time"
)

// Brand is the onboarded-brand record. Guidelines holds
// caller-supplied + enriched brand guideline data (colors, fonts,
// voice); caller-supplied keys always win over enrichment.
type Brand struct {
	BrandID     string
	Name        string
	WebsiteURL  string
	Description string
	LogoURL     string
	Guidelines  map[string]any
	SocialLinks map[string]string
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Project is one content/campaign project under a brand.
type Project struct {
	ProjectID   string
	BrandID     string
	ProjectType string
	Name        string
	Status      string // e.g. "draft", "active", "published"
	AssignedTo  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

const (
	ProjectStatusDraft     = "draft"
	ProjectStatusActive    = "active"
	ProjectStatusPublished = "published"
)

// ProjectType is a registry entry describing a kind of project (e.g.
// Blog, Email, Social) a brand can create via
// get_project_types/create_project_type.
type ProjectType struct {
	Key         string
	Name        string
	Description string
}

// BrandRepository persists Brand records.
type BrandRepository interface {
	Create(ctx context.Context, b *Brand) error
	Update(ctx context.Context, b *Brand) error
	Get(ctx context.Context, brandID string) (*Brand, error)
}

// ProjectRepository persists Project records.
type ProjectRepository interface {
	Create(ctx context.Context, p *Project) error
	Update(ctx context.Context, p *Project) error
	Get(ctx context.Context, projectID string) (*Project, error)
	ListByBrand(ctx context.Context, brandID string) ([]*Project, error)
}

// ProjectTypeRegistry holds the set of project types available across
// brands, kept opaque (no brand-specific customization) but with the
// registry operations themselves fully implemented.
type ProjectTypeRegistry interface {
	List(ctx context.Context) ([]ProjectType, error)
	Create(ctx context.Context, pt ProjectType) error
}

// LogoStore persists uploaded brand logo bytes (
// upload_brand_logo: stores under /uploads/logos/{brand_id}/{filename}).
type LogoStore interface {
	Save(ctx context.Context, brandID, filename string, data []byte) (url string, err error)
	Delete(ctx context.Context, url string) error
}
