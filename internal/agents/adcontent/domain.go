// Package adcontent implements the Content & Ad Management agent:
// parallel per-platform publishing, ad campaign lifecycle actions,
// engagement-threshold monitoring, and predictive analytics, wired
// onto real integration adapters instead of mocked platform calls.
package adcontent

import (
	"context"
	"time"

	"github.com/umt-agenthub/core/internal/credentials"
	"github.com/umt-agenthub/core/internal/integrations"
)

// AdapterFactory builds a platform Adapter from a resolved
// Integration, matching authintegration's newAdapter pattern.
type AdapterFactory func(ctx context.Context, in *credentials.Integration) (integrations.Adapter, error)

// PlatformPublishResult is one platform's outcome within a
// content_publishing fan-out.
type PlatformPublishResult struct {
	Platform  string `json:"platform"`
	Status    string `json:"status"`
	URL       string `json:"url,omitempty"`
	Error     string `json:"error,omitempty"`
	AuthError bool   `json:"auth_error,omitempty"`
}

// TrackedContent is one piece of content being watched by engagement
// monitoring, keyed by content_id. Tracker keeps the backing store
// opaque and swappable.
type TrackedContent struct {
	ContentID string
	BrandID   string
	Platforms []string
}

// Tracker lists content under active engagement monitoring.
type Tracker interface {
	List(ctx context.Context) ([]TrackedContent, error)
	Track(ctx context.Context, t TrackedContent) error
}

// PlatformEngagement is one platform's point-in-time metrics snapshot.
type PlatformEngagement struct {
	Platform       string  `json:"platform"`
	EngagementRate float64 `json:"engagement_rate"`
	ROAS           float64 `json:"roas"`
	ObservedAt     time.Time `json:"observed_at"`
}

// Alert is a threshold breach surfaced via engagement_alerts.
type Alert struct {
	ContentID string `json:"content_id"`
	Platform  string `json:"platform"`
	Metric    string `json:"metric"`
	Level     string `json:"level"` // warning | critical
	Message   string `json:"message"`
}
