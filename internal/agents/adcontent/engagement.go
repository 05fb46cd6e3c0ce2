package adcontent

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/umt-agenthub/core/internal/cache"
)

// EngagementSource fetches a point-in-time engagement snapshot for one
// (content, platform) pair. A real implementation calls the platform's
// analytics API; FabricatedEngagementSource stands in deterministically
// when no such wiring exists, matching contentcreation's
// FabricatedMetricsSource precedent — no PRNG involved.
type EngagementSource interface {
	Fetch(ctx context.Context, contentID, platform string) (PlatformEngagement, error)
}

// FabricatedEngagementSource derives a stable engagement_rate/ROAS
// pair from an FNV hash of (contentID, platform), so repeated sweeps
// against unchanged content converge rather than alert on noise.
type FabricatedEngagementSource struct{}

func (FabricatedEngagementSource) Fetch(_ context.Context, contentID, platform string) (PlatformEngagement, error) {
	h := fnv.New32a()
	_, _ = h.Write([]byte(contentID + "|" + platform))
	sum := h.Sum32()

	engagement := round2(0.5 + float64(sum%750)/100.0) // 0.5 .. 8.0
	roas := round2(0.5 + float64((sum/750)%950)/100.0) // 0.5 .. 10.0

	return PlatformEngagement{
		Platform:       platform,
		EngagementRate: engagement,
		ROAS:           roas,
		ObservedAt:     time.Now(),
	}, nil
}

const engagementCachePrefix = "adcontent:engagement"

func engagementCacheKey(contentID, platform string) string {
	return fmt.Sprintf("%s:%s:%s", engagementCachePrefix, contentID, platform)
}

type cachedEngagement struct {
	Metrics   PlatformEngagement `json:"metrics"`
	FetchedAt time.Time          `json:"fetched_at"`
}

// checkContentEngagement fetches current metrics for every platform a
// tracked item is on, diffs against the previous cached snapshot, and
// persists the new one.
func checkContentEngagement(ctx context.Context, source EngagementSource, c cache.Cache, contentID string, platforms []string) (map[string]PlatformEngagement, map[string]float64) {
	current := make(map[string]PlatformEngagement, len(platforms))
	deltas := make(map[string]float64)

	for _, platform := range platforms {
		metrics, err := source.Fetch(ctx, contentID, platform)
		if err != nil {
			continue
		}
		current[platform] = metrics

		if c == nil {
			continue
		}
		key := engagementCacheKey(contentID, platform)
		if raw, found, err := c.Get(ctx, key); err == nil && found {
			var prev cachedEngagement
			if json.Unmarshal(raw, &prev) == nil {
				deltas[platform] = round2(metrics.EngagementRate - prev.Metrics.EngagementRate)
			}
		}
		if encoded, err := json.Marshal(cachedEngagement{Metrics: metrics, FetchedAt: time.Now()}); err == nil {
			_ = c.Set(ctx, key, encoded, 7*24*time.Hour)
		}
	}
	return current, deltas
}

// deriveAlerts applies the monitoring threshold table: engagement_rate
// below 1% is a warning, a delta worse than -1 is a
// declining-engagement warning, ROAS below 1.0 is critical.
func deriveAlerts(contentID string, current map[string]PlatformEngagement, deltas map[string]float64) []Alert {
	var alerts []Alert
	for platform, metrics := range current {
		if metrics.EngagementRate < 1.0 {
			alerts = append(alerts, Alert{
				ContentID: contentID, Platform: platform, Metric: "engagement_rate", Level: "warning",
				Message: fmt.Sprintf("low engagement rate (%.2f%%) on %s", metrics.EngagementRate, platform),
			})
		}
		if d, ok := deltas[platform]; ok && d < -1.0 {
			alerts = append(alerts, Alert{
				ContentID: contentID, Platform: platform, Metric: "engagement_rate_delta", Level: "warning",
				Message: fmt.Sprintf("declining engagement rate (%.2f) on %s", d, platform),
			})
		}
		if metrics.ROAS < 1.0 {
			alerts = append(alerts, Alert{
				ContentID: contentID, Platform: platform, Metric: "roas", Level: "critical",
				Message: fmt.Sprintf("negative ROI (ROAS: %.2f) on %s", metrics.ROAS, platform),
			})
		}
	}
	return alerts
}
