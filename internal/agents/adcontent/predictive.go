package adcontent

import (
	"context"

	"github.com/umt-agenthub/core/internal/cache"
)

// Prediction is a linear forward projection of one content item's
// engagement and ROI, derived from its last observed engagement
// delta — no telemetry history exists to regress against, so the
// projection is a simple trend-hold: current value plus the last
// observed delta scaled by the horizon.
type Prediction struct {
	ContentID         string             `json:"content_id"`
	TimeHorizonDays   int                `json:"time_horizon_days"`
	Platforms         map[string]PlatformPrediction `json:"platforms"`
}

type PlatformPrediction struct {
	CurrentEngagementRate   float64 `json:"current_engagement_rate"`
	ProjectedEngagementRate float64 `json:"projected_engagement_rate"`
	CurrentROAS             float64 `json:"current_roas"`
	ProjectedROAS           float64 `json:"projected_roas"`
}

// PredictEngagement projects each platform's engagement_rate/ROAS
// timeHorizonDays forward using the cached current/delta snapshot.
func PredictEngagement(ctx context.Context, source EngagementSource, c cache.Cache, contentID string, platforms []string, timeHorizonDays int) Prediction {
	current, deltas := checkContentEngagement(ctx, source, c, contentID, platforms)

	out := Prediction{ContentID: contentID, TimeHorizonDays: timeHorizonDays, Platforms: map[string]PlatformPrediction{}}
	for platform, metrics := range current {
		delta := deltas[platform]
		projectedEngagement := round2(clampNonNegative(metrics.EngagementRate + delta*float64(timeHorizonDays)))
		projectedROAS := round2(clampNonNegative(metrics.ROAS + delta*float64(timeHorizonDays)*0.1))
		out.Platforms[platform] = PlatformPrediction{
			CurrentEngagementRate:   metrics.EngagementRate,
			ProjectedEngagementRate: projectedEngagement,
			CurrentROAS:             metrics.ROAS,
			ProjectedROAS:           projectedROAS,
		}
	}
	return out
}

func clampNonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// predictiveRecommendations mirrors _generate_predictive_recommendations's
// shape without its randomness: a platform trending toward a sub-1.0
// projected ROAS earns a budget-review recommendation.
func predictiveRecommendations(predictions []Prediction) []map[string]any {
	var recs []map[string]any
	for _, p := range predictions {
		for platform, pred := range p.Platforms {
			if pred.ProjectedROAS < 1.0 {
				recs = append(recs, map[string]any{
					"type":       "budget_review",
					"content_id": p.ContentID,
					"platform":   platform,
					"message":    "projected ROAS trending below breakeven, review spend allocation",
				})
			}
		}
	}
	return recs
}
