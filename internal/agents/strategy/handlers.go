package strategy

import (
	"context"
	"time"

	"github.com/umt-agenthub/core/internal/agents/support"
	"github.com/umt-agenthub/core/internal/audit"
	"github.com/umt-agenthub/core/internal/envelope"
	"github.com/umt-agenthub/core/internal/errkind"
)

func (a *Agent) handleContentStrategyDevelopment(ctx context.Context, msg *envelope.Message) (map[string]any, error) {
	brandID, err := support.StringField(msg.Payload, "brand_id")
	if err != nil {
		return nil, err
	}
	topics := support.StringSlice(msg.Payload, "content_topics")
	projectTypes := support.StringSlice(msg.Payload, "project_types")
	performanceMetrics := support.StringAnyMap(msg.Payload, "performance_metrics")
	businessObjectives := support.StringAnyMap(msg.Payload, "business_objectives")

	s := DevelopStrategy(brandID, topics, projectTypes, performanceMetrics, businessObjectives)

	a.record(ctx, brandID, support.OptString(msg.Payload, "user_id", ""), "strategy.developed", "brand", brandID, map[string]any{
		"content_topics": topics,
		"project_types":  projectTypes,
	})

	return map[string]any{"strategy": s}, nil
}

func (a *Agent) handleCompetitorAnalysis(ctx context.Context, msg *envelope.Message) (map[string]any, error) {
	brandID := support.OptString(msg.Payload, "brand_id", "")
	websites := support.StringSlice(msg.Payload, "competitor_websites")
	if len(websites) == 0 {
		return nil, errkind.New(errkind.Validation, "no competitor websites provided for analysis")
	}
	topics := support.StringSlice(msg.Payload, "content_topics")

	analyses := make(map[string]CompetitorAnalysis, len(websites))
	for _, website := range websites {
		analysis, err := analyzeCompetitorWebsite(ctx, a.http, website, topics)
		if err != nil {
			analyses[website] = CompetitorAnalysis{Website: website, Error: err.Error()}
			continue
		}
		analyses[website] = analysis
	}

	landscape := synthesizeCompetitiveInsights(analyses, topics)
	opportunities := identifyCompetitiveOpportunities(landscape)

	a.record(ctx, brandID, support.OptString(msg.Payload, "user_id", ""), "strategy.competitor_analysis", "brand", brandID, map[string]any{
		"competitor_websites": websites,
	})

	return map[string]any{
		"competitor_analyses":    analyses,
		"competitive_landscape":  landscape,
		"strategic_opportunities": opportunities,
	}, nil
}

func (a *Agent) handleContentCalendarCreation(ctx context.Context, msg *envelope.Message) (map[string]any, error) {
	brandID, err := support.StringField(msg.Payload, "brand_id")
	if err != nil {
		return nil, err
	}
	topics := support.StringSlice(msg.Payload, "content_topics")
	projectTypes := support.StringSlice(msg.Payload, "project_types")

	timeframe := support.StringAnyMap(msg.Payload, "timeframe")
	startStr, _ := timeframe["start_date"].(string)
	endStr, _ := timeframe["end_date"].(string)
	start, err := time.Parse("2006-01-02", startStr)
	if err != nil {
		return nil, errkind.New(errkind.Validation, "timeframe.start_date must be YYYY-MM-DD")
	}
	end, err := time.Parse("2006-01-02", endStr)
	if err != nil {
		return nil, errkind.New(errkind.Validation, "timeframe.end_date must be YYYY-MM-DD")
	}

	postingFrequency := map[string]float64{}
	if prefs := support.StringAnyMap(msg.Payload, "scheduling_preferences"); prefs != nil {
		if pf, ok := prefs["posting_frequency"].(map[string]any); ok {
			for k, v := range pf {
				if f, ok := toFloat(v); ok {
					postingFrequency[k] = f
				}
			}
		}
	}

	calendar := GenerateCalendar(brandID, topics, projectTypes, postingFrequency, start, end)

	a.record(ctx, brandID, support.OptString(msg.Payload, "user_id", ""), "calendar.created", "brand", brandID, map[string]any{
		"content_count": len(calendar.ContentItems),
	})

	return map[string]any{"calendar": calendar}, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

func (a *Agent) record(ctx context.Context, brandID, actorID, action, targetType, targetID string, detail map[string]any) {
	if a.auditLog == nil {
		return
	}
	if actorID == "" {
		actorID = AgentID
	}
	if err := a.auditLog.Record(ctx, audit.NewEntry(brandID, actorID, action, targetType, targetID, detail)); err != nil {
		a.Logger().ErrorContext(ctx, "audit record failed", "action", action, "error", err)
	}
}
