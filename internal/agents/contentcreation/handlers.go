package contentcreation

import (
	"context"
	"time"

	"github.com/umt-agenthub/core/internal/agents/support"
	"github.com/umt-agenthub/core/internal/audit"
	"github.com/umt-agenthub/core/internal/envelope"
	"github.com/umt-agenthub/core/internal/errkind"
)

func (a *Agent) handleAIContentGeneration(ctx context.Context, msg *envelope.Message) (map[string]any, error) {
	brandID := support.OptString(msg.Payload, "brand_id", "")
	projectID, err := support.StringField(msg.Payload, "project_id")
	if err != nil {
		return nil, err
	}
	projectType, err := support.StringField(msg.Payload, "project_type")
	if err != nil {
		return nil, err
	}
	topic, err := support.StringField(msg.Payload, "content_topic")
	if err != nil {
		return nil, err
	}
	brief := support.StringAnyMap(msg.Payload, "content_brief")
	guidelines := support.StringAnyMap(msg.Payload, "brand_guidelines")
	count := 3
	if v, ok := msg.Payload["variation_count"]; ok {
		if f, ok := toFloat(v); ok && f > 0 {
			count = int(f)
		}
	}

	variations := GenerateVariations(ctx, a.generator, projectType, topic, brief, guidelines, count)

	a.record(ctx, brandID, support.OptString(msg.Payload, "user_id", ""), "content.generated", "project", projectID, map[string]any{
		"project_type":    projectType,
		"variation_count": len(variations),
	})

	return map[string]any{"project_id": projectID, "content_variations": variations}, nil
}

func (a *Agent) handleContentTesting(ctx context.Context, msg *envelope.Message) (map[string]any, error) {
	brandID := support.OptString(msg.Payload, "brand_id", "")
	projectID, err := support.StringField(msg.Payload, "project_id")
	if err != nil {
		return nil, err
	}
	testType := support.OptString(msg.Payload, "test_type", "A/B test")
	metrics := support.StringSlice(msg.Payload, "metrics")
	if len(metrics) == 0 {
		metrics = []string{"engagement", "conversion"}
	}
	durationDays := 7
	if v, ok := msg.Payload["duration"]; ok {
		if f, ok := toFloat(v); ok && f > 0 {
			durationDays = int(f)
		}
	}

	variationsRaw, ok := msg.Payload["content_variations"].([]any)
	if !ok || len(variationsRaw) == 0 {
		return nil, errkind.New(errkind.NotFound, "no content variations found for this project")
	}
	variations := make([]Variation, 0, len(variationsRaw))
	for _, raw := range variationsRaw {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		variations = append(variations, Variation{
			VariationID:       stringOr(m["variation_id"], ""),
			VariationApproach: stringOr(m["variation_approach"], ""),
		})
	}

	design := DesignTest(projectID, testType, variations, metrics, durationDays, time.Now())

	a.mu.Lock()
	a.tests[projectID] = &design
	a.mu.Unlock()

	a.record(ctx, brandID, support.OptString(msg.Payload, "user_id", ""), "content.test_initiated", "project", projectID, map[string]any{
		"test_type":       testType,
		"duration_days":   durationDays,
		"variation_count": len(variations),
	})

	return map[string]any{"test_id": design.TestID, "test_design": design}, nil
}

func (a *Agent) handleContentPerformanceUpdate(ctx context.Context, msg *envelope.Message) error {
	contentID := support.OptString(msg.Payload, "content_id", "")
	a.Logger().InfoContext(ctx, "received content performance update", "content_id", contentID)
	return nil
}

func stringOr(v any, def string) string {
	if s, ok := v.(string); ok {
		return s
	}
	return def
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
