package adcontent

import (
	"context"

	"github.com/umt-agenthub/core/internal/agents/support"
	"github.com/umt-agenthub/core/internal/audit"
	"github.com/umt-agenthub/core/internal/envelope"
	"github.com/umt-agenthub/core/internal/errkind"
	"github.com/umt-agenthub/core/internal/integrations"
)

func (a *Agent) handleContentPublishing(ctx context.Context, msg *envelope.Message) (map[string]any, error) {
	brandID, err := support.StringField(msg.Payload, "brand_id")
	if err != nil {
		return nil, err
	}
	contentID, err := support.StringField(msg.Payload, "content_id")
	if err != nil {
		return nil, err
	}
	platforms := support.StringSlice(msg.Payload, "platforms")
	if len(platforms) == 0 {
		return nil, errkind.New(errkind.Validation, "platforms must not be empty")
	}
	title := support.OptString(msg.Payload, "title", "")
	body := support.OptString(msg.Payload, "body", "")
	media := support.StringSlice(msg.Payload, "media")
	extra := support.StringAnyMap(msg.Payload, "content_extra")
	schedulingPreferences := support.StringAnyMap(msg.Payload, "scheduling_preferences")

	content := integrations.Content{Title: title, Body: body, Media: media, Extra: extra}

	results := PublishContent(ctx, func(platform string) (integrations.Adapter, error) {
		in, err := a.resolveAdapter(ctx, brandID, platform)
		if err != nil {
			return nil, err
		}
		return a.newAdapter(ctx, in)
	}, content, platforms, schedulingPreferences)

	status := OverallStatus(results)
	if err := a.tracker.Track(ctx, TrackedContent{ContentID: contentID, BrandID: brandID, Platforms: platforms}); err != nil {
		a.Logger().WarnContext(ctx, "content publishing: track for engagement monitoring failed", "content_id", contentID, "error", err)
	}

	a.record(ctx, brandID, support.OptString(msg.Payload, "user_id", ""), "content.published", "content", contentID, map[string]any{
		"status":    status,
		"platforms": platforms,
	})
	if err := a.BroadcastEvent(ctx, "content_published", map[string]any{
		"content_id": contentID,
		"brand_id":   brandID,
		"status":     status,
		"results":    successfulResults(results),
	}); err != nil {
		a.Logger().ErrorContext(ctx, "content publishing: broadcast failed", "content_id", contentID, "error", err)
	}

	return map[string]any{"content_id": contentID, "status": status, "platform_results": results}, nil
}

// successfulResults narrows results to the platforms that actually
// published, since content_published is a broadcast notification
// ("this content is now live on these platforms"), not a delivery
// report — failed platforms stay visible only in the task's own
// platform_results response to the calling caller.
func successfulResults(results []PlatformPublishResult) []PlatformPublishResult {
	out := make([]PlatformPublishResult, 0, len(results))
	for _, r := range results {
		if r.Status == "success" {
			out = append(out, r)
		}
	}
	return out
}

func (a *Agent) handleAdCampaignManagement(ctx context.Context, msg *envelope.Message) (map[string]any, error) {
	brandID, err := support.StringField(msg.Payload, "brand_id")
	if err != nil {
		return nil, err
	}
	platform, err := support.StringField(msg.Payload, "platform")
	if err != nil {
		return nil, err
	}
	actionRaw, err := support.StringField(msg.Payload, "action")
	if err != nil {
		return nil, err
	}
	action, err := parseCampaignAction(actionRaw)
	if err != nil {
		return nil, errkind.Wrap(errkind.Validation, err)
	}
	campaignID := support.OptString(msg.Payload, "campaign_id", "")
	content := integrations.Content{
		Title: support.OptString(msg.Payload, "title", ""),
		Body:  support.OptString(msg.Payload, "body", ""),
		Extra: support.StringAnyMap(msg.Payload, "campaign_extra"),
	}

	in, err := a.resolveAdapter(ctx, brandID, platform)
	if err != nil {
		return nil, err
	}
	adapter, err := a.newAdapter(ctx, in)
	if err != nil {
		return nil, err
	}
	result, err := ManageCampaign(ctx, adapter, action, campaignID, content)
	if err != nil {
		return nil, errkind.Wrap(errkind.Upstream, err)
	}

	a.record(ctx, brandID, support.OptString(msg.Payload, "user_id", ""), "campaign."+actionRaw, "campaign", result.PlatformID, map[string]any{
		"platform": platform,
	})

	return map[string]any{"status": result.Status, "platform_id": result.PlatformID, "url": result.URL}, nil
}

func (a *Agent) handleEngagementMonitoring(ctx context.Context, msg *envelope.Message) (map[string]any, error) {
	contentID := support.OptString(msg.Payload, "content_id", "")
	brandID := support.OptString(msg.Payload, "brand_id", "")
	checkAll, _ := msg.Payload["check_all"].(bool)

	if !checkAll && contentID == "" {
		return nil, errkind.New(errkind.Validation, "either content_id or check_all must be provided")
	}

	var items []TrackedContent
	if checkAll {
		all, err := a.tracker.List(ctx)
		if err != nil {
			return nil, errkind.Wrap(errkind.Internal, err)
		}
		for _, item := range all {
			if brandID != "" && item.BrandID != brandID {
				continue
			}
			items = append(items, item)
		}
	} else {
		all, err := a.tracker.List(ctx)
		if err != nil {
			return nil, errkind.Wrap(errkind.Internal, err)
		}
		for _, item := range all {
			if item.ContentID == contentID {
				items = append(items, item)
			}
		}
	}

	contentEngagement := map[string]map[string]PlatformEngagement{}
	var allAlerts []Alert
	for _, item := range items {
		current, deltas := checkContentEngagement(ctx, a.engagement, a.cache, item.ContentID, item.Platforms)
		contentEngagement[item.ContentID] = current
		allAlerts = append(allAlerts, deriveAlerts(item.ContentID, current, deltas)...)
	}

	if len(allAlerts) > 0 {
		if err := a.BroadcastEvent(ctx, "engagement_alerts", map[string]any{
			"content_id": contentID,
			"brand_id":   brandID,
			"alerts":     allAlerts,
		}); err != nil {
			a.Logger().ErrorContext(ctx, "engagement monitoring: broadcast failed", "error", err)
		}
	}

	a.record(ctx, brandID, support.OptString(msg.Payload, "user_id", ""), "engagement.monitored", "content", contentID, map[string]any{
		"check_all":   checkAll,
		"alert_count": len(allAlerts),
	})

	return map[string]any{
		"status":  "success",
		"results": contentEngagement,
		"alerts":  allAlerts,
	}, nil
}

func (a *Agent) handlePredictiveAnalytics(ctx context.Context, msg *envelope.Message) (map[string]any, error) {
	brandID := support.OptString(msg.Payload, "brand_id", "")
	contentIDs := support.StringSlice(msg.Payload, "content_ids")
	timeHorizon := 30
	if v, ok := msg.Payload["time_horizon"]; ok {
		if f, ok := toFloat(v); ok && f > 0 {
			timeHorizon = int(f)
		}
	}

	if len(contentIDs) == 0 && brandID == "" {
		return nil, errkind.New(errkind.Validation, "either brand_id or content_ids must be provided")
	}

	if len(contentIDs) == 0 {
		all, err := a.tracker.List(ctx)
		if err != nil {
			return nil, errkind.Wrap(errkind.Internal, err)
		}
		for _, item := range all {
			if item.BrandID == brandID {
				contentIDs = append(contentIDs, item.ContentID)
			}
		}
	}

	all, err := a.tracker.List(ctx)
	if err != nil {
		return nil, errkind.Wrap(errkind.Internal, err)
	}
	platformsByContent := map[string][]string{}
	for _, item := range all {
		platformsByContent[item.ContentID] = item.Platforms
	}

	predictions := make([]Prediction, 0, len(contentIDs))
	for _, contentID := range contentIDs {
		platforms := platformsByContent[contentID]
		if len(platforms) == 0 {
			continue
		}
		predictions = append(predictions, PredictEngagement(ctx, a.engagement, a.cache, contentID, platforms, timeHorizon))
	}

	a.record(ctx, brandID, support.OptString(msg.Payload, "user_id", ""), "analytics.predicted", "brand", brandID, map[string]any{
		"content_count": len(predictions),
		"time_horizon":  timeHorizon,
	})

	return map[string]any{
		"status":          "success",
		"predictions":     predictions,
		"recommendations": predictiveRecommendations(predictions),
	}, nil
}

func (a *Agent) handleContentTestCompletedEvent(ctx context.Context, msg *envelope.Message) error {
	testID := support.OptString(msg.Payload, "test_id", "")
	projectID := support.OptString(msg.Payload, "project_id", "")
	winner := support.OptString(msg.Payload, "winning_variation", "")
	a.Logger().InfoContext(ctx, "content test completed", "test_id", testID, "project_id", projectID, "winning_variation", winner)
	return nil
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
