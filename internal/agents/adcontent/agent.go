package adcontent

import (
	"context"
	"log/slog"
	"time"

	"github.com/umt-agenthub/core/internal/audit"
	"github.com/umt-agenthub/core/internal/broker"
	"github.com/umt-agenthub/core/internal/cache"
	"github.com/umt-agenthub/core/internal/credentials"
	"github.com/umt-agenthub/core/internal/runtime"
)

const AgentID = "content_ad_management"

// DefaultMonitoringInterval is engagement_monitoring's background
// sweep period (default 3600s).
const DefaultMonitoringInterval = time.Hour

type Agent struct {
	*runtime.BaseAgent

	newAdapter  AdapterFactory
	credentials credentials.Repository
	cache       cache.Cache
	tracker     Tracker
	engagement  EngagementSource
	auditLog    audit.Log

	monitoringInterval time.Duration
}

// Deps bundles adcontent's external collaborators.
type Deps struct {
	AdapterFactory     AdapterFactory
	Credentials        credentials.Repository
	Cache              cache.Cache
	Tracker            Tracker
	Engagement         EngagementSource
	AuditLog           audit.Log
	MonitoringInterval time.Duration
}

func New(cfg runtime.Config, b broker.Broker, logger *slog.Logger, deps Deps) (*Agent, error) {
	cfg.AgentID = AgentID
	base, err := runtime.New(cfg, b, logger)
	if err != nil {
		return nil, err
	}
	if deps.Tracker == nil {
		deps.Tracker = NewMemTracker()
	}
	if deps.Engagement == nil {
		deps.Engagement = FabricatedEngagementSource{}
	}
	if deps.MonitoringInterval <= 0 {
		deps.MonitoringInterval = DefaultMonitoringInterval
	}

	a := &Agent{
		BaseAgent:          base,
		newAdapter:         deps.AdapterFactory,
		credentials:        deps.Credentials,
		cache:              deps.Cache,
		tracker:            deps.Tracker,
		engagement:         deps.Engagement,
		auditLog:           deps.AuditLog,
		monitoringInterval: deps.MonitoringInterval,
	}

	a.registerHandlers()
	a.RegisterTimer(a.monitoringInterval, a.sweepEngagement)
	return a, nil
}

func (a *Agent) registerHandlers() {
	a.MustRegisterTask("content_publishing", a.handleContentPublishing)
	a.MustRegisterTask("ad_campaign_management", a.handleAdCampaignManagement)
	a.MustRegisterTask("engagement_monitoring", a.handleEngagementMonitoring)
	a.MustRegisterTask("predictive_analytics", a.handlePredictiveAnalytics)
	a.RegisterEvent("content_test_completed", a.handleContentTestCompletedEvent)
}

// resolveAdapter opens the brand's stored credentials for platform
// (no composite brand+platform lookup exists on credentials.Repository,
// so it lists the brand's integrations and filters — same precedent
// authintegration set).
func (a *Agent) resolveAdapter(ctx context.Context, brandID, platform string) (*credentials.Integration, error) {
	integrations, err := a.credentials.ListByBrand(ctx, brandID)
	if err != nil {
		return nil, err
	}
	for _, in := range integrations {
		if in.Platform == platform {
			return in, nil
		}
	}
	return nil, errNoIntegration(brandID, platform)
}

func (a *Agent) sweepEngagement(ctx context.Context) {
	items, err := a.tracker.List(ctx)
	if err != nil {
		a.Logger().ErrorContext(ctx, "engagement sweep: list tracked content failed", "error", err)
		return
	}
	for _, item := range items {
		current, deltas := checkContentEngagement(ctx, a.engagement, a.cache, item.ContentID, item.Platforms)
		alerts := deriveAlerts(item.ContentID, current, deltas)
		if len(alerts) == 0 {
			continue
		}
		if err := a.BroadcastEvent(ctx, "engagement_alerts", map[string]any{
			"content_id": item.ContentID,
			"brand_id":   item.BrandID,
			"alerts":     alerts,
		}); err != nil {
			a.Logger().ErrorContext(ctx, "engagement sweep: broadcast failed", "content_id", item.ContentID, "error", err)
		}
	}
}
