package adcontent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umt-agenthub/core/internal/audit"
	"github.com/umt-agenthub/core/internal/broker"
	"github.com/umt-agenthub/core/internal/credentials"
	"github.com/umt-agenthub/core/internal/envelope"
	"github.com/umt-agenthub/core/internal/errkind"
	"github.com/umt-agenthub/core/internal/integrations"
	"github.com/umt-agenthub/core/internal/runtime"
)

type memRepo struct {
	byID map[string]*credentials.Integration
}

func newMemRepo() *memRepo { return &memRepo{byID: map[string]*credentials.Integration{}} }

func (m *memRepo) Get(_ context.Context, id string) (*credentials.Integration, error) {
	in, ok := m.byID[id]
	if !ok {
		return nil, errkind.New(errkind.NotFound, "integration not found")
	}
	cp := *in
	return &cp, nil
}
func (m *memRepo) ListByBrand(_ context.Context, brandID string) ([]*credentials.Integration, error) {
	var out []*credentials.Integration
	for _, in := range m.byID {
		if in.BrandID == brandID {
			cp := *in
			out = append(out, &cp)
		}
	}
	return out, nil
}
func (m *memRepo) ListAll(_ context.Context) ([]*credentials.Integration, error) {
	var out []*credentials.Integration
	for _, in := range m.byID {
		cp := *in
		out = append(out, &cp)
	}
	return out, nil
}
func (m *memRepo) Create(_ context.Context, in *credentials.Integration) error {
	cp := *in
	m.byID[in.IntegrationID] = &cp
	return nil
}
func (m *memRepo) Update(_ context.Context, in *credentials.Integration) error {
	cp := *in
	m.byID[in.IntegrationID] = &cp
	return nil
}
func (m *memRepo) Delete(_ context.Context, id string) error {
	delete(m.byID, id)
	return nil
}

// fakeAdapter lets tests force a platform to succeed or fail without
// touching the real integrations adapter registry.
type fakeAdapter struct {
	platform  string
	failEvery string // platform name that should error
}

func (f *fakeAdapter) Platform() string           { return f.platform }
func (f *fakeAdapter) Category() integrations.Category { return integrations.CategorySocial }
func (f *fakeAdapter) Publish(_ context.Context, content integrations.Content) (integrations.Result, error) {
	if f.platform == f.failEvery {
		return integrations.Result{}, assert.AnError
	}
	return integrations.Result{Status: "success", PlatformID: "post-" + f.platform, URL: "https://example.com/" + f.platform}, nil
}
func (f *fakeAdapter) Schedule(_ context.Context, content integrations.Content, when time.Time) (integrations.Result, error) {
	if f.platform == f.failEvery {
		return integrations.Result{}, assert.AnError
	}
	return integrations.Result{Status: "success", PlatformID: "scheduled-" + f.platform}, nil
}
func (f *fakeAdapter) Update(_ context.Context, id string, content integrations.Content) (integrations.Result, error) {
	return integrations.Result{Status: "success", PlatformID: id}, nil
}
func (f *fakeAdapter) Fetch(_ context.Context, id string) (integrations.Result, error) {
	return integrations.Result{Status: "success", PlatformID: id}, nil
}
func (f *fakeAdapter) Delete(_ context.Context, id string) (integrations.Result, error) {
	return integrations.Result{Status: "success", PlatformID: id}, nil
}
func (f *fakeAdapter) CheckHealth(_ context.Context) (integrations.HealthVerdict, error) {
	return integrations.HealthVerdict{Status: "healthy"}, nil
}

func newTestAgent(t *testing.T, repo credentials.Repository, failPlatform string) *Agent {
	t.Helper()
	b := broker.NewInProcessBroker(nil)
	cfg := runtime.Config{DefaultResponseTimeout: time.Second, ShutdownGrace: time.Second, WorkerPoolSize: 4}
	a, err := New(cfg, b, nil, Deps{
		AdapterFactory: func(_ context.Context, in *credentials.Integration) (integrations.Adapter, error) {
			return &fakeAdapter{platform: in.Platform, failEvery: failPlatform}, nil
		},
		Credentials:        repo,
		Tracker:            NewMemTracker(),
		Engagement:         FabricatedEngagementSource{},
		AuditLog:           audit.NewMemLog(),
		MonitoringInterval: time.Hour,
	})
	require.NoError(t, err)
	return a
}

func seedIntegration(repo *memRepo, brandID, platform string) {
	repo.Create(context.Background(), &credentials.Integration{
		IntegrationID: brandID + ":" + platform,
		BrandID:       brandID,
		Platform:      platform,
		Category:      credentials.CategorySocial,
	})
}

func TestHandleContentPublishing_PartialStatusWhenOnePlatformFails(t *testing.T) {
	repo := newMemRepo()
	seedIntegration(repo, "brand-1", "linkedin")
	seedIntegration(repo, "brand-1", "twitter")
	a := newTestAgent(t, repo, "twitter")

	out, err := a.handleContentPublishing(context.Background(), &envelope.Message{Payload: map[string]any{
		"brand_id":   "brand-1",
		"content_id": "content-1",
		"platforms":  []string{"linkedin", "twitter"},
		"title":      "Launch day",
		"body":       "We shipped it.",
	}})
	require.NoError(t, err)
	assert.Equal(t, "partial", out["status"])
}

func TestHandleContentPublishing_SuccessWhenAllPlatformsSucceed(t *testing.T) {
	repo := newMemRepo()
	seedIntegration(repo, "brand-1", "linkedin")
	a := newTestAgent(t, repo, "")

	out, err := a.handleContentPublishing(context.Background(), &envelope.Message{Payload: map[string]any{
		"brand_id":   "brand-1",
		"content_id": "content-1",
		"platforms":  []string{"linkedin"},
	}})
	require.NoError(t, err)
	assert.Equal(t, "success", out["status"])
}

func TestHandleAdCampaignManagement_RejectsUnsupportedAction(t *testing.T) {
	repo := newMemRepo()
	seedIntegration(repo, "brand-1", "facebook ads")
	a := newTestAgent(t, repo, "")

	_, err := a.handleAdCampaignManagement(context.Background(), &envelope.Message{Payload: map[string]any{
		"brand_id": "brand-1",
		"platform": "facebook ads",
		"action":   "explode",
	}})
	require.Error(t, err)
}

func TestHandleAdCampaignManagement_PauseMapsToAdapterUpdate(t *testing.T) {
	repo := newMemRepo()
	seedIntegration(repo, "brand-1", "facebook ads")
	a := newTestAgent(t, repo, "")

	out, err := a.handleAdCampaignManagement(context.Background(), &envelope.Message{Payload: map[string]any{
		"brand_id":    "brand-1",
		"platform":    "facebook ads",
		"action":      "pause",
		"campaign_id": "camp-1",
	}})
	require.NoError(t, err)
	assert.Equal(t, "camp-1", out["platform_id"])
}

func TestDeriveAlerts_FlagsLowEngagementAndNegativeROAS(t *testing.T) {
	current := map[string]PlatformEngagement{
		"linkedin": {Platform: "linkedin", EngagementRate: 0.5, ROAS: 0.4},
	}
	alerts := deriveAlerts("content-1", current, nil)
	require.Len(t, alerts, 2)
	levels := map[string]bool{}
	for _, a := range alerts {
		levels[a.Level] = true
	}
	assert.True(t, levels["warning"])
	assert.True(t, levels["critical"])
}

func TestHandleEngagementMonitoring_RequiresContentIDOrCheckAll(t *testing.T) {
	repo := newMemRepo()
	a := newTestAgent(t, repo, "")

	_, err := a.handleEngagementMonitoring(context.Background(), &envelope.Message{Payload: map[string]any{}})
	require.Error(t, err)
}

func TestHandlePredictiveAnalytics_RequiresBrandOrContentIDs(t *testing.T) {
	repo := newMemRepo()
	a := newTestAgent(t, repo, "")

	_, err := a.handlePredictiveAnalytics(context.Background(), &envelope.Message{Payload: map[string]any{}})
	require.Error(t, err)
}

func TestPredictEngagement_ProjectsForward(t *testing.T) {
	pred := PredictEngagement(context.Background(), FabricatedEngagementSource{}, nil, "content-1", []string{"linkedin"}, 30)
	require.Contains(t, pred.Platforms, "linkedin")
	assert.Equal(t, pred.Platforms["linkedin"].CurrentEngagementRate, pred.Platforms["linkedin"].ProjectedEngagementRate)
}
