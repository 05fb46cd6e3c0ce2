package authintegration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umt-agenthub/core/internal/audit"
	"github.com/umt-agenthub/core/internal/broker"
	"github.com/umt-agenthub/core/internal/credentials"
	"github.com/umt-agenthub/core/internal/envelope"
	"github.com/umt-agenthub/core/internal/errkind"
	"github.com/umt-agenthub/core/internal/runtime"
	"github.com/umt-agenthub/core/internal/webhooks"
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
	if _, ok := m.byID[in.IntegrationID]; !ok {
		return errkind.New(errkind.NotFound, "integration not found")
	}
	cp := *in
	m.byID[in.IntegrationID] = &cp
	return nil
}
func (m *memRepo) Delete(_ context.Context, id string) error {
	delete(m.byID, id)
	return nil
}

type noSubscribers struct{}

func (noSubscribers) Subscribers(context.Context, string, string) ([]webhooks.Webhook, error) {
	return nil, nil
}

func newTestAgent(t *testing.T, repo credentials.Repository) *Agent {
	t.Helper()
	store, err := credentials.NewStore("unit-test-process-secret")
	require.NoError(t, err)
	refreshCoord := credentials.NewRefreshCoordinator(store, repo, nil)
	dispatcher := webhooks.NewDispatcher(noSubscribers{}, nil)

	a, err := New(
		runtime.Config{DefaultResponseTimeout: time.Second, ShutdownGrace: time.Second, WorkerPoolSize: 4},
		broker.NewInProcessBroker(nil),
		nil,
		Deps{
			Store:    store,
			Repo:     repo,
			Refresh:  refreshCoord,
			Webhook:  dispatcher,
			AuditLog: audit.NewMemLog(),
		},
	)
	require.NoError(t, err)
	return a
}

func TestBuildAuthorizationURL_SpaceJoinsScopeAndSetsResponseType(t *testing.T) {
	cfg := OAuthProviderConfig{
		AuthURL:  "https://example.com/oauth/authorize",
		ClientID: "client-123",
		Scopes:   []string{"read", "write"},
	}
	url := buildAuthorizationURL(cfg, "https://app.example.com/callback", "xyz", nil)
	assert.Contains(t, url, "response_type=code")
	assert.Contains(t, url, "client_id=client-123")
	assert.Contains(t, url, "scope=read+write")
	assert.Contains(t, url, "state=xyz")
}

func TestHandleCreateOAuthURL_UnknownProviderIsValidationError(t *testing.T) {
	a := newTestAgent(t, newMemRepo())
	msg := envelope.NewTask("caller", AgentID, "create_oauth_url", map[string]any{
		"provider": "not_a_provider", "redirect_uri": "https://x/callback",
	})
	_, err := a.handleCreateOAuthURL(context.Background(), msg)
	require.Error(t, err)
	assert.Equal(t, errkind.Validation, errkind.KindOf(err))
}

func TestHandleSetupPlatformIntegration_SealsCredentialsAndPersists(t *testing.T) {
	repo := newMemRepo()
	a := newTestAgent(t, repo)

	msg := envelope.NewTask("caller", AgentID, "setup_platform_integration", map[string]any{
		"platform": "wordpress",
		"brand_id": "brand-1",
		"user_id":  "user-1",
		"credentials": map[string]any{
			"access_token": "super-secret-token",
			"site_url":     "https://blog.example.com",
		},
	})
	result, err := a.handleSetupPlatformIntegration(context.Background(), msg)
	require.NoError(t, err)
	require.NotEmpty(t, result["integration_id"])

	stored, err := repo.Get(context.Background(), result["integration_id"].(string))
	require.NoError(t, err)
	assert.Equal(t, "brand-1", stored.BrandID)
	assert.NotEqual(t, "super-secret-token", string(stored.Credentials["access_token"].Blob))
}

func TestCheckOne_DegradedOnUpstreamErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	repo := newMemRepo()
	a := newTestAgent(t, repo)

	store, _ := credentials.NewStore("unit-test-process-secret")
	sealed, err := store.SealFields(map[string]string{"access_token": "tok", "site_url": srv.URL})
	require.NoError(t, err)

	in := &credentials.Integration{
		IntegrationID: "int-1", BrandID: "brand-1", Platform: "wordpress",
		Category: credentials.CategoryCMS, Credentials: sealed,
		HealthStatus: credentials.HealthHealthy, CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	require.NoError(t, repo.Create(context.Background(), in))

	a.store = store
	status, err := a.checkOne(context.Background(), "int-1")
	require.NoError(t, err)
	assert.Equal(t, "degraded", status)
}
