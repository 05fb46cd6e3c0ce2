package brandproject

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umt-agenthub/core/internal/audit"
	"github.com/umt-agenthub/core/internal/broker"
	"github.com/umt-agenthub/core/internal/envelope"
	"github.com/umt-agenthub/core/internal/runtime"
	"github.com/umt-agenthub/core/internal/webhooks"
)

func newTestAgent(t *testing.T) *Agent {
	t.Helper()
	b := broker.NewInProcessBroker(nil)
	cfg := runtime.Config{
		DefaultResponseTimeout: time.Second,
		ShutdownGrace:          time.Second,
		WorkerPoolSize:         4,
	}
	a, err := New(cfg, b, nil, Deps{
		AuditLog:      audit.NewMemLog(),
		WebhookWriter: webhooks.NewMemRegistry(),
		Webhook:       webhooks.NewDispatcher(webhooks.NewMemRegistry(), nil),
	})
	require.NoError(t, err)
	return a
}

func TestHandleOnboardBrand_WithoutWebsiteCreatesBrand(t *testing.T) {
	a := newTestAgent(t)
	out, err := a.handleOnboardBrand(context.Background(), &envelope.Message{Payload: map[string]any{
		"company_name": "Acme Co",
		"user_id":      "user-1",
	}})
	require.NoError(t, err)
	brandID, _ := out["brand_id"].(string)
	assert.NotEmpty(t, brandID)

	stored, err := a.brands.Get(context.Background(), brandID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Co", stored.Name)
}

func TestHandleOnboardBrand_EnrichesFromWebsiteAndCallerGuidelinesWin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Acme</title>
<meta name="description" content="Acme makes widgets">
<style>body { font-family: 'Teacher Font', sans-serif; color: #336699; }</style>
</head><body><img src="/logo.png"/><a href="https://facebook.com/acme">FB</a></body></html>`))
	}))
	defer srv.Close()

	a := newTestAgent(t)
	out, err := a.handleOnboardBrand(context.Background(), &envelope.Message{Payload: map[string]any{
		"company_name": "Acme Co",
		"website_url":  srv.URL,
		"brand_guidelines": map[string]any{
			"fonts": []any{"Caller Font"},
		},
	}})
	require.NoError(t, err)
	brandID := out["brand_id"].(string)

	stored, err := a.brands.Get(context.Background(), brandID)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.Description)
	assert.Equal(t, []any{"Caller Font"}, stored.Guidelines["fonts"])
}

func TestHandleUploadBrandLogo_ReplacesOldLogoOnlyAfterRecordUpdate(t *testing.T) {
	a := newTestAgent(t)
	onboard, err := a.handleOnboardBrand(context.Background(), &envelope.Message{Payload: map[string]any{
		"company_name": "Acme Co",
	}})
	require.NoError(t, err)
	brandID := onboard["brand_id"].(string)

	first := base64.StdEncoding.EncodeToString([]byte("first-logo-bytes"))
	out1, err := a.handleUploadBrandLogo(context.Background(), &envelope.Message{Payload: map[string]any{
		"brand_id":    brandID,
		"filename":    "logo.png",
		"data_base64": first,
	}})
	require.NoError(t, err)
	firstURL := out1["logo_url"].(string)
	assert.Contains(t, firstURL, brandID)

	second := base64.StdEncoding.EncodeToString([]byte("second-logo-bytes"))
	out2, err := a.handleUploadBrandLogo(context.Background(), &envelope.Message{Payload: map[string]any{
		"brand_id":    brandID,
		"filename":    "logo2.png",
		"data_base64": second,
	}})
	require.NoError(t, err)
	secondURL := out2["logo_url"].(string)
	assert.NotEqual(t, firstURL, secondURL)

	stored, err := a.brands.Get(context.Background(), brandID)
	require.NoError(t, err)
	assert.Equal(t, secondURL, stored.LogoURL)
}

func TestHandleUploadBrandLogo_RejectsDisallowedExtension(t *testing.T) {
	a := newTestAgent(t)
	onboard, err := a.handleOnboardBrand(context.Background(), &envelope.Message{Payload: map[string]any{
		"company_name": "Acme Co",
	}})
	require.NoError(t, err)
	brandID := onboard["brand_id"].(string)

	data := base64.StdEncoding.EncodeToString([]byte("not-an-image"))
	_, err = a.handleUploadBrandLogo(context.Background(), &envelope.Message{Payload: map[string]any{
		"brand_id":    brandID,
		"filename":    "payload.exe",
		"data_base64": data,
	}})
	require.Error(t, err)
}

func TestHandleContentPublishedEvent_AdvancesProjectStatus(t *testing.T) {
	a := newTestAgent(t)
	onboard, err := a.handleOnboardBrand(context.Background(), &envelope.Message{Payload: map[string]any{
		"company_name": "Acme Co",
	}})
	require.NoError(t, err)
	brandID := onboard["brand_id"].(string)

	proj, err := a.handleCreateProject(context.Background(), &envelope.Message{Payload: map[string]any{
		"brand_id":     brandID,
		"project_type": "blog",
		"name":         "Launch post",
	}})
	require.NoError(t, err)
	projectID := proj["project_id"].(string)

	err = a.handleContentPublishedEvent(context.Background(), &envelope.Message{Payload: map[string]any{
		"project_id": projectID,
	}})
	require.NoError(t, err)

	stored, err := a.projects.Get(context.Background(), projectID)
	require.NoError(t, err)
	assert.Equal(t, ProjectStatusPublished, stored.Status)
}

func TestHandleGetProjectTypes_SeededDefaults(t *testing.T) {
	a := newTestAgent(t)
	out, err := a.handleGetProjectTypes(context.Background(), &envelope.Message{})
	require.NoError(t, err)
	types := out["project_types"].([]map[string]any)
	assert.NotEmpty(t, types)
}
