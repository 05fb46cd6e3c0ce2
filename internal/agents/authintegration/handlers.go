package authintegration

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/umt-agenthub/core/internal/agents/support"
	"github.com/umt-agenthub/core/internal/audit"
	"github.com/umt-agenthub/core/internal/credentials"
	"github.com/umt-agenthub/core/internal/envelope"
	"github.com/umt-agenthub/core/internal/errkind"
)

func (a *Agent) provider(name string) (OAuthProviderConfig, error) {
	cfg, ok := a.providers[name]
	if !ok {
		return OAuthProviderConfig{}, errkind.Newf(errkind.Validation, "unknown oauth provider %q", name)
	}
	return cfg, nil
}

// handleAuthenticateUser performs the authorization_code exchange.
func (a *Agent) handleAuthenticateUser(ctx context.Context, msg *envelope.Message) (map[string]any, error) {
	providerName, err := support.StringField(msg.Payload, "provider")
	if err != nil {
		return nil, err
	}
	authCode, err := support.StringField(msg.Payload, "auth_code")
	if err != nil {
		return nil, err
	}
	redirectURI, err := support.StringField(msg.Payload, "redirect_uri")
	if err != nil {
		return nil, err
	}
	cfg, err := a.provider(providerName)
	if err != nil {
		return nil, err
	}

	result, err := exchangeAuthCode(ctx, a.http, cfg, authCode, redirectURI)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"access_token":  result.AccessToken,
		"refresh_token": result.RefreshToken,
		"expires_at":    result.ExpiresAt.Format(time.RFC3339),
	}, nil
}

// handleCreateOAuthURL builds the provider's authorization URL.
func (a *Agent) handleCreateOAuthURL(_ context.Context, msg *envelope.Message) (map[string]any, error) {
	providerName, err := support.StringField(msg.Payload, "provider")
	if err != nil {
		return nil, err
	}
	redirectURI, err := support.StringField(msg.Payload, "redirect_uri")
	if err != nil {
		return nil, err
	}
	cfg, err := a.provider(providerName)
	if err != nil {
		return nil, err
	}
	state := support.OptString(msg.Payload, "state", "")
	scope := support.StringSlice(msg.Payload, "scope")

	return map[string]any{"oauth_url": buildAuthorizationURL(cfg, redirectURI, state, scope)}, nil
}

// handleSetupPlatformIntegration creates a new Integration record
// from caller-supplied credentials, serialized per (brand_id,
// platform) against concurrent health checks.
func (a *Agent) handleSetupPlatformIntegration(ctx context.Context, msg *envelope.Message) (map[string]any, error) {
	platform, err := support.StringField(msg.Payload, "platform")
	if err != nil {
		return nil, err
	}
	brandID, err := support.StringField(msg.Payload, "brand_id")
	if err != nil {
		return nil, err
	}
	userID := support.OptString(msg.Payload, "user_id", "")
	plainCreds := support.StringMap(msg.Payload, "credentials")
	if len(plainCreds) == 0 {
		return nil, errkind.New(errkind.Validation, "missing required field \"credentials\"")
	}

	unlock := a.locks.Lock(a.locks.Key(brandID, platform))
	defer unlock()

	sealed, err := a.store.SealFields(plainCreds)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	in := &credentials.Integration{
		IntegrationID: uuid.NewString(),
		BrandID:       brandID,
		Platform:      platform,
		Category:      categoryFor(platform),
		Credentials:   sealed,
		HealthStatus:  credentials.HealthPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := a.repo.Create(ctx, in); err != nil {
		return nil, err
	}

	a.record(ctx, brandID, userID, "integration.setup", "integration", in.IntegrationID, map[string]any{"platform": platform})

	// Run an initial health check best-effort; failure here doesn't
	// fail setup, it just leaves the record pending.
	go a.checkOne(context.Background(), in.IntegrationID)

	return map[string]any{"integration_id": in.IntegrationID, "status": string(in.HealthStatus)}, nil
}

// handleRefreshOAuthToken forces a refresh for integration_id.
func (a *Agent) handleRefreshOAuthToken(ctx context.Context, msg *envelope.Message) (map[string]any, error) {
	integrationID, err := support.StringField(msg.Payload, "integration_id")
	if err != nil {
		return nil, err
	}
	if err := a.refresh.ForceRefresh(ctx, integrationID); err != nil {
		return nil, err
	}
	a.record(ctx, "", support.OptString(msg.Payload, "user_id", ""), "integration.refresh", "integration", integrationID, nil)
	return map[string]any{"integration_id": integrationID, "status": "refreshed"}, nil
}

// handleCheckIntegrationHealth runs CheckHealth for one integration or
// all of them.
func (a *Agent) handleCheckIntegrationHealth(ctx context.Context, msg *envelope.Message) (map[string]any, error) {
	if integrationID := support.OptString(msg.Payload, "integration_id", ""); integrationID != "" {
		verdict, err := a.checkOne(ctx, integrationID)
		if err != nil {
			return nil, err
		}
		return map[string]any{"integration_id": integrationID, "status": verdict}, nil
	}

	checked, err := a.sweepHealthSync(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{"checked": checked}, nil
}

// handleGetIntegrationStatus is a read-only lookup.
func (a *Agent) handleGetIntegrationStatus(ctx context.Context, msg *envelope.Message) (map[string]any, error) {
	if integrationID := support.OptString(msg.Payload, "integration_id", ""); integrationID != "" {
		in, err := a.repo.Get(ctx, integrationID)
		if err != nil {
			return nil, err
		}
		return map[string]any{"integrations": []map[string]any{summarize(in)}}, nil
	}
	if brandID := support.OptString(msg.Payload, "brand_id", ""); brandID != "" {
		ins, err := a.repo.ListByBrand(ctx, brandID)
		if err != nil {
			return nil, err
		}
		return map[string]any{"integrations": summarizeAll(ins)}, nil
	}
	ins, err := a.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{"integrations": summarizeAll(ins)}, nil
}

// handleDisconnectIntegration removes an integration: best-effort
// adapter Delete, then the record is removed regardless.
func (a *Agent) handleDisconnectIntegration(ctx context.Context, msg *envelope.Message) (map[string]any, error) {
	integrationID, err := support.StringField(msg.Payload, "integration_id")
	if err != nil {
		return nil, err
	}
	in, err := a.repo.Get(ctx, integrationID)
	if err != nil {
		return nil, err
	}

	unlock := a.locks.Lock(a.locks.Key(in.BrandID, in.Platform))
	defer unlock()

	if adapter, aerr := a.newAdapter(ctx, in); aerr == nil {
		_, _ = adapter.Delete(ctx, integrationID)
	}
	if err := a.repo.Delete(ctx, integrationID); err != nil {
		return nil, err
	}
	a.record(ctx, in.BrandID, support.OptString(msg.Payload, "user_id", ""), "integration.disconnect", "integration", integrationID, nil)
	return map[string]any{"integration_id": integrationID, "status": "disconnected"}, nil
}

// handleIntegrationFailureEvent attempts one automatic repair, then
// emits a user-visible notification if it didn't work.
func (a *Agent) handleIntegrationFailureEvent(ctx context.Context, msg *envelope.Message) error {
	integrationID := support.OptString(msg.Payload, "integration_id", "")
	if integrationID == "" {
		return nil
	}
	in, err := a.repo.Get(ctx, integrationID)
	if err != nil {
		return err
	}

	repaired := false
	if _, hasRefresh := in.Credentials["refresh_token"]; hasRefresh {
		if err := a.refresh.ForceRefresh(ctx, integrationID); err == nil {
			repaired = true
		}
	}
	if !repaired {
		support.FireWebhook(a.webhook, in.BrandID, "integration.notification", map[string]any{
			"integration_id": integrationID,
			"platform":       in.Platform,
			"message":        "integration requires manual reconnection",
		})
	}
	return nil
}

// sweepHealth is the background timer body (every
// health_check_interval, iterate all integrations).
func (a *Agent) sweepHealth(ctx context.Context) {
	if _, err := a.sweepHealthSync(ctx); err != nil {
		a.Logger().ErrorContext(ctx, "integration health sweep failed", "error", err)
	}
}

// sweepTokenRefresh is the background timer body for the proactive
// refresh contract: every integration with a token_expires_at gets a
// RefreshIfDue call, which is a no-op outside the refresh window.
func (a *Agent) sweepTokenRefresh(ctx context.Context) {
	ins, err := a.repo.ListAll(ctx)
	if err != nil {
		a.Logger().ErrorContext(ctx, "token refresh sweep: list integrations failed", "error", err)
		return
	}
	for _, in := range ins {
		if in.TokenExpiresAt == nil {
			continue
		}
		if err := a.refresh.RefreshIfDue(ctx, in.IntegrationID); err != nil {
			a.Logger().ErrorContext(ctx, "proactive token refresh failed", "integration_id", in.IntegrationID, "error", err)
		}
	}
}

func (a *Agent) sweepHealthSync(ctx context.Context) (int, error) {
	ins, err := a.repo.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	for _, in := range ins {
		if _, err := a.checkOne(ctx, in.IntegrationID); err != nil {
			a.Logger().ErrorContext(ctx, "health check failed", "integration_id", in.IntegrationID, "error", err)
		}
	}
	return len(ins), nil
}

// checkOne runs one adapter CheckHealth, persists the transition, and
// on a transition into unhealthy emits integration.failure and
// attempts the one in-line repair available.
func (a *Agent) checkOne(ctx context.Context, integrationID string) (string, error) {
	in, err := a.repo.Get(ctx, integrationID)
	if err != nil {
		return "", err
	}
	unlock := a.locks.Lock(a.locks.Key(in.BrandID, in.Platform))
	defer unlock()

	adapter, err := a.newAdapter(ctx, in)
	if err != nil {
		return "", err
	}
	verdict, err := adapter.CheckHealth(ctx)
	if err != nil {
		return "", err
	}

	wasHealthy := in.HealthStatus == credentials.HealthHealthy || in.HealthStatus == credentials.HealthPending
	switch verdict.Status {
	case "healthy":
		in.HealthStatus = credentials.HealthHealthy
		in.ConsecutiveFailures = 0
	case "degraded":
		in.HealthStatus = credentials.HealthDegraded
		in.ConsecutiveFailures++
	default:
		in.HealthStatus = credentials.HealthUnhealthy
		in.ConsecutiveFailures++
	}
	in.LastHealthCheck = time.Now().UTC()
	in.UpdatedAt = in.LastHealthCheck
	if err := a.repo.Update(ctx, in); err != nil {
		return "", err
	}

	if wasHealthy && in.HealthStatus == credentials.HealthUnhealthy {
		if verdict.AuthError {
			if rerr := a.refresh.ForceRefresh(ctx, integrationID); rerr == nil {
				in.HealthStatus = credentials.HealthHealthy
				in.ConsecutiveFailures = 0
				_ = a.repo.Update(ctx, in)
				return string(in.HealthStatus), nil
			}
		}
		support.FireWebhook(a.webhook, in.BrandID, "integration.failure", map[string]any{
			"integration_id": integrationID,
			"platform":       in.Platform,
			"details":        verdict.Details,
		})
	}
	return string(in.HealthStatus), nil
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

func categoryFor(platform string) credentials.Category {
	switch platform {
	case "wordpress", "shopify":
		return credentials.CategoryCMS
	case "facebook_ads", "google_ads":
		return credentials.CategoryAdvertising
	default:
		return credentials.CategorySocial
	}
}

func summarize(in *credentials.Integration) map[string]any {
	return map[string]any{
		"integration_id":    in.IntegrationID,
		"brand_id":          in.BrandID,
		"platform":          in.Platform,
		"category":          string(in.Category),
		"health_status":     string(in.HealthStatus),
		"last_health_check": in.LastHealthCheck,
	}
}

func summarizeAll(ins []*credentials.Integration) []map[string]any {
	out := make([]map[string]any, 0, len(ins))
	for _, in := range ins {
		out = append(out, summarize(in))
	}
	return out
}
