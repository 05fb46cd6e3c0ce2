// Package authintegration implements the Auth & Integration agent
// (OAuth login/token exchange, per-(brand,
// platform) integration setup, health monitoring, and token refresh).
package authintegration

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/umt-agenthub/core/internal/audit"
	"github.com/umt-agenthub/core/internal/broker"
	"github.com/umt-agenthub/core/internal/credentials"
	"github.com/umt-agenthub/core/internal/integrations"
	"github.com/umt-agenthub/core/internal/keyedmutex"
	"github.com/umt-agenthub/core/internal/runtime"
	"github.com/umt-agenthub/core/internal/webhooks"
)

const AgentID = "auth_integration"

// DefaultHealthCheckInterval is the background sweep period (default
// 3600s).
const DefaultHealthCheckInterval = time.Hour

// DefaultTokenRefreshInterval is the proactive refresh sweep period:
// frequent enough that no token sits inside its
// credentials.RefreshCoordinator.RefreshWindow (5 min) for long
// before being renewed.
const DefaultTokenRefreshInterval = time.Minute

// Agent is a thin handler registry over runtime.BaseAgent, one of
// five such registries built on the shared runtime.
type Agent struct {
	*runtime.BaseAgent

	store     *credentials.Store
	repo      credentials.Repository
	refresh   *credentials.RefreshCoordinator
	webhook   *webhooks.Dispatcher
	auditLog  audit.Log
	locks     *keyedmutex.Map
	providers map[string]OAuthProviderConfig
	http      *http.Client

	healthCheckInterval  time.Duration
	tokenRefreshInterval time.Duration
}

// Deps bundles authintegration's external collaborators.
type Deps struct {
	Store                *credentials.Store
	Repo                 credentials.Repository
	Refresh              *credentials.RefreshCoordinator
	Webhook              *webhooks.Dispatcher
	AuditLog             audit.Log
	Providers            map[string]OAuthProviderConfig
	HealthCheckInterval  time.Duration
	TokenRefreshInterval time.Duration
}

func New(cfg runtime.Config, b broker.Broker, logger *slog.Logger, deps Deps) (*Agent, error) {
	cfg.AgentID = AgentID
	base, err := runtime.New(cfg, b, logger)
	if err != nil {
		return nil, err
	}
	if deps.Providers == nil {
		deps.Providers = DefaultProviders()
	}
	if deps.HealthCheckInterval <= 0 {
		deps.HealthCheckInterval = DefaultHealthCheckInterval
	}
	if deps.TokenRefreshInterval <= 0 {
		deps.TokenRefreshInterval = DefaultTokenRefreshInterval
	}

	a := &Agent{
		BaseAgent:            base,
		store:                deps.Store,
		repo:                 deps.Repo,
		refresh:              deps.Refresh,
		webhook:              deps.Webhook,
		auditLog:             deps.AuditLog,
		locks:                keyedmutex.New(),
		providers:            deps.Providers,
		http:                 &http.Client{Timeout: 15 * time.Second},
		healthCheckInterval:  deps.HealthCheckInterval,
		tokenRefreshInterval: deps.TokenRefreshInterval,
	}

	for platform, cfg := range a.providers {
		a.refresh.Register(platform, &providerRefresher{cfg: cfg, http: a.http})
	}

	a.registerHandlers()
	a.RegisterTimer(a.healthCheckInterval, a.sweepHealth)
	a.RegisterTimer(a.tokenRefreshInterval, a.sweepTokenRefresh)
	return a, nil
}

func (a *Agent) registerHandlers() {
	a.MustRegisterTask("authenticate_user", a.handleAuthenticateUser)
	a.MustRegisterTask("create_oauth_url", a.handleCreateOAuthURL)
	a.MustRegisterTask("setup_platform_integration", a.handleSetupPlatformIntegration)
	a.MustRegisterTask("refresh_oauth_token", a.handleRefreshOAuthToken)
	a.MustRegisterTask("check_integration_health", a.handleCheckIntegrationHealth)
	a.MustRegisterTask("get_integration_status", a.handleGetIntegrationStatus)
	a.MustRegisterTask("disconnect_integration", a.handleDisconnectIntegration)
	a.RegisterEvent("integration_failure", a.handleIntegrationFailureEvent)
}

// newAdapter opens in's credentials and builds the matching
// integrations.Adapter, wiring its inline 401 recovery to the refresh
// coordinator.
func (a *Agent) newAdapter(ctx context.Context, in *credentials.Integration) (integrations.Adapter, error) {
	opened, err := a.store.OpenFields(in.Credentials)
	if err != nil {
		return nil, err
	}
	return integrations.NewAdapter(in.Platform, integrations.Credentials(opened), a.authRefreshFunc(in.IntegrationID), a.Logger())
}

// authRefreshFunc returns an integrations.AuthRefreshFunc that forces a
// coordinated refresh and hands back the newly sealed access token.
func (a *Agent) authRefreshFunc(integrationID string) integrations.AuthRefreshFunc {
	return func(ctx context.Context) (string, error) {
		if err := a.refresh.ForceRefresh(ctx, integrationID); err != nil {
			return "", err
		}
		in, err := a.repo.Get(ctx, integrationID)
		if err != nil {
			return "", err
		}
		tok, err := a.store.Open(in.Credentials["access_token"])
		if err != nil {
			return "", err
		}
		return tok, nil
	}
}
