package credentials

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/umt-agenthub/core/internal/errkind"
)

// RefreshResult is what a provider-specific token exchange returns.
type RefreshResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Refresher performs the provider-specific OAuth token exchange for
// one platform. Concrete implementations live with the integration
// adapters that know each provider's refresh endpoint.
type Refresher interface {
	Refresh(ctx context.Context, in *Integration, refreshToken string) (RefreshResult, error)
}

// RefreshCoordinator runs the auth agent's periodic refresh task:
// re-encrypts and persists a new token at expires_at−5min, and
// degrades/unhealths the integration on consecutive failures.
// golang.org/x/sync/singleflight coalesces concurrent refresh attempts
// for the same integration id — e.g. a background sweep and an inline
// 401-triggered refresh racing — so the provider's token endpoint sees
// at most one in-flight exchange per integration.
type RefreshCoordinator struct {
	store     *Store
	repo      Repository
	refreshers map[string]Refresher // keyed by platform, exactly as registered
	logger    *slog.Logger

	group singleflight.Group

	RefreshWindow time.Duration // default 5 * time.Minute
}

func NewRefreshCoordinator(store *Store, repo Repository, logger *slog.Logger) *RefreshCoordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &RefreshCoordinator{
		store:         store,
		repo:          repo,
		refreshers:    make(map[string]Refresher),
		logger:        logger,
		RefreshWindow: 5 * time.Minute,
	}
}

func (c *RefreshCoordinator) Register(platform string, r Refresher) {
	c.refreshers[platform] = r
}

// RefreshIfDue refreshes integrationID's token when it falls inside
// the refresh window, otherwise it's a no-op. Safe to call
// concurrently for the same id from both the periodic sweep and an
// inline 401 recovery path.
func (c *RefreshCoordinator) RefreshIfDue(ctx context.Context, integrationID string) error {
	in, err := c.repo.Get(ctx, integrationID)
	if err != nil {
		return err
	}
	if !in.NeedsRefresh(time.Now().UTC(), c.RefreshWindow) {
		return nil
	}
	return c.forceRefresh(ctx, in)
}

// ForceRefresh refreshes unconditionally — used by the inline
// 401-triggered recovery path regardless of
// token_expires_at.
func (c *RefreshCoordinator) ForceRefresh(ctx context.Context, integrationID string) error {
	in, err := c.repo.Get(ctx, integrationID)
	if err != nil {
		return err
	}
	return c.forceRefresh(ctx, in)
}

func (c *RefreshCoordinator) forceRefresh(ctx context.Context, in *Integration) error {
	_, err, _ := c.group.Do(in.IntegrationID, func() (any, error) {
		return nil, c.doRefresh(ctx, in)
	})
	return err
}

func (c *RefreshCoordinator) doRefresh(ctx context.Context, in *Integration) error {
	refresher, ok := c.refreshers[in.Platform]
	if !ok {
		return errkind.Newf(errkind.Internal, "credentials: no refresher registered for platform %q", in.Platform)
	}

	refreshField, ok := in.Credentials["refresh_token"]
	if !ok {
		return errkind.New(errkind.AuthN, "credentials: no refresh_token on record")
	}
	refreshToken, err := c.store.Open(refreshField)
	if err != nil {
		return fmt.Errorf("credentials: decrypt refresh_token: %w", err)
	}

	result, err := refresher.Refresh(ctx, in, refreshToken)
	if err != nil {
		return c.recordFailure(ctx, in, err)
	}

	sealedAccess, err := c.store.Seal(result.AccessToken)
	if err != nil {
		return err
	}
	in.Credentials["access_token"] = sealedAccess
	if result.RefreshToken != "" {
		sealedRefresh, err := c.store.Seal(result.RefreshToken)
		if err != nil {
			return err
		}
		in.Credentials["refresh_token"] = sealedRefresh
	}
	expiresAt := result.ExpiresAt
	in.TokenExpiresAt = &expiresAt
	in.ConsecutiveFailures = 0
	if in.HealthStatus != HealthHealthy {
		in.HealthStatus = HealthHealthy
	}
	in.UpdatedAt = time.Now().UTC()

	if err := c.repo.Update(ctx, in); err != nil {
		return fmt.Errorf("credentials: persist refreshed token: %w", err)
	}
	c.logger.InfoContext(ctx, "token refreshed", "integration_id", in.IntegrationID, "platform", in.Platform)
	return nil
}

// recordFailure implements this module's degrade/unhealthy escalation:
// first failure degrades, a second consecutive failure marks
// unhealthy (the caller, typically the auth agent's background
// timer, is responsible for emitting integration.error on that
// transition).
func (c *RefreshCoordinator) recordFailure(ctx context.Context, in *Integration, cause error) error {
	in.ConsecutiveFailures++
	if in.ConsecutiveFailures >= 2 {
		in.HealthStatus = HealthUnhealthy
	} else {
		in.HealthStatus = HealthDegraded
	}
	in.UpdatedAt = time.Now().UTC()
	if err := c.repo.Update(ctx, in); err != nil {
		c.logger.ErrorContext(ctx, "failed to persist refresh failure", "integration_id", in.IntegrationID, "error", err)
	}
	return fmt.Errorf("credentials: refresh failed for %s/%s: %w", in.BrandID, in.Platform, cause)
}
