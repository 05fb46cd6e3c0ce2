package authintegration

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/umt-agenthub/core/internal/credentials"
	"github.com/umt-agenthub/core/internal/errkind"
)

// providerRefresher adapts one OAuthProviderConfig's refresh_token
// grant to credentials.Refresher, registered per platform with the
// RefreshCoordinator so both the background sweep and the integration
// adapters' inline 401 recovery share one code path.
type providerRefresher struct {
	cfg  OAuthProviderConfig
	http *http.Client
}

func (r *providerRefresher) Refresh(ctx context.Context, _ *credentials.Integration, refreshToken string) (credentials.RefreshResult, error) {
	form := url.Values{}
	form.Set("client_id", r.cfg.ClientID)
	form.Set("client_secret", r.cfg.ClientSecret)
	form.Set("refresh_token", refreshToken)
	form.Set("grant_type", "refresh_token")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return credentials.RefreshResult{}, errkind.Wrap(errkind.Internal, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := r.http.Do(req)
	if err != nil {
		return credentials.RefreshResult{}, errkind.Wrap(errkind.Transport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return credentials.RefreshResult{}, errkind.Wrap(errkind.Transport, err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return credentials.RefreshResult{}, errkind.New(errkind.AuthN, "refresh token rejected")
	}
	if resp.StatusCode >= 400 {
		return credentials.RefreshResult{}, errkind.Newf(errkind.Upstream, "refresh endpoint returned %d", resp.StatusCode)
	}

	var parsed struct {
		AccessToken  string      `json:"access_token"`
		RefreshToken string      `json:"refresh_token"`
		ExpiresIn    json.Number `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return credentials.RefreshResult{}, errkind.Wrap(errkind.Upstream, err)
	}
	expiresIn := int64(3600)
	if parsed.ExpiresIn != "" {
		if n, err := strconv.ParseInt(parsed.ExpiresIn.String(), 10, 64); err == nil {
			expiresIn = n
		}
	}
	return credentials.RefreshResult{
		AccessToken:  parsed.AccessToken,
		RefreshToken: parsed.RefreshToken,
		ExpiresAt:    time.Now().UTC().Add(time.Duration(expiresIn) * time.Second),
	}, nil
}
