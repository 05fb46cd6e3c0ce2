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

	"github.com/umt-agenthub/core/internal/errkind"
)

// buildAuthorizationURL builds the provider's authorization-code URL:
// response_type=code, client_id, redirect_uri, a space-joined scope,
// and state.
func buildAuthorizationURL(cfg OAuthProviderConfig, redirectURI, state string, scope []string) string {
	if len(scope) == 0 {
		scope = cfg.Scopes
	}
	q := url.Values{}
	q.Set("client_id", cfg.ClientID)
	q.Set("redirect_uri", redirectURI)
	q.Set("response_type", "code")
	q.Set("scope", strings.Join(scope, " "))
	if state != "" {
		q.Set("state", state)
	}
	return cfg.AuthURL + "?" + q.Encode()
}

// tokenExchangeResult is the provider token-endpoint response shape
// common across the three providers this registry supports.
type tokenExchangeResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// exchangeAuthCode performs the authorization_code grant against
// cfg.TokenURL.
func exchangeAuthCode(ctx context.Context, httpClient *http.Client, cfg OAuthProviderConfig, authCode, redirectURI string) (tokenExchangeResult, error) {
	form := url.Values{}
	form.Set("client_id", cfg.ClientID)
	form.Set("client_secret", cfg.ClientSecret)
	form.Set("code", authCode)
	form.Set("redirect_uri", redirectURI)
	form.Set("grant_type", "authorization_code")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return tokenExchangeResult{}, errkind.Wrap(errkind.Internal, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return tokenExchangeResult{}, errkind.Wrap(errkind.Transport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return tokenExchangeResult{}, errkind.Wrap(errkind.Transport, err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return tokenExchangeResult{}, errkind.New(errkind.AuthN, "token endpoint rejected authorization code")
	}
	if resp.StatusCode >= 400 {
		return tokenExchangeResult{}, errkind.Newf(errkind.Upstream, "token endpoint returned %d", resp.StatusCode)
	}

	var parsed struct {
		AccessToken  string      `json:"access_token"`
		RefreshToken string      `json:"refresh_token"`
		ExpiresIn    json.Number `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return tokenExchangeResult{}, errkind.Wrap(errkind.Upstream, err)
	}
	expiresIn := int64(3600)
	if parsed.ExpiresIn != "" {
		if n, err := strconv.ParseInt(parsed.ExpiresIn.String(), 10, 64); err == nil {
			expiresIn = n
		}
	}
	return tokenExchangeResult{
		AccessToken:  parsed.AccessToken,
		RefreshToken: parsed.RefreshToken,
		ExpiresAt:    time.Now().UTC().Add(time.Duration(expiresIn) * time.Second),
	}, nil
}
