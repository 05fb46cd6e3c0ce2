package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	retryablehttp "github.com/hashicorp/go-retryablehttp"

	"github.com/umt-agenthub/core/internal/errkind"
)

// categoryBackoff is the per-category base retry delay: 30/60/120s
// base by category. Advertising APIs (Facebook/Google Ads) throttle
// hardest, so they get the longest base.
var categoryBackoff = map[Category]time.Duration{
	CategoryCMS:         30 * time.Second,
	CategorySocial:      60 * time.Second,
	CategoryAdvertising: 120 * time.Second,
}

// AuthRefreshFunc performs the one in-line token refresh an Adapter
// allows on a 401/invalid-token response. It returns the new access
// token to retry the call with.
type AuthRefreshFunc func(ctx context.Context) (accessToken string, err error)

// Client wraps hashicorp/go-retryablehttp with the category's backoff
// schedule, a 10s per-call timeout, and this package's retry/4xx/401
// classification. One Client is built per Adapter instance.
type Client struct {
	http        *retryablehttp.Client
	plain       *http.Client // no retry: used for health checks, which need one fast answer
	baseURL     string
	accessToken string
	onAuthRetry AuthRefreshFunc
}

func NewClient(category Category, baseURL, accessToken string, onAuthRetry AuthRefreshFunc, logger *slog.Logger) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.HTTPClient.Timeout = 10 * time.Second
	base := categoryBackoff[category]
	if base == 0 {
		base = 30 * time.Second
	}
	rc.Backoff = func(_, _ time.Duration, attemptNum int, _ *http.Response) time.Duration {
		// attemptNum is 0-indexed: base, 2*base, 4*base.
		return base * time.Duration(1<<uint(attemptNum))
	}
	rc.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if err != nil {
			return true, nil
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return true, nil
		}
		return false, nil
	}
	if logger != nil {
		rc.Logger = slogAdapter{logger}
	} else {
		rc.Logger = nil
	}
	return &Client{
		http:        rc,
		plain:       &http.Client{Timeout: 10 * time.Second},
		baseURL:     baseURL,
		accessToken: accessToken,
		onAuthRetry: onAuthRetry,
	}
}

// slogAdapter satisfies retryablehttp.LeveledLogger on top of slog,
// since go-retryablehttp predates slog and ships its own minimal
// logger interface.
type slogAdapter struct{ l *slog.Logger }

func (s slogAdapter) Error(msg string, kv ...any) { s.l.Error(msg, kv...) }
func (s slogAdapter) Info(msg string, kv ...any)  { s.l.Info(msg, kv...) }
func (s slogAdapter) Debug(msg string, kv ...any) { s.l.Debug(msg, kv...) }
func (s slogAdapter) Warn(msg string, kv ...any)  { s.l.Warn(msg, kv...) }

// Do issues a JSON request at path, decoding a JSON response into out
// (nil to discard the body). On 401 it performs the single in-line
// refresh the caller's AuthRefreshFunc allows and retries exactly
// once with the new token.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) (*http.Response, error) {
	resp, err := c.doOnce(ctx, method, path, body, out)
	if err != nil {
		return resp, err
	}
	if resp.StatusCode == http.StatusUnauthorized && c.onAuthRetry != nil {
		newToken, rerr := c.onAuthRetry(ctx)
		if rerr != nil {
			return resp, errkind.Wrap(errkind.AuthN, rerr)
		}
		c.accessToken = newToken
		resp, err = c.doOnce(ctx, method, path, body, out)
		if err != nil {
			return resp, err
		}
	}
	return resp, classifyStatus(resp.StatusCode)
}

// doOnce performs one (possibly internally retried-on-5xx/429 by
// go-retryablehttp) round trip and reports only transport-level or
// decode failures; HTTP status classification is the caller's job so
// a 401 can still be inspected for the auth-retry path.
func (c *Client) doOnce(ctx context.Context, method, path string, body, out any) (*http.Response, error) {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, errkind.Wrap(errkind.Internal, err)
		}
		rdr = bytes.NewReader(b)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return nil, errkind.Wrap(errkind.Transport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errkind.Wrap(errkind.Transport, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		if derr := json.NewDecoder(resp.Body).Decode(out); derr != nil && derr != io.EOF {
			return resp, errkind.Wrap(errkind.Upstream, derr)
		}
	}
	return resp, nil
}

func classifyStatus(code int) error {
	switch {
	case code < 300:
		return nil
	case code == http.StatusUnauthorized:
		return errkind.New(errkind.AuthN, "invalid or expired token").WithMeta("auth_error", true)
	case code == http.StatusTooManyRequests || code >= 500:
		return errkind.Newf(errkind.Upstream, "upstream returned %d", code)
	default:
		return errkind.Newf(errkind.Validation, "upstream rejected request: %d", code)
	}
}

// HealthCheck issues a single, non-retried GET to path and maps the
// response's verdict table. Health checks never use
// the retry/backoff schedule: a degraded/unhealthy verdict is itself
// the useful signal, not something to mask behind retries.
func (c *Client) HealthCheck(ctx context.Context, path string) (HealthVerdict, error) {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return HealthVerdict{}, errkind.Wrap(errkind.Internal, err)
	}
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}
	resp, err := c.plain.Do(req)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		return HealthVerdict{Status: "unhealthy", ResponseTimeMS: elapsed, Details: err.Error()}, nil
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode < 300:
		return HealthVerdict{Status: "healthy", ResponseTimeMS: elapsed}, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return HealthVerdict{Status: "unhealthy", ResponseTimeMS: elapsed, AuthError: true, Details: fmt.Sprintf("HTTP %d", resp.StatusCode)}, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return HealthVerdict{Status: "degraded", ResponseTimeMS: elapsed, Details: fmt.Sprintf("HTTP %d", resp.StatusCode)}, nil
	default:
		return HealthVerdict{Status: "unhealthy", ResponseTimeMS: elapsed, Details: fmt.Sprintf("HTTP %d", resp.StatusCode)}, nil
	}
}
