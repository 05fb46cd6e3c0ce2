package adcontent

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/umt-agenthub/core/internal/errkind"
	"github.com/umt-agenthub/core/internal/integrations"
)

// platformDefaultDelay holds per-platform best-practice publish-time
// defaults when the caller gives no scheduling preference for a
// platform.
var platformDefaultDelay = map[string]time.Duration{
	"linkedin":  time.Hour,
	"facebook":  3 * time.Hour,
	"instagram": 3 * time.Hour,
	"twitter":   30 * time.Minute,
}

func determinePublishTime(platform string, schedulingPreferences map[string]any, now time.Time) time.Time {
	if prefs, ok := schedulingPreferences[platform].(map[string]any); ok {
		if ts, ok := prefs["at"].(string); ok && ts != "" {
			if t, err := time.Parse(time.RFC3339, ts); err == nil {
				return t
			}
		}
	}
	if delay, ok := platformDefaultDelay[strings.ToLower(platform)]; ok {
		return now.Add(delay)
	}
	return now
}

// PublishContent resolves an adapter per platform and publishes (or
// schedules, if the resolved time is in the future) in parallel.
// Per-platform failure never aborts sibling platforms;
// the caller derives overall status from the per-platform results.
func PublishContent(ctx context.Context, resolve func(platform string) (integrations.Adapter, error), content integrations.Content, platforms []string, schedulingPreferences map[string]any) []PlatformPublishResult {
	results := make([]PlatformPublishResult, len(platforms))
	now := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	for i, platform := range platforms {
		i, platform := i, platform
		g.Go(func() error {
			adapter, err := resolve(platform)
			if err != nil {
				results[i] = PlatformPublishResult{Platform: platform, Status: "error", Error: err.Error(), AuthError: isAuthError(err)}
				return nil
			}
			when := determinePublishTime(platform, schedulingPreferences, now)

			var result integrations.Result
			if when.After(now) {
				result, err = adapter.Schedule(gctx, content, when)
			} else {
				result, err = adapter.Publish(gctx, content)
			}
			if err != nil {
				results[i] = PlatformPublishResult{Platform: platform, Status: "error", Error: err.Error(), AuthError: isAuthError(err)}
				return nil
			}
			results[i] = PlatformPublishResult{Platform: platform, Status: result.Status, URL: result.URL}
			if result.Status != "success" {
				results[i].Error = result.Detail
			}
			return nil
		})
	}
	// errgroup.Group.Go never returns an error here (each goroutine
	// swallows its own failure into the per-platform result), so Wait
	// only blocks until all platforms finish.
	_ = g.Wait()

	return results
}

// isAuthError reports whether err is an errkind.Error carrying
// auth_error=true (classifyStatus's marker for a 401 response),
// surfaced on the result so a caller can distinguish "needs
// reconnection" from any other publish failure.
func isAuthError(err error) bool {
	ke, ok := errkind.As(err)
	if !ok {
		return false
	}
	v, _ := ke.Meta["auth_error"].(bool)
	return v
}

// OverallStatus reduces per-platform results to this module's
// aggregate: "success" only if every platform succeeded, else
// "partial".
func OverallStatus(results []PlatformPublishResult) string {
	for _, r := range results {
		if r.Status != "success" {
			return "partial"
		}
	}
	return "success"
}
