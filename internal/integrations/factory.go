package integrations

import (
	"log/slog"
	"strings"

	"github.com/umt-agenthub/core/internal/errkind"
)

// Credentials is the decrypted field map an adapter needs, already
// opened by credentials.Store.OpenFields at the call boundary — this
// package never sees ciphertext.
type Credentials map[string]string

// NewAdapter selects an Adapter implementation by platform string
// (case-insensitive). onAuthRetry lets the runtime wire
// the credentials.RefreshCoordinator's ForceRefresh into the
// adapter's single in-line 401 recovery.
func NewAdapter(platform string, creds Credentials, onAuthRetry AuthRefreshFunc, logger *slog.Logger) (Adapter, error) {
	switch strings.ToLower(platform) {
	case "wordpress":
		return newWordPress(creds, onAuthRetry, logger), nil
	case "shopify":
		return newShopify(creds, onAuthRetry, logger), nil
	case "linkedin":
		return newLinkedIn(creds, onAuthRetry, logger), nil
	case "twitter":
		return newTwitter(creds, onAuthRetry, logger), nil
	case "facebook":
		return newFacebook(creds, onAuthRetry, logger), nil
	case "instagram":
		return newInstagram(creds, onAuthRetry, logger), nil
	case "facebook_ads":
		return newFacebookAds(creds, onAuthRetry, logger), nil
	case "google_ads":
		return newGoogleAds(creds, onAuthRetry, logger), nil
	default:
		return nil, errkind.Newf(errkind.Validation, "integrations: unknown platform %q", platform)
	}
}

func accessToken(c Credentials) string {
	return c["access_token"]
}

func baseURLOr(c Credentials, key, fallback string) string {
	if v, ok := c[key]; ok && v != "" {
		return v
	}
	return fallback
}
