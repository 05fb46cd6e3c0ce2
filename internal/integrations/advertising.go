package integrations

import "log/slog"

// newFacebookAds targets the Marketing API's ad creative/campaign
// resources. Advertising adapters never "publish content" in the
// editorial sense; Publish here creates an ad creative from Content,
// folded into the same verb the other categories use.
func newFacebookAds(creds Credentials, onAuthRetry AuthRefreshFunc, logger *slog.Logger) *restAdapter {
	base := baseURLOr(creds, "api_base_url", "https://graph.facebook.com/v19.0")
	accountID := creds["ad_account_id"]
	return &restAdapter{
		platform:    "facebook_ads",
		category:    CategoryAdvertising,
		client:      NewClient(CategoryAdvertising, base, accessToken(creds), onAuthRetry, logger),
		healthPath:  "/act_" + accountID,
		publishPath: "/act_" + accountID + "/adcreatives",
		support:     verbSupport{schedule: true, update: true, fetch: true, delete: true},
		buildPublishBody: func(c Content) any {
			return map[string]any{
				"name": c.Title,
				"object_story_spec": map[string]any{
					"page_id": creds["page_id"],
					"link_data": map[string]any{
						"message": c.Body,
					},
				},
			}
		},
	}
}

// newGoogleAds authenticates with NewClient's bearer-token auth on the
// OAuth access token only. The developer_token, client_id and
// client_secret credential fields are not read, and no developer-token
// header is sent.
func newGoogleAds(creds Credentials, onAuthRetry AuthRefreshFunc, logger *slog.Logger) *restAdapter {
	base := baseURLOr(creds, "api_base_url", "https://googleads.googleapis.com/v17")
	customerID := creds["customer_id"]
	return &restAdapter{
		platform:    "google_ads",
		category:    CategoryAdvertising,
		client:      NewClient(CategoryAdvertising, base, accessToken(creds), onAuthRetry, logger),
		healthPath:  "/customers/" + customerID,
		publishPath: "/customers/" + customerID + "/campaigns:mutate",
		support:     verbSupport{schedule: false, update: true, fetch: true, delete: false},
		buildPublishBody: func(c Content) any {
			return map[string]any{
				"operations": []any{
					map[string]any{"create": map[string]any{"name": c.Title}},
				},
			}
		},
	}
}
