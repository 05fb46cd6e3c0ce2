package integrations

import "log/slog"

// newLinkedIn posts to the UGC posts endpoint. This adapter publishes,
// fetches status and deletes; it does not update or schedule posts.
func newLinkedIn(creds Credentials, onAuthRetry AuthRefreshFunc, logger *slog.Logger) *restAdapter {
	base := baseURLOr(creds, "api_base_url", "https://api.linkedin.com")
	return &restAdapter{
		platform:    "linkedin",
		category:    CategorySocial,
		client:      NewClient(CategorySocial, base, accessToken(creds), onAuthRetry, logger),
		healthPath:  "/v2/me",
		publishPath: "/v2/ugcPosts",
		support:     verbSupport{schedule: false, update: false, fetch: true, delete: true},
		buildPublishBody: func(c Content) any {
			return map[string]any{
				"commentary": c.Body,
				"media":      c.Media,
			}
		},
	}
}

func newTwitter(creds Credentials, onAuthRetry AuthRefreshFunc, logger *slog.Logger) *restAdapter {
	base := baseURLOr(creds, "api_base_url", "https://api.twitter.com")
	return &restAdapter{
		platform:    "twitter",
		category:    CategorySocial,
		client:      NewClient(CategorySocial, base, accessToken(creds), onAuthRetry, logger),
		healthPath:  "/2/users/me",
		publishPath: "/2/tweets",
		support:     verbSupport{schedule: false, update: false, fetch: true, delete: true},
		buildPublishBody: func(c Content) any {
			return map[string]any{"text": c.Body}
		},
	}
}

func newFacebook(creds Credentials, onAuthRetry AuthRefreshFunc, logger *slog.Logger) *restAdapter {
	base := baseURLOr(creds, "api_base_url", "https://graph.facebook.com/v19.0")
	pageID := creds["page_id"]
	return &restAdapter{
		platform:    "facebook",
		category:    CategorySocial,
		client:      NewClient(CategorySocial, base, accessToken(creds), onAuthRetry, logger),
		healthPath:  "/" + pageID,
		publishPath: "/" + pageID + "/feed",
		support:     verbSupport{schedule: true, update: true, fetch: true, delete: true},
		buildPublishBody: func(c Content) any {
			return map[string]any{"message": c.Body}
		},
	}
}

func newInstagram(creds Credentials, onAuthRetry AuthRefreshFunc, logger *slog.Logger) *restAdapter {
	base := baseURLOr(creds, "api_base_url", "https://graph.facebook.com/v19.0")
	accountID := creds["ig_user_id"]
	return &restAdapter{
		platform:    "instagram",
		category:    CategorySocial,
		client:      NewClient(CategorySocial, base, accessToken(creds), onAuthRetry, logger),
		healthPath:  "/" + accountID,
		publishPath: "/" + accountID + "/media",
		support:     verbSupport{schedule: false, update: false, fetch: true, delete: true},
		buildPublishBody: func(c Content) any {
			body := map[string]any{"caption": c.Body}
			if len(c.Media) > 0 {
				body["image_url"] = c.Media[0]
			}
			return body
		},
	}
}
