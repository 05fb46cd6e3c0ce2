package integrations

import "log/slog"

// newWordPress targets the WP REST API (wp-json/wp/v2/posts), the
// most commonly self-hosted CMS target. Supports the full verb set.
func newWordPress(creds Credentials, onAuthRetry AuthRefreshFunc, logger *slog.Logger) *restAdapter {
	base := baseURLOr(creds, "site_url", "")
	return &restAdapter{
		platform:    "wordpress",
		category:    CategoryCMS,
		client:      NewClient(CategoryCMS, base, accessToken(creds), onAuthRetry, logger),
		healthPath:  "/wp-json/wp/v2/types",
		publishPath: "/wp-json/wp/v2/posts",
		support:     verbSupport{schedule: true, update: true, fetch: true, delete: true},
		buildPublishBody: func(c Content) any {
			return map[string]any{
				"title":   c.Title,
				"content": c.Body,
				"status":  "publish",
			}
		},
	}
}

// newShopify targets the Shopify Admin API's blog articles resource
// (a blog, not a product feed). Shopify's Admin API has no generic
// "delete draft" semantics the core cares about, so Delete is
// unsupported.
func newShopify(creds Credentials, onAuthRetry AuthRefreshFunc, logger *slog.Logger) *restAdapter {
	base := baseURLOr(creds, "site_url", "")
	return &restAdapter{
		platform:    "shopify",
		category:    CategoryCMS,
		client:      NewClient(CategoryCMS, base, accessToken(creds), onAuthRetry, logger),
		healthPath:  "/admin/api/2024-01/shop.json",
		publishPath: "/admin/api/2024-01/blogs/articles.json",
		support:     verbSupport{schedule: false, update: true, fetch: true, delete: false},
		buildPublishBody: func(c Content) any {
			return map[string]any{
				"article": map[string]any{
					"title":     c.Title,
					"body_html": c.Body,
				},
			}
		},
	}
}
