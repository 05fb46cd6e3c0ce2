package brandproject

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// Enrichment is what a bounded website walk extracts during brand
// onboarding: title/meta-description, first logo-candidate image, up
// to 10 deduped colors out of inline <style> text, deduped
// font-family tokens, and social-profile links.
type Enrichment struct {
	Description string
	LogoURL     string
	Colors      []string
	Fonts       []string
	SocialLinks map[string]string
}

var (
	hexColorRe   = regexp.MustCompile(`#(?:[0-9a-fA-F]{3}){1,2}\b`)
	rgbColorRe   = regexp.MustCompile(`rgb\(\s*\d+\s*,\s*\d+\s*,\s*\d+\s*\)`)
	fontFamilyRe = regexp.MustCompile(`font-family:\s*([^;"']+)`)
	logoImgRe    = regexp.MustCompile(`(?i)logo`)
)

var socialPatterns = map[string]*regexp.Regexp{
	"facebook":  regexp.MustCompile(`(?i)facebook\.com`),
	"twitter":   regexp.MustCompile(`(?i)twitter\.com|x\.com`),
	"instagram": regexp.MustCompile(`(?i)instagram\.com`),
	"linkedin":  regexp.MustCompile(`(?i)linkedin\.com`),
	"youtube":   regexp.MustCompile(`(?i)youtube\.com`),
	"pinterest": regexp.MustCompile(`(?i)pinterest\.com`),
}

// EnrichFromWebsite fetches siteURL with a 10s timeout and extracts
// an Enrichment. Any failure (network, parse) returns a zero-value
// Enrichment and the error; callers must degrade to empty enrichment
// rather than fail the onboard.
func EnrichFromWebsite(ctx context.Context, httpClient *http.Client, siteURL string) (Enrichment, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, siteURL, nil)
	if err != nil {
		return Enrichment{}, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; umt-agenthub/1.0)")

	resp, err := httpClient.Do(req)
	if err != nil {
		return Enrichment{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return Enrichment{}, fmt.Errorf("brandproject: website returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return Enrichment{}, err
	}
	return walk(string(body), siteURL)
}

func walk(document, baseURL string) (Enrichment, error) {
	doc, err := html.Parse(strings.NewReader(document))
	if err != nil {
		return Enrichment{}, err
	}

	var title, metaDescription, logoSrc string
	colorSet := map[string]struct{}{}
	fontSet := map[string]struct{}{}
	social := map[string]string{}
	base, _ := url.Parse(baseURL)

	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if title == "" && n.FirstChild != nil {
					title = n.FirstChild.Data
				}
			case "meta":
				if attr(n, "name") == "description" && metaDescription == "" {
					metaDescription = attr(n, "content")
				}
			case "img":
				if logoSrc == "" {
					if src := attr(n, "src"); logoImgRe.MatchString(src) {
						logoSrc = resolveURL(base, src)
					}
				}
			case "style":
				if n.FirstChild != nil {
					extractColorsAndFonts(n.FirstChild.Data, colorSet, fontSet)
				}
			case "a":
				href := attr(n, "href")
				for platform, pattern := range socialPatterns {
					if _, ok := social[platform]; !ok && pattern.MatchString(href) {
						social[platform] = href
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(doc)

	description := metaDescription
	if description == "" {
		description = title
	}

	return Enrichment{
		Description: description,
		LogoURL:     logoSrc,
		Colors:      capped(setToSlice(colorSet), 10),
		Fonts:       setToSlice(fontSet),
		SocialLinks: social,
	}, nil
}

func extractColorsAndFonts(css string, colors, fonts map[string]struct{}) {
	for _, m := range hexColorRe.FindAllString(css, -1) {
		colors[m] = struct{}{}
	}
	for _, m := range rgbColorRe.FindAllString(css, -1) {
		colors[m] = struct{}{}
	}
	for _, m := range fontFamilyRe.FindAllStringSubmatch(css, -1) {
		for _, part := range strings.Split(m[1], ",") {
			f := strings.Trim(strings.TrimSpace(part), `'"`)
			if f != "" {
				fonts[f] = struct{}{}
			}
		}
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func resolveURL(base *url.URL, ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	if base == nil {
		return ref
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(refURL).String()
}

func setToSlice(s map[string]struct{}) []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	return out
}

func capped(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
