package strategy

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"
)

// CompetitorAnalysis is the per-website result of analyzeCompetitorWebsite.
type CompetitorAnalysis struct {
	Website              string                    `json:"website"`
	Error                string                    `json:"error,omitempty"`
	PrimaryContentTypes  []string                  `json:"primary_content_types,omitempty"`
	TopicCoverage        map[string]TopicCoverage  `json:"topic_coverage,omitempty"`
	ContentDistribution  ContentDistribution       `json:"content_distribution,omitempty"`
}

// TopicCoverage estimates how thoroughly a competitor covers a topic,
// derived from a deterministic mention count in the fetched page text.
type TopicCoverage struct {
	CoverageLevel string `json:"coverage_level"`
	MentionCount  int    `json:"mention_count"`
}

// ContentDistribution is the channel footprint visible on the page.
type ContentDistribution struct {
	SocialPlatforms []string `json:"social_platforms"`
	EmailMarketing  bool     `json:"email_marketing"`
	PaidPromotion   bool     `json:"paid_promotion"`
}

var contentTypeSignals = map[string][]string{
	"Blog":        {"/blog", "/articles", "/insights"},
	"Case Study":  {"/case-stud", "/customer-stor", "/success-stor"},
	"Whitepaper":  {"whitepaper", "white-paper", "/resources"},
	"Infographic": {"infographic"},
	"Video":       {"/video", "youtube.com", "vimeo.com"},
	"Webinar":     {"webinar"},
}

var socialPlatformSignals = map[string]string{
	"LinkedIn":  "linkedin.com",
	"Twitter":   "twitter.com",
	"Instagram": "instagram.com",
	"Facebook":  "facebook.com",
	"YouTube":   "youtube.com",
}

// analyzeCompetitorWebsite fetches website and derives deterministic
// content-strategy signals from its HTML: which content-type URL
// patterns appear, per-topic mention counts, and visible distribution
// channels.
func analyzeCompetitorWebsite(ctx context.Context, httpClient *http.Client, website string, topics []string) (CompetitorAnalysis, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, website, nil)
	if err != nil {
		return CompetitorAnalysis{}, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; umt-agenthub/1.0)")

	resp, err := httpClient.Do(req)
	if err != nil {
		return CompetitorAnalysis{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return CompetitorAnalysis{}, err
	}
	text := strings.ToLower(string(body))

	var contentTypes []string
	for contentType, signals := range contentTypeSignals {
		for _, signal := range signals {
			if strings.Contains(text, signal) {
				contentTypes = append(contentTypes, contentType)
				break
			}
		}
	}

	coverage := make(map[string]TopicCoverage, len(topics))
	for _, topic := range topics {
		count := strings.Count(text, strings.ToLower(topic))
		coverage[topic] = TopicCoverage{CoverageLevel: coverageLevel(count), MentionCount: count}
	}

	var platforms []string
	for platform, signal := range socialPlatformSignals {
		if strings.Contains(text, signal) {
			platforms = append(platforms, platform)
		}
	}

	return CompetitorAnalysis{
		Website:             website,
		PrimaryContentTypes: contentTypes,
		TopicCoverage:       coverage,
		ContentDistribution: ContentDistribution{
			SocialPlatforms: platforms,
			EmailMarketing:  strings.Contains(text, "newsletter") || strings.Contains(text, "subscribe"),
			PaidPromotion:   strings.Contains(text, "sponsored") || strings.Contains(text, "advertisement"),
		},
	}, nil
}

func coverageLevel(mentionCount int) string {
	switch {
	case mentionCount >= 10:
		return "comprehensive"
	case mentionCount >= 4:
		return "moderate"
	case mentionCount >= 1:
		return "minimal"
	default:
		return "none"
	}
}

// CompetitiveLandscape synthesizes per-website analyses into an
// aggregate view returned as competitor_analysis's competitive_landscape.
type CompetitiveLandscape struct {
	CompetitorCount     int                      `json:"competitor_count"`
	ContentTypeUsage    map[string]int           `json:"content_type_usage"`
	TopicSaturation     map[string]string        `json:"topic_saturation"`
	DistributionSummary map[string]any           `json:"distribution_summary"`
}

func synthesizeCompetitiveInsights(analyses map[string]CompetitorAnalysis, topics []string) CompetitiveLandscape {
	contentTypeUsage := map[string]int{}
	for _, analysis := range analyses {
		for _, contentType := range analysis.PrimaryContentTypes {
			contentTypeUsage[contentType]++
		}
	}

	topicSaturation := make(map[string]string, len(topics))
	for _, topic := range topics {
		comprehensive, moderate := 0, 0
		for _, analysis := range analyses {
			cov, ok := analysis.TopicCoverage[topic]
			if !ok {
				continue
			}
			switch cov.CoverageLevel {
			case "comprehensive":
				comprehensive++
			case "moderate":
				moderate++
			}
		}
		total := len(analyses)
		switch {
		case total > 0 && float64(comprehensive) > float64(total)*0.7:
			topicSaturation[topic] = "high"
		case total > 0 && float64(comprehensive+moderate) > float64(total)*0.5:
			topicSaturation[topic] = "medium"
		default:
			topicSaturation[topic] = "low"
		}
	}

	socialCounts := map[string]int{}
	emailCount, paidCount := 0, 0
	for _, analysis := range analyses {
		for _, platform := range analysis.ContentDistribution.SocialPlatforms {
			socialCounts[platform]++
		}
		if analysis.ContentDistribution.EmailMarketing {
			emailCount++
		}
		if analysis.ContentDistribution.PaidPromotion {
			paidCount++
		}
	}

	return CompetitiveLandscape{
		CompetitorCount:  len(analyses),
		ContentTypeUsage: contentTypeUsage,
		TopicSaturation:  topicSaturation,
		DistributionSummary: map[string]any{
			"social_platforms": socialCounts,
			"email_marketing":  emailCount,
			"paid_promotion":   paidCount,
		},
	}
}

// identifyCompetitiveOpportunities flags topics with low saturation
// across competitors as whitespace worth prioritizing.
func identifyCompetitiveOpportunities(landscape CompetitiveLandscape) map[string]any {
	var whitespace []string
	for topic, level := range landscape.TopicSaturation {
		if level == "low" {
			whitespace = append(whitespace, topic)
		}
	}
	return map[string]any{
		"topic_whitespace":     whitespace,
		"underused_formats":    underusedContentTypes(landscape.ContentTypeUsage),
	}
}

var allContentTypes = []string{"Blog", "Case Study", "Whitepaper", "Infographic", "Video", "Webinar"}

func underusedContentTypes(usage map[string]int) []string {
	var out []string
	for _, contentType := range allContentTypes {
		if usage[contentType] == 0 {
			out = append(out, contentType)
		}
	}
	return out
}
