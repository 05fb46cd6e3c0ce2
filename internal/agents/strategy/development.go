package strategy

import "fmt"

// Strategy is the strategy_development handler's result.
type Strategy struct {
	BrandID              string                         `json:"brand_id"`
	StrategicThemes      []string                       `json:"strategic_themes"`
	RecommendedFormats   map[string]any                 `json:"recommended_formats"`
	DistributionChannels map[string]any                 `json:"distribution_channels"`
	ContentGaps          map[string]any                 `json:"content_gaps"`
	PerformanceInsights  map[string]any                 `json:"performance_insights"`
	TopicRecommendations map[string]TopicRecommendation `json:"topic_recommendations"`
}

// TopicRecommendation is per-topic strategic guidance.
type TopicRecommendation struct {
	Priority            int      `json:"priority"`
	RecommendedAngles   []string `json:"recommended_angles"`
	RecommendedKeywords []string `json:"recommended_keywords"`
	TargetAudience      string   `json:"target_audience"`
}

// analyzePerformance summarizes performance_metrics into a coarse
// insight set: a heuristic summary, not a predictive model.
func analyzePerformance(topics, projectTypes []string, metrics map[string]any) map[string]any {
	if len(metrics) == 0 {
		return map[string]any{}
	}
	return map[string]any{
		"topics_analyzed":        topics,
		"project_types_analyzed": projectTypes,
		"metrics_considered":     len(metrics),
	}
}

// recommendFormatsAndChannels derives per-project-type format and
// channel recommendations; business objectives bias the theme list
// but never override caller-supplied topics.
func recommendFormatsAndChannels(topics, projectTypes []string, objectives map[string]any) (themes []string, formats, channels map[string]any) {
	formats = map[string]any{}
	channels = map[string]any{}
	for _, pt := range projectTypes {
		switch pt {
		case "Blog":
			formats[pt] = []string{"how-to guide", "listicle", "case study"}
			channels[pt] = []string{"owned blog", "organic search"}
		case "Social Post":
			formats[pt] = []string{"carousel", "short video", "poll"}
			channels[pt] = []string{"instagram", "linkedin", "facebook"}
		case "Email":
			formats[pt] = []string{"newsletter", "drip sequence"}
			channels[pt] = []string{"owned email list"}
		case "Landing Page":
			formats[pt] = []string{"conversion page"}
			channels[pt] = []string{"paid search", "paid social"}
		default:
			formats[pt] = []string{"standard"}
			channels[pt] = []string{"owned"}
		}
	}
	themes = append(themes, topics...)
	if goal, ok := objectives["primary_goal"].(string); ok && goal != "" {
		themes = append(themes, goal)
	}
	return themes, formats, channels
}

// identifyContentGaps flags project types and topics absent from the
// requested scope, a cheap stand-in for a DB-backed content-inventory
// comparison (no such inventory exists in core).
func identifyContentGaps(topics, projectTypes []string) map[string]any {
	allProjectTypes := []string{"Blog", "Social Post", "Email", "Landing Page"}
	var missing []string
	present := map[string]bool{}
	for _, pt := range projectTypes {
		present[pt] = true
	}
	for _, pt := range allProjectTypes {
		if !present[pt] {
			missing = append(missing, pt)
		}
	}
	return map[string]any{
		"underused_project_types": missing,
		"topic_count":             len(topics),
	}
}

func topicAngles(topic string) []string {
	return []string{
		fmt.Sprintf("Beginner's guide to %s", topic),
		fmt.Sprintf("Common mistakes with %s", topic),
		fmt.Sprintf("%s trends to watch", topic),
	}
}

func topicKeywords(topic string) []string {
	return []string{topic, topic + " tips", topic + " strategy", "best " + topic}
}

func topicAudience(topic string) string {
	return fmt.Sprintf("Professionals interested in %s", topic)
}

// DevelopStrategy builds the full Strategy result.
func DevelopStrategy(brandID string, topics, projectTypes []string, performanceMetrics, businessObjectives map[string]any) Strategy {
	insights := analyzePerformance(topics, projectTypes, performanceMetrics)
	themes, formats, channels := recommendFormatsAndChannels(topics, projectTypes, businessObjectives)
	gaps := identifyContentGaps(topics, projectTypes)

	topicRecs := make(map[string]TopicRecommendation, len(topics))
	for idx, topic := range topics {
		topicRecs[topic] = TopicRecommendation{
			Priority:            idx + 1,
			RecommendedAngles:   topicAngles(topic),
			RecommendedKeywords: topicKeywords(topic),
			TargetAudience:      topicAudience(topic),
		}
	}

	return Strategy{
		BrandID:              brandID,
		StrategicThemes:      themes,
		RecommendedFormats:   formats,
		DistributionChannels: channels,
		ContentGaps:          gaps,
		PerformanceInsights:  insights,
		TopicRecommendations: topicRecs,
	}
}
