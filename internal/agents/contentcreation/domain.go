// Package contentcreation implements the Content Creation & Testing
// agent: AI-assisted variation generation with deterministic template
// fallback, and A/B test design, scheduled completion, and scoring.
package contentcreation

import "time"

// Variation is one generated content candidate.
type Variation struct {
	VariationID       string         `json:"variation_id"`
	VariationApproach string         `json:"variation_approach"`
	ProjectType       string         `json:"project_type"`
	ContentTopic      string         `json:"content_topic"`
	Title             string         `json:"title"`
	Body              string         `json:"body"`
	Metadata          map[string]any `json:"metadata,omitempty"`
}

// AudienceSegment is one allocation slice of a content test.
type AudienceSegment struct {
	Name        string `json:"name"`
	VariationID string `json:"variation_id"`
	Allocation  int    `json:"allocation"`
	Size        int    `json:"size"`
}

// TestDesign is the handle_content_testing result, persisted until
// its scheduled completion fires.
type TestDesign struct {
	TestID          string            `json:"test_id"`
	ProjectID       string            `json:"project_id"`
	TestType        string            `json:"test_type"`
	StartDate       time.Time         `json:"start_date"`
	EndDate         time.Time         `json:"end_date"`
	DurationDays    int               `json:"duration_days"`
	Status          string            `json:"status"`
	Variations      []Variation       `json:"variations"`
	AudienceSegments []AudienceSegment `json:"audience_segments"`
	Metrics         []string          `json:"metrics"`
	CompletesAt     time.Time         `json:"-"`
}

// VariationResult is one variation's scored outcome.
type VariationResult struct {
	VariationID     string  `json:"variation_id"`
	Approach        string  `json:"approach"`
	EngagementRate  float64 `json:"engagement_rate"`
	ConversionRate  float64 `json:"conversion_rate"`
	CompositeScore  float64 `json:"composite_score"`
}

// TestResults is the completed content_testing outcome.
type TestResults struct {
	TestID            string             `json:"test_id"`
	ProjectID         string             `json:"project_id"`
	Status            string             `json:"status"`
	VariationsResults []VariationResult  `json:"variations_results"`
	WinningVariation  string             `json:"winning_variation"`
}
