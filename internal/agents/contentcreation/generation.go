package contentcreation

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

var variationApproaches = map[string][]string{
	"Blog": {
		"comprehensive guide", "case study focused", "how-to tutorial",
		"listicle format", "thought leadership",
	},
	"Social Post": {
		"question-based", "statistic highlight", "tip or hack",
		"quote format", "before and after",
	},
	"Email": {
		"problem-solution", "news announcement", "educational series",
		"case study spotlight", "exclusive offer",
	},
	"Landing Page": {
		"problem-agitate-solve", "benefits-focused", "social proof centered",
		"urgency and scarcity", "step-by-step process",
	},
}

var defaultApproaches = []string{
	"educational", "promotional", "storytelling", "data-driven", "expert interview",
}

func approachesFor(projectType string) []string {
	if a, ok := variationApproaches[projectType]; ok {
		return a
	}
	return defaultApproaches
}

// Generator produces content variations via an external text
// generator (e.g. an LLM). Generate returning an error signals the
// caller to fall back to GenerateTemplateVariation.
type Generator interface {
	Generate(ctx context.Context, projectType, topic, approach string, brief, guidelines map[string]any) (title, body string, err error)
}

// NoGenerator is the zero-value Generator: always unavailable, so
// every variation uses the deterministic template fallback. Used when
// no OPENAI_API_KEY (or equivalent) is configured.
type NoGenerator struct{}

func (NoGenerator) Generate(context.Context, string, string, string, map[string]any, map[string]any) (string, string, error) {
	return "", "", errGeneratorUnavailable
}

var errGeneratorUnavailable = fmt.Errorf("contentcreation: no content generator configured")

// GenerateVariations produces count variations for projectType/topic,
// assigning a round-robin approach per index: approach
// := approaches[i % len(approaches)]. Each variation tries gen first
// and falls back to a deterministic template on any error.
func GenerateVariations(ctx context.Context, gen Generator, projectType, topic string, brief, guidelines map[string]any, count int) []Variation {
	approaches := approachesFor(projectType)
	out := make([]Variation, 0, count)
	for i := 0; i < count; i++ {
		approach := approaches[i%len(approaches)]
		title, body, err := gen.Generate(ctx, projectType, topic, approach, brief, guidelines)
		if err != nil || title == "" {
			title, body = templateVariation(projectType, topic, approach, brief, guidelines)
		}
		out = append(out, Variation{
			VariationID:       uuid.NewString(),
			VariationApproach: approach,
			ProjectType:       projectType,
			ContentTopic:      topic,
			Title:             title,
			Body:              body,
		})
	}
	return out
}

// templateVariation is the deterministic fallback: no external call,
// quality degrades, but the N-variations contract holds regardless of
// generator availability.
func templateVariation(projectType, topic, approach string, brief, guidelines map[string]any) (string, string) {
	title := fmt.Sprintf("%s: %s (%s)", projectType, topic, approach)
	keyPoints := orderedKeys(brief)
	body := fmt.Sprintf("A %s piece about %s, written in a %s style.", projectType, topic, approach)
	if len(keyPoints) > 0 {
		body += fmt.Sprintf(" Key points: %v.", keyPoints)
	}
	if len(guidelines) > 0 {
		body += " Follows brand guidelines on file."
	}
	return title, body
}

func orderedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
