package contentcreation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umt-agenthub/core/internal/audit"
	"github.com/umt-agenthub/core/internal/broker"
	"github.com/umt-agenthub/core/internal/envelope"
	"github.com/umt-agenthub/core/internal/runtime"
)

func newTestAgent(t *testing.T, sweep time.Duration) *Agent {
	t.Helper()
	b := broker.NewInProcessBroker(nil)
	cfg := runtime.Config{DefaultResponseTimeout: time.Second, ShutdownGrace: time.Second, WorkerPoolSize: 4}
	a, err := New(cfg, b, nil, Deps{AuditLog: audit.NewMemLog(), SweepInterval: sweep})
	require.NoError(t, err)
	return a
}

func TestGenerateVariations_ApproachRoundRobinsByIndex(t *testing.T) {
	variations := GenerateVariations(context.Background(), NoGenerator{}, "Blog", "seo", nil, nil, 7)
	require.Len(t, variations, 7)
	approaches := approachesFor("Blog")
	for i, v := range variations {
		assert.Equal(t, approaches[i%len(approaches)], v.VariationApproach)
	}
}

func TestGenerateVariations_FallsBackToTemplateOnGeneratorError(t *testing.T) {
	variations := GenerateVariations(context.Background(), NoGenerator{}, "Email", "pricing", map[string]any{"objective": "drive signups"}, nil, 2)
	for _, v := range variations {
		assert.NotEmpty(t, v.Title)
		assert.NotEmpty(t, v.Body)
	}
}

func TestHandleAIContentGeneration_ReturnsRequestedVariationCount(t *testing.T) {
	a := newTestAgent(t, time.Hour)
	out, err := a.handleAIContentGeneration(context.Background(), &envelope.Message{Payload: map[string]any{
		"project_id":      "proj-1",
		"project_type":    "Blog",
		"content_topic":   "seo",
		"variation_count": float64(4),
	}})
	require.NoError(t, err)
	variations := out["content_variations"].([]Variation)
	assert.Len(t, variations, 4)
}

func TestDesignTest_EqualAllocationAcrossVariations(t *testing.T) {
	variations := GenerateVariations(context.Background(), NoGenerator{}, "Blog", "seo", nil, nil, 4)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	td := DesignTest("proj-1", "multivariate", variations, []string{"engagement"}, 7, now)
	require.Len(t, td.AudienceSegments, 4)
	for _, seg := range td.AudienceSegments {
		assert.Equal(t, 25, seg.Allocation)
		assert.Equal(t, 250, seg.Size)
	}
	assert.Equal(t, now.AddDate(0, 0, 7), td.CompletesAt)
}

func TestCompleteTest_PicksHighestCompositeScoreAsWinner(t *testing.T) {
	variations := GenerateVariations(context.Background(), NoGenerator{}, "Blog", "seo", nil, nil, 3)
	now := time.Now()
	td := DesignTest("proj-1", "A/B test", variations, []string{"engagement", "conversion"}, 7, now)

	results := CompleteTest(context.Background(), td, FabricatedMetricsSource{})
	require.NotEmpty(t, results.WinningVariation)

	highest := -1.0
	for _, r := range results.VariationsResults {
		assert.InDelta(t, r.EngagementRate*0.6+r.ConversionRate*0.4, r.CompositeScore, 0.01)
		if r.CompositeScore > highest {
			highest = r.CompositeScore
		}
	}
	var winnerScore float64
	for _, r := range results.VariationsResults {
		if r.VariationID == results.WinningVariation {
			winnerScore = r.CompositeScore
		}
	}
	assert.Equal(t, highest, winnerScore)
}

func TestSweepDueTests_CompletesAndBroadcastsOnlyOnce(t *testing.T) {
	a := newTestAgent(t, time.Hour)
	variations := GenerateVariations(context.Background(), NoGenerator{}, "Blog", "seo", nil, nil, 2)
	now := time.Now().Add(-time.Hour)
	td := DesignTest("proj-1", "A/B test", variations, []string{"engagement"}, 0, now)
	a.tests["proj-1"] = &td

	a.sweepDueTests(context.Background())
	a.mu.Lock()
	status := a.tests["proj-1"].Status
	a.mu.Unlock()
	assert.Equal(t, "completed", status)

	a.sweepDueTests(context.Background())
	a.mu.Lock()
	statusAgain := a.tests["proj-1"].Status
	a.mu.Unlock()
	assert.Equal(t, "completed", statusAgain)
}
