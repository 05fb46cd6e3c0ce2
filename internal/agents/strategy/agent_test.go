package strategy

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

func newTestAgent(t *testing.T) *Agent {
	t.Helper()
	b := broker.NewInProcessBroker(nil)
	cfg := runtime.Config{DefaultResponseTimeout: time.Second, ShutdownGrace: time.Second, WorkerPoolSize: 4}
	a, err := New(cfg, b, nil, Deps{AuditLog: audit.NewMemLog()})
	require.NoError(t, err)
	return a
}

func TestGenerateCalendar_TopicsRotateByWeekAndIndex(t *testing.T) {
	start, _ := time.Parse("2006-01-02", "2026-01-05")
	end, _ := time.Parse("2006-01-02", "2026-02-02")
	topics := []string{"seo", "ads", "email"}
	cal := GenerateCalendar("brand-1", topics, []string{"Social Post"}, nil, start, end)

	require.NotEmpty(t, cal.ContentItems)
	for _, item := range cal.ContentItems {
		d := mustParse(t, item.ScheduledDate)
		assert.False(t, d.After(end))
		// Social Post posts 3 times a week on days 0..2, so the day offset
		// gives back week (day/7) and index (day%7).
		day := int(d.Sub(start).Hours() / 24)
		assert.Equal(t, topics[(day/7+day%7)%len(topics)], item.ContentTopic)
	}
}

func TestGenerateCalendar_NoItemScheduledPastEnd(t *testing.T) {
	start, _ := time.Parse("2006-01-02", "2026-01-01")
	end, _ := time.Parse("2006-01-02", "2026-01-10")
	cal := GenerateCalendar("brand-1", []string{"seo"}, []string{"Social Post", "Blog"}, nil, start, end)
	for _, item := range cal.ContentItems {
		d := mustParse(t, item.ScheduledDate)
		assert.False(t, d.After(end))
	}
}

func TestGenerateCalendar_SeriesEmittedForBlogWithThreeOrMoreItems(t *testing.T) {
	start, _ := time.Parse("2006-01-02", "2026-01-01")
	end, _ := time.Parse("2006-01-02", "2026-04-01")
	cal := GenerateCalendar("brand-1", []string{"seo"}, []string{"Blog"}, nil, start, end)
	assert.NotEmpty(t, cal.Series)
	assert.Len(t, cal.Series[0].Parts, 3)
}

func TestGenerateCalendar_CampaignsOnlyWhenFourOrMoreWeeks(t *testing.T) {
	start, _ := time.Parse("2006-01-02", "2026-01-01")
	shortEnd, _ := time.Parse("2006-01-02", "2026-01-10")
	short := GenerateCalendar("brand-1", []string{"seo"}, []string{"Blog"}, nil, start, shortEnd)
	assert.Empty(t, short.Campaigns)

	longEnd, _ := time.Parse("2006-01-02", "2026-03-01")
	long := GenerateCalendar("brand-1", []string{"seo"}, []string{"Blog"}, nil, start, longEnd)
	assert.NotEmpty(t, long.Campaigns)
}

func mustParse(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

func TestHandleContentCalendarCreation_RejectsMissingTimeframe(t *testing.T) {
	a := newTestAgent(t)
	_, err := a.handleContentCalendarCreation(context.Background(), &envelope.Message{Payload: map[string]any{
		"brand_id": "brand-1",
	}})
	require.Error(t, err)
}

func TestHandleCompetitorAnalysis_RequiresWebsites(t *testing.T) {
	a := newTestAgent(t)
	_, err := a.handleCompetitorAnalysis(context.Background(), &envelope.Message{Payload: map[string]any{
		"brand_id": "brand-1",
	}})
	require.Error(t, err)
}

func TestHandleContentStrategyDevelopment_PrioritizesTopicsInOrder(t *testing.T) {
	a := newTestAgent(t)
	out, err := a.handleContentStrategyDevelopment(context.Background(), &envelope.Message{Payload: map[string]any{
		"brand_id":      "brand-1",
		"content_topics": []any{"seo", "ads"},
	}})
	require.NoError(t, err)
	s := out["strategy"].(Strategy)
	assert.Equal(t, 1, s.TopicRecommendations["seo"].Priority)
	assert.Equal(t, 2, s.TopicRecommendations["ads"].Priority)
}
