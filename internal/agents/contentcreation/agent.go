package contentcreation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/umt-agenthub/core/internal/audit"
	"github.com/umt-agenthub/core/internal/broker"
	"github.com/umt-agenthub/core/internal/runtime"
)

const AgentID = "content_creation_testing"

// DefaultSweepInterval is how often the agent checks for content
// tests whose scheduled completion ("schedule a completion action for
// duration_days later") has come due, implemented as a periodic sweep
// on the runtime's timer facility — mirroring authintegration's
// health-check sweep rather than a one-shot timer, since BaseAgent
// only exposes a repeating RegisterTimer.
const DefaultSweepInterval = time.Minute

// Agent is the Content Creation & Testing handler registry.
type Agent struct {
	*runtime.BaseAgent

	generator     Generator
	metrics       MetricsSource
	auditLog      audit.Log
	sweepInterval time.Duration

	mu    sync.Mutex
	tests map[string]*TestDesign // keyed by project_id
}

// Deps bundles contentcreation's external collaborators.
type Deps struct {
	Generator     Generator
	Metrics       MetricsSource
	AuditLog      audit.Log
	SweepInterval time.Duration
}

func New(cfg runtime.Config, b broker.Broker, logger *slog.Logger, deps Deps) (*Agent, error) {
	cfg.AgentID = AgentID
	base, err := runtime.New(cfg, b, logger)
	if err != nil {
		return nil, err
	}
	if deps.Generator == nil {
		deps.Generator = NoGenerator{}
	}
	if deps.Metrics == nil {
		deps.Metrics = FabricatedMetricsSource{}
	}
	if deps.SweepInterval <= 0 {
		deps.SweepInterval = DefaultSweepInterval
	}

	a := &Agent{
		BaseAgent:     base,
		generator:     deps.Generator,
		metrics:       deps.Metrics,
		auditLog:      deps.AuditLog,
		sweepInterval: deps.SweepInterval,
		tests:         make(map[string]*TestDesign),
	}
	a.registerHandlers()
	a.RegisterTimer(a.sweepInterval, a.sweepDueTests)
	return a, nil
}

func (a *Agent) registerHandlers() {
	a.MustRegisterTask("ai_content_generation", a.handleAIContentGeneration)
	a.MustRegisterTask("content_testing", a.handleContentTesting)
	a.RegisterEvent("content_performance_update", a.handleContentPerformanceUpdate)
}

// sweepDueTests completes any running test whose CompletesAt has
// passed, broadcasting content_test_completed exactly once per test.
func (a *Agent) sweepDueTests(ctx context.Context) {
	now := time.Now()
	a.mu.Lock()
	var due []*TestDesign
	for _, td := range a.tests {
		if td.Status == "running" && !now.Before(td.CompletesAt) {
			td.Status = "completing"
			due = append(due, td)
		}
	}
	a.mu.Unlock()

	for _, td := range due {
		a.completeTest(ctx, *td)
	}
}

func (a *Agent) completeTest(ctx context.Context, td TestDesign) {
	results := CompleteTest(ctx, td, a.metrics)

	a.mu.Lock()
	if stored, ok := a.tests[td.ProjectID]; ok {
		stored.Status = "completed"
	}
	a.mu.Unlock()

	if err := a.BroadcastEvent(ctx, "content_test_completed", map[string]any{
		"test_id":           results.TestID,
		"project_id":        results.ProjectID,
		"winning_variation": results.WinningVariation,
		"results":           results,
	}); err != nil {
		a.Logger().ErrorContext(ctx, "failed to broadcast content_test_completed", "test_id", results.TestID, "error", err)
	}
}
