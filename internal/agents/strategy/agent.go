// Package strategy implements the Content Strategy agent
// (strategy development, competitor analysis,
// and content calendar generation).
package strategy

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/umt-agenthub/core/internal/audit"
	"github.com/umt-agenthub/core/internal/broker"
	"github.com/umt-agenthub/core/internal/runtime"
)

const AgentID = "content_strategy"

// Agent is the Content Strategy handler registry.
type Agent struct {
	*runtime.BaseAgent

	auditLog audit.Log
	http     *http.Client
}

// Deps bundles strategy's external collaborators.
type Deps struct {
	AuditLog audit.Log
}

func New(cfg runtime.Config, b broker.Broker, logger *slog.Logger, deps Deps) (*Agent, error) {
	cfg.AgentID = AgentID
	base, err := runtime.New(cfg, b, logger)
	if err != nil {
		return nil, err
	}
	a := &Agent{
		BaseAgent: base,
		auditLog:  deps.AuditLog,
		http:      &http.Client{Timeout: 10 * time.Second},
	}
	a.registerHandlers()
	return a, nil
}

func (a *Agent) registerHandlers() {
	a.MustRegisterTask("content_strategy_development", a.handleContentStrategyDevelopment)
	a.MustRegisterTask("competitor_analysis", a.handleCompetitorAnalysis)
	a.MustRegisterTask("content_calendar_creation", a.handleContentCalendarCreation)
}
