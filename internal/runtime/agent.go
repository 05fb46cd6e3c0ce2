package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/umt-agenthub/core/internal/breaker"
	"github.com/umt-agenthub/core/internal/broker"
	"github.com/umt-agenthub/core/internal/envelope"
	"github.com/umt-agenthub/core/internal/observability"
)

// BaseAgent is the runtime every concrete agent embeds. It
// owns the broker connection, handler registries, the circuit
// breaker, the response wait-map, and the bounded worker pool that
// processes inbound deliveries. Config and registration happen
// before Run; Run blocks until the context is cancelled or a signal
// arrives, the same lifecycle shape as SubAgent.Run.
type BaseAgent struct {
	config  Config
	broker  broker.Broker
	trace   *observability.TraceManager
	metrics *observability.MetricsManager
	logger  *slog.Logger

	taskHandlers  map[string]TaskHandler
	eventHandlers map[string][]EventHandler
	timers        []registeredTimer

	breakers *breaker.Registry

	waitMu sync.Mutex
	waits  map[string]chan *envelope.Message

	sem     chan struct{}
	running bool

	wg            sync.WaitGroup
	cancelConsume context.CancelFunc
}

type registeredTimer struct {
	interval time.Duration
	fn       TimerFunc
}

// New creates a BaseAgent. b and logger must be non-nil; logger
// defaults to slog.Default() if nil.
func New(config Config, b broker.Broker, logger *slog.Logger) (*BaseAgent, error) {
	config = config.withDefaults()
	if err := config.validate(); err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrMissingBroker
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &BaseAgent{
		config:        config,
		broker:        b,
		trace:         observability.NewTraceManager(config.AgentID),
		logger:        logger,
		taskHandlers:  make(map[string]TaskHandler),
		eventHandlers: make(map[string][]EventHandler),
		waits:         make(map[string]chan *envelope.Message),
		breakers: breaker.NewRegistry(breaker.Config{
			FailureThreshold: config.FailureThreshold,
			Window:           config.BreakerWindow,
			OpenDuration:     config.BreakerOpenFor,
		}),
		sem: make(chan struct{}, config.WorkerPoolSize),
	}, nil
}

// RegisterTask wires taskType to h. Duplicate registration is a
// configuration bug caught at startup, not a runtime condition.
func (a *BaseAgent) RegisterTask(taskType string, h TaskHandler) error {
	if _, exists := a.taskHandlers[taskType]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTaskType, taskType)
	}
	a.taskHandlers[taskType] = h
	return nil
}

// MustRegisterTask panics on duplicate registration, for agent main
// functions where that's a fail-fast startup bug.
func (a *BaseAgent) MustRegisterTask(taskType string, h TaskHandler) {
	if err := a.RegisterTask(taskType, h); err != nil {
		panic(err)
	}
}

// RegisterEvent wires eventType to h. Multiple handlers may subscribe
// to the same event type; all are invoked best-effort per message.
func (a *BaseAgent) RegisterEvent(eventType string, h EventHandler) {
	a.eventHandlers[eventType] = append(a.eventHandlers[eventType], h)
}

// RegisterTimer schedules fn to run every interval once the agent
// starts, stopping when Run shuts down.
func (a *BaseAgent) RegisterTimer(interval time.Duration, fn TimerFunc) {
	a.timers = append(a.timers, registeredTimer{interval: interval, fn: fn})
}

// Logger returns the agent's structured logger, for handlers that
// want to log with the agent's component context.
func (a *BaseAgent) Logger() *slog.Logger { return a.logger }

// SetMetrics attaches a MetricsManager for dispatch to record event
// counts, durations and errors against. Optional; a nil manager (the
// default) makes dispatch's metrics calls no-ops.
func (a *BaseAgent) SetMetrics(mm *observability.MetricsManager) { a.metrics = mm }

// Run starts the agent and blocks until shutdown (
// Lifecycle: connect, declare, bind, consume, start timers; on
// shutdown: stop timers, drain in-flight work, disconnect).
func (a *BaseAgent) Run(ctx context.Context) error {
	if a.running {
		return ErrAgentAlreadyRunning
	}
	if len(a.taskHandlers) == 0 && len(a.eventHandlers) == 0 {
		return ErrNoHandlers
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := a.start(ctx); err != nil {
		return fmt.Errorf("runtime: failed to start agent %q: %w", a.config.AgentID, err)
	}
	a.running = true
	defer func() { a.running = false }()

	a.logger.InfoContext(ctx, "agent started", "agent_id", a.config.AgentID,
		"task_handlers", len(a.taskHandlers), "event_handlers", len(a.eventHandlers))

	<-ctx.Done()

	a.logger.InfoContext(context.Background(), "agent shutting down", "agent_id", a.config.AgentID)
	a.stop()
	return nil
}

func (a *BaseAgent) start(ctx context.Context) error {
	if err := a.broker.Connect(ctx); err != nil {
		return err
	}
	if err := a.broker.DeclareQueue(a.config.AgentID); err != nil {
		return err
	}
	if err := a.broker.BindQueue(a.config.AgentID, broker.ExchangeTasks, a.config.AgentID); err != nil {
		return err
	}
	for eventType := range a.eventHandlers {
		if err := a.broker.BindQueue(a.config.AgentID, broker.ExchangeEvents, eventType); err != nil {
			return err
		}
	}

	consumeCtx, cancel := context.WithCancel(ctx)
	a.cancelConsume = cancel
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.broker.Consume(consumeCtx, a.config.AgentID, a.dispatch); err != nil && consumeCtx.Err() == nil {
			a.logger.ErrorContext(ctx, "consume loop ended unexpectedly", "agent_id", a.config.AgentID, "error", err)
		}
	}()

	for _, t := range a.timers {
		a.wg.Add(1)
		go a.runTimer(consumeCtx, t)
	}

	return nil
}

func (a *BaseAgent) runTimer(ctx context.Context, t registeredTimer) {
	defer a.wg.Done()
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.fn(ctx)
		}
	}
}

func (a *BaseAgent) stop() {
	if a.cancelConsume != nil {
		a.cancelConsume()
	}

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(a.config.ShutdownGrace):
		a.logger.Warn("shutdown grace period elapsed, forcing disconnect", "agent_id", a.config.AgentID)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.ShutdownGrace)
	defer cancel()
	if err := a.broker.Disconnect(shutdownCtx); err != nil {
		a.logger.ErrorContext(shutdownCtx, "error disconnecting broker", "error", err)
	}
}
