// Package broker implements the message broker client: two topic
// exchanges — "tasks" (unicast by target agent id) and "events"
// (fanout by event type) — plus their dead-letter counterparts. The
// subscriber-registry and goroutine-per-delivery send pattern carries
// over from a gRPC EventBus design (see DESIGN.md); the transport
// itself is an in-process channel fabric instead of gRPC streaming,
// since messages here are plain UTF-8 JSON and don't need generated
// protobuf stubs.
package broker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/umt-agenthub/core/internal/envelope"
	"github.com/umt-agenthub/core/internal/observability"
)

// ExchangeKind distinguishes routing behavior.
type ExchangeKind int

const (
	// Topic exchanges route to exactly the queues bound under the
	// message's routing key (tasks: target agent id).
	Topic ExchangeKind = iota
	// Fanout exchanges route to every queue bound under the routing
	// key, which for "events" is the event type (every agent that
	// registered an event handler for that type).
	Fanout
)

const (
	ExchangeTasks    = "tasks"
	ExchangeEvents   = "events"
	ExchangeTasksDLQ = "tasks.dlq"
	ExchangeEventsDLQ = "events.dlq"
)

// ConsumeFunc processes one delivery. A nil return acks; a non-nil
// return nacks (redelivered once, then dead-lettered on a second
// failure)
type ConsumeFunc func(ctx context.Context, msg *envelope.Message) error

// DeadLetter records a message that exhausted its one redelivery.
type DeadLetter struct {
	Exchange string
	Queue    string
	Message  *envelope.Message
	Reason   string
	At       time.Time
}

type exchange struct {
	kind     ExchangeKind
	bindings map[string][]string // routing key -> queue names
}

type queue struct {
	name string
	ch   chan *delivery
}

type delivery struct {
	msg     *envelope.Message
	attempt int
}

// Broker is the message broker client contract: connect, declare
// topology, publish synchronously, and consume with ack/nack semantics.
type Broker interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	DeclareQueue(name string) error
	DeclareExchange(name string, kind ExchangeKind) error
	BindQueue(queueName, exchangeName, routingKey string) error
	Publish(ctx context.Context, exchangeName, routingKey string, msg *envelope.Message) error
	Consume(ctx context.Context, queueName string, fn ConsumeFunc) error
	DeadLetters() []DeadLetter
}

// InProcessBroker is the default Broker implementation: a channel
// fabric within the process. It satisfies the full Broker contract
// (including capped-backoff retry on a "full queue" transport error)
// without requiring an external message-queue daemon, which suits the
// runner's single-binary-multi-agent deployment model. A networked
// implementation could satisfy the same interface without changing
// any caller.
type InProcessBroker struct {
	mu         sync.RWMutex
	connected  bool
	exchanges  map[string]*exchange
	queues     map[string]*queue
	deadLetter []DeadLetter
	logger     *slog.Logger
	metrics    *observability.MetricsManager

	queueDepth int
}

// SetMetrics attaches a MetricsManager for Publish/Consume to record
// broker durations and connection errors against. Optional; a nil
// manager (the default) makes these calls no-ops.
func (b *InProcessBroker) SetMetrics(mm *observability.MetricsManager) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.metrics = mm
}

// NewInProcessBroker creates a broker with both standard exchanges and
// their dead-letter counterparts pre-declared.
func NewInProcessBroker(logger *slog.Logger) *InProcessBroker {
	if logger == nil {
		logger = slog.Default()
	}
	b := &InProcessBroker{
		exchanges:  make(map[string]*exchange),
		queues:     make(map[string]*queue),
		logger:     logger,
		queueDepth: 64,
	}
	_ = b.DeclareExchange(ExchangeTasks, Topic)
	_ = b.DeclareExchange(ExchangeEvents, Fanout)
	_ = b.DeclareExchange(ExchangeTasksDLQ, Topic)
	_ = b.DeclareExchange(ExchangeEventsDLQ, Topic)
	return b
}

func (b *InProcessBroker) Connect(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.connected = true
	b.logger.InfoContext(ctx, "broker connected")
	return nil
}

func (b *InProcessBroker) Disconnect(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.connected = false
	b.logger.InfoContext(ctx, "broker disconnected")
	return nil
}

func (b *InProcessBroker) DeclareQueue(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.queues[name]; ok {
		return nil
	}
	b.queues[name] = &queue{name: name, ch: make(chan *delivery, b.queueDepth)}
	return nil
}

func (b *InProcessBroker) DeclareExchange(name string, kind ExchangeKind) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.exchanges[name]; ok {
		return nil
	}
	b.exchanges[name] = &exchange{kind: kind, bindings: make(map[string][]string)}
	return nil
}

func (b *InProcessBroker) BindQueue(queueName, exchangeName, routingKey string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	ex, ok := b.exchanges[exchangeName]
	if !ok {
		return fmt.Errorf("broker: unknown exchange %q", exchangeName)
	}
	if _, ok := b.queues[queueName]; !ok {
		return fmt.Errorf("broker: unknown queue %q", queueName)
	}
	for _, q := range ex.bindings[routingKey] {
		if q == queueName {
			return nil
		}
	}
	ex.bindings[routingKey] = append(ex.bindings[routingKey], queueName)
	return nil
}

// Publish is synchronous: it returns only once every bound queue has
// accepted the message, or with a transport error once a persistently
// full queue has been retried to exhaustion.
func (b *InProcessBroker) Publish(ctx context.Context, exchangeName, routingKey string, msg *envelope.Message) error {
	start := time.Now()
	b.mu.RLock()
	connected := b.connected
	ex, ok := b.exchanges[exchangeName]
	metrics := b.metrics
	b.mu.RUnlock()
	if !connected {
		if metrics != nil {
			metrics.IncrementBrokerConnectionErrors(ctx)
		}
		return fmt.Errorf("broker: not connected")
	}
	if !ok {
		return fmt.Errorf("broker: unknown exchange %q", exchangeName)
	}

	targets := b.resolveTargets(ex, routingKey)
	for _, qname := range targets {
		if err := b.deliverWithBackoff(ctx, qname, &delivery{msg: msg}); err != nil {
			return fmt.Errorf("broker: publish to queue %q: %w", qname, err)
		}
	}
	if metrics != nil {
		metrics.RecordBrokerPublishDuration(ctx, exchangeName, time.Since(start))
	}
	return nil
}

func (b *InProcessBroker) resolveTargets(ex *exchange, routingKey string) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if ex.kind == Fanout {
		out := make([]string, 0, len(ex.bindings[routingKey]))
		out = append(out, ex.bindings[routingKey]...)
		return out
	}
	return append([]string(nil), ex.bindings[routingKey]...)
}

// deliverWithBackoff retries a full queue send with capped exponential
// backoff: 100ms -> 5s, 5 attempts.
func (b *InProcessBroker) deliverWithBackoff(ctx context.Context, qname string, d *delivery) error {
	b.mu.RLock()
	q, ok := b.queues[qname]
	b.mu.RUnlock()
	if !ok {
		// No subscriber bound yet; this is not an error for a fanout
		// publish (events may have zero subscribers).
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxInterval = 5 * time.Second
	bo.MaxElapsedTime = 0
	boCtx := backoff.WithContext(bo, ctx)

	attempts := 0
	op := func() error {
		attempts++
		select {
		case q.ch <- d:
			return nil
		default:
			if attempts >= 5 {
				return backoff.Permanent(fmt.Errorf("queue %q full after %d attempts", qname, attempts))
			}
			return fmt.Errorf("queue %q full", qname)
		}
	}
	return backoff.Retry(op, boCtx)
}

// Consume delivers messages one at a time to fn. fn's return acks
// (nil) or nacks (non-nil/panic); a nack redelivers once, a second
// failure dead-letters the message.
func (b *InProcessBroker) Consume(ctx context.Context, queueName string, fn ConsumeFunc) error {
	b.mu.RLock()
	q, ok := b.queues[queueName]
	b.mu.RUnlock()
	if !ok {
		return fmt.Errorf("broker: unknown queue %q", queueName)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-q.ch:
			if !ok {
				return nil
			}
			b.handleDelivery(ctx, queueName, q, d, fn)
		}
	}
}

func (b *InProcessBroker) handleDelivery(ctx context.Context, queueName string, q *queue, d *delivery, fn ConsumeFunc) {
	start := time.Now()
	err := b.invokeSafely(ctx, fn, d.msg)
	b.mu.RLock()
	metrics := b.metrics
	b.mu.RUnlock()
	if metrics != nil {
		metrics.RecordBrokerConsumeDuration(ctx, queueName, time.Since(start))
	}
	if err == nil {
		return
	}

	if d.attempt == 0 {
		d.attempt = 1
		select {
		case q.ch <- d:
		default:
			b.sendToDeadLetter(queueName, d.msg, "redelivery queue full: "+err.Error())
		}
		return
	}

	b.sendToDeadLetter(queueName, d.msg, err.Error())
}

func (b *InProcessBroker) invokeSafely(ctx context.Context, fn ConsumeFunc, msg *envelope.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("consumer panic: %v", r)
		}
	}()
	return fn(ctx, msg)
}

func (b *InProcessBroker) sendToDeadLetter(queueName string, msg *envelope.Message, reason string) {
	dlqExchange := ExchangeTasksDLQ
	if msg.Classify() == envelope.KindEvent {
		dlqExchange = ExchangeEventsDLQ
	}
	b.mu.Lock()
	b.deadLetter = append(b.deadLetter, DeadLetter{
		Exchange: dlqExchange,
		Queue:    queueName,
		Message:  msg,
		Reason:   reason,
		At:       time.Now().UTC(),
	})
	b.mu.Unlock()
	b.logger.Warn("message dead-lettered", "queue", queueName, "reason", reason, "message_id", msg.MessageID)
}

// DeadLetters returns a snapshot of dead-lettered messages, primarily
// for tests and operator inspection.
func (b *InProcessBroker) DeadLetters() []DeadLetter {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]DeadLetter(nil), b.deadLetter...)
}
