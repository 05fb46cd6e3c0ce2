package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/umt-agenthub/core/internal/broker"
	"github.com/umt-agenthub/core/internal/envelope"
	"github.com/umt-agenthub/core/internal/errkind"
)

// dispatch implements this module's classify → lookup → (breaker-wrap
// invoke) → respond/ack state machine. It satisfies broker.ConsumeFunc.
func (a *BaseAgent) dispatch(ctx context.Context, msg *envelope.Message) error {
	a.sem <- struct{}{}
	defer func() { <-a.sem }()

	ctx = a.trace.ExtractTraceContext(ctx, msg.TraceContext)

	switch msg.Classify() {
	case envelope.KindResponse:
		a.resolveResponse(msg)
		return nil
	case envelope.KindEvent:
		a.dispatchEvent(ctx, msg)
		return nil
	case envelope.KindTask:
		return a.dispatchTask(ctx, msg)
	default:
		return fmt.Errorf("runtime: message %s classified as neither task, event, nor response", msg.MessageID)
	}
}

func (a *BaseAgent) dispatchEvent(ctx context.Context, msg *envelope.Message) {
	handlers := a.eventHandlers[msg.EventType]
	ctx, span := a.trace.StartEventProcessingSpan(ctx, msg.EventID, msg.EventType, msg.SenderAgentID, a.config.AgentID)
	defer span.End()

	start := time.Now()
	success := true
	for _, h := range handlers {
		if err := h(ctx, msg); err != nil {
			success = false
			a.trace.RecordError(span, err)
			a.logger.ErrorContext(ctx, "event handler failed", "event_type", msg.EventType, "event_id", msg.EventID, "error", err)
			if a.metrics != nil {
				a.metrics.IncrementEventErrors(ctx, msg.EventType, msg.SenderAgentID, "handler_error")
			}
			continue
		}
	}
	if a.metrics != nil {
		a.metrics.IncrementEventsProcessed(ctx, msg.EventType, msg.SenderAgentID, success)
		a.metrics.RecordEventProcessingDuration(ctx, msg.EventType, msg.SenderAgentID, time.Since(start))
	}
	a.trace.SetSpanSuccess(span)
}

func (a *BaseAgent) dispatchTask(ctx context.Context, msg *envelope.Message) error {
	ctx, span := a.trace.StartSpan(ctx, "agent."+a.config.AgentID+".handle_task")
	defer span.End()
	a.trace.AddTaskAttributes(span, msg.TaskID, msg.TaskType, msg.Payload)

	handler, ok := a.taskHandlers[msg.TaskType]
	if !ok {
		a.respond(ctx, msg, nil, errkind.Newf(errkind.Validation, "no handler for task type %q", msg.TaskType))
		return nil
	}

	breakerKey := a.config.AgentID + "/" + msg.TaskType
	if err := a.breakers.Allow(breakerKey); err != nil {
		a.trace.RecordError(span, err)
		a.respond(ctx, msg, nil, errkind.New(errkind.Unavailable, "circuit open for handler "+msg.TaskType))
		return nil
	}

	result, err := a.invokeSafely(ctx, handler, msg)
	if err != nil {
		a.breakers.RecordFailure(breakerKey)
		a.trace.RecordError(span, err)
		a.trace.AddTaskResult(span, "error", nil, err.Error())
		a.respond(ctx, msg, nil, err)
		return nil
	}

	a.breakers.RecordSuccess(breakerKey)
	a.trace.SetSpanSuccess(span)
	a.trace.AddTaskResult(span, "success", result, "")
	a.respond(ctx, msg, result, nil)
	return nil
}

func (a *BaseAgent) invokeSafely(ctx context.Context, h TaskHandler, msg *envelope.Message) (result map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errkind.Newf(errkind.Internal, "handler panic: %v", r)
		}
	}()
	return h(ctx, msg)
}

func (a *BaseAgent) respond(ctx context.Context, request *envelope.Message, result map[string]any, err error) {
	var resp *envelope.Message
	if err != nil {
		resp = envelope.NewError(request, a.config.AgentID, err)
	} else {
		resp = envelope.NewSuccess(request, a.config.AgentID, result)
	}
	a.trace.InjectTraceContext(ctx, resp.TraceContext)

	if pubErr := a.broker.Publish(ctx, broker.ExchangeTasks, request.SenderAgentID, resp); pubErr != nil {
		a.logger.ErrorContext(ctx, "failed to publish task response", "task_id", request.TaskID, "error", pubErr)
	}
}

// resolveResponse delivers a response to whoever is waiting on its
// response_to id via SendTask(waitForResponse=true).
func (a *BaseAgent) resolveResponse(msg *envelope.Message) {
	a.waitMu.Lock()
	ch, ok := a.waits[msg.ResponseTo]
	a.waitMu.Unlock()
	if !ok {
		return // fire-and-forget caller, or response arrived after timeout
	}
	select {
	case ch <- msg:
	default:
	}
}

// SendTask publishes a task to target and, if waitForResponse, blocks
// until a response with matching response_to arrives or timeout
// elapses. timeout<=0 uses Config.DefaultResponseTimeout.
func (a *BaseAgent) SendTask(ctx context.Context, target, taskType string, payload map[string]any, waitForResponse bool, timeout time.Duration) (*envelope.Message, error) {
	msg := envelope.NewTask(a.config.AgentID, target, taskType, payload)
	a.trace.InjectTraceContext(ctx, msg.TraceContext)

	if !waitForResponse {
		return nil, a.broker.Publish(ctx, broker.ExchangeTasks, target, msg)
	}

	if timeout <= 0 {
		timeout = a.config.DefaultResponseTimeout
	}
	ch := make(chan *envelope.Message, 1)
	a.waitMu.Lock()
	a.waits[msg.MessageID] = ch
	a.waitMu.Unlock()
	defer func() {
		a.waitMu.Lock()
		delete(a.waits, msg.MessageID)
		a.waitMu.Unlock()
	}()

	if err := a.broker.Publish(ctx, broker.ExchangeTasks, target, msg); err != nil {
		return nil, err
	}

	select {
	case resp := <-ch:
		return resp, nil
	case <-time.After(timeout):
		return nil, errkind.New(errkind.Timeout, "timed out waiting for response to "+msg.MessageID)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// BroadcastEvent publishes to the events exchange with routing key =
// eventType; it never blocks for consumers.
func (a *BaseAgent) BroadcastEvent(ctx context.Context, eventType string, payload map[string]any) error {
	msg := envelope.NewEvent(a.config.AgentID, eventType, payload)
	a.trace.InjectTraceContext(ctx, msg.TraceContext)
	return a.broker.Publish(ctx, broker.ExchangeEvents, eventType, msg)
}

// NewCorrelationID is a convenience for handlers that need to tag
// follow-up work with a fresh id (e.g. audit entries).
func NewCorrelationID() string { return uuid.NewString() }
