package runtime

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umt-agenthub/core/internal/broker"
	"github.com/umt-agenthub/core/internal/envelope"
	"github.com/umt-agenthub/core/internal/errkind"
)

func newTestAgent(t *testing.T, b broker.Broker, agentID string) *BaseAgent {
	t.Helper()
	a, err := New(Config{AgentID: agentID, DefaultResponseTimeout: 2 * time.Second, ShutdownGrace: time.Second}, b, nil)
	require.NoError(t, err)
	return a
}

func TestSendTask_RequestResponseRoundTrip(t *testing.T) {
	b := broker.NewInProcessBroker(nil)

	responder := newTestAgent(t, b, "brand_project")
	responder.MustRegisterTask("get_brand_info", func(_ context.Context, msg *envelope.Message) (map[string]any, error) {
		return map[string]any{"name": "Acme"}, nil
	})

	caller := newTestAgent(t, b, "strategy")
	caller.RegisterEvent("noop", func(context.Context, *envelope.Message) error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go responder.Run(ctx)
	go caller.Run(ctx)
	time.Sleep(50 * time.Millisecond)

	resp, err := caller.SendTask(context.Background(), "brand_project", "get_brand_info", map[string]any{"brand_id": "b1"}, true, time.Second)
	require.NoError(t, err)
	assert.Equal(t, envelope.StatusSuccess, resp.Status)
	assert.Equal(t, "Acme", resp.Result["name"])
}

func TestSendTask_UnhandledTaskTypeRespondsError(t *testing.T) {
	b := broker.NewInProcessBroker(nil)

	responder := newTestAgent(t, b, "brand_project")
	responder.RegisterEvent("noop", func(context.Context, *envelope.Message) error { return nil })

	caller := newTestAgent(t, b, "strategy")
	caller.RegisterEvent("noop", func(context.Context, *envelope.Message) error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go responder.Run(ctx)
	go caller.Run(ctx)
	time.Sleep(50 * time.Millisecond)

	resp, err := caller.SendTask(context.Background(), "brand_project", "unknown_task", nil, true, time.Second)
	require.NoError(t, err)
	assert.Equal(t, envelope.StatusError, resp.Status)
	assert.Equal(t, errkind.Validation, resp.ErrorKind)
}

func TestSendTask_FireAndForgetDoesNotBlock(t *testing.T) {
	b := broker.NewInProcessBroker(nil)
	caller := newTestAgent(t, b, "strategy")
	caller.RegisterEvent("noop", func(context.Context, *envelope.Message) error { return nil })
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go caller.Run(ctx)
	time.Sleep(20 * time.Millisecond)

	resp, err := caller.SendTask(context.Background(), "nobody_home", "x", nil, false, 0)
	require.NoError(t, err)
	assert.Nil(t, resp)
}

func TestBroadcastEvent_FansOutToAllSubscribers(t *testing.T) {
	b := broker.NewInProcessBroker(nil)

	var gotA, gotB bool
	a1 := newTestAgent(t, b, "brand_project")
	a1.RegisterEvent("content.published", func(context.Context, *envelope.Message) error { gotA = true; return nil })
	a2 := newTestAgent(t, b, "ad_content")
	a2.RegisterEvent("content.published", func(context.Context, *envelope.Message) error { gotB = true; return nil })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a1.Run(ctx)
	go a2.Run(ctx)
	time.Sleep(50 * time.Millisecond)

	publisher := newTestAgent(t, b, "content_creation")
	publisher.RegisterEvent("noop", func(context.Context, *envelope.Message) error { return nil })
	require.NoError(t, publisher.BroadcastEvent(context.Background(), "content.published", map[string]any{"content_id": "c1"}))

	require.Eventually(t, func() bool { return gotA && gotB }, time.Second, 10*time.Millisecond)
}

func TestDispatchTask_CircuitBreakerOpensAfterRepeatedFailures(t *testing.T) {
	b := broker.NewInProcessBroker(nil)
	responder, err := New(Config{
		AgentID:          "flaky",
		FailureThreshold: 2,
		BreakerWindow:    time.Minute,
		BreakerOpenFor:   time.Minute,
	}, b, nil)
	require.NoError(t, err)
	responder.MustRegisterTask("always_fails", func(context.Context, *envelope.Message) (map[string]any, error) {
		return nil, errors.New("boom")
	})

	caller := newTestAgent(t, b, "strategy")
	caller.RegisterEvent("noop", func(context.Context, *envelope.Message) error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go responder.Run(ctx)
	go caller.Run(ctx)
	time.Sleep(50 * time.Millisecond)

	for i := 0; i < 2; i++ {
		resp, err := caller.SendTask(context.Background(), "flaky", "always_fails", nil, true, time.Second)
		require.NoError(t, err)
		assert.Equal(t, envelope.StatusError, resp.Status)
	}

	resp, err := caller.SendTask(context.Background(), "flaky", "always_fails", nil, true, time.Second)
	require.NoError(t, err)
	assert.Equal(t, envelope.StatusError, resp.Status)
	assert.Equal(t, errkind.Unavailable, resp.ErrorKind)
}
