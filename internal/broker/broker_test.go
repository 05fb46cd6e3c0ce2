package broker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umt-agenthub/core/internal/envelope"
)

func setup(t *testing.T) *InProcessBroker {
	t.Helper()
	b := NewInProcessBroker(nil)
	require.NoError(t, b.Connect(context.Background()))
	return b
}

func TestTasksExchangeUnicastRouting(t *testing.T) {
	b := setup(t)
	require.NoError(t, b.DeclareQueue("brand_project"))
	require.NoError(t, b.DeclareQueue("strategy"))
	require.NoError(t, b.BindQueue("brand_project", ExchangeTasks, "brand_project"))
	require.NoError(t, b.BindQueue("strategy", ExchangeTasks, "strategy"))

	msg := envelope.NewTask("auth_integration", "brand_project", "onboard_brand", nil)
	require.NoError(t, b.Publish(context.Background(), ExchangeTasks, "brand_project", msg))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	received := make(chan *envelope.Message, 1)
	go b.Consume(ctx, "brand_project", func(_ context.Context, m *envelope.Message) error {
		received <- m
		cancel()
		return nil
	})

	select {
	case got := <-received:
		assert.Equal(t, msg.MessageID, got.MessageID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for task delivery")
	}
}

func TestEventsExchangeFanout(t *testing.T) {
	b := setup(t)
	require.NoError(t, b.DeclareQueue("brand_project"))
	require.NoError(t, b.DeclareQueue("ad_content"))
	require.NoError(t, b.BindQueue("brand_project", ExchangeEvents, "content.published"))
	require.NoError(t, b.BindQueue("ad_content", ExchangeEvents, "content.published"))

	msg := envelope.NewEvent("content_creation", "content.published", map[string]any{"content_id": "c1"})
	require.NoError(t, b.Publish(context.Background(), ExchangeEvents, "content.published", msg))

	var got int32
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	go b.Consume(ctx, "brand_project", func(_ context.Context, m *envelope.Message) error {
		atomic.AddInt32(&got, 1)
		return nil
	})
	go b.Consume(ctx, "ad_content", func(_ context.Context, m *envelope.Message) error {
		atomic.AddInt32(&got, 1)
		return nil
	})

	require.Eventually(t, func() bool { return atomic.LoadInt32(&got) == 2 }, time.Second, 10*time.Millisecond)
}

func TestConsumeNackRedeliversOnceThenDeadLetters(t *testing.T) {
	b := setup(t)
	require.NoError(t, b.DeclareQueue("content_creation"))
	require.NoError(t, b.BindQueue("content_creation", ExchangeTasks, "content_creation"))

	msg := envelope.NewTask("strategy", "content_creation", "ai_content_generation", nil)
	require.NoError(t, b.Publish(context.Background(), ExchangeTasks, "content_creation", msg))

	var attempts int32
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go b.Consume(ctx, "content_creation", func(_ context.Context, m *envelope.Message) error {
		atomic.AddInt32(&attempts, 1)
		return errors.New("handler failed")
	})

	require.Eventually(t, func() bool { return len(b.DeadLetters()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
	assert.Equal(t, msg.MessageID, b.DeadLetters()[0].Message.MessageID)
}

func TestConsumePanicIsTreatedAsNack(t *testing.T) {
	b := setup(t)
	require.NoError(t, b.DeclareQueue("q"))
	require.NoError(t, b.BindQueue("q", ExchangeTasks, "q"))
	msg := envelope.NewTask("a", "q", "t", nil)
	require.NoError(t, b.Publish(context.Background(), ExchangeTasks, "q", msg))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go b.Consume(ctx, "q", func(_ context.Context, m *envelope.Message) error {
		panic("boom")
	})

	require.Eventually(t, func() bool { return len(b.DeadLetters()) == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestPublishToUnconnectedBrokerFails(t *testing.T) {
	b := NewInProcessBroker(nil)
	err := b.Publish(context.Background(), ExchangeTasks, "x", envelope.NewTask("a", "x", "t", nil))
	assert.Error(t, err)
}
