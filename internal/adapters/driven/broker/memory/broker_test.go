package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tasker/internal/core/ports/driven"
)

func setup(t *testing.T, b *Broker) driven.Channel {
	t.Helper()
	ctx := context.Background()
	ch, err := b.Connect(ctx)
	require.NoError(t, err)
	require.NoError(t, ch.DeclareExchange(ctx, "task.events", "topic", true))
	require.NoError(t, ch.DeclareQueue(ctx, "task.created", true))
	require.NoError(t, ch.DeclareQueue(ctx, "task.completed", true))
	require.NoError(t, ch.BindQueue(ctx, "task.created", "task.events", "task.created"))
	require.NoError(t, ch.BindQueue(ctx, "task.completed", "task.events", "task.completed"))
	return ch
}

func receive(t *testing.T, deliveries <-chan driven.Delivery) driven.Delivery {
	t.Helper()
	select {
	case d, ok := <-deliveries:
		require.True(t, ok, "deliveries closed")
		return d
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delivery")
		return driven.Delivery{}
	}
}

func TestMatchTopic(t *testing.T) {
	tests := []struct {
		pattern string
		key     string
		want    bool
	}{
		{"task.created", "task.created", true},
		{"task.created", "task.completed", false},
		{"task.*", "task.created", true},
		{"task.*", "task", false},
		{"task.*", "task.created.v2", false},
		{"task.#", "task", true},
		{"task.#", "task.created.v2", true},
		{"#", "anything.at.all", true},
		{"*.created", "task.created", true},
		{"#.created", "a.b.created", true},
		{"#.created", "a.b.completed", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"_"+tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchTopic(tt.pattern, tt.key))
		})
	}
}

func TestBroker_Declarations(t *testing.T) {
	b := NewBroker()
	setup(t, b)

	kind, ok := b.ExchangeKind("task.events")
	assert.True(t, ok)
	assert.Equal(t, "topic", kind)
	assert.True(t, b.HasQueue("task.created"))
	assert.True(t, b.HasBinding("task.created", "task.events", "task.created"))
	assert.False(t, b.HasBinding("task.created", "task.events", "task.completed"))
}

func TestBroker_RedeclareIsIdempotent(t *testing.T) {
	b := NewBroker()
	setup(t, b)

	ch := setup(t, b)
	assert.Error(t, ch.DeclareExchange(context.Background(), "task.events", "direct", true))
}

func TestBroker_PublishRoutesByKey(t *testing.T) {
	b := NewBroker()
	ch := setup(t, b)
	ctx := context.Background()

	err := ch.Publish(ctx, "task.events", "task.created", driven.Publishing{Body: []byte(`{}`), ContentType: "application/json", Persistent: true})
	require.NoError(t, err)

	assert.Equal(t, 1, b.QueueLen("task.created"))
	assert.Equal(t, 0, b.QueueLen("task.completed"))

	published := b.Published()
	require.Len(t, published, 1)
	assert.Equal(t, "task.created", published[0].RoutingKey)
	assert.True(t, published[0].Persistent)
}

func TestBroker_UnroutableIsDropped(t *testing.T) {
	b := NewBroker()
	ch := setup(t, b)

	require.NoError(t, ch.Publish(context.Background(), "task.events", "task.deleted", driven.Publishing{}))

	assert.Len(t, b.Published(), 1)
	assert.Equal(t, 0, b.QueueLen("task.created"))
}

func TestBroker_PublishToMissingExchangeClosesChannel(t *testing.T) {
	b := NewBroker()
	ch, err := b.Connect(context.Background())
	require.NoError(t, err)

	err = ch.Publish(context.Background(), "nope", "k", driven.Publishing{})
	assert.ErrorIs(t, err, ErrExchangeNotFound)

	assert.True(t, ch.IsClosed())
	err = ch.DeclareQueue(context.Background(), "q", true)
	assert.ErrorIs(t, err, ErrChannelClosed)
}

func TestBroker_FailureInjection(t *testing.T) {
	b := NewBroker()
	boom := errors.New("boom")

	b.SetConnectError(boom)
	_, err := b.Connect(context.Background())
	assert.ErrorIs(t, err, boom)

	b.SetConnectError(nil)
	ch := setup(t, b)

	b.SetPublishError(boom)
	err = ch.Publish(context.Background(), "task.events", "task.created", driven.Publishing{})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, b.Published())

	b.SetPublishError(nil)
	err = ch.Publish(context.Background(), "task.events", "task.created", driven.Publishing{})
	assert.ErrorIs(t, err, ErrChannelClosed)
	assert.Equal(t, 2, b.Connects())
}

func TestBroker_ConsumeAckNack(t *testing.T) {
	b := NewBroker()
	ch := setup(t, b)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, ch.Publish(ctx, "task.events", "task.created", driven.Publishing{Body: []byte("one")}))

	deliveries, err := ch.Consume(ctx, "task.created")
	require.NoError(t, err)

	first := receive(t, deliveries)
	assert.Equal(t, "one", string(first.Body))
	assert.False(t, first.Redelivered)
	assert.Equal(t, 1, b.Unsettled())

	require.NoError(t, first.Nack(true))

	second := receive(t, deliveries)
	assert.True(t, second.Redelivered)
	assert.NotEqual(t, first.Tag, second.Tag)
	require.NoError(t, second.Ack())
	assert.Error(t, second.Ack(), "double ack")

	assert.Equal(t, []Settlement{
		{Tag: first.Tag, Queue: "task.created", Acked: false, Requeue: true},
		{Tag: second.Tag, Queue: "task.created", Acked: true, Requeue: false},
	}, b.Settlements())
	assert.Equal(t, 0, b.Unsettled())
}

func TestBroker_ConsumeStopsOnCancel(t *testing.T) {
	b := NewBroker()
	ch := setup(t, b)
	ctx, cancel := context.WithCancel(context.Background())

	deliveries, err := ch.Consume(ctx, "task.created")
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-deliveries:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("deliveries not closed")
	}
}

func TestBroker_DisconnectRequeuesUnsettled(t *testing.T) {
	b := NewBroker()
	ch := setup(t, b)
	ctx := context.Background()

	require.NoError(t, ch.Publish(ctx, "task.events", "task.completed", driven.Publishing{Body: []byte("x")}))
	deliveries, err := ch.Consume(ctx, "task.completed")
	require.NoError(t, err)
	_ = receive(t, deliveries)

	b.Disconnect()

	assert.True(t, ch.IsClosed())
	assert.Equal(t, 0, b.Unsettled())
	assert.Equal(t, 1, b.QueueLen("task.completed"))

	ch2, err := b.Connect(ctx)
	require.NoError(t, err)
	again, err := ch2.Consume(ctx, "task.completed")
	require.NoError(t, err)
	d := receive(t, again)
	assert.True(t, d.Redelivered)
	require.NoError(t, d.Ack())
	require.NoError(t, ch2.Close())
}
