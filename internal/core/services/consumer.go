package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/tasker/internal/core/domain"
	"github.com/custodia-labs/tasker/internal/core/ports/driven"
	"github.com/custodia-labs/tasker/internal/core/ports/driving"
	"github.com/custodia-labs/tasker/internal/logger"
)

// Ensure EventConsumer implements the interface.
var _ driving.EventConsumer = (*EventConsumer)(nil)

// EventConsumer dispatches task events from their queues to registered
// handlers. Each queue is consumed on its own goroutine, one message at
// a time. A lost broker channel is replaced until Stop is called.
type EventConsumer struct {
	broker   driven.Broker
	topology domain.Topology
	policy   domain.RedeliveryPolicy
	handlers map[domain.EventType]driving.EventHandler
	interval time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	stopErr error
}

// NewEventConsumer creates a consumer with the default redelivery policy.
func NewEventConsumer(broker driven.Broker, topology domain.Topology) *EventConsumer {
	return &EventConsumer{
		broker:   broker,
		topology: topology,
		policy:   domain.DefaultRedeliveryPolicy(),
		handlers: make(map[domain.EventType]driving.EventHandler),
		interval: DefaultReconnectInterval,
	}
}

// SetRedeliveryPolicy sets what happens to messages whose handler failed.
func (c *EventConsumer) SetRedeliveryPolicy(policy domain.RedeliveryPolicy) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.policy = policy
}

// SetReconnectInterval sets the minimum time between attempts to replace a
// lost channel. Zero disables throttling. It takes effect on the next Start.
func (c *EventConsumer) SetReconnectInterval(interval time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.interval = interval
}

// Register routes events of eventType to handler. Handlers registered after
// Start take effect on the next Start, which fails if the topology binds no
// queue for eventType.
func (c *EventConsumer) Register(eventType domain.EventType, handler driving.EventHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[eventType] = handler
}

// Start connects, declares the topology and subscribes every queue that has
// a handler. It returns once all subscriptions are in place.
func (c *EventConsumer) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return nil
	}
	if len(c.handlers) == 0 {
		return fmt.Errorf("%w: no event handlers registered", domain.ErrInvalidInput)
	}

	queues := make(map[string]domain.EventType, len(c.handlers))
	handlers := make(map[domain.EventType]driving.EventHandler, len(c.handlers))
	for eventType, handler := range c.handlers {
		queue, ok := c.topology.QueueFor(eventType)
		if !ok {
			return fmt.Errorf("%w: no queue bound for %s", domain.ErrInvalidInput, eventType)
		}
		queues[queue] = eventType
		handlers[eventType] = handler
	}

	consumeCtx, cancel := context.WithCancel(ctx)
	sub := subscription{queues: queues, handlers: handlers, policy: c.policy}
	sess, err := c.subscribe(consumeCtx, sub)
	if err != nil {
		cancel()
		return err
	}

	c.running = true
	c.cancel = cancel
	c.done = make(chan struct{})
	c.stopErr = nil
	go c.supervise(consumeCtx, sess, sub, newReconnectLimiter(c.interval), c.done)
	return nil
}

// Stop cancels consumption, waits for in-flight messages and closes the channel.
func (c *EventConsumer) Stop() error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return nil
	}
	c.running = false
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()

	cancel()
	<-done
	return c.stopErr
}

// subscription is what Start captured: the queues to consume and how to
// handle their messages.
type subscription struct {
	queues   map[string]domain.EventType
	handlers map[domain.EventType]driving.EventHandler
	policy   domain.RedeliveryPolicy
}

// session is one broker channel and the goroutines consuming from it.
type session struct {
	channel driven.Channel
	wg      sync.WaitGroup
}

// subscribe opens a channel and starts one goroutine per queue. When any
// queue stops delivering, the others are cancelled so the session ends as
// a whole.
func (c *EventConsumer) subscribe(ctx context.Context, sub subscription) (*session, error) {
	ch, err := c.broker.Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: connecting: %w", domain.ErrBrokerUnavailable, err)
	}
	if err := declareTopology(ctx, ch, c.topology); err != nil {
		_ = ch.Close()
		return nil, err
	}

	sessCtx, cancel := context.WithCancel(ctx)
	sess := &session{channel: ch}
	for queue := range sub.queues {
		deliveries, err := ch.Consume(sessCtx, queue)
		if err != nil {
			cancel()
			sess.wg.Wait()
			_ = ch.Close()
			return nil, fmt.Errorf("%w: consuming %s: %w", domain.ErrBrokerUnavailable, queue, err)
		}

		sess.wg.Add(1)
		go func(queue string) {
			defer sess.wg.Done()
			defer cancel()
			c.run(sessCtx, queue, deliveries, sub.handlers, sub.policy)
		}(queue)
		logger.Info("[queue] consuming %s", queue)
	}
	return sess, nil
}

// supervise waits for the current session to end and replaces it until ctx
// is cancelled. It closes done once the last channel is closed.
func (c *EventConsumer) supervise(ctx context.Context, sess *session, sub subscription, limiter *rate.Limiter, done chan struct{}) {
	defer close(done)
	for {
		sess.wg.Wait()
		err := sess.channel.Close()
		if ctx.Err() != nil {
			c.stopErr = err
			return
		}
		logger.Warn("[queue] consumer lost its broker channel, reconnecting")

		sess = nil
		for sess == nil {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			next, err := c.subscribe(ctx, sub)
			if err != nil {
				logger.Warn("[queue] reconnecting consumer: %v", err)
				continue
			}
			sess = next
			logger.Info("[queue] consumer reconnected")
		}
	}
}

func (c *EventConsumer) run(
	ctx context.Context,
	queue string,
	deliveries <-chan driven.Delivery,
	handlers map[domain.EventType]driving.EventHandler,
	policy domain.RedeliveryPolicy,
) {
	for d := range deliveries {
		c.handle(ctx, d, handlers, policy)
	}
	if ctx.Err() == nil {
		logger.Warn("[queue] delivery channel for %s closed", queue)
	}
}

// handle settles every delivery exactly once.
func (c *EventConsumer) handle(
	ctx context.Context,
	d driven.Delivery,
	handlers map[domain.EventType]driving.EventHandler,
	policy domain.RedeliveryPolicy,
) {
	var envelope domain.Envelope
	if err := json.Unmarshal(d.Body, &envelope); err != nil {
		logger.Warn("[queue] rejecting undecodable message on %s: %v", d.Queue, err)
		reject(d, false)
		return
	}

	handler, ok := handlers[envelope.Type]
	if !ok {
		logger.Warn("[queue] rejecting %q message on %s: no handler", envelope.Type, d.Queue)
		reject(d, false)
		return
	}

	if err := handler.Handle(ctx, envelope); err != nil {
		if !policy.Requeue || d.Redelivered {
			logger.Error("[queue] dropping %s for task %s: %v", envelope.Type, envelope.Payload.ID, err)
			reject(d, false)
			return
		}
		logger.Warn("[queue] requeueing %s for task %s: %v", envelope.Type, envelope.Payload.ID, err)
		wait(ctx, policy.Delay)
		reject(d, true)
		return
	}

	if err := d.Ack(); err != nil {
		logger.Error("[queue] acknowledging %s: %v", envelope.Type, err)
	}
}

func reject(d driven.Delivery, requeue bool) {
	if err := d.Nack(requeue); err != nil {
		logger.Error("[queue] rejecting message on %s: %v", d.Queue, err)
	}
}

// wait sleeps for delay or until ctx is done.
func wait(ctx context.Context, delay time.Duration) {
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
