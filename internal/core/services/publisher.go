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
	"github.com/custodia-labs/tasker/internal/logger"
)

// DefaultReconnectInterval is the minimum time between broker connection attempts.
const DefaultReconnectInterval = time.Second

// Ensure EventPublisher implements the interface.
var _ driven.EventPublisher = (*EventPublisher)(nil)

// EventPublisher publishes task events to a topic exchange.
// It owns at most one broker channel, opened on Init or on the first
// publish and discarded when a publish fails or the broker drops it.
type EventPublisher struct {
	broker   driven.Broker
	topology domain.Topology
	now      func() time.Time

	mu      sync.Mutex
	channel driven.Channel
	limiter *rate.Limiter
}

// NewEventPublisher creates a publisher for the given topology.
func NewEventPublisher(broker driven.Broker, topology domain.Topology) *EventPublisher {
	return &EventPublisher{
		broker:   broker,
		topology: topology,
		now:      time.Now,
		limiter:  newReconnectLimiter(DefaultReconnectInterval),
	}
}

// SetReconnectInterval sets the minimum time between connection attempts.
// An attempt made sooner waits out the interval. Zero disables throttling.
func (p *EventPublisher) SetReconnectInterval(interval time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.limiter = newReconnectLimiter(interval)
}

func newReconnectLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

// Init connects and declares the topology unless a channel is already live.
func (p *EventPublisher) Init(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := p.ensureChannel(ctx)
	return err
}

// Publish sends one envelope for task with routing key eventType.
func (p *EventPublisher) Publish(ctx context.Context, eventType domain.EventType, task domain.Task) error {
	envelope := domain.NewEnvelope(eventType, task, p.now())
	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("%w: encoding %s envelope: %w", domain.ErrPublishFailed, eventType, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.ensureChannel(ctx)
	if err != nil {
		return err
	}

	msg := driven.Publishing{
		Body:        body,
		ContentType: domain.ContentTypeJSON,
		Persistent:  true,
		Timestamp:   envelope.Timestamp,
	}
	if err := ch.Publish(ctx, p.topology.Exchange, eventType.String(), msg); err != nil {
		p.discard()
		return fmt.Errorf("%w: %s: %w", domain.ErrPublishFailed, eventType, err)
	}

	logger.Debug("[queue] published %s for task %s", eventType, task.ID)
	return nil
}

// Close releases the channel. A later Publish reconnects.
func (p *EventPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel == nil {
		return nil
	}
	err := p.channel.Close()
	p.channel = nil
	return err
}

// ensureChannel must be called with p.mu held.
func (p *EventPublisher) ensureChannel(ctx context.Context) (driven.Channel, error) {
	if p.channel != nil {
		if !p.channel.IsClosed() {
			return p.channel, nil
		}
		logger.Warn("[queue] broker channel lost, reconnecting")
		p.discard()
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: waiting to reconnect: %w", domain.ErrBrokerUnavailable, err)
	}

	ch, err := p.broker.Connect(ctx)
	if err != nil {
		logger.Warn("[queue] connecting to broker: %v", err)
		return nil, fmt.Errorf("%w: connecting: %w", domain.ErrBrokerUnavailable, err)
	}
	if err := declareTopology(ctx, ch, p.topology); err != nil {
		_ = ch.Close()
		return nil, err
	}

	p.channel = ch
	logger.Info("[queue] connected, exchange %s ready", p.topology.Exchange)
	return ch, nil
}

// discard must be called with p.mu held.
func (p *EventPublisher) discard() {
	if p.channel == nil {
		return
	}
	_ = p.channel.Close()
	p.channel = nil
}

// declareTopology declares the exchange, its queues and their bindings.
func declareTopology(ctx context.Context, ch driven.Channel, topology domain.Topology) error {
	if err := ch.DeclareExchange(ctx, topology.Exchange, topology.ExchangeKind, true); err != nil {
		return fmt.Errorf("%w: declaring exchange %s: %w", domain.ErrBrokerUnavailable, topology.Exchange, err)
	}
	for _, b := range topology.Bindings {
		if err := ch.DeclareQueue(ctx, b.Queue, true); err != nil {
			return fmt.Errorf("%w: declaring queue %s: %w", domain.ErrBrokerUnavailable, b.Queue, err)
		}
		if err := ch.BindQueue(ctx, b.Queue, topology.Exchange, b.RoutingKey); err != nil {
			return fmt.Errorf("%w: binding queue %s: %w", domain.ErrBrokerUnavailable, b.Queue, err)
		}
	}
	return nil
}
