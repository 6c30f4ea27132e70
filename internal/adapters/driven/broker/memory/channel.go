package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/tasker/internal/core/ports/driven"
)

// Ensure Channel implements the interfaces.
var (
	_ driven.Channel      = (*Channel)(nil)
	_ driven.Acknowledger = (*Channel)(nil)
)

// Channel is a client channel on a Broker.
type Channel struct {
	broker *Broker

	mu     sync.Mutex
	closed bool
	done   chan struct{}
	wg     sync.WaitGroup
}

func (c *Channel) doneCh() chan struct{} {
	if c.done == nil {
		c.done = make(chan struct{})
	}
	return c.done
}

func (c *Channel) check() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrChannelClosed
	}
	return nil
}

// DeclareExchange declares an exchange. Redeclaring with a different kind fails.
func (c *Channel) DeclareExchange(_ context.Context, name, kind string, _ bool) error {
	if err := c.check(); err != nil {
		return err
	}
	b := c.broker
	b.mu.Lock()
	defer b.mu.Unlock()
	if existing, ok := b.exchanges[name]; ok && existing != kind {
		return fmt.Errorf("exchange %s already declared as %s", name, existing)
	}
	b.exchanges[name] = kind
	return nil
}

// DeclareQueue declares a queue. Redeclaring an existing queue is a no-op.
func (c *Channel) DeclareQueue(_ context.Context, name string, durable bool) error {
	if err := c.check(); err != nil {
		return err
	}
	b := c.broker
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.queues[name]; ok {
		return nil
	}
	b.queues[name] = &queue{
		name:    name,
		durable: durable,
		ch:      make(chan driven.Delivery, queueCapacity),
	}
	return nil
}

// BindQueue binds a declared queue to a declared exchange.
func (c *Channel) BindQueue(_ context.Context, queueName, exchange, routingKey string) error {
	if err := c.check(); err != nil {
		return err
	}
	b := c.broker
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.exchanges[exchange]; !ok {
		return fmt.Errorf("%w: %s", ErrExchangeNotFound, exchange)
	}
	if _, ok := b.queues[queueName]; !ok {
		return fmt.Errorf("%w: %s", ErrQueueNotFound, queueName)
	}
	for _, bd := range b.bindings {
		if bd.queue == queueName && bd.exchange == exchange && bd.key == routingKey {
			return nil
		}
	}
	b.bindings = append(b.bindings, binding{queue: queueName, exchange: exchange, key: routingKey})
	return nil
}

// Publish routes a message through an exchange. A failed publish closes
// the channel.
func (c *Channel) Publish(ctx context.Context, exchange, routingKey string, msg driven.Publishing) error {
	if err := c.check(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.broker.publish(exchange, routingKey, msg); err != nil {
		_ = c.Close()
		return err
	}
	return nil
}

// Consume delivers messages from a queue until ctx is cancelled or the
// channel is closed. Messages are handed out one at a time; a message
// picked up after cancellation is returned to the queue.
func (c *Channel) Consume(ctx context.Context, queueName string) (<-chan driven.Delivery, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	c.broker.mu.Lock()
	q, ok := c.broker.queues[queueName]
	c.broker.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrQueueNotFound, queueName)
	}

	c.mu.Lock()
	done := c.doneCh()
	c.mu.Unlock()

	out := make(chan driven.Delivery)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(out)
		for {
			var d driven.Delivery
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case d = <-q.ch:
			}
			if stopped(ctx, done) {
				q.ch <- d
				return
			}

			delivery := c.broker.deliver(c, d)
			select {
			case out <- delivery:
			case <-ctx.Done():
				c.broker.release(delivery.Tag)
				q.ch <- d
				return
			case <-done:
				c.broker.release(delivery.Tag)
				q.ch <- d
				return
			}
		}
	}()
	return out, nil
}

// Ack acknowledges a delivery.
func (c *Channel) Ack(tag uint64) error {
	if err := c.check(); err != nil {
		return err
	}
	return c.broker.settle(tag, true, false)
}

// Nack rejects a delivery, optionally requeueing it as redelivered.
func (c *Channel) Nack(tag uint64, requeue bool) error {
	if err := c.check(); err != nil {
		return err
	}
	return c.broker.settle(tag, false, requeue)
}

// IsClosed reports whether Close ran, directly or through Disconnect.
func (c *Channel) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Close closes the channel. Unsettled deliveries taken through it are
// returned to their queues. Closing twice is a no-op.
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.doneCh())
	c.mu.Unlock()
	c.wg.Wait()

	b := c.broker
	b.mu.Lock()
	var orphaned []driven.Delivery
	for tag, d := range b.inflight {
		if d.Acknowledger == driven.Acknowledger(c) {
			orphaned = append(orphaned, d)
			delete(b.inflight, tag)
		}
	}
	for i, ch := range b.channels {
		if ch == c {
			b.channels = append(b.channels[:i], b.channels[i+1:]...)
			break
		}
	}
	b.mu.Unlock()

	for _, d := range orphaned {
		b.requeue(d)
	}
	return nil
}

func stopped(ctx context.Context, done <-chan struct{}) bool {
	if ctx.Err() != nil {
		return true
	}
	select {
	case <-done:
		return true
	default:
		return false
	}
}
