package amqp

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/custodia-labs/tasker/internal/core/ports/driven"
	"github.com/custodia-labs/tasker/internal/logger"
)

// DefaultDialTimeout bounds the TCP and handshake phase of Connect.
const DefaultDialTimeout = 10 * time.Second

// prefetch is the number of unacknowledged deliveries per consumer.
const prefetch = 1

// Ensure Broker implements the interface.
var _ driven.Broker = (*Broker)(nil)

// Broker dials an AMQP server.
type Broker struct {
	url         string
	dialTimeout time.Duration
}

// NewBroker creates a broker for the given amqp:// or amqps:// URL.
func NewBroker(rawURL string) (*Broker, error) {
	if _, err := amqp.ParseURI(rawURL); err != nil {
		return nil, fmt.Errorf("parsing broker url: %w", err)
	}
	return &Broker{
		url:         rawURL,
		dialTimeout: DefaultDialTimeout,
	}, nil
}

// ErrNotConfirmed is returned when the server nacks a publish or drops the
// channel before confirming it.
var ErrNotConfirmed = errors.New("publish not confirmed by broker")

// Connect dials the server and opens a channel in confirm mode.
func (b *Broker) Connect(ctx context.Context) (driven.Channel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	props := amqp.NewConnectionProperties()
	props.SetClientConnectionName("tasker")

	conn, err := amqp.DialConfig(b.url, amqp.Config{
		Dial:       amqp.DefaultDial(b.dialTimeout),
		Properties: props,
	})
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", redact(b.url), err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("opening channel: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("enabling publisher confirms: %w", err)
	}

	logger.Debug("[queue] connected to %s", redact(b.url))
	return &Channel{conn: conn, ch: ch}, nil
}

// Ensure Channel implements the interfaces.
var (
	_ driven.Channel      = (*Channel)(nil)
	_ driven.Acknowledger = (*Channel)(nil)
)

// Channel is an AMQP channel together with the connection that owns it.
type Channel struct {
	conn *amqp.Connection
	ch   *amqp.Channel

	qosOnce sync.Once
	qosErr  error
}

// DeclareExchange declares an exchange.
func (c *Channel) DeclareExchange(_ context.Context, name, kind string, durable bool) error {
	if err := c.ch.ExchangeDeclare(name, kind, durable, false, false, false, nil); err != nil {
		return fmt.Errorf("declaring exchange %s: %w", name, err)
	}
	return nil
}

// DeclareQueue declares a queue.
func (c *Channel) DeclareQueue(_ context.Context, name string, durable bool) error {
	if _, err := c.ch.QueueDeclare(name, durable, false, false, false, nil); err != nil {
		return fmt.Errorf("declaring queue %s: %w", name, err)
	}
	return nil
}

// BindQueue binds queue to exchange with routingKey.
func (c *Channel) BindQueue(_ context.Context, queue, exchange, routingKey string) error {
	if err := c.ch.QueueBind(queue, routingKey, exchange, false, nil); err != nil {
		return fmt.Errorf("binding queue %s to %s: %w", queue, exchange, err)
	}
	return nil
}

// Publish sends msg to exchange and waits for the server to confirm it.
// A publish to a missing exchange closes the channel and is not confirmed.
func (c *Channel) Publish(ctx context.Context, exchange, routingKey string, msg driven.Publishing) error {
	dc, err := c.ch.PublishWithDeferredConfirmWithContext(ctx, exchange, routingKey, false, false, toPublishing(msg))
	if err != nil {
		return fmt.Errorf("publishing to %s: %w", exchange, err)
	}
	if dc == nil {
		return fmt.Errorf("publishing to %s: %w: channel not in confirm mode", exchange, ErrNotConfirmed)
	}
	acked, err := dc.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("publishing to %s: %w", exchange, err)
	}
	if !acked {
		return fmt.Errorf("publishing to %s: %w", exchange, ErrNotConfirmed)
	}
	return nil
}

// IsClosed reports whether the channel or its connection has shut down.
func (c *Channel) IsClosed() bool {
	return c.ch.IsClosed() || c.conn.IsClosed()
}

// Consume subscribes to queue with manual acknowledgement. The returned
// channel closes when ctx is cancelled or the server ends the subscription.
func (c *Channel) Consume(ctx context.Context, queue string) (<-chan driven.Delivery, error) {
	c.qosOnce.Do(func() {
		c.qosErr = c.ch.Qos(prefetch, 0, false)
	})
	if c.qosErr != nil {
		return nil, fmt.Errorf("setting prefetch: %w", c.qosErr)
	}

	consumerTag := "tasker-" + uuid.NewString()
	msgs, err := c.ch.Consume(queue, consumerTag, false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consuming %s: %w", queue, err)
	}

	out := make(chan driven.Delivery)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				_ = c.ch.Cancel(consumerTag, false)
				return
			case m, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- c.fromDelivery(queue, m):
				case <-ctx.Done():
					// Hand the message back before leaving.
					_ = c.ch.Nack(m.DeliveryTag, false, true)
					_ = c.ch.Cancel(consumerTag, false)
					return
				}
			}
		}
	}()
	return out, nil
}

// Ack confirms a single delivery.
func (c *Channel) Ack(tag uint64) error {
	return c.ch.Ack(tag, false)
}

// Nack rejects a single delivery.
func (c *Channel) Nack(tag uint64, requeue bool) error {
	return c.ch.Nack(tag, false, requeue)
}

// Close closes the channel and then the connection.
func (c *Channel) Close() error {
	var errs []error
	if err := c.ch.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		errs = append(errs, fmt.Errorf("closing channel: %w", err))
	}
	if err := c.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		errs = append(errs, fmt.Errorf("closing connection: %w", err))
	}
	return errors.Join(errs...)
}

func toPublishing(msg driven.Publishing) amqp.Publishing {
	mode := amqp.Transient
	if msg.Persistent {
		mode = amqp.Persistent
	}
	return amqp.Publishing{
		ContentType:  msg.ContentType,
		DeliveryMode: mode,
		Timestamp:    msg.Timestamp,
		Body:         msg.Body,
	}
}

func (c *Channel) fromDelivery(queue string, m amqp.Delivery) driven.Delivery {
	return driven.Delivery{
		Queue:        queue,
		RoutingKey:   m.RoutingKey,
		ContentType:  m.ContentType,
		Body:         m.Body,
		Redelivered:  m.Redelivered,
		Tag:          m.DeliveryTag,
		Acknowledger: c,
	}
}

// redact hides the password of a broker URL for logging.
func redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid url>"
	}
	return u.Redacted()
}
