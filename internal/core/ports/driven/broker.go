package driven

import (
	"context"
	"time"
)

// Broker opens connections to the message broker. The broker address is
// owned by the adapter.
type Broker interface {
	// Connect dials the broker and opens a channel.
	Connect(ctx context.Context) (Channel, error)
}

// Channel is a live broker channel. Declarations are idempotent: declaring
// an existing durable exchange or queue with the same arguments is a no-op.
type Channel interface {
	// DeclareExchange declares an exchange of the given kind (e.g. "topic").
	DeclareExchange(ctx context.Context, name, kind string, durable bool) error

	// DeclareQueue declares a queue.
	DeclareQueue(ctx context.Context, name string, durable bool) error

	// BindQueue routes messages published to exchange with routingKey into queue.
	BindQueue(ctx context.Context, queue, exchange, routingKey string) error

	// Publish sends a message to an exchange.
	Publish(ctx context.Context, exchange, routingKey string, msg Publishing) error

	// Consume starts delivering messages from queue. The channel is closed
	// when ctx is cancelled or the broker channel closes.
	Consume(ctx context.Context, queue string) (<-chan Delivery, error)

	// IsClosed reports whether the channel or its connection is gone.
	IsClosed() bool

	// Close closes the channel and its connection.
	Close() error
}

// Publishing is an outgoing message.
type Publishing struct {
	Body        []byte
	ContentType string

	// Persistent asks the broker to write the message to disk.
	Persistent bool

	Timestamp time.Time
}

// Acknowledger settles deliveries with the broker.
type Acknowledger interface {
	// Ack confirms the delivery was processed.
	Ack(tag uint64) error

	// Nack rejects the delivery, optionally returning it to the queue.
	Nack(tag uint64, requeue bool) error
}

// Delivery is a message received from a queue.
type Delivery struct {
	Queue       string
	RoutingKey  string
	ContentType string
	Body        []byte

	// Redelivered is set when the broker delivered this message before.
	Redelivered bool

	// Tag identifies the delivery on its channel.
	Tag uint64

	Acknowledger Acknowledger
}

// Ack confirms the delivery.
func (d Delivery) Ack() error {
	return d.Acknowledger.Ack(d.Tag)
}

// Nack rejects the delivery.
func (d Delivery) Nack(requeue bool) error {
	return d.Acknowledger.Nack(d.Tag, requeue)
}
