package domain

import "time"

// EventType identifies what happened to a task.
type EventType string

// Task event types. The value doubles as the routing key and queue name.
const (
	// EventTaskCreated is announced for every created task.
	EventTaskCreated EventType = "task.created"

	// EventTaskCompleted is announced when a task enters StatusCompleted
	// from any other status.
	EventTaskCompleted EventType = "task.completed"
)

// AllEventTypes returns every event type tasker publishes.
func AllEventTypes() []EventType {
	return []EventType{EventTaskCreated, EventTaskCompleted}
}

// IsValid returns true if the event type is recognised.
func (t EventType) IsValid() bool {
	return t == EventTaskCreated || t == EventTaskCompleted
}

// String returns the string representation.
func (t EventType) String() string {
	return string(t)
}

// ContentTypeJSON is the content type of serialised envelopes.
const ContentTypeJSON = "application/json"

// Envelope is the unit dispatched to the broker.
type Envelope struct {
	// Type is the event type.
	Type EventType `json:"type"`

	// Payload is the full task snapshot at the moment of the mutation.
	Payload Task `json:"payload"`

	// Timestamp is when the envelope was built (publish time).
	Timestamp time.Time `json:"timestamp"`
}

// NewEnvelope builds an envelope stamped with now in UTC at millisecond precision.
func NewEnvelope(eventType EventType, task Task, now time.Time) Envelope {
	return Envelope{
		Type:      eventType,
		Payload:   task,
		Timestamp: now.UTC().Truncate(time.Millisecond),
	}
}

// ExchangeKindTopic is the AMQP topic exchange kind.
const ExchangeKindTopic = "topic"

// DefaultExchange is the exchange task events are published to.
const DefaultExchange = "task.events"

// QueueBinding binds one durable queue to the exchange.
type QueueBinding struct {
	Queue      string
	RoutingKey string
}

// Topology describes the durable broker objects events travel through.
type Topology struct {
	Exchange     string
	ExchangeKind string
	Bindings     []QueueBinding
}

// DefaultTopology returns one topic exchange with one queue per event type,
// each bound with a routing key equal to the event type.
func DefaultTopology() Topology {
	return NewTopology(DefaultExchange)
}

// NewTopology returns the default bindings on the named exchange.
func NewTopology(exchange string) Topology {
	if exchange == "" {
		exchange = DefaultExchange
	}
	types := AllEventTypes()
	bindings := make([]QueueBinding, len(types))
	for i, t := range types {
		bindings[i] = QueueBinding{Queue: t.String(), RoutingKey: t.String()}
	}
	return Topology{
		Exchange:     exchange,
		ExchangeKind: ExchangeKindTopic,
		Bindings:     bindings,
	}
}

// QueueFor returns the queue bound for an event type.
func (t Topology) QueueFor(eventType EventType) (string, bool) {
	for _, b := range t.Bindings {
		if b.RoutingKey == eventType.String() {
			return b.Queue, true
		}
	}
	return "", false
}

// RedeliveryPolicy decides what the consumer does with a message whose
// handler failed.
type RedeliveryPolicy struct {
	// Requeue returns a failed first delivery to the queue. A message that
	// fails again after redelivery is rejected without requeue.
	Requeue bool

	// Delay is waited before a failed message is requeued.
	Delay time.Duration
}

// DefaultRedeliveryPolicy requeues a failed message once after one second.
func DefaultRedeliveryPolicy() RedeliveryPolicy {
	return RedeliveryPolicy{
		Requeue: true,
		Delay:   time.Second,
	}
}
