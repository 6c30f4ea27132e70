package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/tasker/internal/core/ports/driven"
)

// queueCapacity bounds the number of undelivered messages per queue.
const queueCapacity = 1024

var (
	// ErrChannelClosed is returned by operations on a closed channel.
	ErrChannelClosed = errors.New("channel closed")

	// ErrExchangeNotFound is returned when publishing or binding to an
	// exchange that was never declared. The channel is closed as well.
	ErrExchangeNotFound = errors.New("exchange not found")

	// ErrQueueNotFound is returned when binding or consuming a queue that
	// was never declared.
	ErrQueueNotFound = errors.New("queue not found")

	// ErrQueueFull is returned when a routed message does not fit its queue.
	ErrQueueFull = errors.New("queue full")
)

// Ensure Broker implements the interface.
var _ driven.Broker = (*Broker)(nil)

// Message is a message accepted by an exchange.
type Message struct {
	Exchange   string
	RoutingKey string
	driven.Publishing
}

// Settlement records how a delivery was settled.
type Settlement struct {
	Tag     uint64
	Queue   string
	Acked   bool
	Requeue bool
}

type binding struct {
	queue    string
	exchange string
	key      string
}

type queue struct {
	name    string
	durable bool
	ch      chan driven.Delivery
}

// Broker is an in-process topic broker implementing driven.Broker.
// It keeps declared exchanges, queues and bindings across connections,
// so it behaves like a durable broker that outlives its clients.
type Broker struct {
	mu        sync.Mutex
	exchanges map[string]string
	queues    map[string]*queue
	bindings  []binding
	published []Message
	settled   []Settlement
	inflight  map[uint64]driven.Delivery
	channels  []*Channel
	nextTag   uint64
	connects  int

	connectErr error
	publishErr error
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{
		exchanges: make(map[string]string),
		queues:    make(map[string]*queue),
		inflight:  make(map[uint64]driven.Delivery),
	}
}

// Connect opens a channel. It fails with the error set by SetConnectError.
func (b *Broker) Connect(_ context.Context) (driven.Channel, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.connects++
	if b.connectErr != nil {
		return nil, b.connectErr
	}
	ch := &Channel{broker: b}
	b.channels = append(b.channels, ch)
	return ch, nil
}

// SetConnectError makes subsequent Connect calls fail. Nil restores them.
func (b *Broker) SetConnectError(err error) {
	b.mu.Lock()
	b.connectErr = err
	b.mu.Unlock()
}

// SetPublishError makes subsequent publishes fail and close their channel,
// the way a broker drops a channel on a protocol error. Nil restores them.
func (b *Broker) SetPublishError(err error) {
	b.mu.Lock()
	b.publishErr = err
	b.mu.Unlock()
}

// Disconnect closes every open channel, simulating a lost connection.
func (b *Broker) Disconnect() {
	b.mu.Lock()
	channels := b.channels
	b.channels = nil
	b.mu.Unlock()

	for _, ch := range channels {
		_ = ch.Close()
	}
}

// Connects returns how many times Connect was called.
func (b *Broker) Connects() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connects
}

// ExchangeKind returns the kind of a declared exchange.
func (b *Broker) ExchangeKind(name string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	kind, ok := b.exchanges[name]
	return kind, ok
}

// HasQueue returns true if the queue was declared.
func (b *Broker) HasQueue(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.queues[name]
	return ok
}

// HasBinding returns true if queue is bound to exchange with key.
func (b *Broker) HasBinding(queueName, exchange, key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, bd := range b.bindings {
		if bd.queue == queueName && bd.exchange == exchange && bd.key == key {
			return true
		}
	}
	return false
}

// Published returns every message accepted by an exchange, in order.
func (b *Broker) Published() []Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Message, len(b.published))
	copy(out, b.published)
	return out
}

// Settlements returns every ack and nack, in order.
func (b *Broker) Settlements() []Settlement {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Settlement, len(b.settled))
	copy(out, b.settled)
	return out
}

// QueueLen returns the number of messages waiting in a queue.
func (b *Broker) QueueLen(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	q, ok := b.queues[name]
	if !ok {
		return 0
	}
	return len(q.ch)
}

// Unsettled returns the number of deliveries handed to consumers and not
// yet acked or nacked.
func (b *Broker) Unsettled() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.inflight)
}

func (b *Broker) publish(exchange, key string, msg driven.Publishing) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.publishErr != nil {
		return b.publishErr
	}
	if _, ok := b.exchanges[exchange]; !ok {
		return fmt.Errorf("%w: %s", ErrExchangeNotFound, exchange)
	}

	body := make([]byte, len(msg.Body))
	copy(body, msg.Body)
	msg.Body = body
	b.published = append(b.published, Message{Exchange: exchange, RoutingKey: key, Publishing: msg})

	// Unroutable messages are dropped, as with a non-mandatory publish.
	routed := make(map[string]bool)
	for _, bd := range b.bindings {
		if bd.exchange != exchange || routed[bd.queue] || !MatchTopic(bd.key, key) {
			continue
		}
		routed[bd.queue] = true
		q := b.queues[bd.queue]
		d := driven.Delivery{
			Queue:       q.name,
			RoutingKey:  key,
			ContentType: msg.ContentType,
			Body:        body,
		}
		select {
		case q.ch <- d:
		default:
			return fmt.Errorf("%w: %s", ErrQueueFull, q.name)
		}
	}
	return nil
}

// deliver assigns a delivery tag and tracks the delivery until settled.
func (b *Broker) deliver(ch *Channel, d driven.Delivery) driven.Delivery {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextTag++
	d.Tag = b.nextTag
	d.Acknowledger = ch
	b.inflight[d.Tag] = d
	return d
}

// release forgets a delivery that never reached a consumer.
func (b *Broker) release(tag uint64) {
	b.mu.Lock()
	delete(b.inflight, tag)
	b.mu.Unlock()
}

// requeue puts a delivery back at the tail of its queue.
func (b *Broker) requeue(d driven.Delivery) {
	b.mu.Lock()
	q, ok := b.queues[d.Queue]
	b.mu.Unlock()
	if !ok {
		return
	}
	d.Redelivered = true
	d.Tag = 0
	d.Acknowledger = nil
	select {
	case q.ch <- d:
	default:
	}
}

func (b *Broker) settle(tag uint64, ack, requeue bool) error {
	b.mu.Lock()
	d, ok := b.inflight[tag]
	if !ok {
		b.mu.Unlock()
		return fmt.Errorf("unknown delivery tag %d", tag)
	}
	delete(b.inflight, tag)
	b.settled = append(b.settled, Settlement{Tag: tag, Queue: d.Queue, Acked: ack, Requeue: requeue})
	b.mu.Unlock()

	if !ack && requeue {
		b.requeue(d)
	}
	return nil
}

// MatchTopic reports whether a routing key matches a topic binding pattern.
// Words are separated by dots; "*" matches exactly one word and "#" matches
// zero or more words.
func MatchTopic(pattern, key string) bool {
	return matchWords(strings.Split(pattern, "."), strings.Split(key, "."))
}

func matchWords(pattern, key []string) bool {
	if len(pattern) == 0 {
		return len(key) == 0
	}
	switch pattern[0] {
	case "#":
		for i := 0; i <= len(key); i++ {
			if matchWords(pattern[1:], key[i:]) {
				return true
			}
		}
		return false
	case "*":
		return len(key) > 0 && matchWords(pattern[1:], key[1:])
	default:
		return len(key) > 0 && pattern[0] == key[0] && matchWords(pattern[1:], key[1:])
	}
}
