package driving

import (
	"context"

	"github.com/custodia-labs/tasker/internal/core/domain"
)

// EventHandler processes one decoded event envelope. Returning an error
// leaves the message unacknowledged and subject to the redelivery policy.
type EventHandler interface {
	Handle(ctx context.Context, envelope domain.Envelope) error
}

// EventHandlerFunc adapts a function to EventHandler.
type EventHandlerFunc func(ctx context.Context, envelope domain.Envelope) error

// Handle calls f.
func (f EventHandlerFunc) Handle(ctx context.Context, envelope domain.Envelope) error {
	return f(ctx, envelope)
}

// EventConsumer subscribes handlers to the task event queues.
type EventConsumer interface {
	// Register routes events of eventType to handler.
	Register(eventType domain.EventType, handler EventHandler)

	// Start begins consuming. It returns once every queue is subscribed.
	Start(ctx context.Context) error

	// Stop cancels consumption and waits for in-flight messages.
	Stop() error
}
