package driven

import (
	"context"

	"github.com/custodia-labs/tasker/internal/core/domain"
)

// EventPublisher announces task events to downstream consumers.
type EventPublisher interface {
	// Publish wraps task in an envelope of the given type and dispatches it
	// durably. An error means the event was not handed to the broker.
	Publish(ctx context.Context, eventType domain.EventType, task domain.Task) error
}
