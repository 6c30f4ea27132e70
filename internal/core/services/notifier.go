package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/tasker/internal/core/domain"
	"github.com/custodia-labs/tasker/internal/core/ports/driving"
	"github.com/custodia-labs/tasker/internal/logger"
)

// Notifier handles task events by recording the side effects downstream
// systems would perform. It sends nothing itself.
type Notifier struct {
	// record receives one line per side effect. Defaults to logger.Info.
	record func(format string, args ...any)
}

// NewNotifier creates a notifier that logs its intents.
func NewNotifier() *Notifier {
	return &Notifier{record: logger.Info}
}

// Register subscribes the notifier to every task event type.
func (n *Notifier) Register(consumer driving.EventConsumer) {
	consumer.Register(domain.EventTaskCreated, driving.EventHandlerFunc(n.TaskCreated))
	consumer.Register(domain.EventTaskCompleted, driving.EventHandlerFunc(n.TaskCompleted))
}

// TaskCreated records a notification and an analytics intent.
func (n *Notifier) TaskCreated(_ context.Context, envelope domain.Envelope) error {
	if envelope.Type != domain.EventTaskCreated {
		return fmt.Errorf("%w: expected %s, got %q", domain.ErrInvalidInput, domain.EventTaskCreated, envelope.Type)
	}
	task := envelope.Payload
	n.record("[notify] new task %q (%s)", task.Title, task.ID)
	n.record("[analytics] task created: %s status=%s", task.ID, task.Status)
	return nil
}

// TaskCompleted records a notification and an email intent.
func (n *Notifier) TaskCompleted(_ context.Context, envelope domain.Envelope) error {
	if envelope.Type != domain.EventTaskCompleted {
		return fmt.Errorf("%w: expected %s, got %q", domain.ErrInvalidInput, domain.EventTaskCompleted, envelope.Type)
	}
	task := envelope.Payload
	n.record("[notify] task %q completed (%s)", task.Title, task.ID)
	n.record("[email] completion summary for task %s at %s", task.ID, envelope.Timestamp.Format("2006-01-02T15:04:05.000Z07:00"))
	return nil
}
