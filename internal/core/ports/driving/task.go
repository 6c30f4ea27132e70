package driving

import (
	"context"

	"github.com/custodia-labs/tasker/internal/core/domain"
)

// TaskService manages the task lifecycle.
//
// Every method validates its raw input first; validation failures are
// returned as *domain.ValidationError before any store or broker access.
type TaskService interface {
	// Create persists a new task and announces task.created.
	Create(ctx context.Context, input domain.TaskInput) (*domain.Task, error)

	// Get retrieves a task by ID.
	Get(ctx context.Context, id string) (*domain.Task, error)

	// List returns tasks matching the filters in the requested order.
	List(ctx context.Context, input domain.ListInput) ([]domain.Task, error)

	// Update applies a partial update and announces task.completed when the
	// task enters the completed status.
	Update(ctx context.Context, id string, input domain.TaskInput) (*domain.Task, error)

	// Delete removes a task. No event is announced.
	Delete(ctx context.Context, id string) error
}
