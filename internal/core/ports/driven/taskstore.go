package driven

import (
	"context"

	"github.com/custodia-labs/tasker/internal/core/domain"
)

// TaskStore persists tasks. It is the authoritative record of which tasks
// exist; callers never cache task state across requests.
type TaskStore interface {
	// Create persists a new task, assigning its ID and applying the
	// default status when none is given.
	Create(ctx context.Context, task domain.NewTask) (*domain.Task, error)

	// FindByID retrieves a task. Returns domain.ErrNotFound if absent.
	FindByID(ctx context.Context, id string) (*domain.Task, error)

	// FindAll returns the tasks matching the query filters in query order.
	FindAll(ctx context.Context, query domain.ListQuery) ([]domain.Task, error)

	// Update merges patch into existing and returns the stored result.
	Update(ctx context.Context, existing *domain.Task, patch domain.TaskPatch) (*domain.Task, error)

	// Delete removes existing.
	Delete(ctx context.Context, existing *domain.Task) error
}
