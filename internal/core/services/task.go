package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/tasker/internal/core/domain"
	"github.com/custodia-labs/tasker/internal/core/ports/driven"
	"github.com/custodia-labs/tasker/internal/core/ports/driving"
	"github.com/custodia-labs/tasker/internal/core/validation"
	"github.com/custodia-labs/tasker/internal/logger"
)

// Ensure TaskService implements the interface.
var _ driving.TaskService = (*TaskService)(nil)

// TaskService manages the task lifecycle and announces task events.
//
// The store is the only source of truth; nothing is cached between calls.
// Events are published after the store write commits. A publish failure is
// returned to the caller but the write is not rolled back.
type TaskService struct {
	store     driven.TaskStore
	publisher driven.EventPublisher
}

// NewTaskService creates a new task service.
func NewTaskService(store driven.TaskStore, publisher driven.EventPublisher) *TaskService {
	return &TaskService{
		store:     store,
		publisher: publisher,
	}
}

// Create validates input, persists the task and publishes task.created.
// When only the publish fails, the committed task is returned together
// with the error.
func (s *TaskService) Create(ctx context.Context, input domain.TaskInput) (*domain.Task, error) {
	if s.store == nil {
		return nil, domain.ErrNotImplemented
	}
	newTask, err := validation.CreateTask(input)
	if err != nil {
		return nil, err
	}

	created, err := s.store.Create(ctx, newTask)
	if err != nil {
		return nil, storeError("creating task", err)
	}

	if err := s.publish(ctx, domain.EventTaskCreated, created); err != nil {
		return created, err
	}
	return created, nil
}

// Get retrieves a task by ID.
func (s *TaskService) Get(ctx context.Context, id string) (*domain.Task, error) {
	if s.store == nil {
		return nil, domain.ErrNotImplemented
	}
	id, err := validation.TaskID(id)
	if err != nil {
		return nil, err
	}
	task, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, storeError("finding task", err)
	}
	return task, nil
}

// List returns the tasks matching input.
func (s *TaskService) List(ctx context.Context, input domain.ListInput) ([]domain.Task, error) {
	if s.store == nil {
		return nil, domain.ErrNotImplemented
	}
	query, err := validation.ListQuery(input)
	if err != nil {
		return nil, err
	}
	tasks, err := s.store.FindAll(ctx, query)
	if err != nil {
		return nil, storeError("listing tasks", err)
	}
	return tasks, nil
}

// Update merges input into the stored task. task.completed is published
// only when the task moves into the completed status from another status.
// When only the publish fails, the updated task is returned together with
// the error.
func (s *TaskService) Update(ctx context.Context, id string, input domain.TaskInput) (*domain.Task, error) {
	if s.store == nil {
		return nil, domain.ErrNotImplemented
	}
	id, idErr := validation.TaskID(id)
	patch, patchErr := validation.UpdateTask(input)
	if err := mergeViolations(idErr, patchErr); err != nil {
		return nil, err
	}

	existing, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, storeError("finding task", err)
	}
	wasCompleted := existing.IsCompleted()

	updated, err := s.store.Update(ctx, existing, patch)
	if err != nil {
		return nil, storeError("updating task", err)
	}

	if !wasCompleted && updated.IsCompleted() {
		if err := s.publish(ctx, domain.EventTaskCompleted, updated); err != nil {
			return updated, err
		}
	}
	return updated, nil
}

// Delete removes a task. A missing task is reported as domain.ErrNotFound
// and nothing is mutated.
func (s *TaskService) Delete(ctx context.Context, id string) error {
	if s.store == nil {
		return domain.ErrNotImplemented
	}
	id, err := validation.TaskID(id)
	if err != nil {
		return err
	}
	existing, err := s.store.FindByID(ctx, id)
	if err != nil {
		return storeError("finding task", err)
	}
	if err := s.store.Delete(ctx, existing); err != nil {
		return storeError("deleting task", err)
	}
	return nil
}

func (s *TaskService) publish(ctx context.Context, eventType domain.EventType, task *domain.Task) error {
	if s.publisher == nil {
		return nil
	}
	if err := s.publisher.Publish(ctx, eventType, *task); err != nil {
		logger.Error("[queue] publishing %s for task %s: %v", eventType, task.ID, err)
		return fmt.Errorf("publishing %s: %w", eventType, err)
	}
	return nil
}

// storeError passes not-found through and wraps everything else as a
// record store failure.
func storeError(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStore, err)
}

// mergeViolations combines the validation errors of an ID and a body into
// one ValidationError, ID first.
func mergeViolations(errs ...error) error {
	merged := &domain.ValidationError{}
	for _, err := range errs {
		if err == nil {
			continue
		}
		var verr *domain.ValidationError
		if !errors.As(err, &verr) {
			return err
		}
		merged.Violations = append(merged.Violations, verr.Violations...)
	}
	return merged.OrNil()
}
