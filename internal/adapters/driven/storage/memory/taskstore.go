package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/tasker/internal/core/domain"
	"github.com/custodia-labs/tasker/internal/core/ports/driven"
)

// Ensure TaskStore implements the interface.
var _ driven.TaskStore = (*TaskStore)(nil)

// TaskStore is an in-memory implementation of driven.TaskStore.
type TaskStore struct {
	mu    sync.RWMutex
	tasks map[string]domain.Task
	now   func() time.Time
}

// NewTaskStore creates a new in-memory task store.
func NewTaskStore() *TaskStore {
	return &TaskStore{
		tasks: make(map[string]domain.Task),
		now:   time.Now,
	}
}

// Create stores a new task with a fresh UUID.
func (s *TaskStore) Create(_ context.Context, task domain.NewTask) (*domain.Task, error) {
	status := task.ResolvedStatus()
	if !status.IsValid() {
		return nil, domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	created := domain.Task{
		ID:          uuid.NewString(),
		Title:       task.Title,
		Description: task.Description,
		DueDate:     utcCopy(task.DueDate),
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.tasks[created.ID] = created
	return &created, nil
}

// FindByID retrieves a task by ID.
func (s *TaskStore) FindByID(_ context.Context, id string) (*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &task, nil
}

// FindAll returns matching tasks in query order.
// Tasks without a due date sort after dated tasks in either direction.
func (s *TaskStore) FindAll(_ context.Context, query domain.ListQuery) ([]domain.Task, error) {
	s.mu.RLock()
	result := make([]domain.Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		if query.Matches(&task) {
			result = append(result, task)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(result, func(i, j int) bool {
		return less(&result[i], &result[j], query)
	})
	return result, nil
}

// Update merges patch into the stored task.
func (s *TaskStore) Update(_ context.Context, existing *domain.Task, patch domain.TaskPatch) (*domain.Task, error) {
	if patch.Status != nil && !patch.Status.IsValid() {
		return nil, domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.tasks[existing.ID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	updated := current.Apply(patch)
	updated.UpdatedAt = s.now().UTC()
	s.tasks[updated.ID] = updated
	return &updated, nil
}

// Delete removes a task.
func (s *TaskStore) Delete(_ context.Context, existing *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, existing.ID)
	return nil
}

// Len returns the number of stored tasks.
func (s *TaskStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

func less(a, b *domain.Task, query domain.ListQuery) bool {
	desc := query.SortOrder == domain.SortDesc

	switch query.SortBy {
	case domain.SortByTitle:
		if a.Title != b.Title {
			if desc {
				return a.Title > b.Title
			}
			return a.Title < b.Title
		}
	default:
		switch {
		case a.DueDate == nil && b.DueDate != nil:
			return false
		case a.DueDate != nil && b.DueDate == nil:
			return true
		case a.DueDate != nil && !a.DueDate.Equal(*b.DueDate):
			if desc {
				return a.DueDate.After(*b.DueDate)
			}
			return a.DueDate.Before(*b.DueDate)
		}
	}

	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

func utcCopy(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
