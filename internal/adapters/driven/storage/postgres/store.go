package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/custodia-labs/tasker/internal/core/domain"
	"github.com/custodia-labs/tasker/internal/core/ports/driven"
	"github.com/custodia-labs/tasker/internal/logger"
)

const tasksTable = "tasks"

// Store is a PostgreSQL-backed record store.
type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewStore connects to the database at url and ensures the schema exists.
func NewStore(ctx context.Context, url string) (*Store, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: postgres url is required", domain.ErrInvalidInput)
	}

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	s := NewStoreFromPool(pool)
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	logger.Debug("[store] connected to postgres")
	return s, nil
}

// NewStoreFromPool wraps an existing pool. The caller owns schema setup.
func NewStoreFromPool(pool *pgxpool.Pool) *Store {
	return &Store{
		pool: pool,
		now:  time.Now,
	}
}

// EnsureSchema creates the tasks table and its indexes if they don't exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("task store not initialized")
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS ` + tasksTable + ` (
    id          UUID PRIMARY KEY,
    title       TEXT NOT NULL CHECK (length(title) BETWEEN 1 AND 255),
    description TEXT NOT NULL DEFAULT '',
    due_date    TIMESTAMPTZ,
    status      TEXT NOT NULL DEFAULT 'open'
                CHECK (status IN ('open', 'in progress', 'completed', 'blocked')),
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_status ON ` + tasksTable + ` (status)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_due_date ON ` + tasksTable + ` (due_date)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure task schema: %w", err)
		}
	}
	return nil
}

// Close releases every pooled connection.
func (s *Store) Close() {
	s.pool.Close()
}

// TaskStore returns a TaskStore interface backed by this store.
func (s *Store) TaskStore() driven.TaskStore {
	return &taskStore{store: s}
}

// taskStore implements driven.TaskStore.
type taskStore struct {
	store *Store
}

var _ driven.TaskStore = (*taskStore)(nil)

const (
	taskColumns   = "id, title, description, due_date, status, created_at, updated_at"
	selectColumns = "id::text, title, description, due_date, status, created_at, updated_at"
)

// Create inserts a task with a fresh UUID.
func (s *taskStore) Create(ctx context.Context, task domain.NewTask) (*domain.Task, error) {
	status := task.ResolvedStatus()
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: status %q", domain.ErrInvalidInput, status)
	}

	// Postgres keeps microseconds; truncate so the returned task equals what
	// a later read produces.
	now := s.store.now().UTC().Truncate(time.Microsecond)
	created := &domain.Task{
		ID:          uuid.NewString(),
		Title:       task.Title,
		Description: task.Description,
		DueDate:     storedTime(task.DueDate),
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := s.store.pool.Exec(ctx, `
		INSERT INTO `+tasksTable+` (`+taskColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		created.ID,
		created.Title,
		created.Description,
		created.DueDate,
		string(created.Status),
		created.CreatedAt,
		created.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return created, nil
}

// FindByID retrieves a task by ID.
func (s *taskStore) FindByID(ctx context.Context, id string) (*domain.Task, error) {
	if _, err := uuid.Parse(id); err != nil {
		// The id column is UUID typed; anything else cannot exist.
		return nil, domain.ErrNotFound
	}
	row := s.store.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM `+tasksTable+` WHERE id = $1`, id)
	return scanTask(row)
}

// FindAll returns the tasks matching query in query order.
func (s *taskStore) FindAll(ctx context.Context, query domain.ListQuery) ([]domain.Task, error) {
	var (
		where []string
		args  []any
	)
	if query.Status != nil {
		args = append(args, string(*query.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if query.DueDate != nil {
		args = append(args, query.DueDate.UTC())
		where = append(where, fmt.Sprintf("due_date = $%d", len(args)))
	}

	stmt := `SELECT ` + selectColumns + ` FROM ` + tasksTable
	if len(where) > 0 {
		stmt += " WHERE " + strings.Join(where, " AND ")
	}
	stmt += " ORDER BY " + orderBy(query)

	rows, err := s.store.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	return collectTasks(rows)
}

// Update merges patch into the stored row under a row lock.
func (s *taskStore) Update(ctx context.Context, existing *domain.Task, patch domain.TaskPatch) (*domain.Task, error) {
	if patch.Status != nil && !patch.Status.IsValid() {
		return nil, fmt.Errorf("%w: status %q", domain.ErrInvalidInput, *patch.Status)
	}
	if _, err := uuid.Parse(existing.ID); err != nil {
		return nil, domain.ErrNotFound
	}

	tx, err := s.store.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	current, err := scanTask(tx.QueryRow(ctx,
		`SELECT `+selectColumns+` FROM `+tasksTable+` WHERE id = $1 FOR UPDATE`, existing.ID))
	if err != nil {
		return nil, err
	}

	updated := current.Apply(patch)
	updated.DueDate = storedTime(updated.DueDate)
	updated.UpdatedAt = s.store.now().UTC().Truncate(time.Microsecond)

	_, err = tx.Exec(ctx, `
		UPDATE `+tasksTable+`
		SET title = $2, description = $3, due_date = $4, status = $5, updated_at = $6
		WHERE id = $1`,
		updated.ID,
		updated.Title,
		updated.Description,
		updated.DueDate,
		string(updated.Status),
		updated.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit task update: %w", err)
	}
	return &updated, nil
}

// Delete removes a task.
func (s *taskStore) Delete(ctx context.Context, existing *domain.Task) error {
	if _, err := uuid.Parse(existing.ID); err != nil {
		return domain.ErrNotFound
	}
	tag, err := s.store.pool.Exec(ctx, `DELETE FROM `+tasksTable+` WHERE id = $1`, existing.ID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// orderBy builds the ORDER BY clause. Undated tasks sort last in both
// directions; ties fall back to creation order.
func orderBy(query domain.ListQuery) string {
	dir := "ASC"
	if query.SortOrder == domain.SortDesc {
		dir = "DESC"
	}
	switch query.SortBy {
	case domain.SortByTitle:
		return "title " + dir + ", created_at ASC, id ASC"
	default:
		return "due_date " + dir + " NULLS LAST, created_at ASC, id ASC"
	}
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var (
		task    domain.Task
		status  string
		dueDate *time.Time
	)
	err := row.Scan(&task.ID, &task.Title, &task.Description, &dueDate, &status, &task.CreatedAt, &task.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan task: %w", err)
	}

	task.Status = domain.TaskStatus(status)
	task.DueDate = storedTime(dueDate)
	task.CreatedAt = task.CreatedAt.UTC()
	task.UpdatedAt = task.UpdatedAt.UTC()
	return &task, nil
}

func collectTasks(rows pgx.Rows) ([]domain.Task, error) {
	defer rows.Close()

	tasks := make([]domain.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

// storedTime converts t to UTC at the microsecond precision of TIMESTAMPTZ.
func storedTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC().Truncate(time.Microsecond)
	return &u
}
