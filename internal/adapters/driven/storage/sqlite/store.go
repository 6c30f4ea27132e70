package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/tasker/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/tasker/internal/core/domain"
	"github.com/custodia-labs/tasker/internal/core/ports/driven"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store is a SQLite-backed record store.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.tasker/data/tasks.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".tasker", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "tasks.db")

	// WAL mode lets readers proceed while a write is in progress.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
		now:  time.Now,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// TaskStore returns a TaskStore interface backed by this store.
func (s *Store) TaskStore() driven.TaskStore {
	return &taskStore{store: s}
}

// SchemaVersion returns the highest applied migration version.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	row := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&version); err != nil {
		return 0, fmt.Errorf("getting schema version: %w", err)
	}
	return version, nil
}

// migrate runs all pending up migrations in version order, each in its own
// transaction together with its schema_migrations record.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	currentVersion, err := s.SchemaVersion(context.Background())
	if err != nil {
		return err
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_tasks.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if err := s.applyMigration(version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

func (s *Store) applyMigration(version int, script string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(script); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}

// ==================== Task Store ====================

// taskStore implements driven.TaskStore.
type taskStore struct {
	store *Store
}

var _ driven.TaskStore = (*taskStore)(nil)

const taskColumns = "id, title, description, due_date, status, created_at, updated_at"

// Create inserts a task with a fresh UUID.
func (s *taskStore) Create(ctx context.Context, task domain.NewTask) (*domain.Task, error) {
	status := task.ResolvedStatus()
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: status %q", domain.ErrInvalidInput, status)
	}

	now := s.store.now().UTC()
	created := &domain.Task{
		ID:          uuid.NewString(),
		Title:       task.Title,
		Description: task.Description,
		DueDate:     utc(task.DueDate),
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		created.ID,
		created.Title,
		created.Description,
		formatNullTime(created.DueDate),
		string(created.Status),
		formatTime(created.CreatedAt),
		formatTime(created.UpdatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting task: %w", err)
	}
	return created, nil
}

// FindByID retrieves a task by ID.
func (s *taskStore) FindByID(ctx context.Context, id string) (*domain.Task, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	return scanTask(row)
}

// FindAll returns the tasks matching query in query order.
func (s *taskStore) FindAll(ctx context.Context, query domain.ListQuery) ([]domain.Task, error) {
	var (
		where []string
		args  []any
	)
	if query.Status != nil {
		where = append(where, "status = ?")
		args = append(args, string(*query.Status))
	}
	if query.DueDate != nil {
		where = append(where, "due_date = ?")
		args = append(args, formatTime(*query.DueDate))
	}

	stmt := `SELECT ` + taskColumns + ` FROM tasks`
	if len(where) > 0 {
		stmt += " WHERE " + strings.Join(where, " AND ")
	}
	stmt += " ORDER BY " + orderBy(query)

	rows, err := s.store.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}
	return tasks, nil
}

// Update merges patch into the stored row inside a transaction.
func (s *taskStore) Update(ctx context.Context, existing *domain.Task, patch domain.TaskPatch) (*domain.Task, error) {
	if patch.Status != nil && !patch.Status.IsValid() {
		return nil, fmt.Errorf("%w: status %q", domain.ErrInvalidInput, *patch.Status)
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	current, err := scanTask(tx.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, existing.ID))
	if err != nil {
		return nil, err
	}

	updated := current.Apply(patch)
	updated.UpdatedAt = s.store.now().UTC()

	_, err = tx.ExecContext(ctx, `
		UPDATE tasks
		SET title = ?, description = ?, due_date = ?, status = ?, updated_at = ?
		WHERE id = ?
	`,
		updated.Title,
		updated.Description,
		formatNullTime(updated.DueDate),
		string(updated.Status),
		formatTime(updated.UpdatedAt),
		updated.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating task: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing task update: %w", err)
	}
	return &updated, nil
}

// Delete removes a task.
func (s *taskStore) Delete(ctx context.Context, existing *domain.Task) error {
	result, err := s.store.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, existing.ID)
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking deleted rows: %w", err)
	}
	if n == 0 {
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
		return "(due_date IS NULL) ASC, due_date " + dir + ", created_at ASC, id ASC"
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task                 domain.Task
		status               string
		dueDate              sql.NullString
		createdAt, updatedAt string
	)
	err := row.Scan(&task.ID, &task.Title, &task.Description, &dueDate, &status, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning task: %w", err)
	}

	task.Status = domain.TaskStatus(status)
	if dueDate.Valid {
		t, err := parseTime(dueDate.String)
		if err != nil {
			return nil, err
		}
		task.DueDate = &t
	}
	if task.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if task.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &task, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatNullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing stored time %q: %w", s, err)
	}
	return t.UTC(), nil
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
