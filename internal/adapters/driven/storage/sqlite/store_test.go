package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tasker/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/tasker/internal/core/domain"
	"github.com/custodia-labs/tasker/internal/core/ports/driven"
)

// setupTestStore creates a SQLite store in a temporary directory.
func setupTestStore(t *testing.T) (*Store, driven.TaskStore) {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})

	return store, store.TaskStore()
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func titles(tasks []domain.Task) []string {
	out := make([]string, len(tasks))
	for i := range tasks {
		out[i] = tasks[i].Title
	}
	return out
}

// ==================== Store Creation and Migrations ====================

func TestNewStore_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(dir, "tasks.db"), store.Path())
	assert.FileExists(t, store.Path())

	version, err := store.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, version)
}

func TestNewStore_ReopenDoesNotReapplyMigrations(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewStore(dir)
	require.NoError(t, err)
	created, err := first.TaskStore().Create(ctx, domain.NewTask{Title: "persisted"})
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := NewStore(dir)
	require.NoError(t, err)
	defer second.Close()

	found, err := second.TaskStore().FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "persisted", found.Title)

	version, err := second.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, version)
}

func TestMigrationsEmbedded(t *testing.T) {
	content, err := migrations.FS.ReadFile("001_tasks.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(content), "CREATE TABLE IF NOT EXISTS tasks")
}

// ==================== Task Store ====================

func TestTaskStore_CreateAndFind(t *testing.T) {
	_, tasks := setupTestStore(t)
	ctx := context.Background()

	created, err := tasks.Create(ctx, domain.NewTask{
		Title:       "Write documentation",
		Description: "Document the API using OpenAPI.",
		DueDate:     date(2025, 1, 1),
	})
	require.NoError(t, err)
	assert.Len(t, created.ID, 36)
	assert.Equal(t, domain.StatusOpen, created.Status)

	found, err := tasks.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, found)
	require.NotNil(t, found.DueDate)
	assert.Equal(t, time.UTC, found.DueDate.Location())
}

func TestTaskStore_CreateNormalisesDueDateToUTC(t *testing.T) {
	_, tasks := setupTestStore(t)
	ctx := context.Background()
	due := time.Date(2025, 1, 1, 2, 0, 0, 0, time.FixedZone("EET", 2*60*60))

	created, err := tasks.Create(ctx, domain.NewTask{Title: "t", DueDate: &due})
	require.NoError(t, err)

	found, err := tasks.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, *date(2025, 1, 1), *found.DueDate)
}

func TestTaskStore_CreateRejectsUnknownStatus(t *testing.T) {
	_, tasks := setupTestStore(t)

	_, err := tasks.Create(context.Background(), domain.NewTask{Title: "t", Status: "archived"})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestTaskStore_FindByID_NotFound(t *testing.T) {
	_, tasks := setupTestStore(t)

	_, err := tasks.FindByID(context.Background(), "00000000-0000-4000-8000-000000000000")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTaskStore_Update(t *testing.T) {
	_, tasks := setupTestStore(t)
	ctx := context.Background()
	created, err := tasks.Create(ctx, domain.NewTask{Title: "a", Description: "keep", DueDate: date(2025, 1, 1), Status: domain.StatusBlocked})
	require.NoError(t, err)

	title := "b"
	updated, err := tasks.Update(ctx, created, domain.TaskPatch{Title: &title})
	require.NoError(t, err)

	assert.Equal(t, "b", updated.Title)
	assert.Equal(t, "keep", updated.Description)
	assert.Equal(t, created.DueDate, updated.DueDate)
	assert.Equal(t, domain.StatusBlocked, updated.Status)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

	found, err := tasks.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, found)
}

func TestTaskStore_UpdateMergesAgainstStoredRow(t *testing.T) {
	_, tasks := setupTestStore(t)
	ctx := context.Background()
	created, err := tasks.Create(ctx, domain.NewTask{Title: "a"})
	require.NoError(t, err)

	completed := domain.StatusCompleted
	_, err = tasks.Update(ctx, created, domain.TaskPatch{Status: &completed})
	require.NoError(t, err)

	// A stale snapshot does not roll back the status.
	title := "renamed"
	updated, err := tasks.Update(ctx, created, domain.TaskPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, updated.Status)
}

func TestTaskStore_Update_NotFound(t *testing.T) {
	_, tasks := setupTestStore(t)
	title := "b"

	_, err := tasks.Update(context.Background(), &domain.Task{ID: "missing"}, domain.TaskPatch{Title: &title})

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTaskStore_Update_RejectsUnknownStatus(t *testing.T) {
	_, tasks := setupTestStore(t)
	ctx := context.Background()
	created, err := tasks.Create(ctx, domain.NewTask{Title: "a"})
	require.NoError(t, err)

	bad := domain.TaskStatus("done")
	_, err = tasks.Update(ctx, created, domain.TaskPatch{Status: &bad})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestTaskStore_Delete(t *testing.T) {
	_, tasks := setupTestStore(t)
	ctx := context.Background()
	created, err := tasks.Create(ctx, domain.NewTask{Title: "a"})
	require.NoError(t, err)

	require.NoError(t, tasks.Delete(ctx, created))

	_, err = tasks.FindByID(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, tasks.Delete(ctx, created), domain.ErrNotFound)
}

func TestTaskStore_FindAll(t *testing.T) {
	_, tasks := setupTestStore(t)
	ctx := context.Background()
	for _, nt := range []domain.NewTask{
		{Title: "charlie", DueDate: date(2025, 3, 1), Status: domain.StatusCompleted},
		{Title: "alpha", DueDate: date(2025, 1, 1)},
		{Title: "bravo"},
		{Title: "delta", DueDate: date(2025, 2, 1), Status: domain.StatusCompleted},
	} {
		_, err := tasks.Create(ctx, nt)
		require.NoError(t, err)
	}

	completed := domain.StatusCompleted
	tests := []struct {
		name  string
		query domain.ListQuery
		want  []string
	}{
		{
			name:  "default due date ascending, undated last",
			query: domain.DefaultListQuery(),
			want:  []string{"alpha", "delta", "charlie", "bravo"},
		},
		{
			name:  "due date descending, undated last",
			query: domain.ListQuery{SortBy: domain.SortByDueDate, SortOrder: domain.SortDesc},
			want:  []string{"charlie", "delta", "alpha", "bravo"},
		},
		{
			name:  "title ascending",
			query: domain.ListQuery{SortBy: domain.SortByTitle, SortOrder: domain.SortAsc},
			want:  []string{"alpha", "bravo", "charlie", "delta"},
		},
		{
			name:  "status filter",
			query: domain.ListQuery{Status: &completed, SortBy: domain.SortByDueDate, SortOrder: domain.SortAsc},
			want:  []string{"delta", "charlie"},
		},
		{
			name:  "due date filter",
			query: domain.ListQuery{DueDate: date(2025, 2, 1), SortBy: domain.SortByDueDate, SortOrder: domain.SortAsc},
			want:  []string{"delta"},
		},
		{
			name:  "no match",
			query: domain.ListQuery{DueDate: date(2030, 1, 1), SortBy: domain.SortByDueDate, SortOrder: domain.SortAsc},
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tasks.FindAll(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, titles(got))
		})
	}
}

func TestTaskStore_ConcurrentCreates(t *testing.T) {
	_, tasks := setupTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := tasks.Create(ctx, domain.NewTask{Title: "t"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	all, err := tasks.FindAll(ctx, domain.DefaultListQuery())
	require.NoError(t, err)
	assert.Len(t, all, 10)
}
