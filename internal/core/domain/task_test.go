package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTaskStatus_IsValid(t *testing.T) {
	for _, s := range AllStatuses() {
		assert.True(t, s.IsValid(), s)
	}
	assert.False(t, TaskStatus("").IsValid())
	assert.False(t, TaskStatus("done").IsValid())
	assert.False(t, TaskStatus("in_progress").IsValid())
	assert.False(t, TaskStatus("Completed").IsValid())
}

func TestTaskStatus_Next(t *testing.T) {
	assert.Equal(t, StatusInProgress, StatusOpen.Next())
	assert.Equal(t, StatusCompleted, StatusInProgress.Next())
	assert.Equal(t, StatusBlocked, StatusCompleted.Next())
	assert.Equal(t, StatusOpen, StatusBlocked.Next())
	assert.Equal(t, StatusOpen, TaskStatus("bogus").Next())
}

func TestTask_Apply_OnlyOverwritesSuppliedFields(t *testing.T) {
	due := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	task := Task{
		ID:          "id-1",
		Title:       "Write documentation",
		Description: "Document the API",
		DueDate:     &due,
		Status:      StatusOpen,
	}

	title := "Update docs"
	updated := task.Apply(TaskPatch{Title: &title})

	assert.Equal(t, "Update docs", updated.Title)
	assert.Equal(t, "Document the API", updated.Description)
	assert.Equal(t, &due, updated.DueDate)
	assert.Equal(t, StatusOpen, updated.Status)
	assert.Equal(t, "id-1", updated.ID)
	// Original is untouched.
	assert.Equal(t, "Write documentation", task.Title)
}

func TestTask_Apply_AllFields(t *testing.T) {
	task := Task{ID: "id-1", Title: "a", Status: StatusOpen}

	title := "b"
	desc := ""
	due := time.Date(2025, 6, 1, 12, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	status := StatusBlocked
	updated := task.Apply(TaskPatch{Title: &title, Description: &desc, DueDate: &due, Status: &status})

	assert.Equal(t, "b", updated.Title)
	assert.Equal(t, "", updated.Description)
	assert.Equal(t, time.UTC, updated.DueDate.Location())
	assert.True(t, updated.DueDate.Equal(due))
	assert.Equal(t, StatusBlocked, updated.Status)
}

func TestTaskPatch_IsEmpty(t *testing.T) {
	assert.True(t, TaskPatch{}.IsEmpty())
	s := StatusCompleted
	assert.False(t, TaskPatch{Status: &s}.IsEmpty())
}

func TestNewTask_ResolvedStatus(t *testing.T) {
	assert.Equal(t, StatusOpen, NewTask{Title: "x"}.ResolvedStatus())
	assert.Equal(t, StatusBlocked, NewTask{Title: "x", Status: StatusBlocked}.ResolvedStatus())
}

func TestListQuery_Matches(t *testing.T) {
	due := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	completed := StatusCompleted
	open := Task{Status: StatusOpen, DueDate: &due}
	done := Task{Status: StatusCompleted}

	assert.True(t, DefaultListQuery().Matches(&open))
	assert.True(t, DefaultListQuery().Matches(&done))

	byStatus := ListQuery{Status: &completed}
	assert.False(t, byStatus.Matches(&open))
	assert.True(t, byStatus.Matches(&done))

	sameInstant := due.In(time.FixedZone("EST", -5*3600))
	byDue := ListQuery{DueDate: &sameInstant}
	assert.True(t, byDue.Matches(&open))
	assert.False(t, byDue.Matches(&done))
}

func TestSortFieldAndOrder_IsValid(t *testing.T) {
	assert.True(t, SortByDueDate.IsValid())
	assert.True(t, SortByTitle.IsValid())
	assert.False(t, SortField("createdAt").IsValid())
	assert.True(t, SortAsc.IsValid())
	assert.True(t, SortDesc.IsValid())
	assert.False(t, SortOrder("ASC").IsValid())
}
