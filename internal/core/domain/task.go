package domain

import "time"

// TaskStatus is the workflow state of a task.
type TaskStatus string

// Available task statuses.
const (
	// StatusOpen is the default status for new tasks.
	StatusOpen TaskStatus = "open"

	// StatusInProgress marks a task someone is working on.
	StatusInProgress TaskStatus = "in progress"

	// StatusCompleted marks a finished task. Entering this status
	// from any other status announces a task.completed event.
	StatusCompleted TaskStatus = "completed"

	// StatusBlocked marks a task waiting on something else.
	StatusBlocked TaskStatus = "blocked"
)

// MaxTitleLength is the longest accepted title, in characters.
const MaxTitleLength = 255

// AllStatuses returns every status in display order.
func AllStatuses() []TaskStatus {
	return []TaskStatus{StatusOpen, StatusInProgress, StatusCompleted, StatusBlocked}
}

// IsValid returns true if the status is a member of the fixed enumeration.
func (s TaskStatus) IsValid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusCompleted, StatusBlocked:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s TaskStatus) String() string {
	return string(s)
}

// Next returns the status that follows s in display order, wrapping around.
// Used by interactive clients to cycle a task through its states.
func (s TaskStatus) Next() TaskStatus {
	all := AllStatuses()
	for i, st := range all {
		if st == s {
			return all[(i+1)%len(all)]
		}
	}
	return StatusOpen
}

// Task is the sole entity managed by tasker.
type Task struct {
	// ID is assigned by the record store on creation and never changes.
	ID string `json:"id"`

	// Title is the non-empty summary of the task.
	Title string `json:"title"`

	// Description is free-form text.
	Description string `json:"description"`

	// DueDate is an optional deadline, always stored in UTC.
	DueDate *time.Time `json:"dueDate"`

	// Status is always one of AllStatuses.
	Status TaskStatus `json:"status"`

	// CreatedAt is when the record store created the task.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is when the record store last wrote the task.
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsCompleted returns true if the task is in the completed state.
func (t *Task) IsCompleted() bool {
	return t.Status == StatusCompleted
}

// Apply merges patch into a copy of t. Only fields present in the patch
// overwrite existing values; the ID and timestamps are left untouched.
func (t Task) Apply(patch TaskPatch) Task {
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.DueDate != nil {
		due := patch.DueDate.UTC()
		t.DueDate = &due
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	return t
}

// TaskInput carries raw task fields as received from a client.
// A nil field was not supplied.
type TaskInput struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	DueDate     *string `json:"dueDate,omitempty"`
	Status      *string `json:"status,omitempty"`
}

// NewTask is a validated creation request.
type NewTask struct {
	Title       string
	Description string
	DueDate     *time.Time

	// Status may be empty, in which case the store applies StatusOpen.
	Status TaskStatus
}

// ResolvedStatus returns the status to persist, applying the default.
func (n NewTask) ResolvedStatus() TaskStatus {
	if n.Status == "" {
		return StatusOpen
	}
	return n.Status
}

// TaskPatch is a validated partial update. Nil fields are left unchanged.
type TaskPatch struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	Status      *TaskStatus
}

// IsEmpty returns true if the patch changes nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.DueDate == nil && p.Status == nil
}

// SortField is a column tasks can be ordered by.
type SortField string

// Available sort fields.
const (
	SortByDueDate SortField = "dueDate"
	SortByTitle   SortField = "title"
)

// IsValid returns true if the sort field is recognised.
func (f SortField) IsValid() bool {
	return f == SortByDueDate || f == SortByTitle
}

// SortOrder is the direction of a sort.
type SortOrder string

// Available sort orders.
const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// IsValid returns true if the sort order is recognised.
func (o SortOrder) IsValid() bool {
	return o == SortAsc || o == SortDesc
}

// ListInput carries raw list-query parameters. Empty strings are absent.
type ListInput struct {
	Status    string
	DueDate   string
	SortBy    string
	SortOrder string
}

// ListQuery is a validated list request: at most one equality filter per
// field and exactly one sort key with direction.
type ListQuery struct {
	// Status filters on equality when set.
	Status *TaskStatus

	// DueDate filters on instant equality when set.
	DueDate *time.Time

	SortBy    SortField
	SortOrder SortOrder
}

// DefaultListQuery returns an unfiltered query sorted by due date ascending.
func DefaultListQuery() ListQuery {
	return ListQuery{
		SortBy:    SortByDueDate,
		SortOrder: SortAsc,
	}
}

// Matches reports whether task satisfies the query filters.
// Stores that filter in memory use this to share the equality rules.
func (q ListQuery) Matches(task *Task) bool {
	if q.Status != nil && task.Status != *q.Status {
		return false
	}
	if q.DueDate != nil {
		if task.DueDate == nil || !task.DueDate.Equal(*q.DueDate) {
			return false
		}
	}
	return true
}
