// Package messages defines Bubbletea message types for the TUI.
// Messages carry the results of task service calls back into the model.
package messages

import (
	"github.com/custodia-labs/tasker/internal/core/domain"
)

// TasksLoaded carries the board contents from the task service.
type TasksLoaded struct {
	Tasks []domain.Task
	Err   error
}

// TaskSaved signals a task was created or updated.
// Task may be set alongside Err when the write committed but the event
// could not be published.
type TaskSaved struct {
	Task *domain.Task
	Err  error
}

// TaskDeleted signals a task was deleted.
type TaskDeleted struct {
	ID  string
	Err error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewBoard is the task list.
	ViewBoard ViewType = iota
	// ViewNewTask is the title prompt for a new task.
	ViewNewTask
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewBoard:
		return "board"
	case ViewNewTask:
		return "new_task"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
