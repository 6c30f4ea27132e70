// Package tui provides an interactive task board for the terminal.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/tasker/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the TUI.
type Ports struct {
	// Tasks provides the task lifecycle. Every board mutation goes through
	// it, so board edits announce events like any other client.
	Tasks driving.TaskService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(tasks driving.TaskService) *Ports {
	return &Ports{Tasks: tasks}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Tasks == nil {
		return ErrMissingTaskService
	}
	return nil
}
