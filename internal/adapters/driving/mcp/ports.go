package mcp

import (
	"github.com/custodia-labs/tasker/internal/core/ports/driving"
)

// Ports aggregates the driving ports the MCP server calls.
type Ports struct {
	// Tasks manages the task lifecycle.
	Tasks driving.TaskService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Tasks == nil {
		return ErrMissingTaskService
	}
	return nil
}
