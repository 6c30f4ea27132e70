// Package domain defines the core business entities for tasker.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Task: A unit of work with a title, optional due date and a status
//   - TaskInput, NewTask, TaskPatch: Raw and normalised mutation shapes
//   - ListQuery: Filter and sort options for listing tasks
//   - Envelope: The event announced to downstream consumers
//   - Topology: The broker exchange and queues events travel through
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
