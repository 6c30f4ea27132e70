package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/tasker/internal/core/domain"
)

// CreateTaskInput is the input schema for the create_task tool.
type CreateTaskInput struct {
	Title       string  `json:"title" jsonschema:"short summary of the task"`
	Description *string `json:"description,omitempty" jsonschema:"free-form details"`
	DueDate     *string `json:"dueDate,omitempty" jsonschema:"ISO 8601 date or date-time; offset-less values are UTC"`
	Status      *string `json:"status,omitempty" jsonschema:"one of: open, in progress, completed, blocked (default open)"`
}

// ListTasksInput is the input schema for the list_tasks tool.
type ListTasksInput struct {
	Status    string `json:"status,omitempty" jsonschema:"only return tasks with this status"`
	DueDate   string `json:"dueDate,omitempty" jsonschema:"only return tasks due at this instant"`
	SortBy    string `json:"sortBy,omitempty" jsonschema:"dueDate or title (default dueDate)"`
	SortOrder string `json:"sortOrder,omitempty" jsonschema:"asc or desc (default asc)"`
}

// TaskIDInput is the input schema for tools addressing one task.
type TaskIDInput struct {
	ID string `json:"id" jsonschema:"task UUID"`
}

// UpdateTaskInput is the input schema for the update_task tool.
// Omitted fields are left unchanged.
type UpdateTaskInput struct {
	ID          string  `json:"id" jsonschema:"task UUID"`
	Title       *string `json:"title,omitempty" jsonschema:"new summary"`
	Description *string `json:"description,omitempty" jsonschema:"new details"`
	DueDate     *string `json:"dueDate,omitempty" jsonschema:"new ISO 8601 due date"`
	Status      *string `json:"status,omitempty" jsonschema:"new status; completed announces task.completed"`
}

// TaskOutput is a task as returned by the tools.
type TaskOutput struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"dueDate,omitempty"`
	Status      string `json:"status"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

// ListTasksOutput is the output schema for the list_tasks tool.
type ListTasksOutput struct {
	Tasks []TaskOutput `json:"tasks"`
	Count int          `json:"count"`
}

// DeleteTaskOutput is the output schema for the delete_task tool.
type DeleteTaskOutput struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "create_task",
		Description: "Create a task and announce task.created",
	}, s.handleCreateTask)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_tasks",
		Description: "List tasks with optional status and due date filters",
	}, s.handleListTasks)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_task",
		Description: "Fetch a task by ID",
	}, s.handleGetTask)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "update_task",
		Description: "Partially update a task; completing it announces task.completed",
	}, s.handleUpdateTask)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "delete_task",
		Description: "Delete a task by ID",
	}, s.handleDeleteTask)
}

func (s *Server) handleCreateTask(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CreateTaskInput,
) (*mcp.CallToolResult, TaskOutput, error) {
	title := input.Title
	task, err := s.ports.Tasks.Create(ctx, domain.TaskInput{
		Title:       &title,
		Description: input.Description,
		DueDate:     input.DueDate,
		Status:      input.Status,
	})
	if err != nil {
		return nil, TaskOutput{}, toolError("creating task", task, err)
	}
	return nil, toTaskOutput(task), nil
}

func (s *Server) handleListTasks(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListTasksInput,
) (*mcp.CallToolResult, ListTasksOutput, error) {
	tasks, err := s.ports.Tasks.List(ctx, domain.ListInput{
		Status:    input.Status,
		DueDate:   input.DueDate,
		SortBy:    input.SortBy,
		SortOrder: input.SortOrder,
	})
	if err != nil {
		return nil, ListTasksOutput{}, toolError("listing tasks", nil, err)
	}

	output := ListTasksOutput{
		Tasks: make([]TaskOutput, len(tasks)),
		Count: len(tasks),
	}
	for i := range tasks {
		output.Tasks[i] = toTaskOutput(&tasks[i])
	}
	return nil, output, nil
}

func (s *Server) handleGetTask(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input TaskIDInput,
) (*mcp.CallToolResult, TaskOutput, error) {
	task, err := s.ports.Tasks.Get(ctx, input.ID)
	if err != nil {
		return nil, TaskOutput{}, toolError("getting task", nil, err)
	}
	return nil, toTaskOutput(task), nil
}

func (s *Server) handleUpdateTask(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input UpdateTaskInput,
) (*mcp.CallToolResult, TaskOutput, error) {
	task, err := s.ports.Tasks.Update(ctx, input.ID, domain.TaskInput{
		Title:       input.Title,
		Description: input.Description,
		DueDate:     input.DueDate,
		Status:      input.Status,
	})
	if err != nil {
		return nil, TaskOutput{}, toolError("updating task", task, err)
	}
	return nil, toTaskOutput(task), nil
}

func (s *Server) handleDeleteTask(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input TaskIDInput,
) (*mcp.CallToolResult, DeleteTaskOutput, error) {
	if err := s.ports.Tasks.Delete(ctx, input.ID); err != nil {
		return nil, DeleteTaskOutput{}, toolError("deleting task", nil, err)
	}
	return nil, DeleteTaskOutput{ID: input.ID, Deleted: true}, nil
}

// toolError describes a failed call. When the write committed but its
// event was not published, the message says so and names the task.
func toolError(op string, committed *domain.Task, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return errors.New("task not found")
	case committed != nil && (errors.Is(err, domain.ErrPublishFailed) || errors.Is(err, domain.ErrBrokerUnavailable)):
		return fmt.Errorf("task %s was saved but its event was not published: %w", committed.ID, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func toTaskOutput(t *domain.Task) TaskOutput {
	out := TaskOutput{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status.String(),
		CreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:   t.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if t.DueDate != nil {
		out.DueDate = t.DueDate.UTC().Format(time.RFC3339Nano)
	}
	return out
}
