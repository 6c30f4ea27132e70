package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/tasker/internal/core/domain"
	"github.com/custodia-labs/tasker/internal/core/ports/driving"
)

var (
	taskJSON        bool
	taskDescription string
	taskDueDate     string
	taskStatus      string
	taskTitle       string
	taskSortBy      string
	taskSortOrder   string
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
	Long: `Create, list, inspect, update and delete tasks.

These commands use the same store and broker as 'tasker serve', so creating
or completing a task here publishes the same events as the HTTP API.`,
}

var taskAddCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Create a task",
	Example: `  tasker task add "Write documentation" --due 2025-01-01 -d "Document the API"
  tasker task add "Fix login bug" --status "in progress"`,
	Args: cobra.ExactArgs(1),
	RunE: runTaskAdd,
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	Example: `  tasker task list
  tasker task list --status completed
  tasker task list --sort-by title --order desc --json`,
	Args: cobra.NoArgs,
	RunE: runTaskList,
}

var taskGetCmd = &cobra.Command{
	Use:   "get [task-id]",
	Short: "Show a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskGet,
}

var taskUpdateCmd = &cobra.Command{
	Use:   "update [task-id]",
	Short: "Update a task",
	Long: `Update the fields given as flags and leave the others unchanged.
Moving a task to "completed" publishes a task.completed event.`,
	Example: `  tasker task update 3f0c... --status completed
  tasker task update 3f0c... --title "Renamed" --due 2025-02-01T09:00:00Z`,
	Args: cobra.ExactArgs(1),
	RunE: runTaskUpdate,
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete [task-id]",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskDelete,
}

func init() {
	taskAddCmd.Flags().StringVarP(&taskDescription, "description", "d", "", "task description")
	taskAddCmd.Flags().StringVar(&taskDueDate, "due", "", "due date (ISO 8601)")
	taskAddCmd.Flags().StringVar(&taskStatus, "status", "", "initial status: open, in progress, completed, blocked")

	taskListCmd.Flags().StringVar(&taskStatus, "status", "", "only tasks with this status")
	taskListCmd.Flags().StringVar(&taskDueDate, "due", "", "only tasks due at this instant (ISO 8601)")
	taskListCmd.Flags().StringVar(&taskSortBy, "sort-by", "", "sort field: dueDate or title")
	taskListCmd.Flags().StringVar(&taskSortOrder, "order", "", "sort order: asc or desc")

	taskUpdateCmd.Flags().StringVar(&taskTitle, "title", "", "new title")
	taskUpdateCmd.Flags().StringVarP(&taskDescription, "description", "d", "", "new description")
	taskUpdateCmd.Flags().StringVar(&taskDueDate, "due", "", "new due date (ISO 8601)")
	taskUpdateCmd.Flags().StringVar(&taskStatus, "status", "", "new status")

	for _, c := range []*cobra.Command{taskAddCmd, taskListCmd, taskGetCmd, taskUpdateCmd} {
		c.Flags().BoolVar(&taskJSON, "json", false, "output as JSON")
	}

	taskCmd.AddCommand(taskAddCmd, taskListCmd, taskGetCmd, taskUpdateCmd, taskDeleteCmd)
	rootCmd.AddCommand(taskCmd)
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	title := args[0]
	input := domain.TaskInput{Title: &title}
	if cmd.Flags().Changed("description") {
		input.Description = &taskDescription
	}
	if cmd.Flags().Changed("due") {
		input.DueDate = &taskDueDate
	}
	if cmd.Flags().Changed("status") {
		input.Status = &taskStatus
	}

	return withTasks(cmd, func(ctx context.Context, tasks driving.TaskService) error {
		task, err := tasks.Create(ctx, input)
		if task != nil {
			if outErr := outputTask(cmd, task); outErr != nil {
				return outErr
			}
		}
		return taskError("creating task", task, err)
	})
}

func runTaskList(cmd *cobra.Command, _ []string) error {
	input := domain.ListInput{
		Status:    taskStatus,
		DueDate:   taskDueDate,
		SortBy:    taskSortBy,
		SortOrder: taskSortOrder,
	}

	return withTasks(cmd, func(ctx context.Context, tasks driving.TaskService) error {
		list, err := tasks.List(ctx, input)
		if err != nil {
			return fmt.Errorf("listing tasks: %w", err)
		}
		if taskJSON {
			return outputJSON(cmd, list)
		}
		if len(list) == 0 {
			cmd.Println("No tasks found.")
			return nil
		}
		writeTaskTable(cmd.OutOrStdout(), list)
		return nil
	})
}

func runTaskGet(cmd *cobra.Command, args []string) error {
	return withTasks(cmd, func(ctx context.Context, tasks driving.TaskService) error {
		task, err := tasks.Get(ctx, args[0])
		if err != nil {
			return taskError("getting task", nil, err)
		}
		return outputTask(cmd, task)
	})
}

func runTaskUpdate(cmd *cobra.Command, args []string) error {
	var input domain.TaskInput
	if cmd.Flags().Changed("title") {
		input.Title = &taskTitle
	}
	if cmd.Flags().Changed("description") {
		input.Description = &taskDescription
	}
	if cmd.Flags().Changed("due") {
		input.DueDate = &taskDueDate
	}
	if cmd.Flags().Changed("status") {
		input.Status = &taskStatus
	}

	return withTasks(cmd, func(ctx context.Context, tasks driving.TaskService) error {
		task, err := tasks.Update(ctx, args[0], input)
		if task != nil {
			if outErr := outputTask(cmd, task); outErr != nil {
				return outErr
			}
		}
		return taskError("updating task", task, err)
	})
}

func runTaskDelete(cmd *cobra.Command, args []string) error {
	return withTasks(cmd, func(ctx context.Context, tasks driving.TaskService) error {
		if err := tasks.Delete(ctx, args[0]); err != nil {
			return taskError("deleting task", nil, err)
		}
		cmd.Printf("Deleted task %s\n", args[0])
		return nil
	})
}

// taskError phrases service errors for the terminal. A committed task with
// an error means only the event publish failed.
func taskError(op string, committed *domain.Task, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		return errors.New("task not found")
	}
	if committed != nil {
		return fmt.Errorf("task %s was saved but its event was not published: %w", committed.ID, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func outputTask(cmd *cobra.Command, task *domain.Task) error {
	if taskJSON {
		return outputJSON(cmd, task)
	}
	writeTaskDetail(cmd.OutOrStdout(), task)
	return nil
}

func outputJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
