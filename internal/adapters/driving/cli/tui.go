package cli

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/tasker/internal/adapters/driving/tui"
	"github.com/custodia-labs/tasker/internal/core/ports/driving"
)

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive task board.

Every change made on the board goes through the task service, so completing
a task here publishes task.completed like any other client.

Controls:
  ↑/k, ↓/j    Navigate tasks
  space/s     Move to the next status
  c           Complete
  d           Delete
  n           New task
  r           Refresh
  ?           Toggle help
  q           Quit`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	// Add panic recovery to get stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	return withTasks(cmd, func(ctx context.Context, tasks driving.TaskService) error {
		app, err := tui.NewApp(tui.NewPorts(tasks))
		if err != nil {
			return fmt.Errorf("failed to create TUI: %w", err)
		}

		if err := app.WithContext(ctx).Run(); err != nil {
			return fmt.Errorf("TUI error: %w", err)
		}
		return nil
	})
}
