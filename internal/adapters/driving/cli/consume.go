package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/tasker/internal/logger"
)

var consumeCmd = &cobra.Command{
	Use:   "consume",
	Short: "Run the event consumer without the HTTP API",
	Long: `Subscribe to the task event queues and process task.created and
task.completed events until interrupted.

Use this to run consumers as separate processes next to 'tasker serve --no-consume'.`,
	RunE: runConsume,
}

func init() {
	rootCmd.AddCommand(consumeCmd)
}

func runConsume(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Consumer.Enabled = true

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := openRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.shutdown()

	if rt.Consumer == nil {
		return errors.New("event consumer not configured")
	}
	if err := rt.Consumer.Start(ctx); err != nil {
		return fmt.Errorf("starting consumer: %w", err)
	}
	logger.Info("[queue] consumer started")
	cmd.Println("Consuming task events. Press Ctrl+C to stop.")

	<-ctx.Done()
	return nil
}
