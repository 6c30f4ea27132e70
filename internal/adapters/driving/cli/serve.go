package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/tasker/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/tasker/internal/logger"
)

var (
	serveAddr        string
	serveNoConsume   bool
	serveWatchConfig bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the task HTTP API.

The event publisher connects to the broker at startup; if the broker is not
reachable the API still starts and the publisher retries on the next write.
Unless disabled, the event consumer runs in the same process and logs the
notification intents for task.created and task.completed.

Environment:
  PORT          listen port (overrides http.addr)
  RABBITMQ_URL  AMQP broker URL
  DATABASE_URL  PostgreSQL connection string (selects the postgres store)

Examples:
  tasker serve
  tasker serve --addr :8080 --no-consume
  tasker serve --watch-config`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, e.g. :3000)")
	serveCmd.Flags().BoolVar(&serveNoConsume, "no-consume", false, "do not run the event consumer in this process")
	serveCmd.Flags().BoolVar(&serveWatchConfig, "watch-config", false, "reload log settings when the config file changes")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.HTTP.Addr = serveAddr
	}
	if serveNoConsume {
		cfg.Consumer.Enabled = false
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := openRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.shutdown()

	if rt.Publisher != nil {
		if err := rt.Publisher.Init(ctx); err != nil {
			logger.Warn("[queue] broker not ready, publishing will retry: %v", err)
		}
	}

	if rt.Consumer != nil {
		if err := rt.Consumer.Start(ctx); err != nil {
			return fmt.Errorf("starting consumer: %w", err)
		}
		logger.Info("[queue] consumer started")
	}

	if serveWatchConfig {
		startConfigWatch(ctx)
	}

	server, err := httpapi.NewServer(rt.Tasks)
	if err != nil {
		return err
	}
	cmd.Printf("tasker listening on %s\n", cfg.HTTP.Addr)
	return server.Run(ctx, cfg.HTTP.Addr)
}

// startConfigWatch re-reads settings whenever the config file changes and
// applies the log level. Other settings take effect on restart.
func startConfigWatch(ctx context.Context) {
	if configWatcher == nil {
		logger.Warn("[config] watching not supported by this config store")
		return
	}
	go func() {
		err := configWatcher.Watch(ctx, func() {
			cfg, err := loadConfig()
			if err != nil {
				logger.Warn("[config] reload failed: %v", err)
				return
			}
			logger.Info("[config] reloaded, verbose=%t", cfg.Verbose)
		})
		if err != nil && ctx.Err() == nil {
			logger.Warn("[config] watch stopped: %v", err)
		}
	}()
}
