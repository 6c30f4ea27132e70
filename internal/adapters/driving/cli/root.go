// Package cli provides the tasker command line interface.
// It implements a driving adapter following hexagonal architecture principles.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/tasker/internal/core/domain"
	"github.com/custodia-labs/tasker/internal/core/ports/driven"
	"github.com/custodia-labs/tasker/internal/core/ports/driving"
	"github.com/custodia-labs/tasker/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "tasker",
	Short: "Task management service with event notifications",
	Long: `tasker manages tasks over an HTTP API and announces task.created and
task.completed events on a message broker for downstream consumers.

Run 'tasker serve' to start the API, or use the task, tui and mcp commands
to work with the same task store directly.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// ExecuteContext runs the root command with ctx available to every command.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Publisher is the lifecycle surface of the event publisher the CLI needs.
type Publisher interface {
	// Init connects and declares the topology ahead of the first publish.
	Init(ctx context.Context) error
	Close() error
}

// Runtime holds the services built for one command invocation.
type Runtime struct {
	Tasks driving.TaskService

	// Consumer is nil when the configuration disables it.
	Consumer driving.EventConsumer

	Publisher Publisher

	// Close releases the store and broker connections. It may be nil.
	Close func() error
}

// Bootstrap builds the runtime for a configuration.
type Bootstrap func(ctx context.Context, cfg domain.Config) (*Runtime, error)

var (
	settingsService driving.SettingsService
	configWatcher   driven.ConfigWatcher
	bootstrap       Bootstrap
)

// SetSettingsService sets the settings service used to load configuration.
func SetSettingsService(s driving.SettingsService) {
	settingsService = s
}

// SetConfigWatcher sets the watcher used by serve --watch-config.
func SetConfigWatcher(w driven.ConfigWatcher) {
	configWatcher = w
}

// SetBootstrap sets the function that builds services from configuration.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// loadConfig returns the stored configuration with environment overrides
// applied and configures logging from it.
func loadConfig() (domain.Config, error) {
	cfg := domain.DefaultConfig()
	if settingsService != nil {
		stored, err := settingsService.Get()
		if err != nil {
			return cfg, fmt.Errorf("loading settings: %w", err)
		}
		cfg = *stored
	}
	cfg.ApplyEnv(os.Getenv)
	if verbose {
		cfg.Verbose = true
	}
	logger.SetVerbose(cfg.Verbose)
	return cfg, nil
}

// openRuntime builds the runtime for cfg.
func openRuntime(ctx context.Context, cfg domain.Config) (*Runtime, error) {
	if bootstrap == nil {
		return nil, errors.New("services not configured")
	}
	rt, err := bootstrap(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("starting services: %w", err)
	}
	if rt == nil || rt.Tasks == nil {
		return nil, errors.New("task service not configured")
	}
	return rt, nil
}

// withTasks loads the configuration, builds a runtime without the consumer
// and runs fn against its task service.
func withTasks(cmd *cobra.Command, fn func(ctx context.Context, tasks driving.TaskService) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Consumer.Enabled = false

	ctx := commandContext(cmd)
	rt, err := openRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.shutdown()

	return fn(ctx, rt.Tasks)
}

// shutdown stops the consumer, closes the publisher and then releases the
// store, logging rather than returning failures.
func (rt *Runtime) shutdown() {
	if rt.Consumer != nil {
		if err := rt.Consumer.Stop(); err != nil {
			logger.Warn("[queue] stopping consumer: %v", err)
		}
	}
	if rt.Publisher != nil {
		if err := rt.Publisher.Close(); err != nil {
			logger.Warn("[queue] closing publisher: %v", err)
		}
	}
	if rt.Close != nil {
		if err := rt.Close(); err != nil {
			logger.Warn("[store] closing: %v", err)
		}
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
