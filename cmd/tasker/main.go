// Command tasker runs the task service and its command line tools.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/custodia-labs/tasker/internal/adapters/driven/config/file"
	"github.com/custodia-labs/tasker/internal/adapters/driving/cli"
	"github.com/custodia-labs/tasker/internal/core/services"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	home, err := file.HomeDir()
	if err != nil {
		return err
	}

	configStore, err := file.NewConfigStore(home)
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}

	cli.SetVersion(version)
	cli.SetSettingsService(services.NewSettingsService(configStore))
	cli.SetConfigWatcher(configStore)
	cli.SetBootstrap(newBootstrap(home))

	return cli.ExecuteContext(ctx)
}
