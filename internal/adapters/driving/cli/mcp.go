package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/tasker/internal/adapters/driving/mcp"
	"github.com/custodia-labs/tasker/internal/core/ports/driving"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can manage tasks.

The server exposes the create_task, list_tasks, get_task, update_task and
delete_task tools and the tasker://tasks resource. Writes made through MCP
publish the same task events as the HTTP API.

By default the server communicates over stdio using JSON-RPC. Use --port to
serve the streamable HTTP transport instead.

Examples:
  # Stdio mode (for desktop assistants)
  tasker mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  tasker mcp serve --port 8080

Assistant configuration:
  {
    "mcpServers": {
      "tasker": {
        "command": "/path/to/tasker",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	return withTasks(cmd, func(ctx context.Context, tasks driving.TaskService) error {
		server, err := mcp.NewServer(&mcp.Ports{Tasks: tasks})
		if err != nil {
			return err
		}

		if port > 0 {
			addr := fmt.Sprintf(":%d", port)
			// stdout belongs to the protocol only in stdio mode.
			fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
			return server.RunHTTP(ctx, addr)
		}
		return server.Run(ctx)
	})
}
