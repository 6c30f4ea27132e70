package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/tasker/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for tasker resources.
	uriScheme = "tasker://"

	mimeJSON = "application/json"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "tasks",
		Name:        "tasks",
		Description: "All tasks ordered by due date",
		MIMEType:    mimeJSON,
	}, s.handleTasksResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "tasks/{id}",
		Name:        "task",
		Description: "A single task",
		MIMEType:    mimeJSON,
	}, s.handleTaskResource)
}

// handleTasksResource returns every task in the default order.
func (s *Server) handleTasksResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	tasks, err := s.ports.Tasks.List(ctx, domain.ListInput{})
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}

	out := make([]TaskOutput, len(tasks))
	for i := range tasks {
		out[i] = toTaskOutput(&tasks[i])
	}
	return jsonResource(req.Params.URI, out)
}

// handleTaskResource returns one task addressed as tasker://tasks/{id}.
func (s *Server) handleTaskResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	id := extractTaskID(req.Params.URI)
	if id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	task, err := s.ports.Tasks.Get(ctx, id)
	if domain.IsClientError(err) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting task: %w", err)
	}
	return jsonResource(req.Params.URI, toTaskOutput(task))
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: mimeJSON,
			Text:     string(data),
		}},
	}, nil
}

// extractTaskID extracts the task ID from a URI like tasker://tasks/{id}.
func extractTaskID(uri string) string {
	const prefix = uriScheme + "tasks/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
