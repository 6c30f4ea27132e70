// Package mcp provides an MCP (Model Context Protocol) server adapter for tasker.
// It lets AI assistants create, inspect and complete tasks through the same
// task service the HTTP API uses, so every mutation announces its events.
package mcp

import "errors"

// ErrMissingTaskService is returned when the task service is not provided.
var ErrMissingTaskService = errors.New("mcp: task service is required")
