package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tasker/internal/core/domain"
)

func TestIsTerminal_Buffer(t *testing.T) {
	assert.False(t, isTerminal(new(bytes.Buffer)))
}

func TestFormatDue(t *testing.T) {
	assert.Equal(t, "-", formatDue(nil))

	due := time.Date(2025, 3, 4, 9, 30, 0, 0, time.FixedZone("CET", 3600))
	assert.Equal(t, "2025-03-04 08:30", formatDue(&due))
}

func TestWriteTaskTable_Plain(t *testing.T) {
	due := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tasks := []domain.Task{
		{ID: "a1", Title: "Write docs", Status: domain.StatusOpen, DueDate: &due},
		{ID: "b2", Title: "Fix login bug", Status: domain.StatusInProgress},
	}

	buf := new(bytes.Buffer)
	writeTaskTable(buf, tasks)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"ID", "STATUS", "DUE", "TITLE"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"a1", "open", "2025-01-01", "00:00", "Write", "docs"}, strings.Fields(lines[1]))
	assert.Contains(t, lines[2], "in progress")
	assert.Contains(t, lines[2], "-")
}

func TestWriteTaskDetail_Plain(t *testing.T) {
	created := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	task := &domain.Task{
		ID:          "a1",
		Title:       "Write docs",
		Description: "API reference",
		Status:      domain.StatusBlocked,
		CreatedAt:   created,
		UpdatedAt:   created,
	}

	buf := new(bytes.Buffer)
	writeTaskDetail(buf, task)
	out := buf.String()

	assert.Contains(t, out, "ID:          a1")
	assert.Contains(t, out, "Title:       Write docs")
	assert.Contains(t, out, "Description: API reference")
	assert.Contains(t, out, "Status:      blocked")
	assert.Contains(t, out, "Due:         -")
	assert.Contains(t, out, "Created:     2025-01-01T12:00:00Z")
}

func TestWriteTaskDetail_OmitsEmptyDescription(t *testing.T) {
	buf := new(bytes.Buffer)
	writeTaskDetail(buf, &domain.Task{ID: "a1", Title: "x", Status: domain.StatusOpen})
	assert.NotContains(t, buf.String(), "Description:")
}
