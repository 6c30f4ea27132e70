package cli

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/term"

	"github.com/custodia-labs/tasker/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/tasker/internal/core/domain"
)

const dueLayout = "2006-01-02 15:04"

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// writeTaskTable prints tasks as a styled table on a terminal and as
// tab-aligned plain text otherwise.
func writeTaskTable(w io.Writer, tasks []domain.Task) {
	headers := []string{"ID", "STATUS", "DUE", "TITLE"}
	rows := make([][]string, len(tasks))
	for i := range tasks {
		rows[i] = []string{tasks[i].ID, tasks[i].Status.String(), formatDue(tasks[i].DueDate), tasks[i].Title}
	}

	if !isTerminal(w) {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", headers[0], headers[1], headers[2], headers[3])
		for _, r := range rows {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r[0], r[1], r[2], r[3])
		}
		tw.Flush()
		return
	}

	s := styles.DefaultStyles()
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(s.Theme().Border)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			cell := lipgloss.NewStyle().Padding(0, 1)
			switch {
			case row == table.HeaderRow:
				return cell.Inherit(s.Title)
			case col == 1:
				return cell.Inherit(s.Status(tasks[row].Status))
			case col == 0 || col == 2:
				return cell.Inherit(s.Muted)
			default:
				return cell
			}
		})
	fmt.Fprintln(w, t.Render())
}

// writeTaskDetail prints every field of one task.
func writeTaskDetail(w io.Writer, task *domain.Task) {
	label := func(s string) string { return s }
	status := task.Status.String()
	if isTerminal(w) {
		s := styles.DefaultStyles()
		label = func(v string) string { return s.Subtitle.Render(v) }
		status = s.Status(task.Status).Render(status)
	}

	fmt.Fprintf(w, "%s %s\n", label("ID:         "), task.ID)
	fmt.Fprintf(w, "%s %s\n", label("Title:      "), task.Title)
	if task.Description != "" {
		fmt.Fprintf(w, "%s %s\n", label("Description:"), task.Description)
	}
	fmt.Fprintf(w, "%s %s\n", label("Status:     "), status)
	fmt.Fprintf(w, "%s %s\n", label("Due:        "), formatDue(task.DueDate))
	fmt.Fprintf(w, "%s %s\n", label("Created:    "), task.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "%s %s\n", label("Updated:    "), task.UpdatedAt.Format(time.RFC3339))
}

func formatDue(due *time.Time) string {
	if due == nil {
		return "-"
	}
	return due.UTC().Format(dueLayout)
}
