// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/tasker/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/tasker/internal/core/domain"
)

// statusWidth fits the longest status label, "in progress".
const statusWidth = 11

// TaskList displays tasks in a navigable list.
type TaskList struct {
	tasks    []domain.Task
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewTaskList creates a new task list component.
func NewTaskList(s *styles.Styles) *TaskList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &TaskList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the task list.
func (l *TaskList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (l *TaskList) Update(msg tea.Msg) (*TaskList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		}
	}
	return l, nil
}

// View renders the task list.
func (l *TaskList) View() string {
	if len(l.tasks) == 0 {
		return l.styles.Muted.Render("No tasks. Press n to add one.")
	}

	lines := make([]string, 0, len(l.tasks)+2)
	lines = append(lines, l.styles.Subtitle.Render(fmt.Sprintf("Tasks (%d)", len(l.tasks))), "")

	// One line per task, minus the header.
	visible := l.height - 2
	if visible < 1 {
		visible = 1
	}
	start := 0
	if l.selected >= visible {
		start = l.selected - visible + 1
	}
	end := start + visible
	if end > len(l.tasks) {
		end = len(l.tasks)
	}

	for i := start; i < end; i++ {
		lines = append(lines, l.renderTask(i, &l.tasks[i]))
	}
	return strings.Join(lines, "\n")
}

func (l *TaskList) renderTask(index int, task *domain.Task) string {
	indicator := "  "
	if index == l.selected {
		indicator = "> "
	}

	due := "          "
	if task.DueDate != nil {
		due = task.DueDate.Format("2006-01-02")
	}

	maxTitleLen := l.width - statusWidth - len(due) - 8
	if maxTitleLen < 10 {
		maxTitleLen = 10
	}
	title := task.Title
	if len(title) > maxTitleLen {
		title = title[:maxTitleLen-3] + "..."
	}

	status := fmt.Sprintf("%-*s", statusWidth, task.Status)
	if index == l.selected {
		return l.styles.Selected.Render(fmt.Sprintf("%s%s  %s  %-*s", indicator, status, due, maxTitleLen, title))
	}
	return l.styles.Normal.Render(indicator) +
		l.styles.Status(task.Status).Render(status) + "  " +
		l.styles.Muted.Render(due) + "  " +
		l.styles.Normal.Render(title)
}

// SetTasks replaces the list contents, keeping the selection on the same
// task ID when it is still present.
func (l *TaskList) SetTasks(tasks []domain.Task) {
	var selectedID string
	if t := l.SelectedTask(); t != nil {
		selectedID = t.ID
	}

	l.tasks = tasks
	l.selected = 0
	for i := range tasks {
		if tasks[i].ID == selectedID {
			l.selected = i
			break
		}
	}
}

// Tasks returns the current tasks.
func (l *TaskList) Tasks() []domain.Task {
	return l.tasks
}

// Selected returns the index of the selected task.
func (l *TaskList) Selected() int {
	return l.selected
}

// SetSelected sets the selected index.
func (l *TaskList) SetSelected(index int) {
	if index >= 0 && index < len(l.tasks) {
		l.selected = index
	}
}

// SelectedTask returns the currently selected task, or nil if none.
func (l *TaskList) SelectedTask() *domain.Task {
	if len(l.tasks) == 0 || l.selected < 0 || l.selected >= len(l.tasks) {
		return nil
	}
	return &l.tasks[l.selected]
}

// MoveUp moves selection up.
func (l *TaskList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves selection down.
func (l *TaskList) MoveDown() {
	if l.selected < len(l.tasks)-1 {
		l.selected++
	}
}

// SetDimensions sets the component dimensions.
func (l *TaskList) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}

// Count returns the number of tasks.
func (l *TaskList) Count() int {
	return len(l.tasks)
}

// IsEmpty returns whether the list is empty.
func (l *TaskList) IsEmpty() bool {
	return len(l.tasks) == 0
}
