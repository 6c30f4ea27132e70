package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/tasker/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/tasker/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/tasker/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/tasker/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/tasker/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/tasker/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/tasker/internal/core/domain"
)

// chromeHeight is the number of lines used by the header and status bar.
const chromeHeight = 4

// App is the task board following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports *Ports
	ctx   context.Context

	styles *styles.Styles
	keymap *keymap.KeyMap

	taskList  *list.TaskList
	input     *input.TitleInput
	statusBar *status.Bar

	// currentView tracks which view is active.
	currentView messages.ViewType

	// err holds the last error that occurred.
	err error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new task board with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:       ports,
		ctx:         context.Background(),
		styles:      s,
		keymap:      km,
		taskList:    list.NewTaskList(s),
		input:       input.NewTitleInput(s),
		statusBar:   status.NewBar(s, km),
		currentView: messages.ViewBoard,
	}, nil
}

// WithContext sets the context used for task service calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	a.statusBar.SetState(status.StateLoading)
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("tasker"),
		a.loadTasks(),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		// Global quit with ctrl+c
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		switch a.currentView {
		case messages.ViewNewTask:
			return a.updatePrompt(msg)
		case messages.ViewHelp:
			if keymap.Matches(msg.String(), a.keymap.Cancel) ||
				keymap.Matches(msg.String(), a.keymap.Help) ||
				keymap.Matches(msg.String(), a.keymap.Quit) {
				a.showBoard()
			}
			return a, nil
		case messages.ViewBoard:
			return a.updateBoard(msg)
		}
		return a, nil

	case messages.TasksLoaded:
		if msg.Err != nil {
			a.setError(msg.Err)
			return a, nil
		}
		a.taskList.SetTasks(msg.Tasks)
		a.statusBar.SetTaskCount(len(msg.Tasks))
		if a.statusBar.State() != status.StateError {
			a.statusBar.SetState(status.StateReady)
		}
		return a, nil

	case messages.TaskSaved:
		if msg.Err != nil {
			a.setError(msg.Err)
			if msg.Task == nil {
				return a, nil
			}
			// The write committed; show it even though the event was lost.
			return a, a.loadTasks()
		}
		a.statusBar.SetState(status.StateReady)
		a.statusBar.SetMessage(fmt.Sprintf("Saved %q (%s)", msg.Task.Title, msg.Task.Status))
		return a, a.loadTasks()

	case messages.TaskDeleted:
		if msg.Err != nil {
			a.setError(msg.Err)
			return a, nil
		}
		a.statusBar.SetState(status.StateReady)
		a.statusBar.SetMessage("Task deleted")
		return a, a.loadTasks()

	case messages.ViewChanged:
		a.currentView = msg.View
		return a, nil

	case messages.ErrorOccurred:
		a.setError(msg.Err)
		return a, nil

	case messages.Quit:
		return a, tea.Quit
	}

	// Cursor blink and other input messages.
	if a.currentView == messages.ViewNewTask {
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) updateBoard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := msg.String()
	switch {
	case keymap.Matches(k, a.keymap.Quit):
		return a, tea.Quit

	case keymap.Matches(k, a.keymap.Help):
		a.currentView = messages.ViewHelp
		a.statusBar.SetState(status.StateHelp)
		return a, nil

	case keymap.Matches(k, a.keymap.Up), keymap.Matches(k, a.keymap.Down):
		a.taskList, _ = a.taskList.Update(msg)
		return a, nil

	case keymap.Matches(k, a.keymap.Refresh):
		a.statusBar.Clear()
		a.statusBar.SetState(status.StateLoading)
		return a, a.loadTasks()

	case keymap.Matches(k, a.keymap.New):
		a.currentView = messages.ViewNewTask
		a.statusBar.Clear()
		a.statusBar.SetState(status.StatePrompt)
		a.input.Reset()
		return a, a.input.Focus()

	case keymap.Matches(k, a.keymap.Cycle):
		task := a.taskList.SelectedTask()
		if task == nil {
			return a, nil
		}
		return a, a.setStatus(task.ID, task.Status.Next())

	case keymap.Matches(k, a.keymap.Complete):
		task := a.taskList.SelectedTask()
		if task == nil || task.IsCompleted() {
			return a, nil
		}
		return a, a.setStatus(task.ID, domain.StatusCompleted)

	case keymap.Matches(k, a.keymap.Delete):
		task := a.taskList.SelectedTask()
		if task == nil {
			return a, nil
		}
		a.statusBar.Clear()
		a.statusBar.SetState(status.StateSaving)
		return a, a.deleteTask(task.ID)
	}
	return a, nil
}

func (a *App) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case keymap.Matches(msg.String(), a.keymap.Cancel):
		a.showBoard()
		return a, nil

	case keymap.Matches(msg.String(), a.keymap.Confirm):
		title := a.input.Value()
		if title == "" {
			a.statusBar.SetState(status.StateError)
			a.statusBar.SetMessage("Title is required")
			return a, nil
		}
		a.showBoard()
		a.statusBar.SetState(status.StateSaving)
		return a, a.createTask(title)
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) showBoard() {
	a.currentView = messages.ViewBoard
	a.input.Blur()
	a.input.Reset()
	a.statusBar.Clear()
}

func (a *App) setError(err error) {
	a.err = err
	a.statusBar.SetState(status.StateError)
	a.statusBar.SetMessage(describeError(err))
}

// describeError shortens service errors for the status bar.
func describeError(err error) string {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr) && len(verr.Violations) > 0:
		return verr.Violations[0].Message
	case errors.Is(err, domain.ErrNotFound):
		return "Task not found"
	case errors.Is(err, domain.ErrPublishFailed), errors.Is(err, domain.ErrBrokerUnavailable):
		return "saved, but the event was not published: " + err.Error()
	default:
		return err.Error()
	}
}

// ==================== Commands ====================

func (a *App) loadTasks() tea.Cmd {
	return func() tea.Msg {
		tasks, err := a.ports.Tasks.List(a.ctx, domain.ListInput{})
		return messages.TasksLoaded{Tasks: tasks, Err: err}
	}
}

func (a *App) createTask(title string) tea.Cmd {
	return func() tea.Msg {
		task, err := a.ports.Tasks.Create(a.ctx, domain.TaskInput{Title: &title})
		return messages.TaskSaved{Task: task, Err: err}
	}
}

func (a *App) setStatus(id string, next domain.TaskStatus) tea.Cmd {
	a.statusBar.Clear()
	a.statusBar.SetState(status.StateSaving)
	value := next.String()
	return func() tea.Msg {
		task, err := a.ports.Tasks.Update(a.ctx, id, domain.TaskInput{Status: &value})
		return messages.TaskSaved{Task: task, Err: err}
	}
}

func (a *App) deleteTask(id string) tea.Cmd {
	return func() tea.Msg {
		err := a.ports.Tasks.Delete(a.ctx, id)
		return messages.TaskDeleted{ID: id, Err: err}
	}
}

// ==================== Rendering ====================

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	var body string
	switch a.currentView {
	case messages.ViewHelp:
		body = a.viewHelp()
	case messages.ViewNewTask:
		body = lipgloss.JoinVertical(lipgloss.Left, a.taskList.View(), "", a.input.View())
	default:
		body = a.taskList.View()
	}

	header := a.styles.Title.Render("tasker")
	content := lipgloss.JoinVertical(lipgloss.Left, header, "", body)

	// Pin the status bar to the bottom row.
	gap := a.height - lipgloss.Height(content) - 1
	if gap < 0 {
		gap = 0
	}
	return content + strings.Repeat("\n", gap+1) + a.statusBar.View()
}

func (a *App) viewHelp() string {
	lines := []string{a.styles.Subtitle.Render("Keys"), ""}
	for _, group := range a.keymap.FullHelp() {
		for _, b := range group {
			h := b.Help()
			lines = append(lines, fmt.Sprintf("  %-10s %s", h.Key, a.styles.Help.Render(h.Desc)))
		}
		lines = append(lines, "")
	}
	lines = append(lines, a.styles.Muted.Render("[esc] back to board"))
	return strings.Join(lines, "\n")
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// Tasks returns the tasks currently on the board.
func (a *App) Tasks() []domain.Task {
	return a.taskList.Tasks()
}

// SelectedTask returns the task under the cursor, or nil.
func (a *App) SelectedTask() *domain.Task {
	return a.taskList.SelectedTask()
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// StatusBar returns the status bar component.
func (a *App) StatusBar() *status.Bar {
	return a.statusBar
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has received its dimensions.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.taskList.SetDimensions(width, height-chromeHeight)
	a.input.SetWidth(width)
	a.statusBar.SetWidth(width)
}
