// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/tasker/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/tasker/internal/adapters/driving/tui/styles"
)

// State represents the current board state for display.
type State string

const (
	StateReady   State = "ready"
	StateLoading State = "loading"
	StateSaving  State = "saving"
	StatePrompt  State = "prompt"
	StateError   State = "error"
	StateHelp    State = "help"
)

// Bar displays board status and keybinding hints.
type Bar struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	state     State
	message   string
	taskCount int
	width     int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  StateReady,
		width:  80,
	}
}

// Init initialises the status bar.
func (s *Bar) Init() tea.Cmd {
	return nil
}

// Update handles status bar messages.
func (s *Bar) Update(msg tea.Msg) (*Bar, tea.Cmd) {
	// Bar is passive, updated via Set methods
	return s, nil
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	inner := s.width - s.styles.StatusBar.GetHorizontalFrameSize()
	padding := inner - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

func (s *Bar) renderLeft() string {
	switch s.state {
	case StateLoading:
		return s.styles.Muted.Render("Loading...")
	case StateSaving:
		return s.styles.Muted.Render("Saving...")
	case StatePrompt:
		return s.styles.Normal.Render("New task")
	case StateError:
		if s.message != "" {
			return s.styles.Error.Render(fmt.Sprintf("Error: %s", s.message))
		}
		return s.styles.Error.Render("Error")
	case StateHelp:
		return s.styles.Normal.Render("Help")
	case StateReady:
	}

	if s.message != "" {
		return s.styles.Success.Render(s.message)
	}
	if s.taskCount == 1 {
		return s.styles.Normal.Render("1 task")
	}
	if s.taskCount > 0 {
		return s.styles.Normal.Render(fmt.Sprintf("%d tasks", s.taskCount))
	}
	return s.styles.Muted.Render("Ready")
}

func (s *Bar) renderRight() string {
	var bindings []key.Binding
	switch {
	case s.state == StatePrompt:
		bindings = s.keymap.PromptHelp()
	case s.taskCount > 0:
		bindings = s.keymap.BoardHelp()
	default:
		bindings = s.keymap.ShortHelp()
	}

	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the current state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetMessage sets a custom message. In the ready state it is shown in
// place of the task count.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// SetTaskCount sets the number of tasks on the board.
func (s *Bar) SetTaskCount(count int) {
	s.taskCount = count
}

// TaskCount returns the current task count.
func (s *Bar) TaskCount() int {
	return s.taskCount
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}

// Clear resets the status bar to its default state, keeping the count.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
}
