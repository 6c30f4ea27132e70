// Package keymap defines keybindings for the task board.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keybindings for the TUI.
type KeyMap struct {
	Quit key.Binding
	Help key.Binding
	Up   key.Binding
	Down key.Binding

	// Cycle moves the selected task to its next status.
	Cycle key.Binding

	// Complete marks the selected task completed.
	Complete key.Binding

	Delete  key.Binding
	Refresh key.Binding

	// New opens the title prompt for a new task.
	New key.Binding

	// Confirm submits the prompt.
	Confirm key.Binding

	// Cancel closes the prompt or the help view.
	Cancel key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Cycle: key.NewBinding(
			key.WithKeys(" ", "s"),
			key.WithHelp("space/s", "next status"),
		),
		Complete: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "complete"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d", "delete"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		New: key.NewBinding(
			key.WithKeys("n", "a"),
			key.WithHelp("n", "new task"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "save"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}
}

// ShortHelp returns the hints shown when the board is empty.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.New, k.Help, k.Quit}
}

// BoardHelp returns the hints shown while browsing tasks.
func (k *KeyMap) BoardHelp() []key.Binding {
	return []key.Binding{k.Cycle, k.Complete, k.Delete, k.New, k.Quit}
}

// PromptHelp returns the hints shown while typing a title.
func (k *KeyMap) PromptHelp() []key.Binding {
	return []key.Binding{k.Confirm, k.Cancel}
}

// FullHelp returns every binding grouped for the help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Refresh},
		{k.Cycle, k.Complete, k.Delete},
		{k.New, k.Confirm, k.Cancel},
		{k.Help, k.Quit},
	}
}

// Matches checks if a key string matches a binding.
func Matches(keyStr string, binding key.Binding) bool {
	for _, k := range binding.Keys() {
		if k == keyStr {
			return true
		}
	}
	return false
}
