package status

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tasker/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/tasker/internal/adapters/driving/tui/styles"
)

func TestNewBar(t *testing.T) {
	bar := NewBar(styles.DefaultStyles(), keymap.DefaultKeyMap())

	require.NotNil(t, bar)
	assert.Equal(t, StateReady, bar.State())
	assert.Equal(t, "", bar.Message())
	assert.Equal(t, 0, bar.TaskCount())
	assert.Equal(t, 80, bar.Width())
}

func TestNewBar_NilStyles(t *testing.T) {
	bar := NewBar(nil, nil)

	require.NotNil(t, bar)
	assert.NotNil(t, bar.styles)
	assert.NotNil(t, bar.keymap)
}

func TestStatusBar_InitAndUpdate(t *testing.T) {
	bar := NewBar(nil, nil)

	assert.Nil(t, bar.Init())

	updated, cmd := bar.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, bar, updated)
	assert.Nil(t, cmd)
}

func TestStatusBar_View(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		message string
		count   int
		want    []string
	}{
		{"ready empty", StateReady, "", 0, []string{"Ready", "n: new task"}},
		{"one task", StateReady, "", 1, []string{"1 task", "c: complete"}},
		{"several tasks", StateReady, "", 3, []string{"3 tasks", "d: delete"}},
		{"ready message", StateReady, "Task deleted", 3, []string{"Task deleted"}},
		{"loading", StateLoading, "", 0, []string{"Loading..."}},
		{"saving", StateSaving, "", 2, []string{"Saving..."}},
		{"prompt", StatePrompt, "", 2, []string{"New task", "enter: save", "esc: cancel"}},
		{"error with message", StateError, "boom", 0, []string{"Error: boom"}},
		{"error", StateError, "", 0, []string{"Error"}},
		{"help", StateHelp, "", 0, []string{"Help"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := NewBar(nil, nil)
			bar.SetWidth(120)
			bar.SetState(tt.state)
			bar.SetMessage(tt.message)
			bar.SetTaskCount(tt.count)

			view := bar.View()

			for _, w := range tt.want {
				assert.Contains(t, view, w)
			}
		})
	}
}

func TestStatusBar_Clear(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetState(StateError)
	bar.SetMessage("boom")
	bar.SetTaskCount(4)

	bar.Clear()

	assert.Equal(t, StateReady, bar.State())
	assert.Equal(t, "", bar.Message())
	assert.Equal(t, 4, bar.TaskCount())
}
