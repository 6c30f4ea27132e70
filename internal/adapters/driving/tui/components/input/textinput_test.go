package input

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tasker/internal/core/domain"
)

func TestNewTitleInput(t *testing.T) {
	in := NewTitleInput(nil)

	require.NotNil(t, in)
	assert.NotNil(t, in.styles)
	assert.Equal(t, "", in.Value())
	assert.False(t, in.Focused())
	assert.NotNil(t, in.Init())
}

func TestTitleInput_TypingUpdatesValue(t *testing.T) {
	in := NewTitleInput(nil)
	in.Focus()

	for _, r := range "Buy milk" {
		in.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}

	assert.Equal(t, "Buy milk", in.Value())
}

func TestTitleInput_ValueIsTrimmed(t *testing.T) {
	in := NewTitleInput(nil)

	in.SetValue("  padded  ")

	assert.Equal(t, "padded", in.Value())
}

func TestTitleInput_CharLimit(t *testing.T) {
	in := NewTitleInput(nil)

	in.SetValue(strings.Repeat("x", domain.MaxTitleLength+10))

	assert.Len(t, in.Value(), domain.MaxTitleLength)
}

func TestTitleInput_FocusAndBlur(t *testing.T) {
	in := NewTitleInput(nil)

	in.Focus()
	assert.True(t, in.Focused())

	in.Blur()
	assert.False(t, in.Focused())
}

func TestTitleInput_Reset(t *testing.T) {
	in := NewTitleInput(nil)
	in.SetValue("draft")

	in.Reset()

	assert.Equal(t, "", in.Value())
}

func TestTitleInput_SetWidth(t *testing.T) {
	in := NewTitleInput(nil)

	in.SetWidth(10)
	assert.Equal(t, 10, in.Width())
	assert.Equal(t, 20, in.textinput.Width)

	in.SetWidth(100)
	assert.Equal(t, 88, in.textinput.Width)
}

func TestTitleInput_View(t *testing.T) {
	in := NewTitleInput(nil)

	assert.Contains(t, in.View(), "Title:")
}
