// Package input provides text input components for the TUI.
package input

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docflow/internal/adapters/driving/tui/styles"
)

// ThreadInput wraps a bubbles textinput for entering a thread id.
type ThreadInput struct {
	textinput textinput.Model
	styles    *styles.Styles
	width     int
}

// NewThreadInput creates a new thread id input component.
func NewThreadInput(s *styles.Styles) *ThreadInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Placeholder = "thread id"
	ti.Focus()
	ti.CharLimit = 128
	ti.Width = 40

	return &ThreadInput{
		textinput: ti,
		styles:    s,
		width:     40,
	}
}

// Init initialises the input.
func (t *ThreadInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input messages.
func (t *ThreadInput) Update(msg tea.Msg) (*ThreadInput, tea.Cmd) {
	var cmd tea.Cmd
	t.textinput, cmd = t.textinput.Update(msg)
	return t, cmd
}

// View renders the input.
func (t *ThreadInput) View() string {
	label := t.styles.Title.Render("Thread: ")
	field := t.styles.InputField.Render(t.textinput.View())
	//nolint:misspell // lipgloss.Center is the correct constant from the library
	return lipgloss.JoinHorizontal(lipgloss.Center, label, field)
}

// Value returns the trimmed input value.
func (t *ThreadInput) Value() string {
	return strings.TrimSpace(t.textinput.Value())
}

// SetValue sets the input value.
func (t *ThreadInput) SetValue(value string) {
	t.textinput.SetValue(value)
}

// Focus sets focus on the input.
func (t *ThreadInput) Focus() tea.Cmd {
	return t.textinput.Focus()
}

// Focused returns whether the input is focused.
func (t *ThreadInput) Focused() bool {
	return t.textinput.Focused()
}

// SetWidth sets the width of the input.
func (t *ThreadInput) SetWidth(width int) {
	t.width = width
	inputWidth := width - 12
	if inputWidth < 20 {
		inputWidth = 20
	}
	t.textinput.Width = inputWidth
}

// Reset clears the input.
func (t *ThreadInput) Reset() {
	t.textinput.Reset()
}
