// Package threadlookup provides the view that asks for a thread id.
package threadlookup

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docflow/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/docflow/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docflow/internal/adapters/driving/tui/styles"
)

// View is the thread lookup view.
type View struct {
	styles *styles.Styles
	input  *input.ThreadInput
	width  int
}

// NewView creates a new thread lookup view.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles: s,
		input:  input.NewThreadInput(s),
		width:  80,
	}
}

// Init focuses the input and starts the cursor blinking.
func (v *View) Init() tea.Cmd {
	return tea.Batch(v.input.Focus(), v.input.Init())
}

// Reset clears the input.
func (v *View) Reset() {
	v.input.Reset()
}

// Update handles messages for the thread lookup view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		switch msg.Type { //nolint:exhaustive // only submit and cancel are special
		case tea.KeyEnter:
			threadID := v.input.Value()
			if threadID == "" {
				return v, nil
			}
			return v, func() tea.Msg {
				return messages.ThreadRequested{ThreadID: threadID}
			}
		case tea.KeyEsc:
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewMenu}
			}
		}
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// View renders the thread lookup view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Find thread"))
	b.WriteString("\n\n")
	b.WriteString(v.input.View())
	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[enter] show entries  [esc] back"))
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, _ int) {
	v.width = width
	v.input.SetWidth(width)
}

// Value returns the entered thread id.
func (v *View) Value() string {
	return v.input.Value()
}
