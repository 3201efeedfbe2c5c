// Package entry provides the single entry view component for the TUI.
package entry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docflow/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docflow/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docflow/internal/core/domain"
	"github.com/custodia-labs/docflow/internal/core/ports/driving"
)

const valuesHeading = "Extracted values:"

// View shows one entry with its extracted values.
type View struct {
	ctx      context.Context
	styles   *styles.Styles
	pipeline driving.PipelineService

	id           string
	entry        *domain.Entry
	back         messages.ViewType
	loading      bool
	scrollOffset int
	width        int
	height       int
	err          error
}

// NewView creates a new entry view.
func NewView(s *styles.Styles, pipeline driving.PipelineService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		ctx:      context.Background(),
		styles:   s,
		pipeline: pipeline,
		back:     messages.ViewHistory,
		width:    80,
		height:   24,
	}
}

// WithContext sets the context used for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// SetBack sets the view esc returns to.
func (v *View) SetBack(back messages.ViewType) {
	v.back = back
}

// Load clears the view and returns a command that fetches entry id.
func (v *View) Load(id string) tea.Cmd {
	v.id = id
	v.entry = nil
	v.err = nil
	v.scrollOffset = 0
	v.loading = true

	ctx, pipeline := v.ctx, v.pipeline
	return func() tea.Msg {
		if pipeline == nil {
			return messages.EntryLoaded{ID: id, Err: errors.New("pipeline service not available")}
		}
		result := pipeline.GetEntry(ctx, id)
		if !result.Success {
			return messages.EntryLoaded{ID: id, Err: errors.New(result.Error)}
		}
		return messages.EntryLoaded{ID: id, Entry: result.Entry}
	}
}

// SetEntry sets the entry to display.
func (v *View) SetEntry(e *domain.Entry) {
	v.entry = e
	if e != nil {
		v.id = e.ID
	}
	v.loading = false
	v.scrollOffset = 0
	v.err = nil
}

// Update handles messages for the entry view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.EntryLoaded:
		if msg.ID != v.id {
			return v, nil
		}
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.SetEntry(msg.Entry)
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

// handleKeyMsg handles key presses.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.scrollOffset > 0 {
			v.scrollOffset--
		}
	case "down", "j":
		if v.scrollOffset < v.maxScrollOffset() {
			v.scrollOffset++
		}
	case "t":
		if v.entry != nil && v.entry.ThreadID != nil {
			threadID := *v.entry.ThreadID
			return v, func() tea.Msg {
				return messages.ThreadRequested{ThreadID: threadID}
			}
		}
	case "esc":
		back := v.back
		return v, func() tea.Msg {
			return messages.ViewChanged{View: back}
		}
	}

	return v, nil
}

// visibleLines returns the number of lines that can be displayed.
func (v *View) visibleLines() int {
	// Reserve lines for title, separator, help, and padding
	available := v.height - 6
	if available < 1 {
		available = 1
	}
	return available
}

func (v *View) maxScrollOffset() int {
	maxOffset := len(v.buildContent()) - v.visibleLines()
	if maxOffset < 0 {
		maxOffset = 0
	}
	return maxOffset
}

// buildContent builds the content lines for display.
func (v *View) buildContent() []string {
	if v.entry == nil {
		return nil
	}
	e := v.entry

	lines := []string{
		formatField("ID", e.ID),
		formatField("Source", e.Source.String()),
		formatField("Format", e.DocumentType.String()),
		formatField("Intent", e.Intent.String()),
		formatField("Recorded", e.Timestamp.Local().Format("2006-01-02 15:04:05")),
	}
	if e.ThreadID != nil {
		lines = append(lines, formatField("Thread", *e.ThreadID))
	}
	if e.ConversationID != nil {
		lines = append(lines, formatField("Conversation", *e.ConversationID))
	}

	if len(e.ExtractedValues) > 0 {
		lines = append(lines, "", valuesHeading)
		data, err := json.MarshalIndent(e.ExtractedValues, "  ", "  ")
		if err != nil {
			lines = append(lines, "  "+err.Error())
		} else {
			lines = append(lines, strings.Split("  "+string(data), "\n")...)
		}
	}

	return lines
}

func formatField(label, value string) string {
	return fmt.Sprintf("%-14s %s", label+":", value)
}

// View renders the entry view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Entry"))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", minInt(v.width-4, 60)))
	b.WriteString("\n\n")

	switch {
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading entry..."))
	case v.entry == nil:
		b.WriteString(v.styles.Muted.Render("No entry selected"))
	default:
		v.renderContent(&b)
	}

	b.WriteString("\n\n")
	b.WriteString(v.renderHelp())
	return b.String()
}

func (v *View) renderContent(b *strings.Builder) {
	lines := v.buildContent()
	visible := v.visibleLines()
	inValues := false
	for i := 0; i < len(lines) && i < v.scrollOffset+visible; i++ {
		line := lines[i]
		if line == valuesHeading {
			inValues = true
		}
		if i < v.scrollOffset {
			continue
		}

		switch {
		case line == valuesHeading:
			b.WriteString(v.styles.Subtitle.Render(line))
		case inValues:
			b.WriteString(v.styles.Normal.Render(line))
		case strings.Contains(line, ":"):
			parts := strings.SplitN(line, ":", 2)
			b.WriteString(v.styles.Subtitle.Render(parts[0] + ":"))
			b.WriteString(v.styles.Normal.Render(parts[1]))
		default:
			b.WriteString(v.styles.Normal.Render(line))
		}
		b.WriteString("\n")
	}

	if len(lines) > visible {
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [Line %d-%d of %d]",
			v.scrollOffset+1,
			minInt(v.scrollOffset+visible, len(lines)),
			len(lines))))
	}
}

// renderHelp renders the help footer.
func (v *View) renderHelp() string {
	if v.entry != nil && v.entry.ThreadID != nil {
		return v.styles.Help.Render("[↑/↓] scroll  [t] thread  [esc] back")
	}
	return v.styles.Help.Render("[↑/↓] scroll  [esc] back")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// Entry returns the displayed entry.
func (v *View) Entry() *domain.Entry {
	return v.entry
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
