// Package history provides the entry list view for the TUI. It shows either
// the most recent entries or the entries of a single thread.
package history

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docflow/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/docflow/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docflow/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docflow/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docflow/internal/core/ports/driving"
)

// DefaultLimit is the number of recent entries loaded when none is configured.
const DefaultLimit = 50

// View is the entry list view.
type View struct {
	ctx      context.Context
	styles   *styles.Styles
	pipeline driving.PipelineService
	limit    int

	list      *list.EntryList
	statusBar *status.Bar

	threadID string
	loading  bool
	err      error
	width    int
	height   int
}

// NewView creates a new history view.
func NewView(s *styles.Styles, pipeline driving.PipelineService, limit int) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &View{
		ctx:       context.Background(),
		styles:    s,
		pipeline:  pipeline,
		limit:     limit,
		list:      list.NewEntryList(s),
		statusBar: status.NewBar(s, nil),
		width:     80,
		height:    24,
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

// ShowRecent switches to the recent-entries list and loads it.
func (v *View) ShowRecent() tea.Cmd {
	v.threadID = ""
	return v.reload()
}

// ShowThread switches to the entries of threadID and loads them.
func (v *View) ShowThread(threadID string) tea.Cmd {
	v.threadID = threadID
	return v.reload()
}

func (v *View) reload() tea.Cmd {
	v.list.SetItems(nil)
	v.err = nil
	v.loading = true
	v.statusBar.SetState(status.StateLoading)
	return v.load(v.threadID)
}

// load returns a command that fetches the rows for threadID, or the recent
// entries when threadID is empty.
func (v *View) load(threadID string) tea.Cmd {
	ctx, pipeline, limit := v.ctx, v.pipeline, v.limit
	return func() tea.Msg {
		if pipeline == nil {
			return messages.HistoryLoaded{ThreadID: threadID, Err: errors.New("pipeline service not available")}
		}

		var result driving.HistoryResult
		if threadID == "" {
			result = pipeline.History(ctx, limit)
		} else {
			result = pipeline.Thread(ctx, threadID)
		}
		if !result.Success {
			return messages.HistoryLoaded{ThreadID: threadID, Err: errors.New(result.Error)}
		}
		return messages.HistoryLoaded{ThreadID: threadID, Items: result.History}
	}
}

// Update handles messages for the history view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.HistoryLoaded:
		// Drop results of a list that is no longer shown
		if msg.ThreadID != v.threadID {
			return v, nil
		}
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			v.statusBar.SetState(status.StateError)
			v.statusBar.SetMessage(msg.Err.Error())
			return v, nil
		}
		v.err = nil
		v.list.SetItems(msg.Items)
		v.statusBar.SetState(status.StateEntries)
		v.statusBar.SetMessage(v.Title())
		v.statusBar.SetEntryCount(len(msg.Items))
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
	case "up", "k", "down", "j":
		v.list.Update(msg)
	case "enter":
		if item := v.list.SelectedItem(); item != nil {
			id := item.ID
			return v, func() tea.Msg {
				return messages.EntrySelected{ID: id}
			}
		}
	case "r":
		return v, v.reload()
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}
	return v, nil
}

// Title describes what the view is listing.
func (v *View) Title() string {
	if v.threadID != "" {
		return "Thread " + v.threadID
	}
	return "Recent entries"
}

// View renders the history view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render(v.Title()))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", minInt(v.width-4, 60)))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading entries..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
	default:
		b.WriteString(v.list.View())
	}

	b.WriteString("\n\n")
	b.WriteString(v.statusBar.View())
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.list.SetDimensions(width, height-6)
	v.statusBar.SetWidth(width)
}

// ThreadID returns the thread being listed, or empty for recent entries.
func (v *View) ThreadID() string {
	return v.threadID
}

// Items returns the listed rows.
func (v *View) Items() []driving.HistoryItem {
	return v.list.Items()
}

// Loading reports whether a load is in flight.
func (v *View) Loading() bool {
	return v.loading
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
