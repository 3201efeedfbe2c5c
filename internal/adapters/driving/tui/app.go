package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docflow/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docflow/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docflow/internal/adapters/driving/tui/views/entry"
	"github.com/custodia-labs/docflow/internal/adapters/driving/tui/views/history"
	"github.com/custodia-labs/docflow/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/docflow/internal/adapters/driving/tui/views/threadlookup"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles

	menuView         *menu.View
	historyView      *history.View
	threadLookupView *threadlookup.View
	entryView        *entry.View

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

// NewApp creates a new TUI application with the given ports.
// historyLimit bounds the recent-entries list; zero uses the default.
func NewApp(ports *Ports, historyLimit int) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	return &App{
		ports:            ports,
		ctx:              context.Background(),
		styles:           s,
		menuView:         menu.NewView(s),
		historyView:      history.NewView(s, ports.Pipeline, historyLimit),
		threadLookupView: threadlookup.NewView(s),
		entryView:        entry.NewView(s, ports.Pipeline),
		currentView:      messages.ViewMenu,
	}, nil
}

// WithContext sets the context for the app and its service calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.historyView.WithContext(ctx)
	a.entryView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("docflow - Audit Trail"),
	)
}

// Update implements tea.Model.
//
//nolint:gocyclo // central message handler requires complexity
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		return a, a.forwardKey(msg)

	case messages.ViewChanged:
		prev := a.currentView
		a.currentView = msg.View
		switch msg.View {
		case messages.ViewHistory:
			// Returning from an entry keeps the list that was open
			if prev == messages.ViewEntry {
				return a, nil
			}
			return a, a.historyView.ShowRecent()
		case messages.ViewThreadLookup:
			a.threadLookupView.Reset()
			return a, a.threadLookupView.Init()
		case messages.ViewMenu, messages.ViewEntry, messages.ViewHelp:
		}
		return a, nil

	case messages.ThreadRequested:
		a.currentView = messages.ViewHistory
		return a, a.historyView.ShowThread(msg.ThreadID)

	case messages.EntrySelected:
		a.entryView.SetBack(a.currentView)
		a.currentView = messages.ViewEntry
		return a, a.entryView.Load(msg.ID)

	case messages.HistoryLoaded:
		if msg.Err != nil {
			a.err = msg.Err
		}
		a.historyView, cmd = a.historyView.Update(msg)
		return a, cmd

	case messages.EntryLoaded:
		if msg.Err != nil {
			a.err = msg.Err
		}
		a.entryView, cmd = a.entryView.Update(msg)
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		switch a.currentView {
		case messages.ViewHistory:
			a.historyView, cmd = a.historyView.Update(msg)
		case messages.ViewEntry:
			a.entryView, cmd = a.entryView.Update(msg)
		case messages.ViewMenu, messages.ViewThreadLookup, messages.ViewHelp:
		}
		return a, cmd

	case messages.Quit:
		return a, tea.Quit
	}

	// Forward other messages (cursor blink and the like) to the active view
	if a.currentView == messages.ViewThreadLookup {
		a.threadLookupView, cmd = a.threadLookupView.Update(msg)
	}
	return a, cmd
}

// forwardKey routes a key press to the active view.
func (a *App) forwardKey(msg tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewHistory:
		a.historyView, cmd = a.historyView.Update(msg)
	case messages.ViewThreadLookup:
		a.threadLookupView, cmd = a.threadLookupView.Update(msg)
	case messages.ViewEntry:
		a.entryView, cmd = a.entryView.Update(msg)
	case messages.ViewHelp:
		if msg.Type == tea.KeyEsc {
			a.currentView = messages.ViewMenu
		}
	}
	return cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewHistory:
		return a.historyView.View()
	case messages.ViewThreadLookup:
		return a.threadLookupView.View()
	case messages.ViewEntry:
		return a.entryView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	default:
		return a.menuView.View()
	}
}

// viewHelp renders the help view.
func (a *App) viewHelp() string {
	return a.styles.Title.Render("Help") + `

Navigation:
  esc         Back
  ctrl+c      Quit

Menu:
  j/k, ↑/↓    Navigate options
  enter       Select option
  q           Quit

Entry lists:
  j/k, ↑/↓    Navigate entries
  enter       Open entry
  r           Refresh

Entry:
  j/k, ↑/↓    Scroll
  t           Show the entry's thread

[esc] back to menu`
}

// Run starts the TUI application and blocks until it exits.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on the app and every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.historyView.SetDimensions(width, height)
	a.threadLookupView.SetDimensions(width, height)
	a.entryView.SetDimensions(width, height)
}
