package entry

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docflow/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docflow/internal/core/domain"
	"github.com/custodia-labs/docflow/internal/core/ports/driving"
)

// mockPipeline implements driving.PipelineService for testing.
type mockPipeline struct {
	entry  driving.EntryResult
	lastID string
}

func (m *mockPipeline) Process(_ context.Context, _ driving.ProcessRequest) driving.ProcessResult {
	return driving.ProcessResult{}
}

func (m *mockPipeline) Classify(_ context.Context, _ driving.ClassifyRequest) driving.ClassifyResult {
	return driving.ClassifyResult{}
}

func (m *mockPipeline) History(_ context.Context, _ int) driving.HistoryResult {
	return driving.HistoryResult{}
}

func (m *mockPipeline) Thread(_ context.Context, _ string) driving.HistoryResult {
	return driving.HistoryResult{}
}

func (m *mockPipeline) Browse(_ context.Context, _ driving.HistoryFilter) driving.HistoryResult {
	return driving.HistoryResult{}
}

func (m *mockPipeline) GetEntry(_ context.Context, id string) driving.EntryResult {
	m.lastID = id
	return m.entry
}

func (m *mockPipeline) Health(_ context.Context) driving.HealthReport {
	return driving.HealthReport{}
}

func testEntry() *domain.Entry {
	thread := "t-3"
	return &domain.Entry{
		ID:           "e-1",
		Source:       domain.SourceJSONHandler,
		DocumentType: domain.FormatJSON,
		Intent:       domain.IntentInvoice,
		Timestamp:    time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC),
		ExtractedValues: domain.Values{
			"analysis": map[string]any{"summary": "Invoice INV-9", "validation_passed": true},
		},
		ThreadID: &thread,
	}
}

func TestNewView(t *testing.T) {
	view := NewView(nil, &mockPipeline{})

	require.NotNil(t, view)
	assert.Nil(t, view.Entry())
	assert.Nil(t, view.Init())
	assert.Contains(t, view.View(), "No entry selected")
}

func TestView_Load(t *testing.T) {
	pipeline := &mockPipeline{entry: driving.EntryResult{Success: true, Entry: testEntry()}}
	view := NewView(nil, pipeline)

	cmd := view.Load("e-1")
	assert.Contains(t, view.View(), "Loading entry...")

	view.Update(cmd())

	assert.Equal(t, "e-1", pipeline.lastID)
	require.NotNil(t, view.Entry())
	output := view.View()
	assert.Contains(t, output, "json-handler")
	assert.Contains(t, output, "invoice")
	assert.Contains(t, output, "t-3")
	assert.Contains(t, output, "Extracted values:")
	assert.Contains(t, output, "Invoice INV-9")
	assert.Contains(t, output, "[t] thread")
}

func TestView_LoadNotFound(t *testing.T) {
	view := NewView(nil, &mockPipeline{entry: driving.EntryResult{Error: "Memory entry not found"}})

	view.Update(view.Load("missing")())

	require.Error(t, view.Err())
	assert.Contains(t, view.View(), "Error: Memory entry not found")
}

func TestView_StaleLoadIgnored(t *testing.T) {
	view := NewView(nil, &mockPipeline{})
	view.Load("e-2")

	view.Update(messages.EntryLoaded{ID: "e-1", Entry: testEntry()})

	assert.Nil(t, view.Entry())
}

func TestView_ThreadKey(t *testing.T) {
	view := NewView(nil, &mockPipeline{})
	view.SetEntry(testEntry())

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'t'}})

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ThreadRequested{ThreadID: "t-3"}, cmd())
}

func TestView_ThreadKeyWithoutThread(t *testing.T) {
	view := NewView(nil, &mockPipeline{})
	e := testEntry()
	e.ThreadID = nil
	view.SetEntry(e)

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'t'}})

	assert.Nil(t, cmd)
	assert.NotContains(t, view.View(), "[t] thread")
}

func TestView_EscGoesBack(t *testing.T) {
	view := NewView(nil, &mockPipeline{})
	view.SetBack(messages.ViewMenu)

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEsc})

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}

func TestView_Scroll(t *testing.T) {
	view := NewView(nil, &mockPipeline{})
	view.SetDimensions(80, 8)
	view.SetEntry(testEntry())

	view.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, view.scrollOffset)

	view.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, view.scrollOffset)

	for i := 0; i < 50; i++ {
		view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	}
	assert.Equal(t, view.maxScrollOffset(), view.scrollOffset)
	assert.Contains(t, view.View(), "[Line")
}

func TestView_ErrorOccurred(t *testing.T) {
	view := NewView(nil, &mockPipeline{})

	view.Update(messages.ErrorOccurred{Err: errors.New("boom")})

	assert.EqualError(t, view.Err(), "boom")
}
