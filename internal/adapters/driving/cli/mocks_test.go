package cli

import (
	"bytes"
	"context"
	"time"

	"github.com/custodia-labs/docflow/internal/core/domain"
	"github.com/custodia-labs/docflow/internal/core/ports/driven"
	"github.com/custodia-labs/docflow/internal/core/ports/driving"
)

// mockPipeline implements driving.PipelineService for testing.
type mockPipeline struct {
	processResult  driving.ProcessResult
	classifyResult driving.ClassifyResult
	historyResult  driving.HistoryResult
	threadResult   driving.HistoryResult
	browseResult   driving.HistoryResult
	entryResult    driving.EntryResult

	lastProcess  driving.ProcessRequest
	lastClassify driving.ClassifyRequest
	lastLimit    int
	lastFilter   driving.HistoryFilter
	lastID       string
}

func (m *mockPipeline) Process(_ context.Context, req driving.ProcessRequest) driving.ProcessResult {
	m.lastProcess = req
	return m.processResult
}

func (m *mockPipeline) Classify(_ context.Context, req driving.ClassifyRequest) driving.ClassifyResult {
	m.lastClassify = req
	return m.classifyResult
}

func (m *mockPipeline) History(_ context.Context, limit int) driving.HistoryResult {
	m.lastLimit = limit
	return m.historyResult
}

func (m *mockPipeline) Thread(_ context.Context, threadID string) driving.HistoryResult {
	m.lastID = threadID
	return m.threadResult
}

func (m *mockPipeline) Browse(_ context.Context, filter driving.HistoryFilter) driving.HistoryResult {
	m.lastFilter = filter
	return m.browseResult
}

func (m *mockPipeline) GetEntry(_ context.Context, id string) driving.EntryResult {
	m.lastID = id
	return m.entryResult
}

func (m *mockPipeline) Health(_ context.Context) driving.HealthReport {
	return driving.HealthReport{System: driving.StatusHealthy}
}

// mockSettings implements driving.SettingsService for testing.
type mockSettings struct {
	settings    domain.AppSettings
	validateErr error
	pingErr     error

	setProvider domain.AIProvider
	setModel    string
	setAPIKey   string
	setBackend  domain.StoreBackend
	setLocation string
}

func (m *mockSettings) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettings) Save(s *domain.AppSettings) error {
	m.settings = *s
	return nil
}

func (m *mockSettings) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	m.setProvider = provider
	m.setModel = model
	m.setAPIKey = apiKey
	return nil
}

func (m *mockSettings) SetStoreBackend(backend domain.StoreBackend, location string) error {
	m.setBackend = backend
	m.setLocation = location
	return nil
}

func (m *mockSettings) Validate() error { return m.validateErr }

func (m *mockSettings) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

func (m *mockSettings) ValidateLLMConfig() error { return m.pingErr }

// stubExtractor returns fixed text for one MIME type.
type stubExtractor struct {
	mimeType string
	text     string
	err      error
}

func (s *stubExtractor) Lookup(contentType string) (driven.TextExtractor, bool) {
	if contentType != s.mimeType {
		return nil, false
	}
	return s, true
}

func (s *stubExtractor) SupportedMIMETypes() []string { return []string{s.mimeType} }

func (s *stubExtractor) Extract(_ context.Context, _ []byte) (string, error) {
	return s.text, s.err
}

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	pipeline *mockPipeline
	settings *mockSettings
}

// setupTestServices installs fresh mocks and resets flag state.
func setupTestServices() (*testServices, func()) {
	oldPipeline, oldSettings, oldExtractor := pipelineService, settingsService, fileExtractor

	ts := &testServices{
		pipeline: &mockPipeline{
			processResult: driving.ProcessResult{
				Success: true,
				Message: "Document successfully processed by json_agent",
				Data: &driving.ProcessData{
					Classification: domain.Classification{
						Format:        domain.FormatJSON,
						Intent:        domain.IntentInvoice,
						Confidence:    0.92,
						Reasoning:     "invoice fields present",
						RoutingTarget: domain.RouteJSONAgent,
					},
					ProcessingResult: domain.Values{"validation_passed": true, "summary": "Invoice INV-1"},
					RoutingTarget:    domain.RouteJSONAgent,
				},
				MemoryID: "mem-1",
			},
			historyResult: driving.HistoryResult{
				Success: true,
				History: []driving.HistoryItem{{
					ID:           "mem-1",
					Source:       domain.SourceJSONHandler,
					DocumentType: domain.FormatJSON,
					Intent:       domain.IntentInvoice,
					Timestamp:    time.Now(),
					Summary:      "JSON document (valid): Invoice INV-1",
				}},
				TotalEntries: 1,
			},
		},
		settings: &mockSettings{settings: domain.DefaultAppSettings()},
	}

	pipelineService = ts.pipeline
	settingsService = ts.settings
	fileExtractor = nil
	processFlags = documentFlags{}
	classifyFlags = documentFlags{}
	historyLimit = 10
	historyJSON = false
	historyType, historyIntent, historyConversation = "", "", ""
	entryJSON = false

	return ts, func() {
		pipelineService, settingsService, fileExtractor = oldPipeline, oldSettings, oldExtractor
		processFlags = documentFlags{}
		classifyFlags = documentFlags{}
		historyJSON = false
		historyType, historyIntent, historyConversation = "", "", ""
		entryJSON = false
	}
}

// runCLI executes the root command with args and returns combined output.
func runCLI(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}
