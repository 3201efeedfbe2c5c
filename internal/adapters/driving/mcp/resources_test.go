package mcp

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docflow/internal/core/domain"
	"github.com/custodia-labs/docflow/internal/core/ports/driving"
)

func TestExtractID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		kind     string
		expected string
	}{
		{
			name:     "valid entry URI",
			uri:      "docflow://entries/mem-123",
			kind:     "entries/",
			expected: "mem-123",
		},
		{
			name:     "valid thread URI",
			uri:      "docflow://threads/t-9",
			kind:     "threads/",
			expected: "t-9",
		},
		{
			name:     "invalid prefix",
			uri:      "file://entries/mem-123",
			kind:     "entries/",
			expected: "",
		},
		{
			name:     "wrong kind",
			uri:      "docflow://threads/t-9",
			kind:     "entries/",
			expected: "",
		},
		{
			name:     "nested path",
			uri:      "docflow://entries/mem-1/extra",
			kind:     "entries/",
			expected: "",
		},
		{
			name:     "empty URI",
			uri:      "",
			kind:     "entries/",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extractID(tt.uri, tt.kind)
			assert.Equal(t, tt.expected, result)
		})
	}
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleHistoryResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns history as json", func(t *testing.T) {
		pipeline := &mockPipelineService{
			historyResult: driving.HistoryResult{
				Success: true,
				History: []driving.HistoryItem{{ID: "mem-1", Summary: "JSON document (valid): ok"}},
			},
		}
		server := newTestServer(t, pipeline)

		result, err := server.handleHistoryResource(ctx, makeReadResourceRequest("docflow://history"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)
		assert.Contains(t, result.Contents[0].Text, "mem-1")
		assert.Contains(t, result.Contents[0].Text, "JSON document (valid): ok")
		assert.Equal(t, 10, pipeline.lastLimit)
	})

	t.Run("returns error on failure", func(t *testing.T) {
		pipeline := &mockPipelineService{
			historyResult: driving.HistoryResult{Error: "Failed to retrieve history: down"},
		}
		server := newTestServer(t, pipeline)

		_, err := server.handleHistoryResource(ctx, makeReadResourceRequest("docflow://history"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "listing history")
	})
}

func TestServer_handleEntryResource(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid URI returns not found", func(t *testing.T) {
		server := newTestServer(t, &mockPipelineService{})

		_, err := server.handleEntryResource(ctx, makeReadResourceRequest("docflow://invalid/uri"))

		require.Error(t, err)
	})

	t.Run("missing entry returns not found", func(t *testing.T) {
		pipeline := &mockPipelineService{
			entryResult: driving.EntryResult{Error: "Memory entry not found"},
		}
		server := newTestServer(t, pipeline)

		_, err := server.handleEntryResource(ctx, makeReadResourceRequest("docflow://entries/missing"))

		require.Error(t, err)
		assert.Equal(t, "missing", pipeline.lastEntryID)
	})

	t.Run("returns entry successfully", func(t *testing.T) {
		pipeline := &mockPipelineService{
			entryResult: driving.EntryResult{
				Success: true,
				Entry: &domain.Entry{
					ID:              "mem-7",
					Source:          domain.SourceEmailHandler,
					DocumentType:    domain.FormatEmail,
					Intent:          domain.IntentRFQ,
					Timestamp:       time.Now(),
					ExtractedValues: domain.Values{"analysis": map[string]any{"sender": "a@b.c"}},
				},
			},
		}
		server := newTestServer(t, pipeline)

		result, err := server.handleEntryResource(ctx, makeReadResourceRequest("docflow://entries/mem-7"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Contains(t, result.Contents[0].Text, "mem-7")
		assert.Contains(t, result.Contents[0].Text, "a@b.c")
	})
}

func TestServer_handleThreadResource(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid URI returns not found", func(t *testing.T) {
		server := newTestServer(t, &mockPipelineService{})

		_, err := server.handleThreadResource(ctx, makeReadResourceRequest("docflow://threads/"))

		require.Error(t, err)
	})

	t.Run("returns thread entries", func(t *testing.T) {
		pipeline := &mockPipelineService{
			threadResult: driving.HistoryResult{
				Success: true,
				History: []driving.HistoryItem{{ID: "first"}, {ID: "second"}},
			},
		}
		server := newTestServer(t, pipeline)

		result, err := server.handleThreadResource(ctx, makeReadResourceRequest("docflow://threads/t-1"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "t-1", pipeline.lastThread)
		assert.Contains(t, result.Contents[0].Text, `"count": 2`)
		assert.Less(t, strings.Index(result.Contents[0].Text, "first"), strings.Index(result.Contents[0].Text, "second"))
	})

	t.Run("returns error on failure", func(t *testing.T) {
		pipeline := &mockPipelineService{
			threadResult: driving.HistoryResult{Error: "Failed to retrieve thread: down"},
		}
		server := newTestServer(t, pipeline)

		_, err := server.handleThreadResource(ctx, makeReadResourceRequest("docflow://threads/t-1"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "listing thread")
	})
}
