package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docflow/internal/core/domain"
	"github.com/custodia-labs/docflow/internal/core/ports/driving"
)

// defaultHistoryLimit matches the HTTP and CLI history default.
const defaultHistoryLimit = 10

// errContentRequired is returned when a tool is called without document text.
var errContentRequired = errors.New("content is required")

// ProcessInput is the input schema for the process_document tool.
type ProcessInput struct {
	Content     string         `json:"content" jsonschema:"the document text (email body, JSON payload or extracted PDF text)"`
	ContentType string         `json:"content_type,omitempty" jsonschema:"optional format hint, defaults to auto"`
	Metadata    map[string]any `json:"metadata,omitempty" jsonschema:"caller context; thread_id and conversation_id tag every recorded entry"`
	ModelID     string         `json:"model_id,omitempty" jsonschema:"optional model id such as deepseek-chat or anthropic:claude-3-5-haiku-latest"`
}

// ClassifyInput is the input schema for the classify_document tool.
type ClassifyInput struct {
	Content  string         `json:"content" jsonschema:"the document text to classify"`
	Metadata map[string]any `json:"metadata,omitempty" jsonschema:"caller context; thread_id and conversation_id tag the classifier entry"`
	ModelID  string         `json:"model_id,omitempty" jsonschema:"optional model id"`
}

// HistoryInput is the input schema for the processing_history tool.
type HistoryInput struct {
	Limit          int    `json:"limit,omitempty" jsonschema:"maximum number of entries to return (default 10)"`
	DocumentType   string `json:"document_type,omitempty" jsonschema:"only entries of this format: json, email or pdf"`
	Intent         string `json:"intent,omitempty" jsonschema:"only entries of this intent: invoice, rfq, complaint, regulation or general"`
	ConversationID string `json:"conversation_id,omitempty" jsonschema:"only entries of this conversation, oldest first"`
}

// EntryInput is the input schema for the get_entry tool.
type EntryInput struct {
	ID string `json:"id" jsonschema:"the memory entry id"`
}

// ClassificationOutput describes a classification decision.
type ClassificationOutput struct {
	Format        string  `json:"format"`
	Intent        string  `json:"intent"`
	Confidence    float64 `json:"confidence"`
	Reasoning     string  `json:"reasoning"`
	RoutingTarget string  `json:"routing_target"`
}

// ProcessOutput is the output schema for the process_document tool.
type ProcessOutput struct {
	Success          bool                  `json:"success"`
	Message          string                `json:"message"`
	Classification   *ClassificationOutput `json:"classification,omitempty"`
	ProcessingResult map[string]any        `json:"processing_result,omitempty"`
	RoutingTarget    string                `json:"routing_target,omitempty"`
	MemoryID         string                `json:"memory_id,omitempty"`
}

// ClassifyOutput is the output schema for the classify_document tool.
type ClassifyOutput struct {
	Success        bool                  `json:"success"`
	Classification *ClassificationOutput `json:"classification,omitempty"`
	RoutingTarget  string                `json:"routing_target"`
	MemoryID       string                `json:"memory_id,omitempty"`
	Error          string                `json:"error,omitempty"`
}

// HistoryItemOutput is one summarised entry.
type HistoryItemOutput struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	DocumentType string `json:"document_type"`
	Intent       string `json:"intent"`
	Timestamp    string `json:"timestamp"`
	Summary      string `json:"summary"`
}

// HistoryOutput is the output schema for the processing_history tool.
type HistoryOutput struct {
	Success bool                `json:"success"`
	Entries []HistoryItemOutput `json:"entries"`
	Count   int                 `json:"count"`
	Error   string              `json:"error,omitempty"`
}

// EntryDetailOutput is a full memory entry.
type EntryDetailOutput struct {
	ID              string         `json:"id"`
	Source          string         `json:"source"`
	DocumentType    string         `json:"document_type"`
	Intent          string         `json:"intent"`
	Timestamp       string         `json:"timestamp"`
	ExtractedValues map[string]any `json:"extracted_values,omitempty"`
	ThreadID        string         `json:"thread_id,omitempty"`
	ConversationID  string         `json:"conversation_id,omitempty"`
}

// EntryOutput is the output schema for the get_entry tool.
type EntryOutput struct {
	Success bool               `json:"success"`
	Entry   *EntryDetailOutput `json:"entry,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "process_document",
		Description: "Classify a document and run it through the matching handler (JSON or email)",
	}, s.handleProcess)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "classify_document",
		Description: "Classify a document's format and intent without further processing",
	}, s.handleClassify)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "processing_history",
		Description: "List the most recent processing entries, newest first, optionally filtered by type, intent or conversation",
	}, s.handleHistory)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_entry",
		Description: "Fetch a single memory entry by id",
	}, s.handleGetEntry)
}

// handleProcess handles the process_document tool invocation.
func (s *Server) handleProcess(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ProcessInput,
) (*mcp.CallToolResult, ProcessOutput, error) {
	if strings.TrimSpace(input.Content) == "" {
		return nil, ProcessOutput{}, errContentRequired
	}
	contentType := input.ContentType
	if contentType == "" {
		contentType = "auto"
	}

	res := s.ports.Pipeline.Process(ctx, driving.ProcessRequest{
		Content:     input.Content,
		ContentType: contentType,
		Metadata:    input.Metadata,
		ModelID:     input.ModelID,
	})

	output := ProcessOutput{
		Success:  res.Success,
		Message:  res.Message,
		MemoryID: res.MemoryID,
	}
	if res.Data != nil {
		output.Classification = classificationOutput(&res.Data.Classification)
		output.ProcessingResult = res.Data.ProcessingResult
		output.RoutingTarget = res.Data.RoutingTarget.String()
	}
	return nil, output, nil
}

// handleClassify handles the classify_document tool invocation.
func (s *Server) handleClassify(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ClassifyInput,
) (*mcp.CallToolResult, ClassifyOutput, error) {
	if strings.TrimSpace(input.Content) == "" {
		return nil, ClassifyOutput{}, errContentRequired
	}

	res := s.ports.Pipeline.Classify(ctx, driving.ClassifyRequest{
		Content:  input.Content,
		Metadata: input.Metadata,
		ModelID:  input.ModelID,
	})

	return nil, ClassifyOutput{
		Success:        res.Success,
		Classification: classificationOutput(res.Classification),
		RoutingTarget:  res.RoutingTarget.String(),
		MemoryID:       res.MemoryID,
		Error:          res.Error,
	}, nil
}

// handleHistory handles the processing_history tool invocation.
func (s *Server) handleHistory(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input HistoryInput,
) (*mcp.CallToolResult, HistoryOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	filter := driving.HistoryFilter{ConversationID: input.ConversationID, Limit: limit}
	if input.DocumentType != "" {
		format, ok := domain.ParseDocumentFormat(input.DocumentType)
		if !ok {
			return nil, historyOutput(driving.HistoryResult{Error: fmt.Sprintf("unknown document type: %s", input.DocumentType)}), nil
		}
		filter.DocumentType = format
	}
	if input.Intent != "" {
		intent, ok := domain.ParseIntent(input.Intent)
		if !ok {
			return nil, historyOutput(driving.HistoryResult{Error: fmt.Sprintf("unknown intent: %s", input.Intent)}), nil
		}
		filter.Intent = intent
	}

	if filter.IsEmpty() {
		return nil, historyOutput(s.ports.Pipeline.History(ctx, limit)), nil
	}
	return nil, historyOutput(s.ports.Pipeline.Browse(ctx, filter)), nil
}

// handleGetEntry handles the get_entry tool invocation.
func (s *Server) handleGetEntry(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input EntryInput,
) (*mcp.CallToolResult, EntryOutput, error) {
	res := s.ports.Pipeline.GetEntry(ctx, input.ID)
	if !res.Success || res.Entry == nil {
		return nil, EntryOutput{Error: res.Error}, nil
	}
	return nil, EntryOutput{Success: true, Entry: entryDetail(res.Entry)}, nil
}

func classificationOutput(c *domain.Classification) *ClassificationOutput {
	if c == nil {
		return nil
	}
	return &ClassificationOutput{
		Format:        c.Format.String(),
		Intent:        c.Intent.String(),
		Confidence:    c.Confidence,
		Reasoning:     c.Reasoning,
		RoutingTarget: c.RoutingTarget.String(),
	}
}

func historyOutput(res driving.HistoryResult) HistoryOutput {
	output := HistoryOutput{
		Success: res.Success,
		Entries: make([]HistoryItemOutput, len(res.History)),
		Count:   len(res.History),
		Error:   res.Error,
	}
	for i := range res.History {
		item := &res.History[i]
		output.Entries[i] = HistoryItemOutput{
			ID:           item.ID,
			Source:       item.Source.String(),
			DocumentType: item.DocumentType.String(),
			Intent:       item.Intent.String(),
			Timestamp:    item.Timestamp.Format(time.RFC3339),
			Summary:      item.Summary,
		}
	}
	return output
}

func entryDetail(e *domain.Entry) *EntryDetailOutput {
	detail := &EntryDetailOutput{
		ID:              e.ID,
		Source:          e.Source.String(),
		DocumentType:    e.DocumentType.String(),
		Intent:          e.Intent.String(),
		Timestamp:       e.Timestamp.Format(time.RFC3339),
		ExtractedValues: e.ExtractedValues,
	}
	if e.ThreadID != nil {
		detail.ThreadID = *e.ThreadID
	}
	if e.ConversationID != nil {
		detail.ConversationID = *e.ConversationID
	}
	return detail
}
