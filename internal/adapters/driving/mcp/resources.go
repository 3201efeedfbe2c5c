package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// URIScheme is the custom URI scheme for docflow resources.
	uriScheme = "docflow://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for the recent history.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "history",
		Name:        "history",
		Description: "The most recent processing entries, newest first",
		MIMEType:    "application/json",
	}, s.handleHistoryResource)

	// Template for a single memory entry.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "entries/{entryId}",
		Name:        "entry",
		Description: "A single memory entry with its extracted values",
		MIMEType:    "application/json",
	}, s.handleEntryResource)

	// Template for a conversation thread.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "threads/{threadId}",
		Name:        "thread",
		Description: "Entries tagged with a thread id, oldest first",
		MIMEType:    "application/json",
	}, s.handleThreadResource)
}

// handleHistoryResource returns the recent history.
func (s *Server) handleHistoryResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	res := s.ports.Pipeline.History(ctx, defaultHistoryLimit)
	if !res.Success {
		return nil, fmt.Errorf("listing history: %s", res.Error)
	}
	return jsonResource(req.Params.URI, historyOutput(res))
}

// handleEntryResource returns one memory entry.
func (s *Server) handleEntryResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// Extract entryId from URI: docflow://entries/{entryId}
	id := extractID(req.Params.URI, "entries/")
	if id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	res := s.ports.Pipeline.GetEntry(ctx, id)
	if !res.Success || res.Entry == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	return jsonResource(req.Params.URI, entryDetail(res.Entry))
}

// handleThreadResource returns the entries of one thread.
func (s *Server) handleThreadResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// Extract threadId from URI: docflow://threads/{threadId}
	threadID := extractID(req.Params.URI, "threads/")
	if threadID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	res := s.ports.Pipeline.Thread(ctx, threadID)
	if !res.Success {
		return nil, fmt.Errorf("listing thread: %s", res.Error)
	}
	return jsonResource(req.Params.URI, historyOutput(res))
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractID extracts the trailing id from a URI like docflow://{kind}{id}.
func extractID(uri, kind string) string {
	prefix := uriScheme + kind

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
