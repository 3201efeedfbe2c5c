// Package mcp provides an MCP (Model Context Protocol) server adapter for docflow.
// It lets AI assistants submit documents to the pipeline and browse the audit trail.
package mcp

import "errors"

// ErrMissingPipelineService is returned when the pipeline service is not provided.
var ErrMissingPipelineService = errors.New("mcp: pipeline service is required")
