package services

import (
	"github.com/custodia-labs/docflow/internal/core/domain"
	"github.com/custodia-labs/docflow/internal/core/ports/driven"
	"github.com/custodia-labs/docflow/internal/core/ports/driving"
)

// Ensure JSONHandler implements the interface.
var _ Handler = (*JSONHandler)(nil)

// JSONHandler validates a JSON document against the fields its intent requires,
// lists anomalies and produces a cleaned copy plus a summary.
type JSONHandler struct {
	analysisStage
}

// NewJSONHandler creates the handler for the json_agent routing target.
func NewJSONHandler(llm driven.LLMRouter, entries driving.EntryService, prompts driven.PromptStore) *JSONHandler {
	return &JSONHandler{analysisStage{
		llm:          llm,
		entries:      entries,
		prompts:      prompts,
		target:       domain.RouteJSONAgent,
		source:       domain.SourceJSONHandler,
		format:       domain.FormatJSON,
		promptName:   driven.PromptJSONHandler,
		contentLabel: "JSON Content",
		failureLabel: "JSON processing failed",
		parsePrefix:  "Failed to parse LLM response: ",
		fallback:     domain.JSONAnalysisFallback,
	}}
}
