package services

import (
	"github.com/custodia-labs/docflow/internal/core/domain"
	"github.com/custodia-labs/docflow/internal/core/ports/driven"
	"github.com/custodia-labs/docflow/internal/core/ports/driving"
)

// Ensure EmailHandler implements the interface.
var _ Handler = (*EmailHandler)(nil)

// EmailHandler extracts sender, urgency, sentiment and a CRM summary from an
// email. PDF-derived text is routed here as well.
type EmailHandler struct {
	analysisStage
}

// NewEmailHandler creates the handler for the email_agent routing target.
func NewEmailHandler(llm driven.LLMRouter, entries driving.EntryService, prompts driven.PromptStore) *EmailHandler {
	return &EmailHandler{analysisStage{
		llm:          llm,
		entries:      entries,
		prompts:      prompts,
		target:       domain.RouteEmailAgent,
		source:       domain.SourceEmailHandler,
		format:       domain.FormatEmail,
		promptName:   driven.PromptEmailHandler,
		contentLabel: "Email Content",
		failureLabel: "Email processing failed",
		parsePrefix:  "Failed to parse response: ",
		fallback:     domain.EmailAnalysisFallback,
		refine:       normaliseUrgency,
	}}
}

// normaliseUrgency lower-cases a recognised urgency. Unknown values are kept as sent;
// the keyword guidance lives in the prompt only.
func normaliseUrgency(analysis domain.Values) domain.Values {
	if raw, ok := analysis["urgency"].(string); ok {
		if u, ok := domain.ParseUrgency(raw); ok {
			analysis["urgency"] = u.String()
		}
	}
	return analysis
}
