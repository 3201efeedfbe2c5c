package domain

import (
	"strings"
	"time"
)

// EntryTTL is how long an entry survives in the store before it expires.
// The store is an audit log, not permanent storage.
const EntryTTL = 30 * 24 * time.Hour

// EntrySource identifies the pipeline stage that produced an entry.
type EntrySource string

// Known entry sources.
const (
	// SourceClassifier is written once per classification attempt.
	SourceClassifier EntrySource = "classifier"

	// SourceJSONHandler is written by the JSON analysis handler.
	SourceJSONHandler EntrySource = "json-handler"

	// SourceEmailHandler is written by the email analysis handler.
	SourceEmailHandler EntrySource = "email-handler"

	// SourceOrchestrator is written only when the orchestrator recovers a system failure.
	SourceOrchestrator EntrySource = "orchestrator"
)

// String returns the string representation.
func (s EntrySource) String() string {
	return string(s)
}

// DocumentFormat is the structural format of a document.
type DocumentFormat string

// Supported document formats.
const (
	FormatPDF   DocumentFormat = "pdf"
	FormatJSON  DocumentFormat = "json"
	FormatEmail DocumentFormat = "email"
)

// IsValid returns true if the format is recognised.
func (f DocumentFormat) IsValid() bool {
	switch f {
	case FormatPDF, FormatJSON, FormatEmail:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (f DocumentFormat) String() string {
	return string(f)
}

// ParseDocumentFormat parses a format case-insensitively.
// The second return value is false when s names no known format.
func ParseDocumentFormat(s string) (DocumentFormat, bool) {
	f := DocumentFormat(strings.ToLower(strings.TrimSpace(s)))
	return f, f.IsValid()
}

// Intent is the business meaning of a document.
type Intent string

// Supported intents.
const (
	IntentInvoice    Intent = "invoice"
	IntentRFQ        Intent = "rfq"
	IntentComplaint  Intent = "complaint"
	IntentRegulation Intent = "regulation"
	IntentGeneral    Intent = "general"
)

// IsValid returns true if the intent is recognised.
func (i Intent) IsValid() bool {
	switch i {
	case IntentInvoice, IntentRFQ, IntentComplaint, IntentRegulation, IntentGeneral:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (i Intent) String() string {
	return string(i)
}

// ParseIntent parses an intent case-insensitively.
// The second return value is false when s names no known intent.
func ParseIntent(s string) (Intent, bool) {
	i := Intent(strings.ToLower(strings.TrimSpace(s)))
	return i, i.IsValid()
}

// IntentOrGeneral parses s and degrades unknown values to IntentGeneral.
func IntentOrGeneral(s string) Intent {
	if i, ok := ParseIntent(s); ok {
		return i
	}
	return IntentGeneral
}

// Values is a schema-less JSON tree holding stage-specific output.
type Values map[string]any

// Entry is one immutable audit record of a single pipeline stage's outcome.
type Entry struct {
	// ID is generated at creation and never reused.
	ID string `json:"id"`

	// Source is the stage that wrote the entry.
	Source EntrySource `json:"source"`

	// DocumentType is the document format the stage worked with.
	DocumentType DocumentFormat `json:"document_type"`

	// Intent is the document intent the stage worked with.
	Intent Intent `json:"intent"`

	// Timestamp is the creation time.
	Timestamp time.Time `json:"timestamp"`

	// ExtractedValues holds the stage payload plus content previews.
	ExtractedValues Values `json:"extracted_values"`

	// ThreadID is an optional correlation key. Nil when absent.
	ThreadID *string `json:"thread_id"`

	// ConversationID is an optional correlation key. Nil when absent.
	ConversationID *string `json:"conversation_id"`
}

// EntryInput carries the fields a stage supplies when recording an entry.
// ID and Timestamp are assigned by the store.
type EntryInput struct {
	Source          EntrySource
	DocumentType    DocumentFormat
	Intent          Intent
	ExtractedValues Values
	ThreadID        *string
	ConversationID  *string
}

// Correlation groups the optional thread and conversation keys of a request.
type Correlation struct {
	ThreadID       *string
	ConversationID *string
}

// CorrelationFrom reads thread_id and conversation_id from request metadata.
// Non-string or empty values are treated as absent.
func CorrelationFrom(metadata map[string]any) Correlation {
	return Correlation{
		ThreadID:       optionalString(metadata, "thread_id"),
		ConversationID: optionalString(metadata, "conversation_id"),
	}
}

func optionalString(m map[string]any, key string) *string {
	v, ok := m[key].(string)
	if !ok || v == "" {
		return nil
	}
	return &v
}
