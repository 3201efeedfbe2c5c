package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names used throughout the application.
// These constants define the contract between prompt consumers and providers.
// None of the templates take format placeholders; they are sent as system messages.
const (
	// PromptClassifier asks for one {format, intent, confidence, reasoning, routing_target} object.
	PromptClassifier = "classifier"

	// PromptJSONHandler asks for validation, missing fields and a summary of a JSON document.
	PromptJSONHandler = "json_handler"

	// PromptEmailHandler asks for sender, urgency, sentiment and a CRM summary of an email.
	PromptEmailHandler = "email_handler"
)
