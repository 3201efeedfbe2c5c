// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// LLMService provides chat completion against a single provider and model.
//
// Implementations may include:
//   - OpenAI and OpenAI-compatible APIs (DeepSeek)
//   - Anthropic (Claude)
//   - Ollama (local models)
type LLMService interface {
	// Chat sends a role-tagged message sequence and returns the free-form reply text.
	// The reply is not guaranteed to be valid JSON even when the prompt asks for it.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// Chat message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// ChatOptions configures chat behaviour.
type ChatOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// JSON asks for a single JSON object reply. Providers with a JSON output
	// mode enable it; others rely on the prompt alone.
	JSON bool
}

// LLMRouter resolves a model identifier to a ready LLMService.
type LLMRouter interface {
	// Resolve returns the service for modelID. An empty id, an unknown provider
	// or a provider without credentials resolves to the default model.
	// Returns domain.ErrLLMUnavailable only when no default is configured either.
	Resolve(modelID string) (LLMService, error)

	// DefaultModel returns the model name used when a request names none.
	DefaultModel() string
}
