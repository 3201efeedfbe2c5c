package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies a language model provider.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderDeepSeek is the DeepSeek cloud API (OpenAI-compatible).
	AIProviderDeepSeek AIProvider = "deepseek"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderDeepSeek:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic || p == AIProviderDeepSeek
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderDeepSeek:
		return "DeepSeek (cloud)"
	default:
		return unknownDescription
	}
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint. Empty uses the provider default.
	BaseURL string

	// APIKey is the API key (for cloud providers).
	APIKey string

	// RatePerSecond caps outgoing requests. Zero disables limiting.
	RatePerSecond float64
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// ProviderCredentials holds per-provider overrides used when a request names
// a model from a provider other than the default.
type ProviderCredentials struct {
	APIKey  string
	BaseURL string
}

// StoreBackend selects the key-value backend for the entry store.
type StoreBackend string

// Available store backends.
const (
	// StoreBackendSQLite is a local database file.
	StoreBackendSQLite StoreBackend = "sqlite"

	// StoreBackendRedis is a networked Redis server.
	StoreBackendRedis StoreBackend = "redis"

	// StoreBackendMemory is process memory. Entries are lost on exit.
	StoreBackendMemory StoreBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b StoreBackend) IsValid() bool {
	switch b {
	case StoreBackendSQLite, StoreBackendRedis, StoreBackendMemory:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b StoreBackend) String() string {
	return string(b)
}

// Description returns a human-readable description of the backend.
func (b StoreBackend) Description() string {
	switch b {
	case StoreBackendSQLite:
		return "SQLite (local file)"
	case StoreBackendRedis:
		return "Redis (network)"
	case StoreBackendMemory:
		return "Memory (ephemeral)"
	default:
		return unknownDescription
	}
}

// StoreSettings holds entry store configuration.
type StoreSettings struct {
	// Backend selects the key-value implementation.
	Backend StoreBackend

	// DataDir is where the sqlite database lives. Empty uses ~/.docflow/data.
	DataDir string

	// RedisURL is the connection string for the redis backend.
	RedisURL string
}

// ServerSettings holds HTTP front door configuration.
type ServerSettings struct {
	// Addr is the listen address.
	Addr string

	// CORSOrigins lists allowed origins. "*" allows all.
	CORSOrigins []string
}

// AppSettings holds all application settings.
type AppSettings struct {
	// LLM holds the default LLM provider settings.
	LLM LLMSettings

	// Providers holds credentials for non-default providers, keyed by provider.
	Providers map[AIProvider]ProviderCredentials

	// Store holds entry store settings.
	Store StoreSettings

	// Server holds HTTP front door settings.
	Server ServerSettings

	// Scheduler holds background task settings.
	Scheduler SchedulerConfig
}

// DefaultAppSettings returns settings with sensible defaults.
// The API key is left empty and must come from the config file or environment.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		LLM: LLMSettings{
			Provider: AIProviderDeepSeek,
			Model:    DefaultLLMModels()[AIProviderDeepSeek],
		},
		Providers: map[AIProvider]ProviderCredentials{},
		Store: StoreSettings{
			Backend:  StoreBackendSQLite,
			RedisURL: "redis://localhost:6379",
		},
		Server: ServerSettings{
			Addr:        ":8000",
			CORSOrigins: []string{"*"},
		},
		Scheduler: DefaultSchedulerConfig(),
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderDeepSeek,
		AIProviderOpenAI,
		AIProviderAnthropic,
		AIProviderOllama,
	}
}

// AllStoreBackends returns all available store backends.
func AllStoreBackends() []StoreBackend {
	return []StoreBackend{
		StoreBackendSQLite,
		StoreBackendRedis,
		StoreBackendMemory,
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
		AIProviderDeepSeek:  "deepseek-chat",
	}
}

// DefaultSweepInterval is how often the index sweep runs when not configured.
const DefaultSweepInterval = 1 * time.Hour
