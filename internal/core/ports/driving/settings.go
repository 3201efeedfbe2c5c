package driving

import "github.com/custodia-labs/docflow/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// SetLLMProvider configures the default LLM provider.
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error

	// SetStoreBackend selects the entry store backend. location is the data
	// directory for sqlite or the connection URL for redis.
	SetStoreBackend(backend domain.StoreBackend, location string) error

	// Validate checks that the current settings are usable.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
	ValidateLLMConfig() error
}
