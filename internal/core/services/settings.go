package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/docflow/internal/core/domain"
	"github.com/custodia-labs/docflow/internal/core/ports/driven"
	"github.com/custodia-labs/docflow/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyLLMProvider      = "llm.provider"
	keyLLMModel         = "llm.model"
	keyLLMBaseURL       = "llm.base_url"
	keyLLMAPIKey        = "llm.api_key"
	keyLLMRate          = "llm.rate_per_second"
	keyStoreBackend     = "store.backend"
	keyStoreDataDir     = "store.data_dir"
	keyStoreRedisURL    = "store.redis_url"
	keyServerAddr       = "server.addr"
	keyServerCORS       = "server.cors_origins"
	keySchedulerEnabled = "scheduler.enabled"
	keySweepEnabled     = "sweep.enabled"
	keySweepInterval    = "sweep.interval"
)

// providerKey returns the config key of a per-provider credential field.
func providerKey(p domain.AIProvider, field string) string {
	return "providers." + p.String() + "." + field
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	provider := s.getProvider(keyLLMProvider, defaults.LLM.Provider)
	model := s.configStore.GetString(keyLLMModel)
	if model == "" {
		model = domain.DefaultLLMModels()[provider]
	}

	settings := &domain.AppSettings{
		LLM: domain.LLMSettings{
			Provider:      provider,
			Model:         model,
			BaseURL:       s.configStore.GetString(keyLLMBaseURL), // No default - empty is valid for cloud providers
			APIKey:        s.configStore.GetString(keyLLMAPIKey),
			RatePerSecond: s.configStore.GetFloat(keyLLMRate),
		},
		Providers: make(map[domain.AIProvider]domain.ProviderCredentials),
		Store: domain.StoreSettings{
			Backend:  s.getBackend(defaults.Store.Backend),
			DataDir:  s.configStore.GetString(keyStoreDataDir),
			RedisURL: s.getString(keyStoreRedisURL, defaults.Store.RedisURL),
		},
		Server: domain.ServerSettings{
			Addr:        s.getString(keyServerAddr, defaults.Server.Addr),
			CORSOrigins: s.getStringSlice(keyServerCORS, defaults.Server.CORSOrigins),
		},
		Scheduler: s.GetSchedulerConfig(),
	}

	for _, p := range domain.AllLLMProviders() {
		creds := domain.ProviderCredentials{
			APIKey:  s.configStore.GetString(providerKey(p, "api_key")),
			BaseURL: s.configStore.GetString(providerKey(p, "base_url")),
		}
		if creds != (domain.ProviderCredentials{}) {
			settings.Providers[p] = creds
		}
	}
	// A provider-specific key (e.g. DEEPSEEK_API_KEY) serves the default provider too.
	if settings.LLM.APIKey == "" {
		settings.LLM.APIKey = settings.Providers[provider].APIKey
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	// Save LLM settings
	if err := s.configStore.Set(keyLLMProvider, settings.LLM.Provider.String()); err != nil {
		return fmt.Errorf("save llm provider: %w", err)
	}
	if err := s.configStore.Set(keyLLMModel, settings.LLM.Model); err != nil {
		return fmt.Errorf("save llm model: %w", err)
	}
	if err := s.configStore.Set(keyLLMBaseURL, settings.LLM.BaseURL); err != nil {
		return fmt.Errorf("save llm base_url: %w", err)
	}
	if settings.LLM.APIKey != "" {
		if err := s.configStore.Set(keyLLMAPIKey, settings.LLM.APIKey); err != nil {
			return fmt.Errorf("save llm api_key: %w", err)
		}
	}
	if err := s.configStore.Set(keyLLMRate, settings.LLM.RatePerSecond); err != nil {
		return fmt.Errorf("save llm rate_per_second: %w", err)
	}

	// Save per-provider credentials
	for p, creds := range settings.Providers {
		if creds.APIKey != "" {
			if err := s.configStore.Set(providerKey(p, "api_key"), creds.APIKey); err != nil {
				return fmt.Errorf("save %s api_key: %w", p, err)
			}
		}
		if creds.BaseURL != "" {
			if err := s.configStore.Set(providerKey(p, "base_url"), creds.BaseURL); err != nil {
				return fmt.Errorf("save %s base_url: %w", p, err)
			}
		}
	}

	// Save store settings
	if err := s.configStore.Set(keyStoreBackend, settings.Store.Backend.String()); err != nil {
		return fmt.Errorf("save store backend: %w", err)
	}
	if err := s.configStore.Set(keyStoreDataDir, settings.Store.DataDir); err != nil {
		return fmt.Errorf("save store data_dir: %w", err)
	}
	if err := s.configStore.Set(keyStoreRedisURL, settings.Store.RedisURL); err != nil {
		return fmt.Errorf("save store redis_url: %w", err)
	}

	// Save server settings
	if err := s.configStore.Set(keyServerAddr, settings.Server.Addr); err != nil {
		return fmt.Errorf("save server addr: %w", err)
	}
	if err := s.configStore.Set(keyServerCORS, settings.Server.CORSOrigins); err != nil {
		return fmt.Errorf("save server cors_origins: %w", err)
	}

	return nil
}

// SetLLMProvider configures the default LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}

	// Validate API key if required
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider

	// Set model - use provided or default
	if model != "" {
		settings.LLM.Model = model
	} else {
		settings.LLM.Model = domain.DefaultLLMModels()[provider]
	}

	// Set base URL based on provider type
	if provider.IsLocal() {
		// Local providers need a base URL
		if settings.LLM.BaseURL == "" {
			settings.LLM.BaseURL = "http://localhost:11434"
		}
	} else {
		// Cloud providers don't need a custom base URL
		settings.LLM.BaseURL = ""
	}

	// Set API key
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// SetStoreBackend selects the entry store backend.
func (s *SettingsService) SetStoreBackend(backend domain.StoreBackend, location string) error {
	if !backend.IsValid() {
		return fmt.Errorf("invalid store backend: %s", backend)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Store.Backend = backend
	switch backend {
	case domain.StoreBackendSQLite:
		settings.Store.DataDir = location
	case domain.StoreBackendRedis:
		if location != "" {
			settings.Store.RedisURL = location
		}
	}

	return s.Save(settings)
}

// Validate checks that the current settings are usable.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.LLM.IsConfigured() {
		return fmt.Errorf("LLM provider %q is not configured: API key missing",
			settings.LLM.Provider.Description())
	}
	if !settings.Store.Backend.IsValid() {
		return fmt.Errorf("invalid store backend: %s", settings.Store.Backend)
	}
	if settings.Store.Backend == domain.StoreBackendRedis && settings.Store.RedisURL == "" {
		return fmt.Errorf("store backend redis requires %s", keyStoreRedisURL)
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// GetSchedulerConfig returns the scheduler configuration.
// Returns default configuration if nothing is configured.
func (s *SettingsService) GetSchedulerConfig() domain.SchedulerConfig {
	defaults := domain.DefaultSchedulerConfig()

	// Master switch
	if _, exists := s.configStore.Get(keySchedulerEnabled); exists {
		defaults.Enabled = s.configStore.GetBool(keySchedulerEnabled)
	}

	taskCfg := defaults.TaskConfigs[domain.TaskIDIndexSweep]
	if _, exists := s.configStore.Get(keySweepEnabled); exists {
		taskCfg.Enabled = s.configStore.GetBool(keySweepEnabled)
	}
	// Interval is a duration string like "30m" or "1h"
	if interval := s.configStore.GetString(keySweepInterval); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil && d > 0 {
			taskCfg.Interval = d
		}
	}
	defaults.TaskConfigs[domain.TaskIDIndexSweep] = taskCfg

	return defaults
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getStringSlice accepts either a TOML array or a comma-separated string.
func (s *SettingsService) getStringSlice(key string, defaultVal []string) []string {
	if vals := s.configStore.GetStringSlice(key); len(vals) > 0 {
		return vals
	}
	if raw := s.configStore.GetString(key); raw != "" {
		var out []string
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultVal
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(strings.ToLower(val))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getBackend(defaultVal domain.StoreBackend) domain.StoreBackend {
	val := s.configStore.GetString(keyStoreBackend)
	if val == "" {
		return defaultVal
	}
	backend := domain.StoreBackend(strings.ToLower(val))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}
