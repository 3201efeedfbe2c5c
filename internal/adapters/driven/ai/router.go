package ai

import (
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/docflow/internal/core/domain"
	"github.com/custodia-labs/docflow/internal/core/ports/driven"
	"github.com/custodia-labs/docflow/internal/logger"
)

// Ensure Router implements the interface.
var _ driven.LLMRouter = (*Router)(nil)

// modelPrefixes maps well-known model name prefixes to their provider.
var modelPrefixes = []struct {
	prefix   string
	provider domain.AIProvider
}{
	{"deepseek", domain.AIProviderDeepSeek},
	{"gpt-", domain.AIProviderOpenAI},
	{"chatgpt", domain.AIProviderOpenAI},
	{"o1", domain.AIProviderOpenAI},
	{"o3", domain.AIProviderOpenAI},
	{"o4", domain.AIProviderOpenAI},
	{"claude", domain.AIProviderAnthropic},
}

// Router resolves request model identifiers to cached LLM services.
//
// A model id is either "provider:model" or a bare model name whose provider
// is inferred from its prefix. Anything that cannot be served falls back to
// the default model from settings.
type Router struct {
	settings domain.AppSettings
	create   func(*domain.LLMSettings) (driven.LLMService, error)

	mu       sync.Mutex
	services map[string]driven.LLMService
}

// NewRouter creates a router over the given settings.
func NewRouter(settings domain.AppSettings) *Router {
	return &Router{
		settings: settings,
		create:   CreateLLMService,
		services: make(map[string]driven.LLMService),
	}
}

// DefaultModel returns the configured default model name.
func (r *Router) DefaultModel() string {
	return r.settings.LLM.Model
}

// Resolve returns the service for modelID, degrading to the default model
// when the id names an unknown provider or one without credentials.
func (r *Router) Resolve(modelID string) (driven.LLMService, error) {
	modelID = strings.TrimSpace(modelID)
	if modelID == "" {
		return r.resolveDefault()
	}

	settings, ok := r.settingsFor(modelID)
	if !ok {
		logger.Warn("router: no configured provider for model %q, using default %s", modelID, r.DefaultModel())
		return r.resolveDefault()
	}

	svc, err := r.get(settings)
	if err != nil {
		logger.Warn("router: model %q unavailable (%v), using default %s", modelID, err, r.DefaultModel())
		return r.resolveDefault()
	}
	return svc, nil
}

// Close releases every cached service.
func (r *Router) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for key, svc := range r.services {
		if err := svc.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(r.services, key)
	}
	return firstErr
}

func (r *Router) resolveDefault() (driven.LLMService, error) {
	def := r.settings.LLM
	if !def.IsConfigured() {
		return nil, fmt.Errorf("%w: default provider %s is not configured",
			domain.ErrLLMUnavailable, def.Provider.Description())
	}
	if def.Model == "" {
		def.Model = domain.DefaultLLMModels()[def.Provider]
	}
	svc, err := r.get(def)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}
	return svc, nil
}

// get returns the cached service for settings, creating it on first use.
func (r *Router) get(settings domain.LLMSettings) (driven.LLMService, error) {
	key := settings.Provider.String() + ":" + settings.Model

	r.mu.Lock()
	defer r.mu.Unlock()

	if svc, ok := r.services[key]; ok {
		return svc, nil
	}
	svc, err := r.create(&settings)
	if err != nil {
		return nil, err
	}
	if svc == nil {
		return nil, fmt.Errorf("provider %s is not configured", settings.Provider)
	}
	r.services[key] = svc
	logger.Debug("router: created %s", key)
	return svc, nil
}

// settingsFor builds LLM settings for modelID. It reports false when the
// provider cannot be determined or has no usable credentials.
func (r *Router) settingsFor(modelID string) (domain.LLMSettings, bool) {
	provider, model := ParseModelID(modelID)
	if !provider.IsValid() {
		return domain.LLMSettings{}, false
	}
	if model == "" {
		model = domain.DefaultLLMModels()[provider]
	}

	settings := domain.LLMSettings{
		Provider:      provider,
		Model:         model,
		RatePerSecond: r.settings.LLM.RatePerSecond,
	}
	if provider == r.settings.LLM.Provider {
		settings.APIKey = r.settings.LLM.APIKey
		settings.BaseURL = r.settings.LLM.BaseURL
	}
	if creds, ok := r.settings.Providers[provider]; ok {
		if creds.APIKey != "" {
			settings.APIKey = creds.APIKey
		}
		if creds.BaseURL != "" {
			settings.BaseURL = creds.BaseURL
		}
	}

	return settings, settings.IsConfigured()
}

// ParseModelID splits a model identifier into provider and model name.
// "openai:gpt-4o" names both; "gpt-4o" infers the provider from its prefix.
// An unrecognised id returns an empty provider.
func ParseModelID(modelID string) (domain.AIProvider, string) {
	if head, tail, found := strings.Cut(modelID, ":"); found {
		if p := domain.AIProvider(strings.ToLower(head)); p.IsValid() {
			return p, tail
		}
	}

	lower := strings.ToLower(modelID)
	for _, mp := range modelPrefixes {
		if strings.HasPrefix(lower, mp.prefix) {
			return mp.provider, modelID
		}
	}
	return "", modelID
}
