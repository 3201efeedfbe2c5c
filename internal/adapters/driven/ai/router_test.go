package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docflow/internal/core/domain"
	"github.com/custodia-labs/docflow/internal/core/ports/driven"
)

type stubLLM struct {
	settings domain.LLMSettings
	closed   bool
}

var _ driven.LLMService = (*stubLLM)(nil)

func (s *stubLLM) Chat(context.Context, []driven.ChatMessage, driven.ChatOptions) (string, error) {
	return "", nil
}
func (s *stubLLM) ModelName() string          { return s.settings.Model }
func (s *stubLLM) Ping(context.Context) error { return nil }
func (s *stubLLM) Close() error {
	s.closed = true
	return nil
}

// newStubRouter returns a router that records created services instead of dialling providers.
func newStubRouter(settings domain.AppSettings) (*Router, *[]domain.LLMSettings) {
	var created []domain.LLMSettings
	r := NewRouter(settings)
	r.create = func(s *domain.LLMSettings) (driven.LLMService, error) {
		created = append(created, *s)
		return &stubLLM{settings: *s}, nil
	}
	return r, &created
}

func deepseekDefaults() domain.AppSettings {
	settings := domain.DefaultAppSettings()
	settings.LLM.APIKey = "ds-key"
	return settings
}

func TestParseModelID(t *testing.T) {
	tests := []struct {
		id           string
		wantProvider domain.AIProvider
		wantModel    string
	}{
		{"openai:gpt-4o", domain.AIProviderOpenAI, "gpt-4o"},
		{"Anthropic:claude-3-haiku", domain.AIProviderAnthropic, "claude-3-haiku"},
		{"ollama:llama3.2:latest", domain.AIProviderOllama, "llama3.2:latest"},
		{"deepseek:", domain.AIProviderDeepSeek, ""},
		{"gpt-4o-mini", domain.AIProviderOpenAI, "gpt-4o-mini"},
		{"o3-mini", domain.AIProviderOpenAI, "o3-mini"},
		{"claude-3-5-sonnet-latest", domain.AIProviderAnthropic, "claude-3-5-sonnet-latest"},
		{"deepseek-reasoner", domain.AIProviderDeepSeek, "deepseek-reasoner"},
		{"mistral:7b", "", "mistral:7b"},
		{"something-else", "", "something-else"},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			provider, model := ParseModelID(tt.id)
			assert.Equal(t, tt.wantProvider, provider)
			assert.Equal(t, tt.wantModel, model)
		})
	}
}

func TestRouter_DefaultModel(t *testing.T) {
	r := NewRouter(deepseekDefaults())
	assert.Equal(t, "deepseek-chat", r.DefaultModel())
}

func TestRouter_Resolve_Default(t *testing.T) {
	r, created := newStubRouter(deepseekDefaults())

	svc, err := r.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "deepseek-chat", svc.ModelName())

	again, err := r.Resolve("  ")
	require.NoError(t, err)
	assert.Same(t, svc, again)
	assert.Len(t, *created, 1)
	assert.Equal(t, "ds-key", (*created)[0].APIKey)
}

func TestRouter_Resolve_DefaultProviderOtherModel(t *testing.T) {
	r, created := newStubRouter(deepseekDefaults())

	svc, err := r.Resolve("deepseek-reasoner")
	require.NoError(t, err)
	assert.Equal(t, "deepseek-reasoner", svc.ModelName())
	require.Len(t, *created, 1)
	assert.Equal(t, domain.AIProviderDeepSeek, (*created)[0].Provider)
	assert.Equal(t, "ds-key", (*created)[0].APIKey)
}

func TestRouter_Resolve_OtherProviderWithCredentials(t *testing.T) {
	settings := deepseekDefaults()
	settings.LLM.RatePerSecond = 3
	settings.Providers[domain.AIProviderOpenAI] = domain.ProviderCredentials{APIKey: "sk-openai"}
	r, created := newStubRouter(settings)

	svc, err := r.Resolve("gpt-4o")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", svc.ModelName())

	require.Len(t, *created, 1)
	got := (*created)[0]
	assert.Equal(t, domain.AIProviderOpenAI, got.Provider)
	assert.Equal(t, "sk-openai", got.APIKey)
	assert.Empty(t, got.BaseURL)
	assert.InDelta(t, 3.0, got.RatePerSecond, 0.001)
}

func TestRouter_Resolve_ProviderPrefixWithoutModel(t *testing.T) {
	r, _ := newStubRouter(deepseekDefaults())

	svc, err := r.Resolve("ollama:")
	require.NoError(t, err)
	assert.Equal(t, "llama3.2", svc.ModelName())
}

func TestRouter_Resolve_DegradesToDefault(t *testing.T) {
	tests := []struct {
		name    string
		modelID string
	}{
		{"unknown provider", "mistral-large"},
		{"provider without credentials", "claude-3-5-sonnet-latest"},
		{"explicit provider without credentials", "openai:gpt-4o"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newStubRouter(deepseekDefaults())

			svc, err := r.Resolve(tt.modelID)
			require.NoError(t, err)
			assert.Equal(t, "deepseek-chat", svc.ModelName())
		})
	}
}

func TestRouter_Resolve_CreateFailureDegrades(t *testing.T) {
	settings := deepseekDefaults()
	settings.Providers[domain.AIProviderAnthropic] = domain.ProviderCredentials{APIKey: "ant"}
	r := NewRouter(settings)
	r.create = func(s *domain.LLMSettings) (driven.LLMService, error) {
		if s.Provider == domain.AIProviderAnthropic {
			return nil, errors.New("boom")
		}
		return &stubLLM{settings: *s}, nil
	}

	svc, err := r.Resolve("claude-3-haiku")
	require.NoError(t, err)
	assert.Equal(t, "deepseek-chat", svc.ModelName())
}

func TestRouter_Resolve_NoDefault(t *testing.T) {
	r, created := newStubRouter(domain.DefaultAppSettings())

	_, err := r.Resolve("")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)

	_, err = r.Resolve("gpt-4o")
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	assert.Empty(t, *created)
}

func TestRouter_Resolve_DefaultCreateError(t *testing.T) {
	r := NewRouter(deepseekDefaults())
	r.create = func(*domain.LLMSettings) (driven.LLMService, error) {
		return nil, errors.New("bad config")
	}

	_, err := r.Resolve("")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	assert.Contains(t, err.Error(), "bad config")
}

func TestRouter_Resolve_RealServices(t *testing.T) {
	settings := deepseekDefaults()
	settings.Providers[domain.AIProviderAnthropic] = domain.ProviderCredentials{APIKey: "ant"}
	r := NewRouter(settings)
	defer r.Close()

	svc, err := r.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "deepseek-chat", svc.ModelName())

	svc, err = r.Resolve("anthropic:claude-3-haiku")
	require.NoError(t, err)
	assert.Equal(t, "claude-3-haiku", svc.ModelName())
}

func TestRouter_Close(t *testing.T) {
	r, _ := newStubRouter(deepseekDefaults())

	svc, err := r.Resolve("")
	require.NoError(t, err)
	require.NoError(t, r.Close())

	assert.True(t, svc.(*stubLLM).closed)
	assert.Empty(t, r.services)
}
