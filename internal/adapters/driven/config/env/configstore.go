// Package env overlays environment variables on another ConfigStore.
package env

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/custodia-labs/docflow/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// Prefix is the environment prefix for docflow settings: llm.api_key is
// read from DOCFLOW_LLM_API_KEY.
const Prefix = "DOCFLOW"

// aliases are extra variables honoured for a key, in priority order after the
// prefixed name. They match the names other tools in the ecosystem use.
var aliases = map[string][]string{
	"providers.deepseek.api_key":  {"DEEPSEEK_API_KEY"},
	"providers.openai.api_key":    {"OPENAI_API_KEY"},
	"providers.anthropic.api_key": {"ANTHROPIC_API_KEY"},
	"providers.ollama.base_url":   {"OLLAMA_HOST"},
	"store.redis_url":             {"REDIS_URL"},
}

// Keys lists every setting that may be overridden from the environment.
var Keys = []string{
	"llm.provider",
	"llm.model",
	"llm.base_url",
	"llm.api_key",
	"llm.rate_per_second",
	"providers.deepseek.api_key",
	"providers.deepseek.base_url",
	"providers.openai.api_key",
	"providers.openai.base_url",
	"providers.anthropic.api_key",
	"providers.anthropic.base_url",
	"providers.ollama.base_url",
	"store.backend",
	"store.data_dir",
	"store.redis_url",
	"server.addr",
	"server.cors_origins",
	"scheduler.enabled",
	"sweep.enabled",
	"sweep.interval",
}

// ConfigStore reads environment variables first and falls back to the
// wrapped store. Writes always go to the wrapped store.
type ConfigStore struct {
	base driven.ConfigStore
	v    *viper.Viper
}

// NewConfigStore wraps base with an environment overlay.
func NewConfigStore(base driven.ConfigStore) *ConfigStore {
	v := viper.New()
	v.SetEnvPrefix(Prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, key := range Keys {
		names := append([]string{EnvName(key)}, aliases[key]...)
		// BindEnv only fails when given no key.
		_ = v.BindEnv(append([]string{key}, names...)...)
	}

	return &ConfigStore{base: base, v: v}
}

// EnvName returns the prefixed environment variable for key.
func EnvName(key string) string {
	return Prefix + "_" + strings.ToUpper(strings.NewReplacer(".", "_").Replace(key))
}

// fromEnv reports the environment value for key, if any variable is set and non-empty.
func (s *ConfigStore) fromEnv(key string) (string, bool) {
	if !s.v.IsSet(key) {
		return "", false
	}
	val := strings.TrimSpace(s.v.GetString(key))
	return val, val != ""
}

// Get retrieves a configuration value by key.
func (s *ConfigStore) Get(key string) (any, bool) {
	if val, ok := s.fromEnv(key); ok {
		return val, true
	}
	return s.base.Get(key)
}

// GetString retrieves a string configuration value.
func (s *ConfigStore) GetString(key string) string {
	if val, ok := s.fromEnv(key); ok {
		return val
	}
	return s.base.GetString(key)
}

// GetInt retrieves an integer configuration value.
func (s *ConfigStore) GetInt(key string) int {
	if _, ok := s.fromEnv(key); ok {
		return s.v.GetInt(key)
	}
	return s.base.GetInt(key)
}

// GetBool retrieves a boolean configuration value.
func (s *ConfigStore) GetBool(key string) bool {
	if _, ok := s.fromEnv(key); ok {
		return s.v.GetBool(key)
	}
	return s.base.GetBool(key)
}

// GetFloat retrieves a floating point configuration value.
func (s *ConfigStore) GetFloat(key string) float64 {
	if _, ok := s.fromEnv(key); ok {
		return s.v.GetFloat64(key)
	}
	return s.base.GetFloat(key)
}

// GetStringSlice retrieves a string slice configuration value.
// Environment values are comma separated.
func (s *ConfigStore) GetStringSlice(key string) []string {
	val, ok := s.fromEnv(key)
	if !ok {
		return s.base.GetStringSlice(key)
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Set stores a value in the wrapped store. An environment override for the
// same key still wins on subsequent reads.
func (s *ConfigStore) Set(key string, value any) error {
	return s.base.Set(key, value)
}

// Save persists the wrapped store.
func (s *ConfigStore) Save() error {
	return s.base.Save()
}

// Load reloads the wrapped store. The environment is read on every access.
func (s *ConfigStore) Load() error {
	return s.base.Load()
}

// Path returns the wrapped store's file path.
func (s *ConfigStore) Path() string {
	return s.base.Path()
}

// Overrides returns the keys currently set from the environment, in Keys order.
func (s *ConfigStore) Overrides() []string {
	var keys []string
	for _, key := range Keys {
		if _, ok := s.fromEnv(key); ok {
			keys = append(keys, key)
		}
	}
	return keys
}
