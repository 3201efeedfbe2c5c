package memory

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore_Seeded(t *testing.T) {
	store := NewConfigStore(map[string]any{
		"llm.provider": "anthropic",
		"llm.model":    "claude-3-5-haiku-latest",
	}, map[string]any{
		"llm.model": "override",
	})

	assert.Equal(t, "anthropic", store.GetString("llm.provider"))
	assert.Equal(t, "override", store.GetString("llm.model"))
	assert.Equal(t, ":memory:", store.Path())
	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
}

func TestConfigStore_Getters(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("llm.rate_per_second", 2))
	require.NoError(t, store.Set("server.cors_origins", []any{"https://a.example", 7, "https://b.example"}))
	require.NoError(t, store.Set("scheduler.enabled", true))
	require.NoError(t, store.Set("sweep.limit", 12.9))

	assert.InDelta(t, 2.0, store.GetFloat("llm.rate_per_second"), 1e-9)
	assert.Equal(t, 2, store.GetInt("llm.rate_per_second"))
	assert.Equal(t, 12, store.GetInt("sweep.limit"))
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, store.GetStringSlice("server.cors_origins"))
	assert.True(t, store.GetBool("scheduler.enabled"))
}

func TestConfigStore_MissingAndMismatched(t *testing.T) {
	store := NewConfigStore(map[string]any{"llm.model": 42})

	_, ok := store.Get("store.backend")
	assert.False(t, ok)
	assert.Empty(t, store.GetString("llm.model"))
	assert.False(t, store.GetBool("llm.model"))
	assert.Nil(t, store.GetStringSlice("llm.model"))
	assert.Zero(t, store.GetFloat("store.backend"))
}

func TestConfigStore_ConcurrentAccess(t *testing.T) {
	store := NewConfigStore()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("providers.p%d.api_key", n)
			_ = store.Set(key, "k")
			_ = store.GetString(key)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, "k", store.GetString("providers.p7.api_key"))
}
