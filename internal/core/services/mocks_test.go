package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/custodia-labs/docflow/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docflow/internal/core/ports/driven"
)

// --- Mock implementations for pipeline testing ---

// mockResponse is one scripted model reply.
type mockResponse struct {
	reply string
	err   error
	panic string
}

// mockLLM implements driven.LLMService with scripted responses.
// The last response repeats once the script is exhausted.
type mockLLM struct {
	mu        sync.Mutex
	responses []mockResponse
	calls     [][]driven.ChatMessage
	opts      []driven.ChatOptions
}

func newMockLLM(responses ...mockResponse) *mockLLM {
	return &mockLLM{responses: responses}
}

func (m *mockLLM) Chat(_ context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	m.mu.Lock()
	n := len(m.calls)
	m.calls = append(m.calls, messages)
	m.opts = append(m.opts, opts)
	var resp mockResponse
	if len(m.responses) > 0 {
		resp = m.responses[min(n, len(m.responses)-1)]
	}
	m.mu.Unlock()

	if resp.panic != "" {
		panic(resp.panic)
	}
	return resp.reply, resp.err
}

func (m *mockLLM) ModelName() string            { return "mock-model" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }

func (m *mockLLM) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockLLM) call(i int) []driven.ChatMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[i]
}

// mockRouter implements driven.LLMRouter around a single mockLLM.
type mockRouter struct {
	llm       *mockLLM
	err       error
	requested []string
}

func (r *mockRouter) Resolve(modelID string) (driven.LLMService, error) {
	r.requested = append(r.requested, modelID)
	if r.err != nil {
		return nil, r.err
	}
	return r.llm, nil
}

func (r *mockRouter) DefaultModel() string { return "mock-model" }

// stubPrompts implements driven.PromptStore from a map.
type stubPrompts struct {
	prompts map[string]string
	err     error
}

func (p *stubPrompts) Load(name string) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	return p.prompts[name], nil
}

func (p *stubPrompts) Reload() {}

// failingKV wraps the memory KV store and injects errors per operation.
type failingKV struct {
	*memory.KVStore
	setHashErr  error
	addToSetErr error
	keysErr     error
	membersErr  error
	pingErr     error
}

func (f *failingKV) SetHash(ctx context.Context, key string, fields map[string]string, ttl time.Duration) error {
	if f.setHashErr != nil {
		return f.setHashErr
	}
	return f.KVStore.SetHash(ctx, key, fields, ttl)
}

func (f *failingKV) AddToSet(ctx context.Context, key string, members ...string) (int, error) {
	if f.addToSetErr != nil {
		return 0, f.addToSetErr
	}
	return f.KVStore.AddToSet(ctx, key, members...)
}

func (f *failingKV) KeysWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	if f.keysErr != nil {
		return nil, f.keysErr
	}
	return f.KVStore.KeysWithPrefix(ctx, prefix)
}

func (f *failingKV) SetMembers(ctx context.Context, key string) ([]string, error) {
	if f.membersErr != nil {
		return nil, f.membersErr
	}
	return f.KVStore.SetMembers(ctx, key)
}

func (f *failingKV) Ping(ctx context.Context) error {
	if f.pingErr != nil {
		return f.pingErr
	}
	return f.KVStore.Ping(ctx)
}

// Ensure mocks implement interfaces
var (
	_ driven.LLMService  = (*mockLLM)(nil)
	_ driven.LLMRouter   = (*mockRouter)(nil)
	_ driven.PromptStore = (*stubPrompts)(nil)
	_ driven.KVStore     = (*failingKV)(nil)
)

// steppingClock returns a clock that advances one second per call.
func steppingClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := next
		next = next.Add(time.Second)
		return t
	}
}

// sequentialIDs returns an id generator yielding id-1, id-2, ...
func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

// newTestEntries returns an entry service over a fresh memory KV store with
// a deterministic clock and ids.
func newTestEntries(t *testing.T) (*EntryService, *memory.KVStore) {
	t.Helper()
	kv := memory.NewKVStore()
	entries := NewEntryService(kv,
		WithClock(steppingClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))),
		WithIDGenerator(sequentialIDs()),
	)
	return entries, kv
}

func ptr(s string) *string { return &s }
