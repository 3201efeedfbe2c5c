package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docflow/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docflow/internal/core/domain"
)

func TestEntryService_StoreAndGet(t *testing.T) {
	entries, _ := newTestEntries(t)
	ctx := context.Background()

	id, err := entries.Store(ctx, domain.EntryInput{
		Source:       domain.SourceClassifier,
		DocumentType: domain.FormatJSON,
		Intent:       domain.IntentInvoice,
		ExtractedValues: domain.Values{
			"content_preview": "{\"amount\": 10}",
			"nested":          map[string]any{"ok": true},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "id-1", id)

	entry, err := entries.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, entry.ID)
	assert.Equal(t, domain.SourceClassifier, entry.Source)
	assert.Equal(t, domain.FormatJSON, entry.DocumentType)
	assert.Equal(t, domain.IntentInvoice, entry.Intent)
	assert.Equal(t, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), entry.Timestamp)
	assert.Equal(t, "{\"amount\": 10}", entry.ExtractedValues["content_preview"])
	assert.Equal(t, map[string]any{"ok": true}, entry.ExtractedValues["nested"])
	assert.Nil(t, entry.ThreadID)
	assert.Nil(t, entry.ConversationID)
}

func TestEntryService_Store_Correlation(t *testing.T) {
	entries, kv := newTestEntries(t)
	ctx := context.Background()

	id, err := entries.Store(ctx, domain.EntryInput{
		Source:         domain.SourceEmailHandler,
		DocumentType:   domain.FormatEmail,
		Intent:         domain.IntentRFQ,
		ThreadID:       ptr("t-1"),
		ConversationID: ptr("c-1"),
	})
	require.NoError(t, err)

	entry, err := entries.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, entry.ThreadID)
	assert.Equal(t, "t-1", *entry.ThreadID)
	require.NotNil(t, entry.ConversationID)
	assert.Equal(t, "c-1", *entry.ConversationID)
	assert.NotNil(t, entry.ExtractedValues)

	for _, key := range []string{"by_type:email", "by_intent:rfq", "by_thread:t-1", "by_conversation:c-1"} {
		members, err := kv.SetMembers(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []string{id}, members, key)
	}
}

func TestEntryService_Get_NotFound(t *testing.T) {
	entries, _ := newTestEntries(t)

	_, err := entries.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = entries.Get(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEntryService_Store_NoKV(t *testing.T) {
	entries := NewEntryService(nil)

	_, err := entries.Store(context.Background(), domain.EntryInput{})
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestEntryService_Store_WriteFailure(t *testing.T) {
	kv := &failingKV{KVStore: memory.NewKVStore(), setHashErr: errors.New("disk full")}
	entries := NewEntryService(kv)

	id, err := entries.Store(context.Background(), domain.EntryInput{
		Source:       domain.SourceClassifier,
		DocumentType: domain.FormatPDF,
		Intent:       domain.IntentGeneral,
	})
	assert.Error(t, err)
	assert.Empty(t, id)
}

func TestEntryService_Store_IndexFailure(t *testing.T) {
	kv := &failingKV{KVStore: memory.NewKVStore(), addToSetErr: errors.New("connection reset")}
	entries := NewEntryService(kv)
	ctx := context.Background()

	id, err := entries.Store(ctx, domain.EntryInput{
		Source:       domain.SourceClassifier,
		DocumentType: domain.FormatPDF,
		Intent:       domain.IntentGeneral,
	})
	require.Error(t, err)
	require.NotEmpty(t, id)

	// The primary record was written before the index failed
	entry, getErr := entries.Get(ctx, id)
	require.NoError(t, getErr)
	assert.Equal(t, id, entry.ID)
}

func TestEntryService_TimestampsAreMonotonic(t *testing.T) {
	frozen := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	entries := NewEntryService(memory.NewKVStore(), WithClock(func() time.Time { return frozen }))
	ctx := context.Background()

	var prev time.Time
	for i := 0; i < 5; i++ {
		id, err := entries.Store(ctx, domain.EntryInput{
			Source:       domain.SourceClassifier,
			DocumentType: domain.FormatEmail,
			Intent:       domain.IntentGeneral,
		})
		require.NoError(t, err)
		entry, err := entries.Get(ctx, id)
		require.NoError(t, err)
		assert.True(t, entry.Timestamp.After(prev), "entry %d", i)
		prev = entry.Timestamp
	}
}

func TestEntryService_ListOrdering(t *testing.T) {
	entries, _ := newTestEntries(t)
	ctx := context.Background()

	for _, intent := range []domain.Intent{domain.IntentInvoice, domain.IntentRFQ, domain.IntentInvoice} {
		_, err := entries.Store(ctx, domain.EntryInput{
			Source:       domain.SourceClassifier,
			DocumentType: domain.FormatJSON,
			Intent:       intent,
			ThreadID:     ptr("thread-a"),
		})
		require.NoError(t, err)
	}

	thread, err := entries.ListByThread(ctx, "thread-a")
	require.NoError(t, err)
	assert.Equal(t, []string{"id-1", "id-2", "id-3"}, entryIDs(thread))

	byType, err := entries.ListByType(ctx, domain.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, []string{"id-3", "id-2", "id-1"}, entryIDs(byType))

	byIntent, err := entries.ListByIntent(ctx, domain.IntentInvoice)
	require.NoError(t, err)
	assert.Equal(t, []string{"id-3", "id-1"}, entryIDs(byIntent))

	recent, err := entries.ListRecent(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"id-3", "id-2"}, entryIDs(recent))

	all, err := entries.ListRecent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	none, err := entries.ListByConversation(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestEntryService_Expiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	kv := memory.NewKVStore()
	kv.SetClock(clock)
	entries := NewEntryService(kv, WithClock(clock), WithTTL(time.Hour))
	ctx := context.Background()

	id, err := entries.Store(ctx, domain.EntryInput{
		Source:       domain.SourceEmailHandler,
		DocumentType: domain.FormatEmail,
		Intent:       domain.IntentComplaint,
		ThreadID:     ptr("t-1"),
	})
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)

	_, err = entries.Get(ctx, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Dangling index ids are skipped
	thread, err := entries.ListByThread(ctx, "t-1")
	require.NoError(t, err)
	assert.Empty(t, thread)

	recent, err := entries.ListRecent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestEntryService_DefaultTTL(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	kv := memory.NewKVStore()
	kv.SetClock(func() time.Time { return now })
	entries := NewEntryService(kv)
	ctx := context.Background()

	id, err := entries.Store(ctx, domain.EntryInput{
		Source:       domain.SourceClassifier,
		DocumentType: domain.FormatEmail,
		Intent:       domain.IntentGeneral,
	})
	require.NoError(t, err)

	now = now.Add(domain.EntryTTL - time.Minute)
	_, err = entries.Get(ctx, id)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = entries.Get(ctx, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEntryService_Reconcile(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	kv := memory.NewKVStore()
	kv.SetClock(clock)
	entries := NewEntryService(kv, WithClock(clock), WithIDGenerator(sequentialIDs()))
	ctx := context.Background()

	// "old" expires, id-1 survives but loses its intent membership
	short := NewEntryService(kv, WithClock(clock), WithTTL(time.Hour), WithIDGenerator(func() string { return "old" }))
	_, err := short.Store(ctx, domain.EntryInput{
		Source:       domain.SourceClassifier,
		DocumentType: domain.FormatJSON,
		Intent:       domain.IntentInvoice,
		ThreadID:     ptr("t-1"),
	})
	require.NoError(t, err)

	_, err = entries.Store(ctx, domain.EntryInput{
		Source:       domain.SourceClassifier,
		DocumentType: domain.FormatJSON,
		Intent:       domain.IntentRFQ,
	})
	require.NoError(t, err)
	require.NoError(t, kv.RemoveFromSet(ctx, "by_intent:rfq", "id-1"))

	now = now.Add(2 * time.Hour)

	report, err := entries.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Scanned)
	assert.Equal(t, 1, report.Restored)
	// by_type:json, by_intent:invoice and by_thread:t-1 each held "old"
	assert.Equal(t, 3, report.Pruned)

	members, err := kv.SetMembers(ctx, "by_intent:rfq")
	require.NoError(t, err)
	assert.Equal(t, []string{"id-1"}, members)

	members, err = kv.SetMembers(ctx, "by_type:json")
	require.NoError(t, err)
	assert.Equal(t, []string{"id-1"}, members)

	// A second pass finds nothing to do
	report, err = entries.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.SweepReport{Scanned: 1}, report)
}

func TestEntryService_Reconcile_ScanError(t *testing.T) {
	kv := &failingKV{KVStore: memory.NewKVStore(), keysErr: errors.New("timeout")}
	entries := NewEntryService(kv)

	_, err := entries.Reconcile(context.Background())
	assert.Error(t, err)
}

func entryIDs(entries []domain.Entry) []string {
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	return ids
}
