package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docflow/internal/core/domain"
	"github.com/custodia-labs/docflow/internal/core/ports/driven"
	"github.com/custodia-labs/docflow/internal/core/ports/driving"
)

// Ensure EntryService implements the interface.
var _ driving.EntryService = (*EntryService)(nil)

// Key layout in the underlying KV store.
const (
	prefixRecord       = "memory:"
	prefixType         = "by_type:"
	prefixIntent       = "by_intent:"
	prefixThread       = "by_thread:"
	prefixConversation = "by_conversation:"
)

// Hash field names of a primary record.
const (
	fieldID              = "id"
	fieldSource          = "source"
	fieldDocumentType    = "document_type"
	fieldIntent          = "intent"
	fieldTimestamp       = "timestamp"
	fieldExtractedValues = "extracted_values"
	fieldThreadID        = "thread_id"
	fieldConversationID  = "conversation_id"
)

// EntryService stores audit entries as KV hashes with set-based secondary indices.
// It keeps no entry cache; every read hits the store.
type EntryService struct {
	kv    driven.KVStore
	ttl   time.Duration
	now   func() time.Time
	newID func() string

	mu   sync.Mutex
	last time.Time
}

// EntryOption configures an EntryService.
type EntryOption func(*EntryService)

// WithClock overrides the time source.
func WithClock(now func() time.Time) EntryOption {
	return func(s *EntryService) { s.now = now }
}

// WithTTL overrides the retention window.
func WithTTL(ttl time.Duration) EntryOption {
	return func(s *EntryService) { s.ttl = ttl }
}

// WithIDGenerator overrides entry id generation.
func WithIDGenerator(newID func() string) EntryOption {
	return func(s *EntryService) { s.newID = newID }
}

// NewEntryService creates an entry service over a KV store.
func NewEntryService(kv driven.KVStore, opts ...EntryOption) *EntryService {
	s := &EntryService{
		kv:    kv,
		ttl:   domain.EntryTTL,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store writes a new entry and its index memberships.
// The primary record is written in a single call before any index is touched,
// so an index never references a record that was not fully written.
func (s *EntryService) Store(ctx context.Context, input domain.EntryInput) (string, error) {
	if s.kv == nil {
		return "", fmt.Errorf("%w: no key-value store", domain.ErrStoreUnavailable)
	}

	entry := domain.Entry{
		ID:              s.newID(),
		Source:          input.Source,
		DocumentType:    input.DocumentType,
		Intent:          input.Intent,
		Timestamp:       s.nextTimestamp(),
		ExtractedValues: input.ExtractedValues,
		ThreadID:        input.ThreadID,
		ConversationID:  input.ConversationID,
	}

	fields, err := encodeEntry(&entry)
	if err != nil {
		return "", err
	}

	if err := s.kv.SetHash(ctx, prefixRecord+entry.ID, fields, s.ttl); err != nil {
		return "", fmt.Errorf("write entry %s: %w", entry.ID, err)
	}

	for _, key := range indexKeys(&entry) {
		if _, err := s.kv.AddToSet(ctx, key, entry.ID); err != nil {
			return entry.ID, fmt.Errorf("index entry %s under %s: %w", entry.ID, key, err)
		}
	}

	return entry.ID, nil
}

// Get retrieves an entry by id.
func (s *EntryService) Get(ctx context.Context, id string) (*domain.Entry, error) {
	if id == "" {
		return nil, domain.ErrNotFound
	}
	fields, err := s.kv.GetHash(ctx, prefixRecord+id)
	if err != nil {
		return nil, fmt.Errorf("read entry %s: %w", id, err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrNotFound
	}
	return decodeEntry(fields)
}

// ListByThread returns entries tagged with threadID, oldest first.
func (s *EntryService) ListByThread(ctx context.Context, threadID string) ([]domain.Entry, error) {
	entries, err := s.listIndex(ctx, prefixThread+threadID)
	if err != nil {
		return nil, err
	}
	sortEntries(entries, true)
	return entries, nil
}

// ListByConversation returns entries tagged with conversationID, oldest first.
func (s *EntryService) ListByConversation(ctx context.Context, conversationID string) ([]domain.Entry, error) {
	entries, err := s.listIndex(ctx, prefixConversation+conversationID)
	if err != nil {
		return nil, err
	}
	sortEntries(entries, true)
	return entries, nil
}

// ListByType returns entries of a document format, newest first.
func (s *EntryService) ListByType(ctx context.Context, format domain.DocumentFormat) ([]domain.Entry, error) {
	entries, err := s.listIndex(ctx, prefixType+format.String())
	if err != nil {
		return nil, err
	}
	sortEntries(entries, false)
	return entries, nil
}

// ListByIntent returns entries of an intent, newest first.
func (s *EntryService) ListByIntent(ctx context.Context, intent domain.Intent) ([]domain.Entry, error) {
	entries, err := s.listIndex(ctx, prefixIntent+intent.String())
	if err != nil {
		return nil, err
	}
	sortEntries(entries, false)
	return entries, nil
}

// ListRecent scans every live primary record, sorts newest first and truncates to limit.
func (s *EntryService) ListRecent(ctx context.Context, limit int) ([]domain.Entry, error) {
	keys, err := s.kv.KeysWithPrefix(ctx, prefixRecord)
	if err != nil {
		return nil, fmt.Errorf("scan entries: %w", err)
	}

	entries := make([]domain.Entry, 0, len(keys))
	for _, key := range keys {
		entry, err := s.Get(ctx, strings.TrimPrefix(key, prefixRecord))
		if errors.Is(err, domain.ErrNotFound) {
			continue // Expired between scan and read
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}

	sortEntries(entries, false)
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Reconcile walks every live record, re-adds any missing index membership and
// removes index ids whose record no longer exists.
func (s *EntryService) Reconcile(ctx context.Context) (domain.SweepReport, error) {
	var report domain.SweepReport

	keys, err := s.kv.KeysWithPrefix(ctx, prefixRecord)
	if err != nil {
		return report, fmt.Errorf("scan entries: %w", err)
	}

	live := make(map[string]bool, len(keys))
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		entry, err := s.Get(ctx, strings.TrimPrefix(key, prefixRecord))
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return report, err
		}
		report.Scanned++
		live[entry.ID] = true

		for _, idx := range indexKeys(entry) {
			added, err := s.kv.AddToSet(ctx, idx, entry.ID)
			if err != nil {
				return report, fmt.Errorf("restore %s: %w", idx, err)
			}
			report.Restored += added
		}
	}

	for _, prefix := range []string{prefixType, prefixIntent, prefixThread, prefixConversation} {
		idxKeys, err := s.kv.KeysWithPrefix(ctx, prefix)
		if err != nil {
			return report, fmt.Errorf("scan %s indices: %w", prefix, err)
		}
		for _, idx := range idxKeys {
			members, err := s.kv.SetMembers(ctx, idx)
			if err != nil {
				return report, fmt.Errorf("read %s: %w", idx, err)
			}
			var stale []string
			for _, id := range members {
				if live[id] {
					continue
				}
				// Records written after the scan are live too.
				if _, err := s.Get(ctx, id); !errors.Is(err, domain.ErrNotFound) {
					continue
				}
				stale = append(stale, id)
			}
			if len(stale) == 0 {
				continue
			}
			if err := s.kv.RemoveFromSet(ctx, idx, stale...); err != nil {
				return report, fmt.Errorf("prune %s: %w", idx, err)
			}
			report.Pruned += len(stale)
		}
	}

	return report, nil
}

// listIndex resolves every id in an index set, skipping ids whose record is gone.
func (s *EntryService) listIndex(ctx context.Context, key string) ([]domain.Entry, error) {
	ids, err := s.kv.SetMembers(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read index %s: %w", key, err)
	}

	entries := make([]domain.Entry, 0, len(ids))
	for _, id := range ids {
		entry, err := s.Get(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, nil
}

// nextTimestamp returns the current time, bumped forward so that timestamps
// issued by this service never go backwards.
func (s *EntryService) nextTimestamp() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.now().UTC()
	if !t.After(s.last) && !s.last.IsZero() {
		t = s.last.Add(time.Nanosecond)
	}
	s.last = t
	return t
}

func indexKeys(e *domain.Entry) []string {
	keys := []string{
		prefixType + e.DocumentType.String(),
		prefixIntent + e.Intent.String(),
	}
	if e.ThreadID != nil {
		keys = append(keys, prefixThread+*e.ThreadID)
	}
	if e.ConversationID != nil {
		keys = append(keys, prefixConversation+*e.ConversationID)
	}
	return keys
}

// sortEntries orders by timestamp, breaking ties by id for a stable result.
func sortEntries(entries []domain.Entry, ascending bool) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			if ascending {
				return a.Timestamp.Before(b.Timestamp)
			}
			return a.Timestamp.After(b.Timestamp)
		}
		if ascending {
			return a.ID < b.ID
		}
		return a.ID > b.ID
	})
}

// encodeEntry flattens an entry into string hash fields.
// Absent correlation keys are stored as empty strings.
func encodeEntry(e *domain.Entry) (map[string]string, error) {
	values := e.ExtractedValues
	if values == nil {
		values = domain.Values{}
	}
	valuesJSON, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("marshal extracted values: %w", err)
	}

	return map[string]string{
		fieldID:              e.ID,
		fieldSource:          e.Source.String(),
		fieldDocumentType:    e.DocumentType.String(),
		fieldIntent:          e.Intent.String(),
		fieldTimestamp:       e.Timestamp.Format(time.RFC3339Nano),
		fieldExtractedValues: string(valuesJSON),
		fieldThreadID:        derefOrEmpty(e.ThreadID),
		fieldConversationID:  derefOrEmpty(e.ConversationID),
	}, nil
}

// decodeEntry rebuilds an entry from hash fields.
// Empty correlation fields decode as absent.
func decodeEntry(fields map[string]string) (*domain.Entry, error) {
	ts, err := time.Parse(time.RFC3339Nano, fields[fieldTimestamp])
	if err != nil {
		return nil, fmt.Errorf("parse timestamp of entry %s: %w", fields[fieldID], err)
	}

	var values domain.Values
	if raw := fields[fieldExtractedValues]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &values); err != nil {
			return nil, fmt.Errorf("unmarshal extracted values of entry %s: %w", fields[fieldID], err)
		}
	}
	if values == nil {
		values = domain.Values{}
	}

	return &domain.Entry{
		ID:              fields[fieldID],
		Source:          domain.EntrySource(fields[fieldSource]),
		DocumentType:    domain.DocumentFormat(fields[fieldDocumentType]),
		Intent:          domain.Intent(fields[fieldIntent]),
		Timestamp:       ts,
		ExtractedValues: values,
		ThreadID:        emptyToNil(fields[fieldThreadID]),
		ConversationID:  emptyToNil(fields[fieldConversationID]),
	}, nil
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func emptyToNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
