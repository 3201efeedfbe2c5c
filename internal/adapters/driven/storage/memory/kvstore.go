package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/docflow/internal/core/ports/driven"
)

// Ensure KVStore implements the interface.
var _ driven.KVStore = (*KVStore)(nil)

type hashValue struct {
	fields    map[string]string
	expiresAt time.Time
}

// KVStore is an in-memory implementation of driven.KVStore.
// Expired hashes are dropped lazily on access.
type KVStore struct {
	mu     sync.RWMutex
	hashes map[string]hashValue
	sets   map[string]map[string]struct{}
	now    func() time.Time
}

// NewKVStore creates a new in-memory KV store.
func NewKVStore() *KVStore {
	return &KVStore{
		hashes: make(map[string]hashValue),
		sets:   make(map[string]map[string]struct{}),
		now:    time.Now,
	}
}

// SetClock overrides the time source used for expiry.
func (s *KVStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// SetHash replaces the hash at key.
func (s *KVStore) SetHash(_ context.Context, key string, fields map[string]string, ttl time.Duration) error {
	copied := make(map[string]string, len(fields))
	for k, v := range fields {
		copied[k] = v
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	h := hashValue{fields: copied}
	if ttl > 0 {
		h.expiresAt = s.now().Add(ttl)
	}
	s.hashes[key] = h
	return nil
}

// GetHash returns a copy of the hash at key, or an empty map.
func (s *KVStore) GetHash(_ context.Context, key string) (map[string]string, error) {
	s.mu.RLock()
	h, ok := s.hashes[key]
	expired := ok && s.expired(h)
	s.mu.RUnlock()

	if !ok || expired {
		if expired {
			s.evictExpired(key)
		}
		return map[string]string{}, nil
	}

	out := make(map[string]string, len(h.fields))
	for k, v := range h.fields {
		out[k] = v
	}
	return out, nil
}

// evictExpired deletes key if it is still expired under the write lock. A
// SetHash that landed after the read check keeps its value.
func (s *KVStore) evictExpired(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.hashes[key]; ok && s.expired(h) {
		delete(s.hashes, key)
	}
}

// AddToSet adds members and returns how many were not already present.
func (s *KVStore) AddToSet(_ context.Context, key string, members ...string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.sets[key]
	if !ok {
		set = make(map[string]struct{})
		s.sets[key] = set
	}
	added := 0
	for _, m := range members {
		if _, exists := set[m]; !exists {
			set[m] = struct{}{}
			added++
		}
	}
	return added, nil
}

// SetMembers returns the members of the set at key, sorted.
func (s *KVStore) SetMembers(_ context.Context, key string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := s.sets[key]
	members := make([]string, 0, len(set))
	for m := range set {
		members = append(members, m)
	}
	sort.Strings(members)
	return members, nil
}

// RemoveFromSet removes members; an emptied set is deleted.
func (s *KVStore) RemoveFromSet(_ context.Context, key string, members ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.sets[key]
	if !ok {
		return nil
	}
	for _, m := range members {
		delete(set, m)
	}
	if len(set) == 0 {
		delete(s.sets, key)
	}
	return nil
}

// KeysWithPrefix lists live hash and set keys with the given prefix, sorted.
func (s *KVStore) KeysWithPrefix(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []string
	for k, h := range s.hashes {
		if strings.HasPrefix(k, prefix) && !s.expired(h) {
			keys = append(keys, k)
		}
	}
	for k := range s.sets {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Ping always succeeds.
func (s *KVStore) Ping(_ context.Context) error {
	return nil
}

// Close is a no-op.
func (s *KVStore) Close() error {
	return nil
}

// expired reports whether h has passed its deadline. Caller holds the lock.
func (s *KVStore) expired(h hashValue) bool {
	return !h.expiresAt.IsZero() && !s.now().Before(h.expiresAt)
}
