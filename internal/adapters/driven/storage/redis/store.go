// Package redis provides a Redis-backed implementation of driven.KVStore.
//
// Hashes map onto Redis hashes and sets onto Redis sets, so entries written by
// docflow are readable with plain redis-cli. Expiry is native (EXPIRE).
package redis

import (
	"context"
	"fmt"
	"sort"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/custodia-labs/docflow/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.KVStore = (*Store)(nil)

// scanBatch is the COUNT hint passed to SCAN.
const scanBatch = 500

// Store is a Redis-backed key-value store.
type Store struct {
	client *goredis.Client
}

// NewStore connects to the Redis server at url (redis://[:password@]host:port/db).
// The connection is not verified; call Ping.
func NewStore(url string) (*Store, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	return &Store{client: goredis.NewClient(opts)}, nil
}

// SetHash replaces the hash at key atomically inside MULTI/EXEC.
func (s *Store) SetHash(ctx context.Context, key string, fields map[string]string, ttl time.Duration) error {
	values := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		values = append(values, k, v)
	}

	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(values) > 0 {
			pipe.HSet(ctx, key, values...)
		}
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set hash %s: %w", key, err)
	}
	return nil
}

// GetHash returns all fields of the hash at key.
func (s *Store) GetHash(ctx context.Context, key string) (map[string]string, error) {
	fields, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis get hash %s: %w", key, err)
	}
	if fields == nil {
		fields = map[string]string{}
	}
	return fields, nil
}

// AddToSet adds members and returns how many were new.
func (s *Store) AddToSet(ctx context.Context, key string, members ...string) (int, error) {
	if len(members) == 0 {
		return 0, nil
	}
	added, err := s.client.SAdd(ctx, key, toAny(members)...).Result()
	if err != nil {
		return 0, fmt.Errorf("redis add to set %s: %w", key, err)
	}
	return int(added), nil
}

// SetMembers returns the members of the set at key, sorted.
func (s *Store) SetMembers(ctx context.Context, key string) ([]string, error) {
	members, err := s.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis set members %s: %w", key, err)
	}
	sort.Strings(members)
	return members, nil
}

// RemoveFromSet removes members from the set at key.
func (s *Store) RemoveFromSet(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	if err := s.client.SRem(ctx, key, toAny(members)...).Err(); err != nil {
		return fmt.Errorf("redis remove from set %s: %w", key, err)
	}
	return nil
}

// KeysWithPrefix iterates SCAN over prefix*. Glob characters in prefix are escaped.
func (s *Store) KeysWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	seen := make(map[string]struct{})
	iter := s.client.Scan(ctx, 0, escapeGlob(prefix)+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		seen[iter.Val()] = struct{}{}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan %s*: %w", prefix, err)
	}

	// SCAN may return a key more than once
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Ping validates the server is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// escapeGlob escapes the characters SCAN MATCH treats specially.
func escapeGlob(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '*', '?', '[', ']', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
