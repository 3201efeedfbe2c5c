package driven

import (
	"context"
	"time"
)

// KVStore is a key-value store with hash and set semantics.
// It backs the entry store; keys are plain strings namespaced by prefix.
type KVStore interface {
	// SetHash writes all fields of the hash at key in one atomic step, replacing
	// any previous value. A positive ttl makes the key expire after that duration.
	SetHash(ctx context.Context, key string, fields map[string]string, ttl time.Duration) error

	// GetHash returns every field of the hash at key.
	// A missing or expired key yields an empty map and no error.
	GetHash(ctx context.Context, key string) (map[string]string, error)

	// AddToSet adds members to the set at key and returns how many were new.
	AddToSet(ctx context.Context, key string, members ...string) (int, error)

	// SetMembers returns all members of the set at key in no particular order.
	SetMembers(ctx context.Context, key string) ([]string, error)

	// RemoveFromSet removes members from the set at key.
	RemoveFromSet(ctx context.Context, key string, members ...string) error

	// KeysWithPrefix lists live keys (hashes and sets) starting with prefix.
	KeysWithPrefix(ctx context.Context, prefix string) ([]string, error)

	// Ping validates the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
