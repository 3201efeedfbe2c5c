// Package storage selects and opens the entry store backend.
package storage

import (
	"fmt"

	"github.com/custodia-labs/docflow/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docflow/internal/adapters/driven/storage/redis"
	"github.com/custodia-labs/docflow/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docflow/internal/core/domain"
	"github.com/custodia-labs/docflow/internal/core/ports/driven"
)

// Backend bundles the stores opened for one backend.
type Backend struct {
	KV        driven.KVStore
	Scheduler driven.SchedulerStore

	// Location is a human-readable description of where data lives.
	Location string
}

// Close releases the backend.
func (b *Backend) Close() error {
	if b.KV == nil {
		return nil
	}
	return b.KV.Close()
}

// Open opens the backend named in settings.
// Scheduler state lives alongside the entries in the same backend.
func Open(settings domain.StoreSettings) (*Backend, error) {
	switch settings.Backend {
	case domain.StoreBackendSQLite, "":
		store, err := sqlite.NewStore(settings.DataDir)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return &Backend{
			KV:        store,
			Scheduler: store.SchedulerStore(),
			Location:  store.Path(),
		}, nil

	case domain.StoreBackendRedis:
		store, err := redis.NewStore(settings.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("open redis store: %w", err)
		}
		return &Backend{
			KV:        store,
			Scheduler: store.SchedulerStore(),
			Location:  settings.RedisURL,
		}, nil

	case domain.StoreBackendMemory:
		return &Backend{
			KV:        memory.NewKVStore(),
			Scheduler: memory.NewSchedulerStore(),
			Location:  ":memory:",
		}, nil

	default:
		return nil, fmt.Errorf("%w: store backend %q", domain.ErrInvalidInput, settings.Backend)
	}
}
