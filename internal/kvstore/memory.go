package kvstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/rzpsarthak13/rowcache/internal/core"
	"github.com/rzpsarthak13/rowcache/internal/registry"
)

// MemoryKVStore implements core.KVStore in process on a ristretto cache.
// Values are costed by their length. The cache may refuse or evict entries
// once MaxCost is reached, so it suits snapshots and tests rather than a
// durable WAL.
type MemoryKVStore struct {
	cache *ristretto.Cache[string, []byte]

	mu     sync.RWMutex
	closed bool
}

// NewMemoryKVStore creates a store holding up to maxCost bytes.
func NewMemoryKVStore(cfg registry.InternalMemoryConfig) (*MemoryKVStore, error) {
	if cfg.MaxCost <= 0 {
		cfg.MaxCost = 64 << 20
	}
	if cfg.NumCounters <= 0 {
		cfg.NumCounters = 100000
	}
	cache, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters:        cfg.NumCounters,
		MaxCost:            cfg.MaxCost,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create memory store: %w", err)
	}
	return &MemoryKVStore{cache: cache}, nil
}

func (m *MemoryKVStore) check() error {
	if m.closed {
		return fmt.Errorf("KV store is closed")
	}
	return nil
}

// Get retrieves a value by key.
func (m *MemoryKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.check(); err != nil {
		return nil, err
	}
	value, ok := m.cache.Get(key)
	if !ok {
		return nil, notFound(key)
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Set stores a copy of value and waits until it is visible to Get.
func (m *MemoryKVStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.check(); err != nil {
		return err
	}
	if err := m.set(key, value, ttl); err != nil {
		return err
	}
	m.cache.Wait()
	return nil
}

func (m *MemoryKVStore) set(key string, value []byte, ttl time.Duration) error {
	stored := make([]byte, len(value))
	copy(stored, value)
	cost := int64(len(stored))
	if cost == 0 {
		cost = 1
	}
	if !m.cache.SetWithTTL(key, stored, cost, ttl) {
		return fmt.Errorf("memory store rejected key %s (%d bytes)", key, len(value))
	}
	return nil
}

// Delete removes a key.
func (m *MemoryKVStore) Delete(ctx context.Context, key string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.check(); err != nil {
		return err
	}
	m.cache.Del(key)
	return nil
}

// Exists checks if a key exists.
func (m *MemoryKVStore) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.check(); err != nil {
		return false, err
	}
	_, ok := m.cache.Get(key)
	return ok, nil
}

// BatchSet stores several values with a shared TTL.
func (m *MemoryKVStore) BatchSet(ctx context.Context, items map[string][]byte, ttl time.Duration) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.check(); err != nil {
		return err
	}
	for key, value := range items {
		if err := m.set(key, value, ttl); err != nil {
			return err
		}
	}
	m.cache.Wait()
	return nil
}

// Close releases the cache.
func (m *MemoryKVStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	m.cache.Close()
	return nil
}

type memoryStrategy struct{}

func (memoryStrategy) Type() string { return "memory" }

func (memoryStrategy) Create(cfg registry.InternalKVStoreConfig) (core.KVStore, error) {
	return NewMemoryKVStore(cfg.MemoryConfig)
}

func (memoryStrategy) Validate(config *registry.InternalConfig) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}
	mc := config.KVStore.MemoryConfig
	if mc.MaxCost < 0 {
		return fmt.Errorf("max_cost must be non-negative, got: %d", mc.MaxCost)
	}
	if mc.NumCounters < 0 {
		return fmt.Errorf("num_counters must be non-negative, got: %d", mc.NumCounters)
	}
	return nil
}

func init() {
	register(memoryStrategy{})
}
