// Package kvstore provides the key-value stores behind snapshots, the WAL
// and Redis write-back queues. Backends register themselves by type.
package kvstore

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rzpsarthak13/rowcache/internal/core"
	"github.com/rzpsarthak13/rowcache/internal/registry"
)

// Factory creates one kind of KV store from the kvstore config section.
type Factory interface {
	// Create creates a store from config.
	Create(config registry.InternalKVStoreConfig) (core.KVStore, error)

	// Type returns the type identifier (e.g., "redis", "dynamodb", "memory").
	Type() string
}

// strategy is what each backend registers: a factory that also validates
// its section of the configuration.
type strategy interface {
	Factory
	registry.ConfigValidator
}

var (
	factoryRegistry = make(map[string]Factory)
	registryMutex   sync.RWMutex
)

// RegisterFactory registers a factory. It panics on a nil factory, an
// empty type or a duplicate type.
func RegisterFactory(factory Factory) {
	if factory == nil {
		panic("factory cannot be nil")
	}
	if factory.Type() == "" {
		panic("factory type cannot be empty")
	}

	registryMutex.Lock()
	defer registryMutex.Unlock()

	if _, exists := factoryRegistry[factory.Type()]; exists {
		panic(fmt.Sprintf("factory for type %q is already registered", factory.Type()))
	}
	factoryRegistry[factory.Type()] = factory
}

// register adds a backend to both the factory and validator registries.
func register(s strategy) {
	RegisterFactory(s)
	registry.RegisterValidator(s)
}

// Create validates config with the validator registered for its type and
// creates the store.
func Create(config *registry.InternalConfig) (core.KVStore, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	kvType := config.KVStore.Type
	if kvType == "" {
		return nil, fmt.Errorf("kvstore type is required")
	}

	registryMutex.RLock()
	factory, exists := factoryRegistry[kvType]
	registryMutex.RUnlock()
	if !exists {
		return nil, fmt.Errorf("unsupported KV store type: %s", kvType)
	}

	if validator, ok := registry.GetValidator(kvType); ok {
		if err := validator.Validate(config); err != nil {
			return nil, fmt.Errorf("invalid configuration for %s: %w", kvType, err)
		}
	}
	return factory.Create(config.KVStore)
}

// GetRegisteredTypes returns the registered store types, sorted.
func GetRegisteredTypes() []string {
	registryMutex.RLock()
	defer registryMutex.RUnlock()

	types := make([]string, 0, len(factoryRegistry))
	for t := range factoryRegistry {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// IsTypeRegistered checks if a KV store type is registered.
func IsTypeRegistered(storeType string) bool {
	registryMutex.RLock()
	defer registryMutex.RUnlock()

	_, exists := factoryRegistry[storeType]
	return exists
}

// validateCommon checks the settings shared by networked stores.
func validateCommon(kv registry.InternalKVStoreConfig) error {
	if kv.DialTimeout <= 0 {
		return fmt.Errorf("dial_timeout must be greater than 0, got: %v", kv.DialTimeout)
	}
	if kv.ReadTimeout <= 0 {
		return fmt.Errorf("read_timeout must be greater than 0, got: %v", kv.ReadTimeout)
	}
	if kv.WriteTimeout <= 0 {
		return fmt.Errorf("write_timeout must be greater than 0, got: %v", kv.WriteTimeout)
	}
	if kv.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative, got: %d", kv.MaxRetries)
	}
	return nil
}

func notFound(key string) error {
	return fmt.Errorf("%w: %s", core.ErrKeyNotFound, key)
}
