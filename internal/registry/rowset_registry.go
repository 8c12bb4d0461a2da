package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rzpsarthak13/rowcache/internal/rowset"
)

// RowSetMetadata describes a registered row set.
type RowSetMetadata struct {
	Name   string
	RowSet *rowset.RowSet

	// Query is the statement the row set was populated from, if any.
	Query string

	// Config is the merged configuration the row set was built with.
	Config InternalRowSetConfig

	CreatedAt time.Time
	UpdatedAt time.Time
}

// RowSetRegistry names the row sets a client holds open so they can be
// looked up, saved and released together. Row sets themselves are not
// goroutine-safe; the registry only guards its map.
type RowSetRegistry struct {
	mu        sync.RWMutex
	rowSets   map[string]*RowSetMetadata
	configMgr *ConfigManager
	hooks     hookList
}

// NewRowSetRegistry creates an empty registry.
func NewRowSetRegistry(configMgr *ConfigManager) *RowSetRegistry {
	if configMgr == nil {
		configMgr = NewConfigManager()
	}
	return &RowSetRegistry{
		rowSets:   make(map[string]*RowSetMetadata),
		configMgr: configMgr,
	}
}

// AddHook registers a hook. Hooks run in the order they were added.
func (r *RowSetRegistry) AddHook(h Hook) {
	r.hooks.add(h)
}

// Register stores rs under name, replacing any previous entry but keeping
// its creation time.
func (r *RowSetRegistry) Register(ctx context.Context, name string, rs *rowset.RowSet, query string) error {
	if name == "" {
		return fmt.Errorf("row set name cannot be empty")
	}
	if rs == nil {
		return fmt.Errorf("row set cannot be nil")
	}

	now := time.Now()
	meta := &RowSetMetadata{
		Name:      name,
		RowSet:    rs,
		Query:     query,
		Config:    r.configMgr.GetRowSetConfig(name),
		CreatedAt: now,
		UpdatedAt: now,
	}

	r.mu.Lock()
	previous, existed := r.rowSets[name]
	if existed {
		meta.CreatedAt = previous.CreatedAt
	}
	r.rowSets[name] = meta
	r.mu.Unlock()

	if err := r.hooks.register(ctx, name, rs); err != nil {
		r.mu.Lock()
		if existed {
			r.rowSets[name] = previous
		} else {
			delete(r.rowSets, name)
		}
		r.mu.Unlock()
		return fmt.Errorf("register hook for %s: %w", name, err)
	}
	return nil
}

// Get returns the row set registered under name.
func (r *RowSetRegistry) Get(name string) (*rowset.RowSet, error) {
	meta, err := r.GetMetadata(name)
	if err != nil {
		return nil, err
	}
	return meta.RowSet, nil
}

// GetMetadata returns a copy of the metadata registered under name.
func (r *RowSetRegistry) GetMetadata(name string) (*RowSetMetadata, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	meta, exists := r.rowSets[name]
	if !exists {
		return nil, fmt.Errorf("row set %q is not registered", name)
	}
	copied := *meta
	return &copied, nil
}

// Unregister runs the unregister hooks and removes the entry.
func (r *RowSetRegistry) Unregister(ctx context.Context, name string) error {
	r.mu.RLock()
	meta, exists := r.rowSets[name]
	r.mu.RUnlock()
	if !exists {
		return fmt.Errorf("row set %q is not registered", name)
	}

	if err := r.hooks.unregister(ctx, name, meta.RowSet); err != nil {
		return fmt.Errorf("unregister hook for %s: %w", name, err)
	}

	r.mu.Lock()
	delete(r.rowSets, name)
	r.mu.Unlock()
	return nil
}

// List returns the registered names in sorted order.
func (r *RowSetRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.rowSets))
	for name := range r.rowSets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered row sets.
func (r *RowSetRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rowSets)
}

// Clear unregisters every row set. It stops at the first hook error.
func (r *RowSetRegistry) Clear(ctx context.Context) error {
	for _, name := range r.List() {
		if err := r.Unregister(ctx, name); err != nil {
			return err
		}
	}
	return nil
}
