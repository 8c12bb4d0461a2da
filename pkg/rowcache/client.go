package rowcache

import (
	"context"
	"fmt"
	"log"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/rzpsarthak13/rowcache/internal/client"
	"github.com/rzpsarthak13/rowcache/internal/writeback"
)

// WriteBackDrainer is the name of the drainer a client starts when the
// sync provider is "queue".
const WriteBackDrainer = "writeback"

// Client is the main interface of rowcache. It runs queries into
// disconnected row sets, keeps named row sets in a registry and saves them
// as snapshots.
//
// Typical usage:
//
//	client, _ := rowcache.NewClient(config)
//	defer client.Close()
//
//	client.Start(ctx) // drains queued changes when sync.provider is "queue"
//	defer client.Stop()
//
//	rs, _ := client.Query(ctx, "users", "SELECT id, name FROM users", nil)
//	rs.Absolute(1)
//	rs.UpdateObjectByName("name", "anna")
//	rs.UpdateRow()
//	rs.AcceptChanges(ctx)
type Client interface {
	// Query runs query and returns a row set populated from it. A non-empty
	// name applies the rowsets.<name> configuration and registers the row
	// set under name. Options override the configuration.
	Query(ctx context.Context, name, query string, args []interface{}, opts ...RowSetOption) (*RowSet, error)

	// RowSet returns the row set registered under name.
	RowSet(name string) (*RowSet, error)

	// Release unregisters the row set registered under name and frees its
	// rows. With snapshot.save_on_close it is saved first.
	Release(ctx context.Context, name string) error

	// SaveSnapshot saves rs in the KV store and returns the name it was
	// saved under. An empty name gets a generated one.
	SaveSnapshot(ctx context.Context, name string, rs *RowSet) (string, error)

	// LoadSnapshot rebuilds a saved row set, pending changes included.
	LoadSnapshot(ctx context.Context, name string, opts ...RowSetOption) (*RowSet, error)

	// RestoreSnapshot rebuilds a row set from snap, such as one read with
	// ReadSnapshot, wired to the client's sync provider.
	RestoreSnapshot(snap *Snapshot, opts ...RowSetOption) (*RowSet, error)

	// DescribeTable returns the schema of a table in the database.
	DescribeTable(ctx context.Context, table string) (*Schema, error)

	// Start starts the background drainer applying queued changes to the
	// database. It does nothing unless sync.provider is "queue".
	// This is non-blocking - drainers run in separate goroutines.
	Start(ctx context.Context) error

	// Stop gracefully stops the drainer.
	// It waits for the current operation to complete before returning.
	Stop() error

	// IsRunning returns whether the drainer is currently running.
	IsRunning() bool

	// GetDrainer returns the drainer registered under name, or nil.
	GetDrainer(name string) *Drainer

	// Close stops the drainer, unregisters every row set and closes all
	// connections.
	Close() error
}

// configProvider implements client.ConfigProvider to provide config as YAML without import cycles.
type configProvider struct {
	config *Config
}

func (cp *configProvider) GetYAML() ([]byte, error) {
	return yaml.Marshal(cp.config)
}

// clientWrapper wraps the internal client implementation to provide the public Client interface.
type clientWrapper struct {
	mu             sync.RWMutex
	impl           *client.ClientImpl
	config         *Config
	drainerManager *DrainerManager
	started        bool
}

// NewClient creates a new rowcache client with the provided configuration.
// The client opens the database, the KV store and the write-back queue the
// configuration names. Returns an error if initialization fails.
func NewClient(config *Config) (Client, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	impl, err := client.NewClientImpl(&configProvider{config: config})
	if err != nil {
		return nil, err
	}

	wb := config.WriteBack
	drainerManager := NewDrainerManager(DrainerConfig{
		DrainRate:       wb.DrainRate,
		BatchSize:       wb.BatchSize,
		PollInterval:    wb.PollInterval,
		MaxRetries:      wb.MaxRetries,
		RetryBackoff:    wb.RetryBackoffBase,
		RetryBackoffMax: wb.RetryBackoffMax,
	})
	if config.Sync.Provider == "queue" {
		drainerManager.AddDrainer(WriteBackDrainer, impl.Queue(), writeback.NewSQLExecutor(impl.Database()), impl.WAL())
	}

	return &clientWrapper{
		impl:           impl,
		config:         config,
		drainerManager: drainerManager,
	}, nil
}

func (cw *clientWrapper) Query(ctx context.Context, name, query string, args []interface{}, opts ...RowSetOption) (*RowSet, error) {
	return cw.impl.Query(ctx, name, query, args, opts...)
}

func (cw *clientWrapper) RowSet(name string) (*RowSet, error) {
	return cw.impl.RowSet(name)
}

func (cw *clientWrapper) Release(ctx context.Context, name string) error {
	return cw.impl.ReleaseRowSet(ctx, name)
}

func (cw *clientWrapper) SaveSnapshot(ctx context.Context, name string, rs *RowSet) (string, error) {
	return cw.impl.SaveSnapshot(ctx, name, rs)
}

func (cw *clientWrapper) LoadSnapshot(ctx context.Context, name string, opts ...RowSetOption) (*RowSet, error) {
	return cw.impl.LoadSnapshot(ctx, name, opts...)
}

func (cw *clientWrapper) RestoreSnapshot(snap *Snapshot, opts ...RowSetOption) (*RowSet, error) {
	return cw.impl.FromSnapshot(snap, opts...)
}

func (cw *clientWrapper) DescribeTable(ctx context.Context, table string) (*Schema, error) {
	return cw.impl.DescribeTable(ctx, table)
}

// Start starts the background drainer workers.
func (cw *clientWrapper) Start(ctx context.Context) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.started {
		return nil // Already started
	}

	if err := cw.drainerManager.StartAll(ctx); err != nil {
		return fmt.Errorf("failed to start drainers: %w", err)
	}

	cw.started = true
	return nil
}

// Stop gracefully stops all background drainer workers.
func (cw *clientWrapper) Stop() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if !cw.started {
		return nil // Not started
	}

	if err := cw.drainerManager.StopAll(); err != nil {
		return fmt.Errorf("failed to stop drainers: %w", err)
	}

	cw.started = false
	return nil
}

// IsRunning returns whether the drainer workers are currently running.
func (cw *clientWrapper) IsRunning() bool {
	cw.mu.RLock()
	defer cw.mu.RUnlock()
	return cw.started
}

// GetDrainer returns the drainer registered under name.
// This is useful for monitoring queue size and drainer status.
func (cw *clientWrapper) GetDrainer(name string) *Drainer {
	return cw.drainerManager.GetDrainer(name)
}

// Close closes all connections and releases resources.
func (cw *clientWrapper) Close() error {
	// Stop drainers first
	if err := cw.Stop(); err != nil {
		log.Printf("[CLIENT] Warning: error stopping drainers: %v", err)
	}

	return cw.impl.Close()
}
