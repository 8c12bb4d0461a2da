package client

import (
	"context"
	"fmt"
	"log"
	"sync"

	"golang.org/x/text/language"

	"github.com/rzpsarthak13/rowcache/internal/core"
	"github.com/rzpsarthak13/rowcache/internal/database"
	"github.com/rzpsarthak13/rowcache/internal/kvstore"
	"github.com/rzpsarthak13/rowcache/internal/messages"
	"github.com/rzpsarthak13/rowcache/internal/registry"
	"github.com/rzpsarthak13/rowcache/internal/rowset"
	"github.com/rzpsarthak13/rowcache/internal/snapshot"
	"github.com/rzpsarthak13/rowcache/internal/source"
	"github.com/rzpsarthak13/rowcache/internal/syncprovider"
	"github.com/rzpsarthak13/rowcache/internal/writeback"
)

// ConfigProvider is an interface to provide configuration as YAML without importing the public package.
type ConfigProvider interface {
	GetYAML() ([]byte, error)
}

// ClientImpl owns the connections a set of row sets shares: the source
// database, the KV store holding snapshots and the WAL, the write-back
// queue and the sync provider row sets are created with.
type ClientImpl struct {
	mu        sync.RWMutex
	configMgr *registry.ConfigManager
	kvStore   core.KVStore
	database  core.Database
	queue     core.WriteBackQueue
	wal       *writeback.WAL
	provider  core.SyncProvider
	snapshots *snapshot.Store
	rowSets   *registry.RowSetRegistry
	closed    bool
}

// NewClientImpl creates a client from the YAML produced by configProvider.
func NewClientImpl(configProvider ConfigProvider) (*ClientImpl, error) {
	if configProvider == nil {
		return nil, fmt.Errorf("config provider cannot be nil")
	}

	configMgr := registry.NewConfigManager()
	yamlData, err := configProvider.GetYAML()
	if err != nil {
		return nil, fmt.Errorf("failed to get config YAML: %w", err)
	}
	if err := configMgr.LoadFromYAML(yamlData); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return NewClientImplFromManager(configMgr)
}

// NewClientImplFromManager creates a client from an already loaded
// configuration.
func NewClientImplFromManager(configMgr *registry.ConfigManager) (*ClientImpl, error) {
	c := &ClientImpl{
		configMgr: configMgr,
		rowSets:   registry.NewRowSetRegistry(configMgr),
	}
	if err := c.initializeConnections(); err != nil {
		c.closeConnections()
		return nil, fmt.Errorf("failed to initialize connections: %w", err)
	}

	config := configMgr.GetConfig()
	if config.Snapshot.SaveOnClose {
		c.rowSets.AddHook(registry.HookFuncs{
			OnUnregisterFunc: func(ctx context.Context, name string, rs *rowset.RowSet) error {
				_, err := c.snapshots.SaveRowSet(ctx, name, rs)
				return err
			},
		})
	}
	return c, nil
}

// initializeConnections opens the database, KV store and queue and builds
// the sync provider.
func (c *ClientImpl) initializeConnections() error {
	config := c.configMgr.GetConfig()

	db, err := openDatabase(config.Database)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	c.database = db

	kv, err := kvstore.Create(config)
	if err != nil {
		return fmt.Errorf("failed to create KV store: %w", err)
	}
	c.kvStore = kv
	c.snapshots = snapshot.NewStore(kv, config.Snapshot.Namespace, config.Snapshot.TTL)

	wb := config.WriteBack
	if wb.WALEnabled {
		c.wal = writeback.NewWAL(kv, wb.WALPrefix)
	}

	queue, err := c.createQueue(wb)
	if err != nil {
		return err
	}
	c.queue = queue

	switch config.Sync.Provider {
	case "sql":
		c.provider = syncprovider.NewSQL(db)
	case "queue":
		c.provider = syncprovider.NewQueue(queue, c.wal)
	case "none":
	default:
		return fmt.Errorf("unsupported sync provider: %s", config.Sync.Provider)
	}
	return nil
}

func openDatabase(cfg registry.InternalDatabaseConfig) (core.Database, error) {
	switch cfg.Type {
	case "mysql":
		return database.NewMySQLDatabase(database.MySQLConfig{
			Host:              cfg.Host,
			Port:              cfg.Port,
			Database:          cfg.Database,
			Username:          cfg.Username,
			Password:          cfg.Password,
			MaxOpenConns:      cfg.MaxOpenConns,
			MaxIdleConns:      cfg.MaxIdleConns,
			ConnMaxLifetime:   cfg.ConnMaxLifetime,
			ConnMaxIdleTime:   cfg.ConnMaxIdleTime,
			ConnectionTimeout: cfg.ConnectionTimeout,
		})
	case "sqlite":
		return database.NewSQLiteDatabase(cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
}

func (c *ClientImpl) createQueue(wb registry.InternalWriteBackConfig) (core.WriteBackQueue, error) {
	switch wb.QueueType {
	case "redis":
		queue, err := writeback.NewRedisQueue(c.kvStore, wb.QueuePrefix)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis queue: %w", err)
		}
		return queue, nil
	case "kafka":
		kc := wb.KafkaConfig
		queue, err := writeback.NewKafkaQueue(writeback.KafkaQueueConfig{
			Brokers:      kc.Brokers,
			Topic:        kc.Topic,
			GroupID:      kc.GroupID,
			BatchSize:    kc.BatchSize,
			BatchTimeout: kc.BatchTimeout,
			WriteTimeout: kc.WriteTimeout,
			RequiredAcks: kc.RequiredAcks,
			MinBytes:     kc.MinBytes,
			MaxBytes:     kc.MaxBytes,
			MaxWait:      kc.MaxWait,
			PollTimeout:  kc.PollTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Kafka queue: %w", err)
		}
		return queue, nil
	default:
		return writeback.NewMemoryQueue(wb.QueueBufferSize), nil
	}
}

// RowSetOptions returns the options a row set named name is built with:
// its merged configuration, the locale's messages and the client's sync
// provider. extra is applied last.
func (c *ClientImpl) RowSetOptions(name string, extra ...rowset.Option) []rowset.Option {
	cfg := c.configMgr.GetRowSetConfig(name)

	opts := []rowset.Option{
		rowset.WithPageSize(cfg.PageSize),
		rowset.WithMaxRows(cfg.MaxRows),
		rowset.WithShowDeleted(cfg.ShowDeleted),
		rowset.WithReadOnly(cfg.ReadOnly),
		rowset.WithSyncTimeout(cfg.SyncTimeout),
		rowset.WithMessages(catalogFor(cfg.Locale)),
	}
	if cfg.Scrollable != nil {
		opts = append(opts, rowset.WithScrollable(*cfg.Scrollable))
	}
	if cfg.TableName != "" {
		opts = append(opts, rowset.WithTableName(cfg.TableName))
	}
	if c.provider != nil {
		opts = append(opts, rowset.WithSyncProvider(c.provider))
	}
	return append(opts, extra...)
}

func catalogFor(locale string) *messages.Catalog {
	if locale == "" {
		return messages.Default()
	}
	tag, err := language.Parse(locale)
	if err != nil {
		log.Printf("[CLIENT] Unknown locale %q, using English: %v", locale, err)
		return messages.Default()
	}
	return messages.New(tag)
}

// Query runs query and returns a row set populated from it. A row set with
// a page size holds the first page and keeps the query open for NextPage.
// A non-empty name registers the row set and applies the settings of its
// named configuration entry.
func (c *ClientImpl) Query(ctx context.Context, name, query string, args []interface{}, opts ...rowset.Option) (*rowset.RowSet, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}

	rs, err := rowset.New(c.RowSetOptions(name, opts...)...)
	if err != nil {
		return nil, err
	}
	if keys := c.configMgr.GetRowSetConfig(name).KeyColumns; len(keys) > 0 {
		if err := rs.SetMatchColumnNames(keys...); err != nil {
			return nil, err
		}
	}

	src, err := source.NewSQL(ctx, c.database, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to run query: %w", err)
	}
	if rs.PageSize() > 0 {
		err = rs.PopulateFrom(src, 1)
	} else {
		err = rs.Populate(src)
		if closeErr := src.Close(); err == nil {
			err = closeErr
		}
	}
	if err != nil {
		src.Close()
		return nil, err
	}

	if name != "" {
		if err := c.rowSets.Register(ctx, name, rs, query); err != nil {
			return nil, err
		}
	}
	return rs, nil
}

// RowSet returns the row set registered under name.
func (c *ClientImpl) RowSet(name string) (*rowset.RowSet, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	return c.rowSets.Get(name)
}

// ReleaseRowSet unregisters a row set, saving it first when the snapshot
// configuration asks for it, and releases its rows.
func (c *ClientImpl) ReleaseRowSet(ctx context.Context, name string) error {
	rs, err := c.rowSets.Get(name)
	if err != nil {
		return err
	}
	if err := c.rowSets.Unregister(ctx, name); err != nil {
		return err
	}
	rs.Release()
	return nil
}

// SaveSnapshot saves rs under name, or under a new UUID when name is empty,
// and returns the name used.
func (c *ClientImpl) SaveSnapshot(ctx context.Context, name string, rs *rowset.RowSet) (string, error) {
	if err := c.checkOpen(); err != nil {
		return "", err
	}
	return c.snapshots.SaveRowSet(ctx, name, rs)
}

// LoadSnapshot rebuilds a saved row set with the client's sync provider.
func (c *ClientImpl) LoadSnapshot(ctx context.Context, name string, opts ...rowset.Option) (*rowset.RowSet, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	snap, err := c.snapshots.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	return c.FromSnapshot(snap, opts...)
}

// FromSnapshot rebuilds a row set from snap with the client's sync
// provider. opts are applied after the provider.
func (c *ClientImpl) FromSnapshot(snap *rowset.Snapshot, opts ...rowset.Option) (*rowset.RowSet, error) {
	if c.provider != nil {
		opts = append([]rowset.Option{rowset.WithSyncProvider(c.provider)}, opts...)
	}
	return rowset.FromSnapshot(snap, opts...)
}

// DescribeTable returns the schema of a table in the source database.
func (c *ClientImpl) DescribeTable(ctx context.Context, table string) (*core.Schema, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	return c.database.GetSchema(ctx, table)
}

// Config returns the loaded configuration.
func (c *ClientImpl) Config() *registry.InternalConfig { return c.configMgr.GetConfig() }

// Database returns the source database.
func (c *ClientImpl) Database() core.Database { return c.database }

// Queue returns the write-back queue.
func (c *ClientImpl) Queue() core.WriteBackQueue { return c.queue }

// WAL returns the write-ahead log, or nil when it is disabled.
func (c *ClientImpl) WAL() *writeback.WAL { return c.wal }

// Provider returns the sync provider row sets are created with, or nil.
func (c *ClientImpl) Provider() core.SyncProvider { return c.provider }

// RowSets returns the registry of named row sets.
func (c *ClientImpl) RowSets() *registry.RowSetRegistry { return c.rowSets }

func (c *ClientImpl) checkOpen() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return fmt.Errorf("%w: client is closed", core.ErrNotReady)
	}
	return nil
}

// Close unregisters every row set, then closes the queue, the KV store and
// the database.
func (c *ClientImpl) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	var errs []error
	if err := c.rowSets.Clear(context.Background()); err != nil {
		errs = append(errs, fmt.Errorf("failed to clear row set registry: %w", err))
	}
	errs = append(errs, c.closeConnections()...)

	if len(errs) > 0 {
		return fmt.Errorf("errors during close: %v", errs)
	}
	return nil
}

func (c *ClientImpl) closeConnections() []error {
	var errs []error
	if c.queue != nil {
		if err := c.queue.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close queue: %w", err))
		}
	}
	if c.kvStore != nil {
		if err := c.kvStore.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close KV store: %w", err))
		}
	}
	if c.database != nil {
		if err := c.database.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}
	return errs
}
