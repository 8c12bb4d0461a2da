package rowcache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the root configuration for the rowcache client.
type Config struct {
	// RowSet holds the defaults every row set is created with.
	RowSet RowSetConfig `yaml:"rowset" json:"rowset"`

	// Sync selects how AcceptChanges reaches the database.
	Sync SyncConfig `yaml:"sync" json:"sync"`

	// Database contains configuration for the source database.
	Database DatabaseConfig `yaml:"database" json:"database"`

	// KVStore contains configuration for the key-value store holding
	// snapshots, the WAL and Redis queues.
	KVStore KVStoreConfig `yaml:"kvstore" json:"kvstore"`

	// Snapshot configures where snapshots are saved in the KV store.
	Snapshot SnapshotConfig `yaml:"snapshot" json:"snapshot"`

	// WriteBack contains write-back queue and drainer configuration.
	WriteBack WriteBackConfig `yaml:"writeback" json:"writeback"`

	// RowSets contains per row set overrides, keyed by the name passed to
	// Client.Query. Zero fields keep the RowSet defaults.
	RowSets map[string]RowSetConfig `yaml:"rowsets,omitempty" json:"rowsets,omitempty"`
}

// RowSetConfig contains row set settings.
type RowSetConfig struct {
	// PageSize is the number of rows loaded per page. 0 loads everything.
	PageSize int `yaml:"page_size" json:"page_size"`

	// MaxRows caps the rows a row set holds. 0 means unbounded.
	MaxRows int `yaml:"max_rows" json:"max_rows"`

	// ShowDeleted makes rows flagged deleted visible to the cursor.
	ShowDeleted bool `yaml:"show_deleted" json:"show_deleted"`

	// ReadOnly rejects every mutation.
	ReadOnly bool `yaml:"read_only" json:"read_only"`

	// Scrollable set to false makes row sets forward-only. Unset means
	// scrollable.
	Scrollable *bool `yaml:"scrollable,omitempty" json:"scrollable,omitempty"`

	// SyncTimeout bounds each AcceptChanges call. 0 means no timeout.
	SyncTimeout time.Duration `yaml:"sync_timeout" json:"sync_timeout"`

	// Locale selects the language of error and warning messages (BCP 47).
	Locale string `yaml:"locale,omitempty" json:"locale,omitempty"`

	// TableName is the table changes are written to, when it differs from
	// the table the query reports.
	TableName string `yaml:"table_name,omitempty" json:"table_name,omitempty"`

	// KeyColumns names the match columns used to find rows when writing.
	KeyColumns []string `yaml:"key_columns,omitempty" json:"key_columns,omitempty"`
}

// SyncConfig selects the sync provider.
type SyncConfig struct {
	// Provider is "sql" (write in a transaction), "queue" (write later
	// through a drainer) or "none".
	Provider string `yaml:"provider" json:"provider"`
}

// DatabaseConfig contains configuration for the source database.
type DatabaseConfig struct {
	// Type specifies the database type: "mysql" or "sqlite".
	Type string `yaml:"type" json:"type"`

	// Path is the SQLite database file, or ":memory:".
	Path string `yaml:"path,omitempty" json:"path,omitempty"`

	// Host is the database host address.
	Host string `yaml:"host" json:"host"`

	// Port is the database port number.
	Port int `yaml:"port" json:"port"`

	// Database is the database name.
	Database string `yaml:"database" json:"database"`

	// Username is the database username.
	Username string `yaml:"username" json:"username"`

	// Password is the database password.
	Password string `yaml:"password,omitempty" json:"password,omitempty"`

	// MaxOpenConns is the maximum number of open connections to the database.
	MaxOpenConns int `yaml:"max_open_conns,omitempty" json:"max_open_conns,omitempty"`

	// MaxIdleConns is the maximum number of idle connections in the pool.
	MaxIdleConns int `yaml:"max_idle_conns,omitempty" json:"max_idle_conns,omitempty"`

	// ConnMaxLifetime is the maximum amount of time a connection may be reused.
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime,omitempty" json:"conn_max_lifetime,omitempty"`

	// ConnMaxIdleTime is the maximum amount of time a connection may be idle.
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time,omitempty" json:"conn_max_idle_time,omitempty"`

	// ConnectionTimeout is the timeout for establishing database connections.
	ConnectionTimeout time.Duration `yaml:"connection_timeout,omitempty" json:"connection_timeout,omitempty"`
}

// KVStoreConfig contains configuration for the key-value store.
type KVStoreConfig struct {
	// Type specifies the KV store type: "memory", "redis" or "dynamodb".
	Type string `yaml:"type" json:"type"`

	// RedisConfig is used when Type is "redis".
	RedisConfig RedisConfig `yaml:"redis_config,omitempty" json:"redis_config,omitempty"`

	// DynamoDBConfig is used when Type is "dynamodb".
	DynamoDBConfig DynamoDBConfig `yaml:"dynamodb_config,omitempty" json:"dynamodb_config,omitempty"`

	// MemoryConfig is used when Type is "memory".
	MemoryConfig MemoryConfig `yaml:"memory_config,omitempty" json:"memory_config,omitempty"`

	// MaxRetries is the maximum number of retries for failed operations.
	MaxRetries int `yaml:"max_retries,omitempty" json:"max_retries,omitempty"`

	// DialTimeout is the timeout for establishing connections.
	DialTimeout time.Duration `yaml:"dial_timeout,omitempty" json:"dial_timeout,omitempty"`

	// ReadTimeout is the timeout for read operations.
	ReadTimeout time.Duration `yaml:"read_timeout,omitempty" json:"read_timeout,omitempty"`

	// WriteTimeout is the timeout for write operations.
	WriteTimeout time.Duration `yaml:"write_timeout,omitempty" json:"write_timeout,omitempty"`
}

// RedisConfig contains Redis-specific configuration.
type RedisConfig struct {
	Endpoints    []string `yaml:"endpoints" json:"endpoints"`
	Password     string   `yaml:"password,omitempty" json:"password,omitempty"`
	DB           int      `yaml:"db" json:"db"`
	PoolSize     int      `yaml:"pool_size" json:"pool_size"`
	MinIdleConns int      `yaml:"min_idle_conns" json:"min_idle_conns"`
}

// DynamoDBConfig contains DynamoDB-specific configuration. The table needs a
// string partition key named "key".
type DynamoDBConfig struct {
	Region          string `yaml:"region" json:"region"`
	TableName       string `yaml:"table_name" json:"table_name"`
	Endpoint        string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	AccessKeyID     string `yaml:"access_key_id,omitempty" json:"access_key_id,omitempty"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty" json:"secret_access_key,omitempty"`
}

// MemoryConfig sizes the in-process store.
type MemoryConfig struct {
	MaxCost     int64 `yaml:"max_cost" json:"max_cost"`
	NumCounters int64 `yaml:"num_counters" json:"num_counters"`
}

// SnapshotConfig configures snapshot storage.
type SnapshotConfig struct {
	// Namespace prefixes snapshot keys: {namespace}:rowset:{name}.
	Namespace string `yaml:"namespace" json:"namespace"`

	// TTL is how long saved snapshots are kept. 0 keeps them until deleted.
	TTL time.Duration `yaml:"ttl" json:"ttl"`

	// SaveOnClose saves every named row set when it is released or the
	// client is closed.
	SaveOnClose bool `yaml:"save_on_close" json:"save_on_close"`
}

// WriteBackConfig contains write-back queue and drainer configuration.
type WriteBackConfig struct {
	// BatchSize is how many operations a drainer dequeues at once.
	BatchSize int `yaml:"batch_size" json:"batch_size"`

	// DrainRate is the maximum number of operations per second written to
	// the database.
	DrainRate int `yaml:"drain_rate" json:"drain_rate"`

	// MaxRetries is the maximum number of retries for a failed operation.
	MaxRetries int `yaml:"max_retries" json:"max_retries"`

	// RetryBackoffBase is the base duration for exponential backoff retries.
	RetryBackoffBase time.Duration `yaml:"retry_backoff_base" json:"retry_backoff_base"`

	// RetryBackoffMax is the maximum duration for exponential backoff retries.
	RetryBackoffMax time.Duration `yaml:"retry_backoff_max" json:"retry_backoff_max"`

	// PollInterval is how long a drainer waits when the queue is empty.
	PollInterval time.Duration `yaml:"poll_interval" json:"poll_interval"`

	// QueueType specifies the queue implementation type.
	// Options: "memory", "redis", "kafka" (default: "memory").
	QueueType string `yaml:"queue_type,omitempty" json:"queue_type,omitempty"`

	// QueueBufferSize is the buffer size for the in-memory queue.
	QueueBufferSize int `yaml:"queue_buffer_size,omitempty" json:"queue_buffer_size,omitempty"`

	// QueuePrefix is the Redis key prefix of the queue list.
	QueuePrefix string `yaml:"queue_prefix,omitempty" json:"queue_prefix,omitempty"`

	// WALEnabled logs every queued operation to the KV store until a
	// drainer acknowledges it.
	WALEnabled bool `yaml:"wal_enabled" json:"wal_enabled"`

	// WALPrefix is the KV key prefix of WAL entries.
	WALPrefix string `yaml:"wal_prefix,omitempty" json:"wal_prefix,omitempty"`

	// KafkaConfig is used when QueueType is "kafka".
	KafkaConfig KafkaConfig `yaml:"kafka_config,omitempty" json:"kafka_config,omitempty"`
}

// KafkaConfig contains configuration for Kafka queue.
type KafkaConfig struct {
	// Brokers is a list of Kafka broker addresses (e.g., ["localhost:9092"]).
	Brokers []string `yaml:"brokers" json:"brokers"`

	// Topic is the Kafka topic name for write-back operations.
	Topic string `yaml:"topic" json:"topic"`

	// GroupID is the consumer group ID for reading from Kafka.
	GroupID string `yaml:"group_id" json:"group_id"`

	// BatchSize is the batch size for Kafka producer.
	BatchSize int `yaml:"batch_size" json:"batch_size"`

	// BatchTimeout is the timeout for batching messages.
	BatchTimeout time.Duration `yaml:"batch_timeout" json:"batch_timeout"`

	// WriteTimeout is the timeout for writing messages.
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`

	// RequiredAcks is the number of acknowledgments required (0, 1, or -1 for all).
	RequiredAcks int `yaml:"required_acks" json:"required_acks"`

	// MinBytes is the minimum number of bytes to fetch.
	MinBytes int `yaml:"min_bytes" json:"min_bytes"`

	// MaxBytes is the maximum number of bytes to fetch.
	MaxBytes int `yaml:"max_bytes" json:"max_bytes"`

	// MaxWait is the maximum time to wait for data.
	MaxWait time.Duration `yaml:"max_wait" json:"max_wait"`

	// PollTimeout bounds one dequeue when the topic is empty.
	PollTimeout time.Duration `yaml:"poll_timeout" json:"poll_timeout"`
}

// DefaultConfig returns a configuration with sensible defaults: a local
// SQLite database, an in-process KV store and an in-memory queue.
func DefaultConfig() *Config {
	return &Config{
		RowSet: RowSetConfig{
			Locale: "en",
		},
		Sync: SyncConfig{
			Provider: "sql",
		},
		Database: DatabaseConfig{
			Type:              "sqlite",
			Path:              "rowcache.db",
			Host:              "localhost",
			Port:              3306,
			MaxOpenConns:      25,
			MaxIdleConns:      5,
			ConnMaxLifetime:   5 * time.Minute,
			ConnMaxIdleTime:   10 * time.Minute,
			ConnectionTimeout: 10 * time.Second,
		},
		KVStore: KVStoreConfig{
			Type: "memory",
			RedisConfig: RedisConfig{
				Endpoints:    []string{"localhost:6379"},
				PoolSize:     10,
				MinIdleConns: 5,
			},
			MemoryConfig: MemoryConfig{
				MaxCost:     64 << 20,
				NumCounters: 100000,
			},
			MaxRetries:   3,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Snapshot: SnapshotConfig{
			Namespace: "rowcache",
			TTL:       24 * time.Hour,
		},
		WriteBack: WriteBackConfig{
			BatchSize:        100,
			DrainRate:        50, // DB writes per second
			MaxRetries:       5,
			RetryBackoffBase: 1 * time.Second,
			RetryBackoffMax:  30 * time.Second,
			PollInterval:     500 * time.Millisecond,
			QueueType:        "memory",
			QueueBufferSize:  10000,
			QueuePrefix:      "wbq",
			WALPrefix:        "wal",
			KafkaConfig: KafkaConfig{
				Brokers:      []string{"localhost:9092"},
				Topic:        "rowcache-writeback",
				GroupID:      "rowcache-writeback",
				BatchSize:    100,
				BatchTimeout: 10 * time.Millisecond,
				WriteTimeout: 10 * time.Second,
				RequiredAcks: -1, // All replicas
				MinBytes:     1,
				MaxBytes:     10 * 1024 * 1024, // 10MB
				MaxWait:      100 * time.Millisecond,
				PollTimeout:  5 * time.Second,
			},
		},
		RowSets: make(map[string]RowSetConfig),
	}
}

// LoadConfig reads a .yaml, .yml or .json file over DefaultConfig. Keys
// absent from the file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, config)
	case ".json":
		err = json.Unmarshal(data, config)
	default:
		return nil, fmt.Errorf("unsupported config file format: %s (supported: .yaml, .yml, .json)", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return config, nil
}
