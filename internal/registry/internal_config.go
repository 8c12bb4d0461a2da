package registry

import (
	"time"
)

// InternalConfig is the configuration after loading and validation. It
// mirrors the public rowcache.Config, which cannot be imported here.
type InternalConfig struct {
	RowSet    InternalRowSetConfig            `yaml:"rowset" json:"rowset"`
	Sync      InternalSyncConfig              `yaml:"sync" json:"sync"`
	Database  InternalDatabaseConfig          `yaml:"database" json:"database"`
	KVStore   InternalKVStoreConfig           `yaml:"kvstore" json:"kvstore"`
	Snapshot  InternalSnapshotConfig          `yaml:"snapshot" json:"snapshot"`
	WriteBack InternalWriteBackConfig         `yaml:"writeback" json:"writeback"`
	RowSets   map[string]InternalRowSetConfig `yaml:"rowsets,omitempty" json:"rowsets,omitempty"`
}

// InternalRowSetConfig holds row set defaults. Named entries in
// InternalConfig.RowSets override them field by field.
type InternalRowSetConfig struct {
	PageSize    int           `yaml:"page_size" json:"page_size"`
	MaxRows     int           `yaml:"max_rows" json:"max_rows"`
	ShowDeleted bool          `yaml:"show_deleted" json:"show_deleted"`
	ReadOnly    bool          `yaml:"read_only" json:"read_only"`
	Scrollable  *bool         `yaml:"scrollable,omitempty" json:"scrollable,omitempty"`
	SyncTimeout time.Duration `yaml:"sync_timeout" json:"sync_timeout"`
	Locale      string        `yaml:"locale,omitempty" json:"locale,omitempty"`
	TableName   string        `yaml:"table_name,omitempty" json:"table_name,omitempty"`
	KeyColumns  []string      `yaml:"key_columns,omitempty" json:"key_columns,omitempty"`
}

// InternalSyncConfig selects how accepted changes reach the database.
type InternalSyncConfig struct {
	// Provider is "sql" (write in a transaction now), "queue" (write later
	// through a drainer) or "none".
	Provider string `yaml:"provider" json:"provider"`
}

// InternalKVStoreConfig contains configuration for the key-value store that
// holds snapshots, the WAL and Redis queues.
type InternalKVStoreConfig struct {
	Type           string                 `yaml:"type" json:"type"`
	RedisConfig    InternalRedisConfig    `yaml:"redis_config,omitempty" json:"redis_config,omitempty"`
	DynamoDBConfig InternalDynamoDBConfig `yaml:"dynamodb_config,omitempty" json:"dynamodb_config,omitempty"`
	MemoryConfig   InternalMemoryConfig   `yaml:"memory_config,omitempty" json:"memory_config,omitempty"`
	MaxRetries     int                    `yaml:"max_retries,omitempty" json:"max_retries,omitempty"`
	DialTimeout    time.Duration          `yaml:"dial_timeout,omitempty" json:"dial_timeout,omitempty"`
	ReadTimeout    time.Duration          `yaml:"read_timeout,omitempty" json:"read_timeout,omitempty"`
	WriteTimeout   time.Duration          `yaml:"write_timeout,omitempty" json:"write_timeout,omitempty"`
}

// InternalRedisConfig contains Redis-specific configuration.
type InternalRedisConfig struct {
	Endpoints    []string `yaml:"endpoints" json:"endpoints"`
	Password     string   `yaml:"password,omitempty" json:"password,omitempty"`
	DB           int      `yaml:"db" json:"db"`
	PoolSize     int      `yaml:"pool_size" json:"pool_size"`
	MinIdleConns int      `yaml:"min_idle_conns" json:"min_idle_conns"`
}

// InternalDynamoDBConfig contains DynamoDB-specific configuration.
type InternalDynamoDBConfig struct {
	Region          string `yaml:"region" json:"region"`
	TableName       string `yaml:"table_name" json:"table_name"`
	Endpoint        string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	AccessKeyID     string `yaml:"access_key_id,omitempty" json:"access_key_id,omitempty"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty" json:"secret_access_key,omitempty"`
}

// InternalMemoryConfig sizes the in-process store.
type InternalMemoryConfig struct {
	// MaxCost is the total size in bytes of the values kept.
	MaxCost int64 `yaml:"max_cost" json:"max_cost"`

	// NumCounters is the number of keys tracked for admission, usually ten
	// times the expected item count.
	NumCounters int64 `yaml:"num_counters" json:"num_counters"`
}

// InternalDatabaseConfig contains configuration for the source database.
type InternalDatabaseConfig struct {
	Type              string        `yaml:"type" json:"type"`
	Path              string        `yaml:"path,omitempty" json:"path,omitempty"` // sqlite
	Host              string        `yaml:"host" json:"host"`
	Port              int           `yaml:"port" json:"port"`
	Database          string        `yaml:"database" json:"database"`
	Username          string        `yaml:"username" json:"username"`
	Password          string        `yaml:"password,omitempty" json:"password,omitempty"`
	MaxOpenConns      int           `yaml:"max_open_conns" json:"max_open_conns"`
	MaxIdleConns      int           `yaml:"max_idle_conns" json:"max_idle_conns"`
	ConnMaxLifetime   time.Duration `yaml:"conn_max_lifetime" json:"conn_max_lifetime"`
	ConnMaxIdleTime   time.Duration `yaml:"conn_max_idle_time" json:"conn_max_idle_time"`
	ConnectionTimeout time.Duration `yaml:"connection_timeout" json:"connection_timeout"`
}

// InternalSnapshotConfig configures snapshot storage in the KV store.
type InternalSnapshotConfig struct {
	Namespace string        `yaml:"namespace" json:"namespace"`
	TTL       time.Duration `yaml:"ttl" json:"ttl"`

	// SaveOnClose saves every registered row set when it is unregistered.
	SaveOnClose bool `yaml:"save_on_close" json:"save_on_close"`
}

// InternalWriteBackConfig contains write-back queue and drainer configuration.
type InternalWriteBackConfig struct {
	BatchSize        int                 `yaml:"batch_size" json:"batch_size"`
	DrainRate        int                 `yaml:"drain_rate" json:"drain_rate"` // operations per second
	MaxRetries       int                 `yaml:"max_retries" json:"max_retries"`
	RetryBackoffBase time.Duration       `yaml:"retry_backoff_base" json:"retry_backoff_base"`
	RetryBackoffMax  time.Duration       `yaml:"retry_backoff_max" json:"retry_backoff_max"`
	PollInterval     time.Duration       `yaml:"poll_interval" json:"poll_interval"`
	QueueType        string              `yaml:"queue_type" json:"queue_type"`
	QueueBufferSize  int                 `yaml:"queue_buffer_size" json:"queue_buffer_size"`
	QueuePrefix      string              `yaml:"queue_prefix" json:"queue_prefix"`
	WALEnabled       bool                `yaml:"wal_enabled" json:"wal_enabled"`
	WALPrefix        string              `yaml:"wal_prefix" json:"wal_prefix"`
	KafkaConfig      InternalKafkaConfig `yaml:"kafka_config" json:"kafka_config"`
}

// InternalKafkaConfig contains Kafka-specific configuration.
type InternalKafkaConfig struct {
	Brokers      []string      `yaml:"brokers" json:"brokers"`
	Topic        string        `yaml:"topic" json:"topic"`
	GroupID      string        `yaml:"group_id" json:"group_id"`
	BatchSize    int           `yaml:"batch_size" json:"batch_size"`
	BatchTimeout time.Duration `yaml:"batch_timeout" json:"batch_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
	RequiredAcks int           `yaml:"required_acks" json:"required_acks"`
	MinBytes     int           `yaml:"min_bytes" json:"min_bytes"`
	MaxBytes     int           `yaml:"max_bytes" json:"max_bytes"`
	MaxWait      time.Duration `yaml:"max_wait" json:"max_wait"`
	PollTimeout  time.Duration `yaml:"poll_timeout" json:"poll_timeout"`
}
