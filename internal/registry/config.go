package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rzpsarthak13/rowcache/internal/core"
)

// ConfigValidator validates the KV store section for one store type. Each
// kvstore backend registers its validator from init.
type ConfigValidator interface {
	// Validate validates the KVStore section of config.
	Validate(config *InternalConfig) error

	// Type returns the store type it validates (e.g., "redis", "dynamodb").
	Type() string
}

var (
	validatorRegistry      = make(map[string]ConfigValidator)
	validatorRegistryMutex sync.RWMutex
)

// RegisterValidator registers a config validator. It panics if validator is
// nil, has no type, or its type is already registered.
func RegisterValidator(validator ConfigValidator) {
	if validator == nil {
		panic("validator cannot be nil")
	}
	if validator.Type() == "" {
		panic("validator type cannot be empty")
	}

	validatorRegistryMutex.Lock()
	defer validatorRegistryMutex.Unlock()

	if _, exists := validatorRegistry[validator.Type()]; exists {
		panic(fmt.Sprintf("validator for type %q is already registered", validator.Type()))
	}
	validatorRegistry[validator.Type()] = validator
}

// GetValidator returns the validator registered for validatorType.
func GetValidator(validatorType string) (ConfigValidator, bool) {
	validatorRegistryMutex.RLock()
	defer validatorRegistryMutex.RUnlock()

	validator, exists := validatorRegistry[validatorType]
	return validator, exists
}

// ConfigManager loads configuration from files, raw YAML/JSON or the
// environment, always starting from defaults.
type ConfigManager struct {
	config *InternalConfig
}

// NewConfigManager creates a configuration manager holding the defaults.
func NewConfigManager() *ConfigManager {
	return &ConfigManager{config: DefaultInternalConfig()}
}

// DefaultInternalConfig returns the defaults: an unpaged row set, an
// in-memory KV store and queue, and a local SQLite database.
func DefaultInternalConfig() *InternalConfig {
	return &InternalConfig{
		RowSet: InternalRowSetConfig{
			Locale: "en",
		},
		Sync: InternalSyncConfig{
			Provider: "sql",
		},
		Database: InternalDatabaseConfig{
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
		KVStore: InternalKVStoreConfig{
			Type: "memory",
			RedisConfig: InternalRedisConfig{
				Endpoints:    []string{"localhost:6379"},
				PoolSize:     10,
				MinIdleConns: 5,
			},
			MemoryConfig: InternalMemoryConfig{
				MaxCost:     64 << 20,
				NumCounters: 100000,
			},
			MaxRetries:   3,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Snapshot: InternalSnapshotConfig{
			Namespace: "rowcache",
			TTL:       24 * time.Hour,
		},
		WriteBack: InternalWriteBackConfig{
			BatchSize:        100,
			DrainRate:        50,
			MaxRetries:       5,
			RetryBackoffBase: 1 * time.Second,
			RetryBackoffMax:  30 * time.Second,
			PollInterval:     500 * time.Millisecond,
			QueueType:        "memory",
			QueueBufferSize:  10000,
			QueuePrefix:      "wbq",
			WALPrefix:        "wal",
			KafkaConfig: InternalKafkaConfig{
				Brokers:      []string{"localhost:9092"},
				Topic:        "rowcache-writeback",
				GroupID:      "rowcache-writeback",
				BatchSize:    100,
				BatchTimeout: 10 * time.Millisecond,
				WriteTimeout: 10 * time.Second,
				RequiredAcks: -1,
				MinBytes:     1,
				MaxBytes:     10 * 1024 * 1024,
				MaxWait:      100 * time.Millisecond,
				PollTimeout:  5 * time.Second,
			},
		},
		RowSets: make(map[string]InternalRowSetConfig),
	}
}

// LoadFromFile loads configuration from a .yaml, .yml or .json file.
func (cm *ConfigManager) LoadFromFile(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(filePath)); ext {
	case ".yaml", ".yml":
		return cm.LoadFromYAML(data)
	case ".json":
		return cm.LoadFromJSON(data)
	default:
		return fmt.Errorf("unsupported config file format: %s (supported: .yaml, .yml, .json)", ext)
	}
}

// LoadFromYAML loads configuration from YAML data. Absent keys keep their
// defaults.
func (cm *ConfigManager) LoadFromYAML(data []byte) error {
	config := DefaultInternalConfig()
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, config); err != nil {
			return fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}
	return cm.apply(config)
}

// LoadFromJSON loads configuration from JSON data. Absent keys keep their
// defaults.
func (cm *ConfigManager) LoadFromJSON(data []byte) error {
	config := DefaultInternalConfig()
	if len(data) > 0 {
		if err := json.Unmarshal(data, config); err != nil {
			return fmt.Errorf("failed to parse JSON config: %w", err)
		}
	}
	return cm.apply(config)
}

// LoadFromEnv loads configuration from environment variables named
// ROWCACHE_<SECTION>_<KEY>, for example:
//   - ROWCACHE_ROWSET_PAGE_SIZE=50
//   - ROWCACHE_SYNC_PROVIDER=queue
//   - ROWCACHE_DATABASE_TYPE=mysql
//   - ROWCACHE_KVSTORE_ENDPOINTS=localhost:6379,localhost:6380
//   - ROWCACHE_WRITEBACK_DRAIN_RATE=100
//
// Malformed numbers, booleans and durations are ignored.
func (cm *ConfigManager) LoadFromEnv() error {
	config := DefaultInternalConfig()

	envInt("ROWSET_PAGE_SIZE", &config.RowSet.PageSize)
	envInt("ROWSET_MAX_ROWS", &config.RowSet.MaxRows)
	envBool("ROWSET_SHOW_DELETED", &config.RowSet.ShowDeleted)
	envBool("ROWSET_READ_ONLY", &config.RowSet.ReadOnly)
	if val, ok := lookupEnv("ROWSET_SCROLLABLE"); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			config.RowSet.Scrollable = &b
		}
	}
	envDuration("ROWSET_SYNC_TIMEOUT", &config.RowSet.SyncTimeout)
	envString("ROWSET_LOCALE", &config.RowSet.Locale)

	envString("SYNC_PROVIDER", &config.Sync.Provider)

	envString("DATABASE_TYPE", &config.Database.Type)
	envString("DATABASE_PATH", &config.Database.Path)
	envString("DATABASE_HOST", &config.Database.Host)
	envInt("DATABASE_PORT", &config.Database.Port)
	envString("DATABASE_DATABASE", &config.Database.Database)
	envString("DATABASE_USERNAME", &config.Database.Username)
	envString("DATABASE_PASSWORD", &config.Database.Password)
	envInt("DATABASE_MAX_OPEN_CONNS", &config.Database.MaxOpenConns)
	envInt("DATABASE_MAX_IDLE_CONNS", &config.Database.MaxIdleConns)

	envString("KVSTORE_TYPE", &config.KVStore.Type)
	if val, ok := lookupEnv("KVSTORE_ENDPOINTS"); ok {
		config.KVStore.RedisConfig.Endpoints = strings.Split(val, ",")
	}
	envString("KVSTORE_PASSWORD", &config.KVStore.RedisConfig.Password)
	envInt("KVSTORE_DB", &config.KVStore.RedisConfig.DB)
	envInt("KVSTORE_POOL_SIZE", &config.KVStore.RedisConfig.PoolSize)
	envInt("KVSTORE_MAX_RETRIES", &config.KVStore.MaxRetries)
	envString("KVSTORE_REGION", &config.KVStore.DynamoDBConfig.Region)
	envString("KVSTORE_TABLE_NAME", &config.KVStore.DynamoDBConfig.TableName)
	envString("KVSTORE_ENDPOINT", &config.KVStore.DynamoDBConfig.Endpoint)

	envString("SNAPSHOT_NAMESPACE", &config.Snapshot.Namespace)
	envDuration("SNAPSHOT_TTL", &config.Snapshot.TTL)
	envBool("SNAPSHOT_SAVE_ON_CLOSE", &config.Snapshot.SaveOnClose)

	envInt("WRITEBACK_BATCH_SIZE", &config.WriteBack.BatchSize)
	envInt("WRITEBACK_DRAIN_RATE", &config.WriteBack.DrainRate)
	envInt("WRITEBACK_MAX_RETRIES", &config.WriteBack.MaxRetries)
	envString("WRITEBACK_QUEUE_TYPE", &config.WriteBack.QueueType)
	envBool("WRITEBACK_WAL_ENABLED", &config.WriteBack.WALEnabled)
	if val, ok := lookupEnv("WRITEBACK_KAFKA_BROKERS"); ok {
		config.WriteBack.KafkaConfig.Brokers = strings.Split(val, ",")
	}
	envString("WRITEBACK_KAFKA_TOPIC", &config.WriteBack.KafkaConfig.Topic)

	return cm.apply(config)
}

func lookupEnv(key string) (string, bool) {
	val := os.Getenv("ROWCACHE_" + key)
	return val, val != ""
}

func envString(key string, dst *string) {
	if val, ok := lookupEnv(key); ok {
		*dst = val
	}
}

func envInt(key string, dst *int) {
	if val, ok := lookupEnv(key); ok {
		if n, err := strconv.Atoi(val); err == nil {
			*dst = n
		}
	}
}

func envBool(key string, dst *bool) {
	if val, ok := lookupEnv(key); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func envDuration(key string, dst *time.Duration) {
	if val, ok := lookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}

func (cm *ConfigManager) apply(config *InternalConfig) error {
	if err := cm.validateConfig(config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	cm.config = config
	return nil
}

// GetConfig returns the current configuration.
func (cm *ConfigManager) GetConfig() *InternalConfig {
	return cm.config
}

// GetRowSetConfig returns the settings for the named row set: the rowset
// defaults overlaid with the non-zero fields of its named entry.
func (cm *ConfigManager) GetRowSetConfig(name string) InternalRowSetConfig {
	merged := cm.config.RowSet
	named, exists := cm.config.RowSets[name]
	if !exists {
		return merged
	}

	if named.PageSize != 0 {
		merged.PageSize = named.PageSize
	}
	if named.MaxRows != 0 {
		merged.MaxRows = named.MaxRows
	}
	if named.ShowDeleted {
		merged.ShowDeleted = true
	}
	if named.ReadOnly {
		merged.ReadOnly = true
	}
	if named.Scrollable != nil {
		merged.Scrollable = named.Scrollable
	}
	if named.SyncTimeout != 0 {
		merged.SyncTimeout = named.SyncTimeout
	}
	if named.Locale != "" {
		merged.Locale = named.Locale
	}
	if named.TableName != "" {
		merged.TableName = named.TableName
	}
	if len(named.KeyColumns) > 0 {
		merged.KeyColumns = named.KeyColumns
	}
	return merged
}

// ValidateRowSetConfig checks the paging settings of one row set. Errors
// wrap core.ErrConfiguration.
func ValidateRowSetConfig(rs InternalRowSetConfig) error {
	if rs.PageSize < 0 {
		return fmt.Errorf("%w: page_size must be non-negative", core.ErrConfiguration)
	}
	if rs.MaxRows < 0 {
		return fmt.Errorf("%w: max_rows must be non-negative", core.ErrConfiguration)
	}
	if rs.MaxRows > 0 && rs.PageSize > rs.MaxRows {
		return fmt.Errorf("%w: page_size %d exceeds max_rows %d", core.ErrConfiguration, rs.PageSize, rs.MaxRows)
	}
	if rs.SyncTimeout < 0 {
		return fmt.Errorf("%w: sync_timeout must be non-negative", core.ErrConfiguration)
	}
	return nil
}

// validateConfig validates every section. The KV store section is checked
// by the validator registered for its type.
func (cm *ConfigManager) validateConfig(config *InternalConfig) error {
	if err := ValidateRowSetConfig(config.RowSet); err != nil {
		return fmt.Errorf("rowset: %w", err)
	}
	for name := range config.RowSets {
		if err := ValidateRowSetConfig(cm.merged(config, name)); err != nil {
			return fmt.Errorf("rowsets.%s: %w", name, err)
		}
	}

	switch config.Sync.Provider {
	case "sql", "queue", "none":
	default:
		return fmt.Errorf("sync.provider must be 'sql', 'queue' or 'none'")
	}

	if config.KVStore.Type == "" {
		return fmt.Errorf("kvstore.type is required")
	}
	validator, exists := GetValidator(config.KVStore.Type)
	if !exists {
		return fmt.Errorf("unsupported KV store type: %s", config.KVStore.Type)
	}
	if err := validator.Validate(config); err != nil {
		return fmt.Errorf("kvstore validation failed: %w", err)
	}

	switch config.Database.Type {
	case "sqlite":
		if config.Database.Path == "" {
			return fmt.Errorf("database.path is required for sqlite")
		}
	case "mysql":
		if config.Database.Host == "" {
			return fmt.Errorf("database.host is required")
		}
		if config.Database.Port <= 0 || config.Database.Port > 65535 {
			return fmt.Errorf("database.port must be between 1 and 65535")
		}
		if config.Database.Database == "" {
			return fmt.Errorf("database.database is required")
		}
		if config.Database.Username == "" {
			return fmt.Errorf("database.username is required")
		}
		if config.Database.MaxOpenConns <= 0 {
			return fmt.Errorf("database.max_open_conns must be greater than 0")
		}
	case "":
		return fmt.Errorf("database.type is required")
	default:
		return fmt.Errorf("database.type must be 'mysql' or 'sqlite'")
	}

	if config.Snapshot.Namespace == "" {
		return fmt.Errorf("snapshot.namespace is required")
	}
	if config.Snapshot.TTL < 0 {
		return fmt.Errorf("snapshot.ttl must be non-negative")
	}

	wb := config.WriteBack
	if wb.BatchSize <= 0 {
		return fmt.Errorf("writeback.batch_size must be greater than 0")
	}
	if wb.DrainRate <= 0 {
		return fmt.Errorf("writeback.drain_rate must be greater than 0")
	}
	if wb.MaxRetries < 0 {
		return fmt.Errorf("writeback.max_retries must be non-negative")
	}
	switch wb.QueueType {
	case "", "memory", "redis":
	case "kafka":
		if len(wb.KafkaConfig.Brokers) == 0 {
			return fmt.Errorf("kafka_config.brokers is required when queue_type is 'kafka'")
		}
		if wb.KafkaConfig.Topic == "" {
			return fmt.Errorf("kafka_config.topic is required when queue_type is 'kafka'")
		}
	default:
		return fmt.Errorf("writeback.queue_type must be 'memory', 'redis', or 'kafka'")
	}
	if wb.QueueType == "redis" && config.KVStore.Type != "redis" {
		return fmt.Errorf("writeback.queue_type 'redis' needs kvstore.type 'redis'")
	}

	return nil
}

// merged is GetRowSetConfig against a config not yet applied.
func (cm *ConfigManager) merged(config *InternalConfig, name string) InternalRowSetConfig {
	tmp := &ConfigManager{config: config}
	return tmp.GetRowSetConfig(name)
}
