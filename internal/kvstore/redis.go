package kvstore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rzpsarthak13/rowcache/internal/core"
	"github.com/rzpsarthak13/rowcache/internal/registry"
)

// RedisKVStore implements core.KVStore on a single Redis node. It also
// provides the list commands used by writeback.RedisQueue.
type RedisKVStore struct {
	client *redis.Client
	closed bool
}

// NewRedisKVStore connects to the first endpoint and pings it.
func NewRedisKVStore(cfg registry.InternalKVStoreConfig) (*RedisKVStore, error) {
	rc := cfg.RedisConfig
	if len(rc.Endpoints) == 0 {
		return nil, fmt.Errorf("at least one endpoint is required")
	}

	// TODO: use redis.NewClusterClient when more than one endpoint is configured.
	client := redis.NewClient(&redis.Options{
		Addr:         rc.Endpoints[0],
		Password:     rc.Password,
		DB:           rc.DB,
		PoolSize:     rc.PoolSize,
		MinIdleConns: rc.MinIdleConns,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Printf("[REDIS] Connected to %s (db %d)", rc.Endpoints[0], rc.DB)

	return &RedisKVStore{client: client}, nil
}

// Get retrieves a value by key.
func (r *RedisKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if r.closed {
		return nil, fmt.Errorf("KV store is closed")
	}
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, notFound(key)
	}
	if err != nil {
		log.Printf("[REDIS] ERROR: Failed to get key %s: %v", key, err)
		return nil, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return val, nil
}

// Set stores a value. A zero ttl means no expiration.
func (r *RedisKVStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if r.closed {
		return fmt.Errorf("KV store is closed")
	}
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		log.Printf("[REDIS] ERROR: Failed to set key %s: %v", key, err)
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	log.Printf("[REDIS] SET %s (%d bytes, ttl %v)", key, len(value), ttl)
	return nil
}

// Delete removes a key.
func (r *RedisKVStore) Delete(ctx context.Context, key string) error {
	if r.closed {
		return fmt.Errorf("KV store is closed")
	}
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

// Exists checks if a key exists.
func (r *RedisKVStore) Exists(ctx context.Context, key string) (bool, error) {
	if r.closed {
		return false, fmt.Errorf("KV store is closed")
	}
	count, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check existence of key %s: %w", key, err)
	}
	return count > 0, nil
}

// BatchSet stores several values in one pipeline.
func (r *RedisKVStore) BatchSet(ctx context.Context, items map[string][]byte, ttl time.Duration) error {
	if r.closed {
		return fmt.Errorf("KV store is closed")
	}
	pipe := r.client.Pipeline()
	for key, value := range items {
		pipe.Set(ctx, key, value, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to batch set keys: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (r *RedisKVStore) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.client.Close()
}

// ListPush appends a value to a list (RPUSH).
func (r *RedisKVStore) ListPush(ctx context.Context, key string, value []byte) error {
	if r.closed {
		return fmt.Errorf("KV store is closed")
	}
	return r.client.RPush(ctx, key, value).Err()
}

// ListPop removes and returns the head of a list (LPOP). It returns nil
// when the list is empty.
func (r *RedisKVStore) ListPop(ctx context.Context, key string) ([]byte, error) {
	if r.closed {
		return nil, fmt.Errorf("KV store is closed")
	}
	val, err := r.client.LPop(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return val, err
}

// ListLength returns the length of a list (LLEN).
func (r *RedisKVStore) ListLength(ctx context.Context, key string) (int64, error) {
	if r.closed {
		return 0, fmt.Errorf("KV store is closed")
	}
	return r.client.LLen(ctx, key).Result()
}

type redisStrategy struct{}

func (redisStrategy) Type() string { return "redis" }

func (redisStrategy) Create(cfg registry.InternalKVStoreConfig) (core.KVStore, error) {
	store, err := NewRedisKVStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis KV store: %w", err)
	}
	return store, nil
}

func (redisStrategy) Validate(config *registry.InternalConfig) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}
	kv := config.KVStore
	if kv.Type != "redis" {
		return fmt.Errorf("invalid type for Redis validator: %s", kv.Type)
	}

	rc := kv.RedisConfig
	if len(rc.Endpoints) == 0 {
		return fmt.Errorf("at least one endpoint is required for Redis")
	}
	if rc.DB < 0 || rc.DB > 15 {
		return fmt.Errorf("Redis DB must be between 0 and 15, got: %d", rc.DB)
	}
	if rc.PoolSize <= 0 {
		return fmt.Errorf("pool_size must be greater than 0, got: %d", rc.PoolSize)
	}
	if rc.MinIdleConns < 0 {
		return fmt.Errorf("min_idle_conns must be non-negative, got: %d", rc.MinIdleConns)
	}
	return validateCommon(kv)
}

func init() {
	register(redisStrategy{})
}
