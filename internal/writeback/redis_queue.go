package writeback

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/rzpsarthak13/rowcache/internal/core"
)

// ListOperations is the subset of Redis list commands a RedisQueue needs.
// kvstore.RedisKVStore implements it.
type ListOperations interface {
	// ListPush appends a value to a list (RPUSH).
	ListPush(ctx context.Context, key string, value []byte) error

	// ListPop removes and returns the first element of a list (LPOP).
	// Returns nil if the list is empty.
	ListPop(ctx context.Context, key string) ([]byte, error)

	// ListLength returns the length of a list (LLEN).
	ListLength(ctx context.Context, key string) (int64, error)
}

// RedisQueue implements WriteBackQueue on a Redis list. Every table shares
// one list, {prefix}:queue, so a single drainer sees changes in the order
// they were accepted.
type RedisQueue struct {
	ops    ListOperations
	key    string
	closed bool
}

// NewRedisQueue creates a queue on kvStore, which must support list
// operations.
func NewRedisQueue(kvStore core.KVStore, prefix string) (*RedisQueue, error) {
	ops, ok := kvStore.(ListOperations)
	if !ok {
		return nil, ErrListOperationsNotSupported
	}
	if prefix == "" {
		prefix = "wbq"
	}
	return &RedisQueue{ops: ops, key: fmt.Sprintf("%s:queue", prefix)}, nil
}

// Enqueue serializes the operation as JSON and pushes it to the list.
func (q *RedisQueue) Enqueue(ctx context.Context, operation *core.WriteOperation) error {
	if q.closed {
		return ErrQueueClosed
	}
	if operation == nil {
		return ErrInvalidOperation
	}
	if operation.Table == "" {
		return fmt.Errorf("%w: table name is required", ErrInvalidOperation)
	}
	if operation.Timestamp.IsZero() {
		operation.Timestamp = time.Now()
	}

	data, err := json.Marshal(operation)
	if err != nil {
		return fmt.Errorf("failed to marshal write operation: %w", err)
	}
	if err := q.ops.ListPush(ctx, q.key, data); err != nil {
		return fmt.Errorf("failed to enqueue operation: %w", err)
	}
	return nil
}

// Dequeue pops up to batchSize operations. Entries that do not decode are
// logged and dropped.
func (q *RedisQueue) Dequeue(ctx context.Context, batchSize int) ([]*core.WriteOperation, error) {
	if q.closed {
		return nil, ErrQueueClosed
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	operations := make([]*core.WriteOperation, 0, batchSize)
	for len(operations) < batchSize {
		data, err := q.ops.ListPop(ctx, q.key)
		if err != nil {
			return operations, fmt.Errorf("failed to dequeue operation: %w", err)
		}
		if data == nil {
			break
		}

		var op core.WriteOperation
		if err := json.Unmarshal(data, &op); err != nil {
			log.Printf("[REDIS] WARNING: dropping undecodable queue entry: %v", err)
			continue
		}
		operations = append(operations, &op)
	}
	return operations, nil
}

// Size returns the list length, or 0 when it cannot be read.
func (q *RedisQueue) Size() int {
	if q.closed {
		return 0
	}
	length, err := q.ops.ListLength(context.Background(), q.key)
	if err != nil {
		return 0
	}
	return int(length)
}

// Close marks the queue closed. The KV store stays open.
func (q *RedisQueue) Close() error {
	q.closed = true
	return nil
}
