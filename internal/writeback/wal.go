package writeback

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rzpsarthak13/rowcache/internal/core"
)

const (
	walEntryTTL = 24 * time.Hour
	walAckTTL   = 7 * 24 * time.Hour
)

// WAL records write operations in a KV store before they are queued, so
// an operation lost by the queue can still be found and replayed.
//
// Keys:
//
//	{prefix}:{table}:entry:{id}   JSON of the operation
//	{prefix}:{table}:ack:{id}     present once the drainer applied it
type WAL struct {
	kvStore core.KVStore
	prefix  string
}

// NewWAL creates a WAL on kvStore.
func NewWAL(kvStore core.KVStore, prefix string) *WAL {
	if prefix == "" {
		prefix = "wal"
	}
	return &WAL{kvStore: kvStore, prefix: prefix}
}

func (w *WAL) entryKey(table, id string) string {
	return fmt.Sprintf("%s:%s:entry:%s", w.prefix, table, id)
}

func (w *WAL) ackKey(table, id string) string {
	return fmt.Sprintf("%s:%s:ack:%s", w.prefix, table, id)
}

// Append stores op, assigning an ID and timestamp when missing.
func (w *WAL) Append(ctx context.Context, op *core.WriteOperation) error {
	if op == nil || op.Table == "" {
		return ErrInvalidOperation
	}
	if op.ID == "" {
		op.ID = uuid.NewString()
	}
	if op.Timestamp.IsZero() {
		op.Timestamp = time.Now()
	}

	data, err := json.Marshal(op)
	if err != nil {
		return fmt.Errorf("failed to marshal WAL entry: %w", err)
	}
	if err := w.kvStore.Set(ctx, w.entryKey(op.Table, op.ID), data, walEntryTTL); err != nil {
		return fmt.Errorf("failed to store WAL entry: %w", err)
	}
	return nil
}

// Get returns a logged operation. A missing entry wraps core.ErrKeyNotFound.
func (w *WAL) Get(ctx context.Context, table, id string) (*core.WriteOperation, error) {
	data, err := w.kvStore.Get(ctx, w.entryKey(table, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get WAL entry: %w", err)
	}

	var op core.WriteOperation
	if err := json.Unmarshal(data, &op); err != nil {
		return nil, fmt.Errorf("failed to unmarshal WAL entry: %w", err)
	}
	return &op, nil
}

// Acknowledge marks an operation as written back.
func (w *WAL) Acknowledge(ctx context.Context, table, id string) error {
	if err := w.kvStore.Set(ctx, w.ackKey(table, id), []byte("1"), walAckTTL); err != nil {
		return fmt.Errorf("failed to acknowledge WAL entry: %w", err)
	}
	return nil
}

// IsAcknowledged reports whether Acknowledge was called for the operation.
func (w *WAL) IsAcknowledged(ctx context.Context, table, id string) (bool, error) {
	exists, err := w.kvStore.Exists(ctx, w.ackKey(table, id))
	if err != nil {
		return false, fmt.Errorf("failed to check WAL acknowledgment: %w", err)
	}
	return exists, nil
}
