package syncprovider

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/rzpsarthak13/rowcache/internal/core"
	"github.com/rzpsarthak13/rowcache/internal/writeback"
)

// Queue turns changes into write operations and enqueues them for a
// drainer. The database is not consulted, so Queue never reports a
// conflict; stale writes surface later in the drainer.
type Queue struct {
	queue core.WriteBackQueue
	wal   *writeback.WAL
}

// NewQueue creates a provider on queue. wal may be nil.
func NewQueue(queue core.WriteBackQueue, wal *writeback.WAL) *Queue {
	return &Queue{queue: queue, wal: wal}
}

// Name identifies the provider.
func (p *Queue) Name() string { return "queue" }

// WriteData validates every operation before logging and enqueueing any,
// so an invalid row leaves the queue untouched. An enqueue failure part way
// leaves the earlier operations queued.
func (p *Queue) WriteData(ctx context.Context, src core.SyncSource) (bool, error) {
	table := src.TableName()
	if table == "" {
		return false, fmt.Errorf("%w: no table name to write to", core.ErrConfiguration)
	}

	ops := Operations(src, time.Now())
	validator := writeback.NewOperationValidator(src.Columns())
	for _, op := range ops {
		if err := validator.Validate(op); err != nil {
			return false, err
		}
	}

	for _, op := range ops {
		if p.wal != nil {
			if err := p.wal.Append(ctx, op); err != nil {
				return false, err
			}
		}
		if err := p.queue.Enqueue(ctx, op); err != nil {
			return false, fmt.Errorf("failed to enqueue %s on %s: %w", op.Operation, table, err)
		}
	}
	if len(ops) > 0 {
		log.Printf("[SYNC] Queued %d operations for %s", len(ops), table)
	}
	return false, nil
}

// Operations converts the changes of src into write operations in store
// order, all stamped with now.
func Operations(src core.SyncSource, now time.Time) []*core.WriteOperation {
	table := src.TableName()
	columns := src.Columns()
	keys := keyIndexes(src)

	var ops []*core.WriteOperation
	for _, c := range src.Changes() {
		op := &core.WriteOperation{
			ID:        uuid.NewString(),
			Table:     table,
			Timestamp: now,
		}
		switch classify(c) {
		case actionNone:
			continue
		case actionDelete:
			op.Operation = core.OperationDelete
			op.Key = fieldMap(keyFields(columns, keys, c))
		case actionInsert:
			op.Operation = core.OperationCreate
			op.Data = fieldMap(allFields(columns, c))
		case actionUpdate:
			op.Operation = core.OperationUpdate
			op.Key = fieldMap(keyFields(columns, keys, c))
			op.Data = fieldMap(changedFields(columns, c))
		}
		ops = append(ops, op)
	}
	return ops
}
