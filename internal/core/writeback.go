package core

import (
	"context"
	"time"
)

// OperationType represents the type of write operation.
type OperationType string

const (
	// OperationCreate represents an INSERT operation.
	OperationCreate OperationType = "CREATE"

	// OperationUpdate represents an UPDATE operation.
	OperationUpdate OperationType = "UPDATE"

	// OperationDelete represents a DELETE operation.
	OperationDelete OperationType = "DELETE"
)

// WriteOperation is one row change waiting to be written back to the
// database by a drainer.
type WriteOperation struct {
	// ID identifies the operation in the WAL.
	ID string `json:"id"`

	// Table is the name of the table this operation targets.
	Table string `json:"table"`

	// Operation is the type of operation (CREATE, UPDATE, DELETE).
	Operation OperationType `json:"operation"`

	// Key holds the values that identify the row, taken from the
	// original generation of the row. Empty for CREATE.
	Key map[string]interface{} `json:"key,omitempty"`

	// Data holds the column values to write. For UPDATE only the changed
	// columns are present. Nil for DELETE.
	Data map[string]interface{} `json:"data,omitempty"`

	// Timestamp is when the change was accepted.
	Timestamp time.Time `json:"timestamp"`

	// RetryCount tracks how many times this operation has been retried.
	RetryCount int `json:"retry_count"`
}

// WriteBackQueue holds write operations until a drainer applies them.
type WriteBackQueue interface {
	// Enqueue adds a write operation to the queue.
	Enqueue(ctx context.Context, operation *WriteOperation) error

	// Dequeue retrieves up to batchSize operations in FIFO order.
	// Returns an empty slice if no operations are available.
	Dequeue(ctx context.Context, batchSize int) ([]*WriteOperation, error)

	// Size returns the current number of operations in the queue.
	Size() int

	// Close closes the queue and releases resources.
	Close() error
}
