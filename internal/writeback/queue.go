// Package writeback holds row changes accepted by the queued sync provider
// until a drainer applies them to the database.
package writeback

import (
	"errors"
)

var (
	// ErrQueueClosed is returned when trying to use a closed queue.
	ErrQueueClosed = errors.New("write-back queue is closed")

	// ErrQueueFull is returned when a bounded queue cannot take more operations.
	ErrQueueFull = errors.New("write-back queue is full")

	// ErrInvalidOperation is returned when an invalid operation is provided.
	ErrInvalidOperation = errors.New("invalid write operation")

	// ErrListOperationsNotSupported is returned when the KV store behind a
	// RedisQueue has no list commands.
	ErrListOperationsNotSupported = errors.New("KV store does not support list operations")

	// ErrStaleWrite is returned when an UPDATE or DELETE matched no row.
	ErrStaleWrite = errors.New("write matched no row")
)

const defaultBatchSize = 100
