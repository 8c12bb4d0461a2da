package writeback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/rzpsarthak13/rowcache/internal/core"
	"github.com/segmentio/kafka-go"
)

// KafkaQueueConfig holds configuration for a Kafka queue.
type KafkaQueueConfig struct {
	Brokers      []string
	Topic        string
	GroupID      string
	BatchSize    int
	BatchTimeout time.Duration
	WriteTimeout time.Duration
	RequiredAcks int // 0, 1, or -1 (all)
	MinBytes     int
	MaxBytes     int
	MaxWait      time.Duration

	// PollTimeout bounds each read in Dequeue. An empty topic returns after
	// one timeout.
	PollTimeout time.Duration
}

// KafkaQueue implements WriteBackQueue on a Kafka topic. Messages are keyed
// by table so the changes of one table stay in one partition, in order.
type KafkaQueue struct {
	writer      *kafka.Writer
	reader      *kafka.Reader
	topic       string
	groupID     string
	pollTimeout time.Duration

	mu     sync.RWMutex
	closed bool
	size   int // produced minus consumed by this process
}

// NewKafkaQueue creates the producer and the consumer-group reader.
func NewKafkaQueue(config KafkaQueueConfig) (*KafkaQueue, error) {
	if len(config.Brokers) == 0 {
		return nil, fmt.Errorf("at least one Kafka broker is required")
	}
	if config.Topic == "" {
		return nil, fmt.Errorf("Kafka topic is required")
	}
	if config.GroupID == "" {
		config.GroupID = "rowcache-writeback"
	}
	if config.PollTimeout <= 0 {
		config.PollTimeout = 5 * time.Second
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(config.Brokers...),
		Topic:        config.Topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    config.BatchSize,
		BatchTimeout: config.BatchTimeout,
		WriteTimeout: config.WriteTimeout,
		RequiredAcks: kafka.RequiredAcks(config.RequiredAcks),
		MaxAttempts:  3,
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     config.Brokers,
		Topic:       config.Topic,
		GroupID:     config.GroupID,
		MinBytes:    config.MinBytes,
		MaxBytes:    config.MaxBytes,
		MaxWait:     config.MaxWait,
		StartOffset: kafka.FirstOffset,
	})

	log.Printf("[KAFKA] Queue ready: brokers=%v topic=%s group=%s", config.Brokers, config.Topic, config.GroupID)

	return &KafkaQueue{
		writer:      writer,
		reader:      reader,
		topic:       config.Topic,
		groupID:     config.GroupID,
		pollTimeout: config.PollTimeout,
	}, nil
}

// Enqueue produces the operation synchronously.
func (q *KafkaQueue) Enqueue(ctx context.Context, operation *core.WriteOperation) error {
	q.mu.RLock()
	closed := q.closed
	q.mu.RUnlock()
	if closed {
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

	message := kafka.Message{
		Key:   []byte(operation.Table),
		Value: data,
		Time:  operation.Timestamp,
		Headers: []kafka.Header{
			{Key: "operation", Value: []byte(operation.Operation)},
			{Key: "table", Value: []byte(operation.Table)},
		},
	}

	start := time.Now()
	if err := q.writer.WriteMessages(ctx, message); err != nil {
		log.Printf("[KAFKA] ERROR: Failed to produce %s on %s to %s: %v", operation.Operation, operation.Table, q.topic, err)
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}

	q.mu.Lock()
	q.size++
	q.mu.Unlock()
	log.Printf("[KAFKA] Produced %s on %s (%d bytes, %v)", operation.Operation, operation.Table, len(data), time.Since(start))
	return nil
}

// Dequeue reads up to batchSize messages, committing each offset once the
// message is decoded.
func (q *KafkaQueue) Dequeue(ctx context.Context, batchSize int) ([]*core.WriteOperation, error) {
	q.mu.RLock()
	closed := q.closed
	q.mu.RUnlock()
	if closed {
		return nil, ErrQueueClosed
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	operations := make([]*core.WriteOperation, 0, batchSize)
	for len(operations) < batchSize {
		readCtx, cancel := context.WithTimeout(ctx, q.pollTimeout)
		message, err := q.reader.FetchMessage(readCtx)
		cancel()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				break
			}
			log.Printf("[KAFKA] ERROR: Failed to read from %s: %v", q.topic, err)
			break
		}

		var op core.WriteOperation
		if err := json.Unmarshal(message.Value, &op); err != nil {
			log.Printf("[KAFKA] WARNING: skipping undecodable message at partition %d offset %d: %v",
				message.Partition, message.Offset, err)
		} else {
			operations = append(operations, &op)
		}

		// TODO: commit after the drainer has applied the operation instead of on decode.
		if err := q.reader.CommitMessages(ctx, message); err != nil {
			log.Printf("[KAFKA] WARNING: Failed to commit offset %d on partition %d: %v",
				message.Offset, message.Partition, err)
		}
	}

	if len(operations) > 0 {
		log.Printf("[KAFKA] Consumed %d operations from %s (group %s)", len(operations), q.topic, q.groupID)
		q.mu.Lock()
		q.size -= len(operations)
		if q.size < 0 {
			q.size = 0
		}
		q.mu.Unlock()
	}
	return operations, nil
}

// Size returns an approximate number of pending operations. Kafka does not
// expose an exact count.
func (q *KafkaQueue) Size() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.size
}

// Close closes the writer and the reader.
func (q *KafkaQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true

	if err := q.writer.Close(); err != nil {
		log.Printf("[KAFKA] ERROR: Failed to close writer: %v", err)
	}
	return q.reader.Close()
}
