package rowcache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/rzpsarthak13/rowcache/internal/core"
	"github.com/rzpsarthak13/rowcache/internal/writeback"
)

// Drainer handles background write-back operations from queue to database.
// It reads the operations queued by AcceptChanges and applies them at a
// controlled rate to protect the database from being overwhelmed.
type Drainer struct {
	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	name     string
	queue    core.WriteBackQueue
	executor Executor
	wal      *writeback.WAL
	config   DrainerConfig

	applied atomic.Int64
	failed  atomic.Int64
}

// Executor applies one write operation to the database.
// writeback.SQLExecutor is the implementation used by Client.
type Executor interface {
	Apply(ctx context.Context, operation *core.WriteOperation) error
}

// DrainerConfig contains configuration for the drainer.
type DrainerConfig struct {
	// DrainRate is the maximum number of DB writes per second.
	// Example: DrainRate=100 means 100 DB writes per second (1 write every 10ms).
	DrainRate int

	// BatchSize is how many operations to dequeue at once.
	BatchSize int

	// PollInterval is how long to wait before polling an empty queue again.
	PollInterval time.Duration

	// MaxRetries is the maximum number of retries for failed operations.
	MaxRetries int

	// RetryBackoff is the base duration for exponential backoff retries.
	RetryBackoff time.Duration

	// RetryBackoffMax caps the backoff between retries.
	RetryBackoffMax time.Duration
}

// DefaultDrainerConfig returns sensible defaults for the drainer.
func DefaultDrainerConfig() DrainerConfig {
	return DrainerConfig{
		DrainRate:       50, // 50 DB writes per second
		BatchSize:       10,
		PollInterval:    100 * time.Millisecond,
		MaxRetries:      3,
		RetryBackoff:    1 * time.Second,
		RetryBackoffMax: 30 * time.Second,
	}
}

// NewDrainer creates a new drainer instance. wal may be nil; when set,
// every applied operation is acknowledged in it.
func NewDrainer(name string, queue core.WriteBackQueue, executor Executor, wal *writeback.WAL, config DrainerConfig) *Drainer {
	defaults := DefaultDrainerConfig()
	if config.DrainRate <= 0 {
		config.DrainRate = defaults.DrainRate
	}
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}
	if config.PollInterval <= 0 {
		config.PollInterval = defaults.PollInterval
	}
	if config.RetryBackoff <= 0 {
		config.RetryBackoff = defaults.RetryBackoff
	}
	if config.RetryBackoffMax < config.RetryBackoff {
		config.RetryBackoffMax = config.RetryBackoff
	}

	return &Drainer{
		name:     name,
		queue:    queue,
		executor: executor,
		wal:      wal,
		config:   config,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the drainer goroutine.
// This is non-blocking - the drainer runs in a separate goroutine.
// Call Stop() to gracefully shut down the drainer.
func (d *Drainer) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		log.Printf("[DRAINER:%s] Already running", d.name)
		return nil
	}
	d.running = true
	// Reset channels for restart capability
	d.stopCh = make(chan struct{})
	d.doneCh = make(chan struct{})
	d.mu.Unlock()

	go d.run(ctx)
	log.Printf("[DRAINER:%s] Started with drain rate: %d ops/sec", d.name, d.config.DrainRate)
	return nil
}

// Stop gracefully stops the drainer.
// It waits for the current operation to complete before returning.
func (d *Drainer) Stop() error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return nil
	}
	d.running = false
	d.mu.Unlock()

	log.Printf("[DRAINER:%s] Stopping...", d.name)
	close(d.stopCh)
	<-d.doneCh // Wait for goroutine to finish
	log.Printf("[DRAINER:%s] Stopped", d.name)
	return nil
}

// IsRunning returns whether the drainer is currently running.
func (d *Drainer) IsRunning() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.running
}

// QueueSize returns the current size of the write-back queue.
func (d *Drainer) QueueSize() int {
	if d.queue == nil {
		return 0
	}
	return d.queue.Size()
}

// Applied returns the number of operations written so far.
func (d *Drainer) Applied() int64 { return d.applied.Load() }

// Failed returns the number of operations dropped after their retries ran
// out or because they no longer matched a row.
func (d *Drainer) Failed() int64 { return d.failed.Load() }

// GetConfig returns the drainer configuration.
func (d *Drainer) GetConfig() DrainerConfig {
	return d.config
}

// run is the main drainer loop. Every operation waits for a token, so the
// database sees at most DrainRate writes per second.
func (d *Drainer) run(ctx context.Context) {
	defer close(d.doneCh)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-d.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	limiter := rate.NewLimiter(rate.Limit(d.config.DrainRate), 1)

	log.Printf("[DRAINER:%s] Worker started - Rate: %d ops/sec, Poll interval: %v",
		d.name, d.config.DrainRate, d.config.PollInterval)

	startTime := time.Now()
	defer func() {
		log.Printf("[DRAINER:%s] Exiting, applied %d and dropped %d operations in %v",
			d.name, d.Applied(), d.Failed(), time.Since(startTime))
	}()

	for {
		operations, err := d.queue.Dequeue(ctx, d.config.BatchSize)
		if err != nil && ctx.Err() == nil {
			log.Printf("[DRAINER:%s] Dequeue error: %v", d.name, err)
		}

		for _, op := range operations {
			if op == nil {
				continue
			}
			if err := limiter.Wait(ctx); err != nil {
				log.Printf("[DRAINER:%s] Stopped with operation %s unapplied", d.name, op.ID)
				return
			}
			d.process(ctx, op)
		}

		if ctx.Err() != nil {
			return
		}
		if len(operations) == 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(d.config.PollInterval):
			}
		}
	}
}

// process applies one operation, retrying failures with exponential
// backoff. A stale write is dropped at once: retrying cannot make it match.
func (d *Drainer) process(ctx context.Context, op *core.WriteOperation) {
	backoff := d.config.RetryBackoff
	for attempt := 0; ; attempt++ {
		writeStart := time.Now()
		err := d.executor.Apply(ctx, op)
		if err == nil {
			d.applied.Add(1)
			log.Printf("[DRAINER:%s] Applied %s on %s key %v (duration: %v)",
				d.name, op.Operation, op.Table, op.Key, time.Since(writeStart))
			d.acknowledge(ctx, op)
			return
		}

		if errors.Is(err, writeback.ErrStaleWrite) || errors.Is(err, writeback.ErrInvalidOperation) {
			d.failed.Add(1)
			log.Printf("[DRAINER:%s] ERROR: Dropping %s on %s: %v", d.name, op.Operation, op.Table, err)
			return
		}
		if attempt >= d.config.MaxRetries {
			d.failed.Add(1)
			log.Printf("[DRAINER:%s] ERROR: Giving up on %s on %s after %d attempts: %v",
				d.name, op.Operation, op.Table, attempt+1, err)
			return
		}

		op.RetryCount++
		log.Printf("[DRAINER:%s] Write failed (attempt %d), retrying in %v: %v", d.name, attempt+1, backoff, err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > d.config.RetryBackoffMax {
			backoff = d.config.RetryBackoffMax
		}
	}
}

func (d *Drainer) acknowledge(ctx context.Context, op *core.WriteOperation) {
	if d.wal == nil || op.ID == "" {
		return
	}
	if err := d.wal.Acknowledge(ctx, op.Table, op.ID); err != nil {
		log.Printf("[DRAINER:%s] Failed to acknowledge %s in WAL: %v", d.name, op.ID, err)
	}
}

// DrainerManager manages multiple drainers, one per queue.
type DrainerManager struct {
	mu       sync.RWMutex
	drainers map[string]*Drainer
	config   DrainerConfig
}

// NewDrainerManager creates a new drainer manager.
func NewDrainerManager(config DrainerConfig) *DrainerManager {
	return &DrainerManager{
		drainers: make(map[string]*Drainer),
		config:   config,
	}
}

// AddDrainer adds a drainer for a queue under name, returning the existing
// one when name is taken.
func (dm *DrainerManager) AddDrainer(name string, queue core.WriteBackQueue, executor Executor, wal *writeback.WAL) *Drainer {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if existing, ok := dm.drainers[name]; ok {
		return existing
	}

	drainer := NewDrainer(name, queue, executor, wal, dm.config)
	dm.drainers[name] = drainer
	return drainer
}

// GetDrainer returns the drainer registered under name.
func (dm *DrainerManager) GetDrainer(name string) *Drainer {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.drainers[name]
}

// StartAll starts all drainers.
func (dm *DrainerManager) StartAll(ctx context.Context) error {
	dm.mu.RLock()
	defer dm.mu.RUnlock()

	for name, drainer := range dm.drainers {
		if err := drainer.Start(ctx); err != nil {
			return fmt.Errorf("failed to start drainer %s: %w", name, err)
		}
	}
	return nil
}

// StopAll stops all drainers concurrently and waits for each to finish its
// current operation.
func (dm *DrainerManager) StopAll() error {
	dm.mu.RLock()
	defer dm.mu.RUnlock()

	var g errgroup.Group
	for _, drainer := range dm.drainers {
		g.Go(drainer.Stop)
	}
	return g.Wait()
}

// RemoveDrainer removes and stops a drainer.
func (dm *DrainerManager) RemoveDrainer(name string) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	drainer, ok := dm.drainers[name]
	if !ok {
		return nil
	}

	if err := drainer.Stop(); err != nil {
		return err
	}

	delete(dm.drainers, name)
	return nil
}

// Count returns the number of drainers.
func (dm *DrainerManager) Count() int {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return len(dm.drainers)
}
