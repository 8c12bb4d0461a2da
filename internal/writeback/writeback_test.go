package writeback

import (
	"context"
	"errors"
	"testing"

	"github.com/rzpsarthak13/rowcache/internal/core"
	"github.com/rzpsarthak13/rowcache/internal/database"
	"github.com/rzpsarthak13/rowcache/internal/kvstore"
	"github.com/rzpsarthak13/rowcache/internal/registry"
)

var testColumns = []core.Column{
	{Name: "id", Type: "INTEGER", Nullable: false},
	{Name: "name", Type: "TEXT", Nullable: false},
	{Name: "email", Type: "TEXT", Nullable: true},
}

func TestMemoryQueueFIFO(t *testing.T) {
	q := NewMemoryQueue(2)
	ctx := context.Background()

	for _, table := range []string{"a", "b"} {
		if err := q.Enqueue(ctx, &core.WriteOperation{Table: table, Operation: core.OperationDelete}); err != nil {
			t.Fatalf("Enqueue %s: %v", table, err)
		}
	}
	if err := q.Enqueue(ctx, &core.WriteOperation{Table: "c"}); !errors.Is(err, ErrQueueFull) {
		t.Errorf("third Enqueue: %v, want ErrQueueFull", err)
	}
	if q.Size() != 2 {
		t.Errorf("Size = %d, want 2", q.Size())
	}

	ops, err := q.Dequeue(ctx, 10)
	if err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	if len(ops) != 2 || ops[0].Table != "a" || ops[1].Table != "b" {
		t.Errorf("Dequeue order wrong: %+v", ops)
	}

	q.Close()
	if err := q.Enqueue(ctx, &core.WriteOperation{Table: "d"}); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("Enqueue after close: %v", err)
	}
}

func TestRedisQueueNeedsListOperations(t *testing.T) {
	store, err := kvstore.NewMemoryKVStore(registry.InternalMemoryConfig{})
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	defer store.Close()

	if _, err := NewRedisQueue(store, ""); !errors.Is(err, ErrListOperationsNotSupported) {
		t.Errorf("NewRedisQueue on memory store: %v", err)
	}
}

func TestWALAppendAcknowledge(t *testing.T) {
	store, err := kvstore.NewMemoryKVStore(registry.InternalMemoryConfig{})
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	defer store.Close()

	wal := NewWAL(store, "")
	ctx := context.Background()

	op := &core.WriteOperation{
		Table:     "users",
		Operation: core.OperationUpdate,
		Key:       map[string]interface{}{"id": int64(1)},
		Data:      map[string]interface{}{"name": "bob"},
	}
	if err := wal.Append(ctx, op); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if op.ID == "" || op.Timestamp.IsZero() {
		t.Fatal("Append should assign ID and timestamp")
	}

	got, err := wal.Get(ctx, "users", op.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Operation != core.OperationUpdate || got.Data["name"] != "bob" {
		t.Errorf("Get = %+v", got)
	}

	acked, _ := wal.IsAcknowledged(ctx, "users", op.ID)
	if acked {
		t.Error("operation acknowledged before Acknowledge")
	}
	if err := wal.Acknowledge(ctx, "users", op.ID); err != nil {
		t.Fatalf("Acknowledge: %v", err)
	}
	acked, _ = wal.IsAcknowledged(ctx, "users", op.ID)
	if !acked {
		t.Error("operation not acknowledged")
	}

	if _, err := wal.Get(ctx, "users", "missing"); !errors.Is(err, core.ErrKeyNotFound) {
		t.Errorf("Get missing: %v", err)
	}
}

func TestOperationValidator(t *testing.T) {
	v := NewOperationValidator(testColumns)

	tests := []struct {
		name    string
		op      *core.WriteOperation
		wantErr error
	}{
		{
			name: "valid create",
			op: &core.WriteOperation{Table: "users", Operation: core.OperationCreate,
				Data: map[string]interface{}{"id": int64(1), "name": "ann", "email": nil}},
		},
		{
			name: "create missing required column",
			op: &core.WriteOperation{Table: "users", Operation: core.OperationCreate,
				Data: map[string]interface{}{"id": int64(1)}},
			wantErr: core.ErrIncompleteInsertRow,
		},
		{
			name: "update without key",
			op: &core.WriteOperation{Table: "users", Operation: core.OperationUpdate,
				Data: map[string]interface{}{"name": "x"}},
			wantErr: ErrInvalidOperation,
		},
		{
			name: "update with wrong type",
			op: &core.WriteOperation{Table: "users", Operation: core.OperationUpdate,
				Key:  map[string]interface{}{"id": int64(1)},
				Data: map[string]interface{}{"id": "not a number"}},
			wantErr: ErrInvalidOperation,
		},
		{
			name: "delete with unknown key column",
			op: &core.WriteOperation{Table: "users", Operation: core.OperationDelete,
				Key: map[string]interface{}{"uuid": "x"}},
			wantErr: ErrInvalidOperation,
		},
		{
			name:    "unknown operation",
			op:      &core.WriteOperation{Table: "users", Operation: "UPSERT"},
			wantErr: ErrInvalidOperation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.op)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSQLExecutorApply(t *testing.T) {
	db, err := database.NewSQLiteDatabase(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	ctx := context.Background()
	if _, err := db.Exec(ctx, `CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL, email TEXT)`); err != nil {
		t.Fatalf("create: %v", err)
	}

	exec := NewSQLExecutor(db)
	create := &core.WriteOperation{Table: "users", Operation: core.OperationCreate,
		Data: map[string]interface{}{"id": int64(1), "name": "ann"}}
	if err := exec.Apply(ctx, create); err != nil {
		t.Fatalf("create: %v", err)
	}

	update := &core.WriteOperation{Table: "users", Operation: core.OperationUpdate,
		Key:  map[string]interface{}{"id": int64(1), "name": "ann"},
		Data: map[string]interface{}{"name": "bob"}}
	if err := exec.Apply(ctx, update); err != nil {
		t.Fatalf("update: %v", err)
	}

	// The same update again no longer matches: name is now bob.
	if err := exec.Apply(ctx, update); !errors.Is(err, ErrStaleWrite) {
		t.Errorf("stale update: %v, want ErrStaleWrite", err)
	}

	del := &core.WriteOperation{Table: "users", Operation: core.OperationDelete,
		Key: map[string]interface{}{"id": int64(1)}}
	if err := exec.Apply(ctx, del); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := exec.Apply(ctx, del); !errors.Is(err, ErrStaleWrite) {
		t.Errorf("second delete: %v, want ErrStaleWrite", err)
	}
}
