package syncprovider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rzpsarthak13/rowcache/internal/core"
	"github.com/rzpsarthak13/rowcache/internal/database"
	"github.com/rzpsarthak13/rowcache/internal/rowset"
	"github.com/rzpsarthak13/rowcache/internal/source"
	"github.com/rzpsarthak13/rowcache/internal/writeback"
)

func openUsers(t *testing.T) *database.SQLiteDatabase {
	t.Helper()
	db, err := database.NewSQLiteDatabase(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	for _, stmt := range []string{
		`CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL, email TEXT)`,
		`INSERT INTO users (id, name, email) VALUES (1, 'ann', 'ann@example.com')`,
		`INSERT INTO users (id, name, email) VALUES (2, 'bob', NULL)`,
	} {
		if _, err := db.Exec(ctx, stmt); err != nil {
			t.Fatalf("%s: %v", stmt, err)
		}
	}
	return db
}

func loadUsers(t *testing.T, db core.Database, provider core.SyncProvider) *rowset.RowSet {
	t.Helper()
	src, err := source.NewSQL(context.Background(), db, `SELECT id, name, email FROM users ORDER BY id`)
	if err != nil {
		t.Fatalf("NewSQL: %v", err)
	}
	rs, err := rowset.New(rowset.WithTableName("users"), rowset.WithSyncProvider(provider))
	if err != nil {
		t.Fatalf("rowset.New: %v", err)
	}
	if err := rs.Populate(src); err != nil {
		t.Fatalf("Populate: %v", err)
	}
	if err := rs.SetMatchColumnNames("id"); err != nil {
		t.Fatalf("SetMatchColumnNames: %v", err)
	}
	return rs
}

func names(t *testing.T, db core.Database) []string {
	t.Helper()
	rows, err := db.Query(context.Background(), `SELECT name FROM users ORDER BY id`)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("scan: %v", err)
		}
		out = append(out, name)
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// mustMove returns a check that fails the test unless the move landed on a row.
func mustMove(t *testing.T) func(bool, error) {
	return func(ok bool, err error) {
		t.Helper()
		if err != nil || !ok {
			t.Fatalf("move: %v, %v", ok, err)
		}
	}
}

func TestSQLAcceptChangesWritesAllKinds(t *testing.T) {
	db := openUsers(t)
	rs := loadUsers(t, db, NewSQL(db))

	mustMove(t)(rs.Absolute(1))
	if err := rs.UpdateObjectByName("name", "anna"); err != nil {
		t.Fatal(err)
	}
	if err := rs.UpdateRow(); err != nil {
		t.Fatal(err)
	}

	mustMove(t)(rs.Absolute(2))
	if err := rs.DeleteRow(); err != nil {
		t.Fatal(err)
	}

	if err := rs.MoveToInsertRow(); err != nil {
		t.Fatal(err)
	}
	for col, v := range []interface{}{int64(3), "cat", nil} {
		if err := rs.UpdateObject(col+1, v); err != nil {
			t.Fatal(err)
		}
	}
	if err := rs.InsertRow(); err != nil {
		t.Fatal(err)
	}
	rs.MoveToCurrentRow()

	if err := rs.AcceptChanges(context.Background()); err != nil {
		t.Fatalf("AcceptChanges: %v", err)
	}

	if got := names(t, db); !equal(got, []string{"anna", "cat"}) {
		t.Errorf("database names = %v", got)
	}
	if rs.Size() != 2 || rs.DeletedCount() != 0 {
		t.Errorf("Size = %d, DeletedCount = %d", rs.Size(), rs.DeletedCount())
	}
	if len(rs.Changes()) != 0 {
		t.Errorf("changes left after accept: %+v", rs.Changes())
	}
}

func TestSQLConflictLeavesBothSidesUntouched(t *testing.T) {
	db := openUsers(t)
	rs := loadUsers(t, db, NewSQL(db))

	mustMove(t)(rs.Absolute(1))
	if err := rs.DeleteRow(); err != nil {
		t.Fatal(err)
	}
	mustMove(t)(rs.First())
	if err := rs.UpdateObjectByName("name", "bobby"); err != nil {
		t.Fatal(err)
	}
	if err := rs.UpdateRow(); err != nil {
		t.Fatal(err)
	}

	// Someone else deletes row 2 first.
	if _, err := db.Exec(context.Background(), `DELETE FROM users WHERE id = 2`); err != nil {
		t.Fatal(err)
	}

	err := rs.AcceptChanges(context.Background())
	if !errors.Is(err, core.ErrSyncConflict) {
		t.Fatalf("AcceptChanges = %v, want ErrSyncConflict", err)
	}

	if got := names(t, db); !equal(got, []string{"ann"}) {
		t.Errorf("delete of row 1 was not rolled back: %v", got)
	}
	if len(rs.Changes()) != 2 {
		t.Errorf("row set changes = %d, want 2", len(rs.Changes()))
	}
	if rs.Position() != 2 {
		t.Errorf("cursor position = %d, want 2", rs.Position())
	}
	if v, _ := rs.GetStringByName("name"); v != "bobby" {
		t.Errorf("name = %q, want bobby", v)
	}
}

func TestSQLUnchangedUpdateIsNotConflict(t *testing.T) {
	db := openUsers(t)
	rs := loadUsers(t, db, NewSQL(db))

	mustMove(t)(rs.First())
	if err := rs.UpdateObjectByName("name", "ann"); err != nil {
		t.Fatal(err)
	}
	if err := rs.UpdateRow(); err != nil {
		t.Fatal(err)
	}
	if len(rs.Changes()) != 1 {
		t.Fatalf("changes = %d, want 1", len(rs.Changes()))
	}

	if err := rs.AcceptChanges(context.Background()); err != nil {
		t.Fatalf("AcceptChanges = %v, want nil", err)
	}
	if got := names(t, db); !equal(got, []string{"ann", "bob"}) {
		t.Errorf("database names = %v", got)
	}
}

func TestSQLDuplicateInsertIsConflict(t *testing.T) {
	db := openUsers(t)
	rs := loadUsers(t, db, NewSQL(db))

	if err := rs.MoveToInsertRow(); err != nil {
		t.Fatal(err)
	}
	if err := rs.UpdateObject(1, int64(1)); err != nil {
		t.Fatal(err)
	}
	if err := rs.UpdateObject(2, "dup"); err != nil {
		t.Fatal(err)
	}
	if err := rs.InsertRow(); err != nil {
		t.Fatal(err)
	}
	rs.MoveToCurrentRow()

	if err := rs.AcceptChanges(context.Background()); !errors.Is(err, core.ErrSyncConflict) {
		t.Fatalf("AcceptChanges = %v, want ErrSyncConflict", err)
	}
}

func TestSQLFailureWrapsCause(t *testing.T) {
	db := openUsers(t)
	rs := loadUsers(t, db, NewSQL(db))

	if _, err := db.Exec(context.Background(), `DROP TABLE users`); err != nil {
		t.Fatal(err)
	}
	mustMove(t)(rs.First())
	if err := rs.DeleteRow(); err != nil {
		t.Fatal(err)
	}

	err := rs.AcceptChanges(context.Background())
	if !errors.Is(err, core.ErrSyncFailure) {
		t.Fatalf("AcceptChanges = %v, want ErrSyncFailure", err)
	}
	if rs.DeletedCount() != 1 {
		t.Errorf("DeletedCount = %d, want 1", rs.DeletedCount())
	}
}

func TestQueueProviderEnqueuesOperations(t *testing.T) {
	db := openUsers(t)
	queue := writeback.NewMemoryQueue(10)
	rs := loadUsers(t, db, NewQueue(queue, nil))

	mustMove(t)(rs.First())
	if err := rs.UpdateObjectByName("email", nil); err != nil {
		t.Fatal(err)
	}
	if err := rs.UpdateRow(); err != nil {
		t.Fatal(err)
	}
	mustMove(t)(rs.Next())
	if err := rs.DeleteRow(); err != nil {
		t.Fatal(err)
	}

	if err := rs.AcceptChanges(context.Background()); err != nil {
		t.Fatalf("AcceptChanges: %v", err)
	}

	ops, err := queue.Dequeue(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(ops) != 2 {
		t.Fatalf("queued %d operations, want 2", len(ops))
	}

	update, del := ops[0], ops[1]
	if update.Operation != core.OperationUpdate || update.Key["id"] != int64(1) {
		t.Errorf("update op = %+v", update)
	}
	if v, ok := update.Data["email"]; !ok || v != nil || len(update.Data) != 1 {
		t.Errorf("update data = %v", update.Data)
	}
	if del.Operation != core.OperationDelete || del.Key["id"] != int64(2) || del.Data != nil {
		t.Errorf("delete op = %+v", del)
	}

	// Applying the queued operations reaches the same state as SQL would.
	exec := writeback.NewSQLExecutor(db)
	for _, op := range ops {
		if err := exec.Apply(context.Background(), op); err != nil {
			t.Fatalf("Apply %s: %v", op.Operation, err)
		}
	}
	if got := names(t, db); !equal(got, []string{"ann"}) {
		t.Errorf("database names = %v", got)
	}
}

func TestOperationsSkipsInsertedThenDeleted(t *testing.T) {
	src := fakeSource{
		columns: []core.Column{{Name: "id"}},
		changes: []core.RowChange{
			{Position: 1, Inserted: true, Deleted: true, Current: []interface{}{int64(9)}, Original: []interface{}{int64(9)}},
			{Position: 2, Updated: true, Current: []interface{}{int64(2)}, Original: []interface{}{int64(2)}},
		},
	}
	if ops := Operations(src, time.Now()); len(ops) != 0 {
		t.Errorf("got %d operations, want 0", len(ops))
	}
}

type fakeSource struct {
	columns []core.Column
	changes []core.RowChange
}

func (f fakeSource) TableName() string         { return "t" }
func (f fakeSource) Columns() []core.Column    { return f.columns }
func (f fakeSource) KeyColumns() []int         { return nil }
func (f fakeSource) Changes() []core.RowChange { return f.changes }
