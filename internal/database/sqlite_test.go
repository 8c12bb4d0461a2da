package database

import (
	"context"
	"testing"

	"github.com/rzpsarthak13/rowcache/internal/core"
)

func openTestDB(t *testing.T) *SQLiteDatabase {
	t.Helper()
	db, err := NewSQLiteDatabase(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	if _, err := db.Exec(ctx, `CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL, email TEXT)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	return db
}

func TestSQLiteSchema(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	schema, err := db.GetSchema(ctx, "users")
	if err != nil {
		t.Fatalf("GetSchema: %v", err)
	}
	if schema.PrimaryKey != "id" {
		t.Errorf("PrimaryKey = %q, want id", schema.PrimaryKey)
	}
	if len(schema.Columns) != 3 {
		t.Fatalf("got %d columns, want 3", len(schema.Columns))
	}
	if schema.Columns[1].Nullable {
		t.Error("name should not be nullable")
	}
	if !schema.Columns[2].Nullable {
		t.Error("email should be nullable")
	}

	tables, err := db.GetTables(ctx)
	if err != nil {
		t.Fatalf("GetTables: %v", err)
	}
	if len(tables) != 1 || tables[0] != "users" {
		t.Errorf("GetTables = %v", tables)
	}

	if _, err := db.GetSchema(ctx, "missing"); err == nil {
		t.Error("expected error for missing table")
	}
}

func TestSQLiteQueryColumns(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if _, err := db.Exec(ctx, `INSERT INTO users (id, name) VALUES (?, ?)`, 1, "ann"); err != nil {
		t.Fatalf("insert: %v", err)
	}

	rows, err := db.Query(ctx, `SELECT id, name, email FROM users`)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		t.Fatalf("Columns: %v", err)
	}
	names := []string{cols[0].Name, cols[1].Name, cols[2].Name}
	if names[0] != "id" || names[1] != "name" || names[2] != "email" {
		t.Errorf("column names = %v", names)
	}

	count := 0
	for rows.Next() {
		var id int64
		var name string
		var email interface{}
		if err := rows.Scan(&id, &name, &email); err != nil {
			t.Fatalf("scan: %v", err)
		}
		if id != 1 || name != "ann" || email != nil {
			t.Errorf("row = %d %q %v", id, name, email)
		}
		count++
	}
	if count != 1 {
		t.Errorf("got %d rows, want 1", count)
	}
}

func TestSQLiteConstraintViolation(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if _, err := db.Exec(ctx, `INSERT INTO users (id, name) VALUES (1, 'a')`); err != nil {
		t.Fatalf("insert: %v", err)
	}
	_, err := db.Exec(ctx, `INSERT INTO users (id, name) VALUES (1, 'b')`)
	if err == nil {
		t.Fatal("expected duplicate key error")
	}
	var checker core.ConstraintChecker = db
	if !checker.IsConstraintViolation(err) {
		t.Errorf("IsConstraintViolation(%v) = false", err)
	}
}

func TestSQLiteTransactionRollback(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	tx, err := db.BeginTx(ctx)
	if err != nil {
		t.Fatalf("BeginTx: %v", err)
	}
	if _, err := tx.Exec(ctx, `INSERT INTO users (id, name) VALUES (1, 'a')`); err != nil {
		t.Fatalf("tx exec: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("rollback: %v", err)
	}

	rows, err := db.Query(ctx, `SELECT id FROM users`)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer rows.Close()
	if rows.Next() {
		t.Error("rolled back insert is visible")
	}
}
