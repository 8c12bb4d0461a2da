package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rzpsarthak13/rowcache/internal/database"
	"github.com/rzpsarthak13/rowcache/pkg/rowcache"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	if err := Execute(); err != nil {
		t.Fatalf("rowcache %s: %v", strings.Join(args, " "), err)
	}
	return out.String()
}

func TestDumpInspectApply(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "app.db")
	ctx := context.Background()

	db, err := database.NewSQLiteDatabase(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	for _, stmt := range []string{
		`CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL)`,
		`INSERT INTO users VALUES (1, 'ann'), (2, 'bob')`,
	} {
		if _, err := db.Exec(ctx, stmt); err != nil {
			t.Fatal(err)
		}
	}

	cfgPath := filepath.Join(dir, "rowcache.yaml")
	cfg := "database:\n  type: sqlite\n  path: " + dbPath + "\nsync:\n  provider: sql\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o600); err != nil {
		t.Fatal(err)
	}

	snapPath := filepath.Join(dir, "users.xml")
	run(t, "dump", "-c", cfgPath, "-o", snapPath, "--table", "users", "--key", "id",
		"SELECT id, name FROM users WHERE id >= ? ORDER BY id", "1")

	// edit the dumped row set the way an offline client would
	snap, err := readSnapshot(snapPath)
	if err != nil {
		t.Fatal(err)
	}
	rs, err := rowcache.FromSnapshot(snap)
	if err != nil {
		t.Fatal(err)
	}
	if rs.Size() != 2 {
		t.Fatalf("dumped %d rows, want 2", rs.Size())
	}
	if _, err := rs.Absolute(1); err != nil {
		t.Fatal(err)
	}
	if err := rs.UpdateObjectByName("name", "anna"); err != nil {
		t.Fatal(err)
	}
	if err := rs.UpdateRow(); err != nil {
		t.Fatal(err)
	}
	if err := writeSnapshot(nil, snapPath, rs.Snapshot()); err != nil {
		t.Fatal(err)
	}

	out := run(t, "inspect", snapPath)
	for _, want := range []string{"table:      users", "updated 1", "ann -> anna"} {
		if !strings.Contains(out, want) {
			t.Errorf("inspect output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "bob") {
		t.Errorf("inspect listed an unchanged row without --all:\n%s", out)
	}

	out = run(t, "apply", "-c", cfgPath, snapPath)
	if !strings.Contains(out, "applied 1 changes") {
		t.Errorf("apply output = %q", out)
	}

	rows, err := db.Query(ctx, `SELECT name FROM users WHERE id = 1`)
	if err != nil {
		t.Fatal(err)
	}
	defer rows.Close()
	var name string
	if !rows.Next() {
		t.Fatal("row 1 missing")
	}
	if err := rows.Scan(&name); err != nil {
		t.Fatal(err)
	}
	if name != "anna" {
		t.Errorf("name = %q, want anna", name)
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   interface{}
		want string
	}{
		{nil, "NULL"},
		{[]byte("abc"), "<3 bytes>"},
		{int64(7), "7"},
		{"x", "x"},
	}
	for _, tt := range tests {
		if got := formatValue(tt.in); got != tt.want {
			t.Errorf("formatValue(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
