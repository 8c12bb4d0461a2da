package rowset_test

import (
	"fmt"
	"testing"

	"github.com/rzpsarthak13/rowcache/internal/core"
	"github.com/rzpsarthak13/rowcache/internal/rowset"
	"github.com/rzpsarthak13/rowcache/internal/source"
)

func userColumns() []core.Column {
	return []core.Column{
		{Name: "id", TableName: "users", Type: "INTEGER"},
		{Name: "name", TableName: "users", Type: "TEXT"},
		{Name: "email", TableName: "users", Type: "TEXT", Nullable: true},
	}
}

func userRecords(n int) [][]interface{} {
	records := make([][]interface{}, n)
	for i := range records {
		records[i] = []interface{}{int64(i + 1), fmt.Sprintf("user%d", i+1), nil}
	}
	return records
}

func newMemory(t *testing.T, n int) *source.Memory {
	t.Helper()
	src, err := source.NewMemory(userColumns(), userRecords(n))
	if err != nil {
		t.Fatal(err)
	}
	return src
}

func populated(t *testing.T, n int, opts ...rowset.Option) *rowset.RowSet {
	t.Helper()
	rs, err := rowset.New(opts...)
	if err != nil {
		t.Fatal(err)
	}
	if err := rs.Populate(newMemory(t, n)); err != nil {
		t.Fatal(err)
	}
	return rs
}

// must returns a check that fails the test on a move error and passes the
// move result through.
func must(t *testing.T) func(bool, error) bool {
	return func(ok bool, err error) bool {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
		return ok
	}
}

func currentID(t *testing.T, rs *rowset.RowSet) int64 {
	t.Helper()
	id, err := rs.GetInt64(1)
	if err != nil {
		t.Fatalf("GetInt64(1): %v", err)
	}
	return id
}

func firstID(t *testing.T, rs *rowset.RowSet) int64 {
	t.Helper()
	rows := rs.ToSlice()
	if len(rows) == 0 {
		t.Fatal("row set is empty")
	}
	return rows[0][0].(int64)
}
