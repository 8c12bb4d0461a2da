package snapshot

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rzpsarthak13/rowcache/internal/core"
	"github.com/rzpsarthak13/rowcache/internal/kvstore"
	"github.com/rzpsarthak13/rowcache/internal/registry"
	"github.com/rzpsarthak13/rowcache/internal/rowset"
	"github.com/rzpsarthak13/rowcache/internal/source"
)

var created = time.Date(2024, 3, 1, 12, 30, 0, 500, time.UTC)

func sampleRowSet(t *testing.T) *rowset.RowSet {
	t.Helper()
	cols := []core.Column{
		{Name: "id", Type: "INTEGER", TableName: "accounts"},
		{Name: "name", Type: "VARCHAR", Nullable: true, Precision: 64},
		{Name: "balance", Type: "DOUBLE", Nullable: true},
		{Name: "active", Type: "BOOLEAN", Nullable: true},
		{Name: "avatar", Type: "BLOB", Nullable: true},
		{Name: "created", Type: "TIMESTAMP", Nullable: true},
	}
	src, err := source.NewMemory(cols, [][]interface{}{
		{int64(1), "ann", 10.5, true, []byte{0, 1, 2}, created},
		{int64(2), " bob <b> & co ", -3.25, false, nil, created.Add(time.Hour)},
		{int64(3), "", 0.0, nil, []byte{}, nil},
	})
	if err != nil {
		t.Fatal(err)
	}
	rs, err := rowset.New(rowset.WithTableName("accounts"), rowset.WithPageSize(0))
	if err != nil {
		t.Fatal(err)
	}
	if err := rs.Populate(src); err != nil {
		t.Fatal(err)
	}
	if err := rs.SetMatchColumnNames("id"); err != nil {
		t.Fatal(err)
	}
	return rs
}

func mutate(t *testing.T, rs *rowset.RowSet) {
	t.Helper()
	if _, err := rs.Absolute(2); err != nil {
		t.Fatal(err)
	}
	if err := rs.UpdateObjectByName("name", "robert"); err != nil {
		t.Fatal(err)
	}
	if err := rs.UpdateRow(); err != nil {
		t.Fatal(err)
	}
	if _, err := rs.Absolute(3); err != nil {
		t.Fatal(err)
	}
	if err := rs.DeleteRow(); err != nil {
		t.Fatal(err)
	}
	if err := rs.MoveToInsertRow(); err != nil {
		t.Fatal(err)
	}
	if err := rs.UpdateObject(1, int64(4)); err != nil {
		t.Fatal(err)
	}
	if err := rs.InsertRow(); err != nil {
		t.Fatal(err)
	}
	if _, err := rs.Absolute(2); err != nil {
		t.Fatal(err)
	}
}

func sameValue(a, b interface{}) bool {
	switch av := a.(type) {
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Equal(bv)
	case []byte:
		bv, ok := b.([]byte)
		return ok && bytes.Equal(av, bv)
	default:
		return a == b
	}
}

func sameValues(t *testing.T, what string, got, want []interface{}) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: %d values, want %d", what, len(got), len(want))
	}
	for i := range want {
		if !sameValue(got[i], want[i]) {
			t.Errorf("%s[%d] = %#v (%T), want %#v (%T)", what, i, got[i], got[i], want[i], want[i])
		}
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	rs := sampleRowSet(t)
	mutate(t, rs)
	want := rs.Snapshot()

	var buf bytes.Buffer
	if err := Write(&buf, want); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v\n%s", err, buf.String())
	}

	if !reflect.DeepEqual(got.Properties, want.Properties) {
		t.Errorf("properties = %+v, want %+v", got.Properties, want.Properties)
	}
	if !reflect.DeepEqual(got.Columns, want.Columns) {
		t.Errorf("columns = %+v, want %+v", got.Columns, want.Columns)
	}
	if got.Position != want.Position {
		t.Errorf("position = %d, want %d", got.Position, want.Position)
	}
	if len(got.Rows) != len(want.Rows) {
		t.Fatalf("rows = %d, want %d", len(got.Rows), len(want.Rows))
	}
	for i := range want.Rows {
		g, w := got.Rows[i], want.Rows[i]
		sameValues(t, "original", g.Original, w.Original)
		sameValues(t, "current", g.Current, w.Current)
		if !reflect.DeepEqual(g.Changed, w.Changed) {
			t.Errorf("row %d changed = %v, want %v", i+1, g.Changed, w.Changed)
		}
		if g.Inserted != w.Inserted || g.Updated != w.Updated || g.Deleted != w.Deleted {
			t.Errorf("row %d flags = %v/%v/%v, want %v/%v/%v", i+1,
				g.Inserted, g.Updated, g.Deleted, w.Inserted, w.Updated, w.Deleted)
		}
	}

	restored, err := rowset.FromSnapshot(got)
	if err != nil {
		t.Fatalf("FromSnapshot: %v", err)
	}
	if restored.Row() != rs.Row() {
		t.Errorf("restored Row() = %d, want %d", restored.Row(), rs.Row())
	}
	if len(restored.Changes()) != len(rs.Changes()) {
		t.Errorf("restored changes = %d, want %d", len(restored.Changes()), len(rs.Changes()))
	}
	name, err := restored.GetStringByName("name")
	if err != nil || name != "robert" {
		t.Errorf("name = %q, %v", name, err)
	}
}

func TestReadRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not xml", "<rowset"},
		{"wrong root", `<rows version="1"><properties/></rows>`},
		{"wrong version", `<rowset version="9"><properties/></rowset>`},
		{"no properties", `<rowset version="1"></rowset>`},
		{"bad position", `<rowset version="1"><properties><position>x</position></properties></rowset>`},
		{"width mismatch", `<rowset version="1"><properties/>
			<metadata><column name="a" type="INT"/><column name="b" type="INT"/></metadata>
			<data><row><col><original type="null"/><current type="null"/></col></row></data></rowset>`},
		{"unknown type", `<rowset version="1"><properties/>
			<metadata><column name="a" type="INT"/></metadata>
			<data><row><col><original type="decimal">1</original><current type="null"/></col></row></data></rowset>`},
		{"bad int", `<rowset version="1"><properties/>
			<metadata><column name="a" type="INT"/></metadata>
			<data><row><col><original type="int64">one</original><current type="null"/></col></row></data></rowset>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.doc))
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("Read = %v, want ErrMalformed", err)
			}
		})
	}
}

func TestValueTypesRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
	}{
		{"int", int(7)},
		{"int8", int8(-8)},
		{"int16", int16(300)},
		{"int32", int32(-70000)},
		{"int64", int64(1 << 40)},
		{"uint", uint(9)},
		{"uint8", uint8(255)},
		{"uint16", uint16(65535)},
		{"uint32", uint32(1 << 31)},
		{"uint64 max", uint64(18446744073709551615)},
		{"float32", float32(1.5)},
		{"float64", 0.1},
		{"nul byte", "a\x00b"},
		{"invalid utf8", "caf\xe9"},
		{"control char", "bell\x07"},
		{"newlines", "line1\r\nline2\ttab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := &rowset.Snapshot{
				Columns: []core.Column{{Name: "v", Type: "ANY", Nullable: true}},
				Rows: []rowset.SnapshotRow{{
					Original: []interface{}{tt.value},
					Current:  []interface{}{tt.value},
					Changed:  []bool{false},
				}},
			}
			var buf bytes.Buffer
			if err := Write(&buf, snap); err != nil {
				t.Fatalf("Write: %v", err)
			}
			got, err := Read(&buf)
			if err != nil {
				t.Fatalf("Read: %v", err)
			}
			for _, v := range []interface{}{got.Rows[0].Original[0], got.Rows[0].Current[0]} {
				if !reflect.DeepEqual(v, tt.value) {
					t.Errorf("read back %#v (%T), want %#v (%T)", v, v, tt.value, tt.value)
				}
			}
		})
	}
}

func TestWriteRejectsUnsupportedValue(t *testing.T) {
	snap := &rowset.Snapshot{
		Columns: []core.Column{{Name: "v", Type: "ANY"}},
		Rows: []rowset.SnapshotRow{{
			Original: []interface{}{nil},
			Current:  []interface{}{struct{ X int }{1}},
			Changed:  []bool{true},
		}},
	}
	var buf bytes.Buffer
	if err := Write(&buf, snap); !errors.Is(err, ErrMalformed) {
		t.Errorf("Write = %v, want ErrMalformed", err)
	}
}

func TestWriteEmptyRowSet(t *testing.T) {
	rs, err := rowset.New()
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := Write(&buf, rs.Snapshot()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	snap, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(snap.Rows) != 0 || len(snap.Columns) != 0 || snap.Position != 0 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func newStore(t *testing.T) *Store {
	t.Helper()
	kv, err := kvstore.NewMemoryKVStore(registry.InternalMemoryConfig{})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { kv.Close() })
	return NewStore(kv, "test", time.Minute)
}

func TestStoreSaveLoad(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	rs := sampleRowSet(t)
	mutate(t, rs)

	name, err := store.SaveRowSet(ctx, "", rs)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(name) != 36 {
		t.Errorf("generated name %q is not a UUID", name)
	}
	if store.Key(name) != "test:rowset:"+name {
		t.Errorf("Key = %q", store.Key(name))
	}

	loaded, err := store.LoadRowSet(ctx, name)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Size() != rs.Size() || loaded.Row() != rs.Row() {
		t.Errorf("loaded size/row = %d/%d, want %d/%d", loaded.Size(), loaded.Row(), rs.Size(), rs.Row())
	}
	if loaded.TableName() != "accounts" {
		t.Errorf("TableName = %q", loaded.TableName())
	}

	if err := store.Delete(ctx, name); err != nil {
		t.Fatal(err)
	}
	if ok, _ := store.Exists(ctx, name); ok {
		t.Error("snapshot still exists after Delete")
	}
	if _, err := store.Load(ctx, name); !errors.Is(err, core.ErrKeyNotFound) {
		t.Errorf("Load after Delete = %v, want ErrKeyNotFound", err)
	}
}

func TestStoreConcurrentLoads(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	if _, err := store.SaveRowSet(ctx, "shared", sampleRowSet(t)); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap, err := store.Load(ctx, "shared")
			if err == nil && len(snap.Rows) != 3 {
				err = errors.New("wrong row count")
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Error(err)
		}
	}
}
