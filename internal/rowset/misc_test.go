package rowset_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/rzpsarthak13/rowcache/internal/core"
	"github.com/rzpsarthak13/rowcache/internal/rowset"
	"github.com/rzpsarthak13/rowcache/internal/source"
)

func TestMatchColumns(t *testing.T) {
	rs := populated(t, 2)

	if _, err := rs.MatchColumnIndexes(); !errors.Is(err, core.ErrConfiguration) {
		t.Errorf("MatchColumnIndexes with none set = %v", err)
	}
	if err := rs.SetMatchColumnIndexes(); !errors.Is(err, core.ErrConfiguration) {
		t.Errorf("SetMatchColumnIndexes() = %v", err)
	}
	if err := rs.SetMatchColumnIndexes(0); !errors.Is(err, core.ErrConfiguration) {
		t.Errorf("SetMatchColumnIndexes(0) = %v", err)
	}

	if err := rs.SetMatchColumnIndexes(1, 2); err != nil {
		t.Fatal(err)
	}
	got, err := rs.MatchColumnIndexes()
	if err != nil || !reflect.DeepEqual(got, []int{1, 2}) {
		t.Fatalf("MatchColumnIndexes = %v, %v", got, err)
	}
	if err := rs.SetMatchColumnIndexes(3); !errors.Is(err, core.ErrConfiguration) {
		t.Errorf("setting an occupied slot = %v", err)
	}
	if err := rs.SetMatchColumnNames("id"); !errors.Is(err, core.ErrConfiguration) {
		t.Errorf("mixing names into index slots = %v", err)
	}
	if _, err := rs.MatchColumnNames(); !errors.Is(err, core.ErrConfiguration) {
		t.Errorf("MatchColumnNames with indexes set = %v", err)
	}
	if err := rs.UnsetMatchColumnIndexes(2); !errors.Is(err, core.ErrConfiguration) {
		t.Errorf("unsetting a column not in its slot = %v", err)
	}
	if err := rs.UnsetMatchColumnIndexes(); !errors.Is(err, core.ErrConfiguration) {
		t.Errorf("UnsetMatchColumnIndexes() = %v", err)
	}
	if err := rs.UnsetMatchColumnIndexes(1, 2); err != nil {
		t.Fatal(err)
	}

	if err := rs.SetMatchColumnNames("id"); err != nil {
		t.Fatal(err)
	}
	names, err := rs.MatchColumnNames()
	if err != nil || !reflect.DeepEqual(names, []string{"id"}) {
		t.Fatalf("MatchColumnNames = %v, %v", names, err)
	}
	if err := rs.UnsetMatchColumnNames(); !errors.Is(err, core.ErrConfiguration) {
		t.Errorf("UnsetMatchColumnNames() = %v", err)
	}
	if err := rs.UnsetMatchColumnNames("id"); err != nil {
		t.Fatal(err)
	}
	if _, err := rs.MatchColumnNames(); err == nil {
		t.Error("match columns left after unset")
	}
}

func TestCopies(t *testing.T) {
	rs := populated(t, 3)
	if err := rs.SetMatchColumnNames("id"); err != nil {
		t.Fatal(err)
	}
	must(t)(rs.Absolute(2))

	t.Run("shared", func(t *testing.T) {
		shared := rs.CreateShared()
		if !shared.IsBeforeFirst() || shared.ID() == rs.ID() {
			t.Fatalf("shared handle: before first %v, same id %v", shared.IsBeforeFirst(), shared.ID() == rs.ID())
		}
		must(t)(shared.Absolute(2))
		updateName(t, shared, "bob")
		if name, _ := rs.GetString(2); name != "bob" {
			t.Errorf("parent sees name %q, want bob", name)
		}
		if err := shared.UndoUpdate(); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("copy", func(t *testing.T) {
		c := rs.CreateCopy()
		if c.Row() != 2 || currentID(t, c) != 2 {
			t.Fatalf("copy on row %d", c.Row())
		}
		updateName(t, c, "carl")
		if name, _ := rs.GetString(2); name != "user2" {
			t.Errorf("parent sees name %q, want user2", name)
		}
		if _, err := c.MatchColumnNames(); err != nil {
			t.Errorf("copy lost match columns: %v", err)
		}
	})

	t.Run("schema", func(t *testing.T) {
		c := rs.CreateCopySchema()
		if c.Size() != 0 || c.ColumnCount() != 3 {
			t.Errorf("schema copy has %d rows and %d columns", c.Size(), c.ColumnCount())
		}
	})

	t.Run("no constraints", func(t *testing.T) {
		c := rs.CreateCopyNoConstraints()
		if c.Size() != 3 {
			t.Errorf("Size = %d, want 3", c.Size())
		}
		if _, err := c.MatchColumnNames(); err == nil {
			t.Error("copy kept match columns")
		}
	})
}

func TestListeners(t *testing.T) {
	rs := populated(t, 3)
	var moved, rowChanged, setChanged int
	id := rs.AddListener(rowset.ListenerFuncs{
		OnCursorMoved:   func(rowset.Event) { moved++ },
		OnRowChanged:    func(rowset.Event) { rowChanged++ },
		OnRowSetChanged: func(rowset.Event) { setChanged++ },
	})

	must(t)(rs.Next())
	updateName(t, rs, "anna")
	rs.SetOriginal()
	if moved != 1 || rowChanged != 1 || setChanged != 1 {
		t.Errorf("got %d moves, %d row changes, %d set changes, want 1 each", moved, rowChanged, setChanged)
	}

	if !rs.RemoveListener(id) || rs.ListenerCount() != 0 {
		t.Fatal("RemoveListener failed")
	}
	if rs.RemoveListener(id) {
		t.Error("listener removed twice")
	}
	must(t)(rs.Next())
	if moved != 1 {
		t.Errorf("removed listener still notified")
	}
}

func TestCursorMovedOnEveryMove(t *testing.T) {
	rs := populated(t, 3)
	var moved int
	rs.AddListener(rowset.ListenerFuncs{OnCursorMoved: func(rowset.Event) { moved++ }})

	must(t)(rs.First())
	moves := []struct {
		name string
		move func() (bool, error)
	}{
		{"First again", rs.First},
		{"Absolute(1)", func() (bool, error) { return rs.Absolute(1) }},
		{"Relative(0)", func() (bool, error) { return rs.Relative(0) }},
		{"Last", rs.Last},
		{"Last again", rs.Last},
		{"Next off the end", rs.Next},
		{"Next after last", rs.Next},
	}
	for _, m := range moves {
		before := moved
		if _, err := m.move(); err != nil {
			t.Fatalf("%s: %v", m.name, err)
		}
		if moved != before+1 {
			t.Errorf("%s fired %d events, want 1", m.name, moved-before)
		}
	}

	before := moved
	if _, err := rs.Absolute(0); err == nil {
		t.Fatal("Absolute(0) succeeded")
	}
	if moved != before {
		t.Error("failed move fired CursorMoved")
	}
}

func TestAccessors(t *testing.T) {
	rs := populated(t, 2)
	must(t)(rs.First())

	if s, err := rs.GetString(1); err != nil || s != "1" {
		t.Errorf("GetString(1) = %q, %v", s, err)
	}
	if b, err := rs.GetBool(1); err != nil || !b {
		t.Errorf("GetBool(1) = %v, %v", b, err)
	}
	if _, err := rs.GetInt64(2); !errors.Is(err, core.ErrDataConversion) {
		t.Errorf("GetInt64 on text = %v, want ErrDataConversion", err)
	}
	if null, err := rs.IsNull(3); err != nil || !null {
		t.Errorf("IsNull(3) = %v, %v", null, err)
	}
	if s, err := rs.GetString(3); err != nil || s != "" {
		t.Errorf("GetString on NULL = %q, %v", s, err)
	}
	if _, err := rs.GetObject(4); !errors.Is(err, core.ErrInvalidColumnIndex) {
		t.Errorf("GetObject(4) = %v", err)
	}
	if col, err := rs.FindColumn("NAME"); err != nil || col != 2 {
		t.Errorf("FindColumn(NAME) = %d, %v", col, err)
	}
	if f, err := rs.GetFloat64ByName("id"); err != nil || f != 1 {
		t.Errorf("GetFloat64ByName(id) = %v, %v", f, err)
	}
	if b, err := rs.GetBoolByName("id"); err != nil || !b {
		t.Errorf("GetBoolByName(id) = %v, %v", b, err)
	}
	if ts, err := rs.GetTimeByName("email"); err != nil || !ts.IsZero() {
		t.Errorf("GetTimeByName on NULL = %v, %v", ts, err)
	}
	if _, err := rs.GetTimeByName("name"); !errors.Is(err, core.ErrDataConversion) {
		t.Errorf("GetTimeByName on text = %v, want ErrDataConversion", err)
	}
	if _, err := rs.GetStringByName("phone"); !errors.Is(err, core.ErrInvalidColumnIndex) {
		t.Errorf("GetStringByName(phone) = %v", err)
	}
}

func TestFindColumnByLabel(t *testing.T) {
	cols := []core.Column{{Name: "user_id", Label: "uid", Type: "INTEGER"}}
	src, err := source.NewMemory(cols, [][]interface{}{{int64(7)}})
	if err != nil {
		t.Fatal(err)
	}
	rs, err := rowset.New()
	if err != nil {
		t.Fatal(err)
	}
	if err := rs.Populate(src); err != nil {
		t.Fatal(err)
	}
	must(t)(rs.First())
	if id, err := rs.GetInt64ByName("UID"); err != nil || id != 7 {
		t.Errorf("GetInt64ByName(UID) = %d, %v", id, err)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	rs := populated(t, 3, rowset.WithPageSize(5), rowset.WithTableName("people"))
	if err := rs.SetMatchColumnNames("id"); err != nil {
		t.Fatal(err)
	}
	must(t)(rs.Absolute(2))
	updateName(t, rs, "bob")

	snap := rs.Snapshot()
	if snap.Position != 2 || len(snap.Rows) != 3 {
		t.Fatalf("snapshot at %d with %d rows", snap.Position, len(snap.Rows))
	}

	restored, err := rowset.FromSnapshot(snap)
	if err != nil {
		t.Fatal(err)
	}
	if restored.Row() != 2 || currentID(t, restored) != 2 {
		t.Errorf("restored cursor on row %d", restored.Row())
	}
	if updated, _ := restored.RowUpdated(); !updated {
		t.Error("restored row lost its updated flag")
	}
	if orig, _ := restored.OriginalRow(); orig[1] != "user2" {
		t.Errorf("restored original name = %v", orig[1])
	}
	if restored.TableName() != "people" || restored.PageSize() != 5 {
		t.Errorf("restored settings: table %q, page size %d", restored.TableName(), restored.PageSize())
	}
	if names, err := restored.MatchColumnNames(); err != nil || names[0] != "id" {
		t.Errorf("restored match columns = %v, %v", names, err)
	}

	if _, err := rowset.FromSnapshot(nil); !errors.Is(err, core.ErrConfiguration) {
		t.Errorf("FromSnapshot(nil) = %v", err)
	}
	snap.Rows[0].Current = snap.Rows[0].Current[:1]
	if _, err := rowset.FromSnapshot(snap); !errors.Is(err, core.ErrInvalidColumnIndex) {
		t.Errorf("short row = %v", err)
	}
}

func TestReleaseAndToSlice(t *testing.T) {
	rs := populated(t, 3)
	must(t)(rs.Absolute(2))
	if err := rs.DeleteRow(); err != nil {
		t.Fatal(err)
	}
	if got := len(rs.ToSlice()); got != 2 {
		t.Errorf("ToSlice has %d rows, want 2", got)
	}
	rs.SetShowDeleted(true)
	if got := len(rs.ToSlice()); got != 3 {
		t.Errorf("ToSlice with deleted shown has %d rows, want 3", got)
	}

	rs.Release()
	if rs.Size() != 0 || rs.ColumnCount() != 3 {
		t.Errorf("after Release: Size %d, ColumnCount %d", rs.Size(), rs.ColumnCount())
	}
	if _, err := rs.NextPage(); !errors.Is(err, core.ErrCapability) {
		t.Errorf("NextPage after Release = %v", err)
	}
}
