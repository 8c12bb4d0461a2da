package rowset_test

import (
	"errors"
	"testing"

	"github.com/rzpsarthak13/rowcache/internal/core"
	"github.com/rzpsarthak13/rowcache/internal/rowset"
)

func TestNavigation(t *testing.T) {
	rs := populated(t, 5)

	if !rs.IsBeforeFirst() || rs.Row() != 0 {
		t.Fatalf("new row set: IsBeforeFirst %v, Row %d", rs.IsBeforeFirst(), rs.Row())
	}
	if !must(t)(rs.Next()) || rs.Row() != 1 || !rs.IsFirst() {
		t.Fatalf("Next: Row %d", rs.Row())
	}
	if !must(t)(rs.Last()) || currentID(t, rs) != 5 || !rs.IsLast() {
		t.Fatalf("Last: Row %d", rs.Row())
	}
	if must(t)(rs.Next()) || !rs.IsAfterLast() || rs.Row() != 0 || rs.Position() != 6 {
		t.Fatalf("Next past end: Row %d, Position %d", rs.Row(), rs.Position())
	}
	if !must(t)(rs.Previous()) || rs.Row() != 5 {
		t.Fatalf("Previous from after last: Row %d", rs.Row())
	}
	if !must(t)(rs.First()) || currentID(t, rs) != 1 {
		t.Fatalf("First: Row %d", rs.Row())
	}
	if must(t)(rs.Previous()) || !rs.IsBeforeFirst() {
		t.Fatal("Previous from first should land before first")
	}
}

func TestAbsolute(t *testing.T) {
	tests := []struct {
		n           int
		wantOK      bool
		wantID      int64
		beforeFirst bool
		afterLast   bool
	}{
		{n: 3, wantOK: true, wantID: 3},
		{n: 5, wantOK: true, wantID: 5},
		{n: -1, wantOK: true, wantID: 5},
		{n: -5, wantOK: true, wantID: 1},
		{n: 6, afterLast: true},
		{n: -6, beforeFirst: true},
	}
	for _, tt := range tests {
		rs := populated(t, 5)
		ok, err := rs.Absolute(tt.n)
		if err != nil {
			t.Fatalf("Absolute(%d): %v", tt.n, err)
		}
		if ok != tt.wantOK {
			t.Errorf("Absolute(%d) = %v, want %v", tt.n, ok, tt.wantOK)
		}
		if tt.wantOK && currentID(t, rs) != tt.wantID {
			t.Errorf("Absolute(%d) on id %d, want %d", tt.n, currentID(t, rs), tt.wantID)
		}
		if rs.IsBeforeFirst() != tt.beforeFirst || rs.IsAfterLast() != tt.afterLast {
			t.Errorf("Absolute(%d): before first %v, after last %v", tt.n, rs.IsBeforeFirst(), rs.IsAfterLast())
		}
	}

	rs := populated(t, 5)
	if _, err := rs.Absolute(0); !errors.Is(err, core.ErrInvalidCursorPosition) {
		t.Errorf("Absolute(0) error = %v, want ErrInvalidCursorPosition", err)
	}
}

func TestRelative(t *testing.T) {
	rs := populated(t, 5)

	if _, err := rs.Relative(1); !errors.Is(err, core.ErrInvalidCursorPosition) {
		t.Errorf("Relative before first: %v, want ErrInvalidCursorPosition", err)
	}

	must(t)(rs.Absolute(2))
	if !must(t)(rs.Relative(2)) || currentID(t, rs) != 4 {
		t.Fatalf("Relative(2) from 2: Row %d", rs.Row())
	}
	if !must(t)(rs.Relative(-3)) || currentID(t, rs) != 1 {
		t.Fatalf("Relative(-3) from 4: Row %d", rs.Row())
	}
	if !must(t)(rs.Relative(0)) || currentID(t, rs) != 1 {
		t.Fatalf("Relative(0): Row %d", rs.Row())
	}
	if must(t)(rs.Relative(10)) || !rs.IsAfterLast() {
		t.Fatal("Relative past the end should land after last")
	}
	if _, err := rs.Relative(-1); !errors.Is(err, core.ErrInvalidCursorPosition) {
		t.Errorf("Relative after last: %v, want ErrInvalidCursorPosition", err)
	}
}

func TestEmptyRowSet(t *testing.T) {
	rs := populated(t, 0)

	if must(t)(rs.Next()) || must(t)(rs.First()) || must(t)(rs.Last()) {
		t.Error("moves on an empty row set should return false")
	}
	if rs.IsBeforeFirst() || rs.IsAfterLast() {
		t.Error("empty row set has no boundaries")
	}
	if _, err := rs.GetObject(1); !errors.Is(err, core.ErrInvalidCursorPosition) {
		t.Errorf("GetObject on empty row set: %v", err)
	}
}

func TestForwardOnly(t *testing.T) {
	rs := populated(t, 3, rowset.WithScrollable(false))

	if !must(t)(rs.Next()) || currentID(t, rs) != 1 {
		t.Fatal("Next should work on a forward-only row set")
	}
	moves := map[string]func() error{
		"Previous":    func() error { _, err := rs.Previous(); return err },
		"First":       func() error { _, err := rs.First(); return err },
		"Last":        func() error { _, err := rs.Last(); return err },
		"Absolute":    func() error { _, err := rs.Absolute(2); return err },
		"Relative":    func() error { _, err := rs.Relative(1); return err },
		"BeforeFirst": rs.BeforeFirst,
		"AfterLast":   rs.AfterLast,
	}
	for name, move := range moves {
		if err := move(); !errors.Is(err, core.ErrCapability) {
			t.Errorf("%s error = %v, want ErrCapability", name, err)
		}
	}
	if currentID(t, rs) != 1 {
		t.Error("rejected moves changed the cursor")
	}
}

func TestDeletedRowsAreSkipped(t *testing.T) {
	rs := populated(t, 5)

	must(t)(rs.Absolute(2))
	if err := rs.DeleteRow(); err != nil {
		t.Fatal(err)
	}
	if rs.Size() != 5 || rs.DeletedCount() != 1 {
		t.Fatalf("Size %d, DeletedCount %d, want 5 and 1", rs.Size(), rs.DeletedCount())
	}
	if rs.Row() != 0 {
		t.Errorf("Row on a hidden deleted row = %d, want 0", rs.Row())
	}

	if !must(t)(rs.Next()) || currentID(t, rs) != 3 || rs.Row() != 2 {
		t.Fatalf("Next after delete: id %d, Row %d", currentID(t, rs), rs.Row())
	}
	if !must(t)(rs.Last()) || rs.Row() != 4 {
		t.Fatalf("Last: Row %d, want 4", rs.Row())
	}
	if !must(t)(rs.Absolute(2)) || currentID(t, rs) != 3 {
		t.Fatalf("Absolute(2) skipping the deleted row: id %d", currentID(t, rs))
	}
	if got := len(rs.ToSlice()); got != 4 {
		t.Errorf("ToSlice has %d rows, want 4", got)
	}

	rs.SetShowDeleted(true)
	if rs.Row() != 3 {
		t.Errorf("Row after showing deleted rows = %d, want 3", rs.Row())
	}
	if !must(t)(rs.Absolute(2)) || currentID(t, rs) != 2 {
		t.Fatalf("Absolute(2) with deleted rows shown: id %d", currentID(t, rs))
	}
	if deleted, _ := rs.RowDeleted(); !deleted {
		t.Fatal("row 2 should be flagged deleted")
	}
	if err := rs.UndoDelete(); err != nil {
		t.Fatal(err)
	}
	if rs.DeletedCount() != 0 {
		t.Errorf("DeletedCount after UndoDelete = %d", rs.DeletedCount())
	}
}

func TestAbsoluteRelativeAgree(t *testing.T) {
	const n = 5
	for start := 1; start <= n; start++ {
		for k := -n; k <= n; k++ {
			target := start + k
			if target < 1 || target > n {
				continue
			}
			a := populated(t, n)
			must(t)(a.Absolute(start))
			ok := must(t)(a.Relative(k))

			b := populated(t, n)
			want := must(t)(b.Absolute(target))

			if ok != want || a.Row() != b.Row() || a.Position() != b.Position() {
				t.Errorf("Relative(%d) from %d = %v on row %d, Absolute(%d) = %v on row %d",
					k, start, ok, a.Row(), target, want, b.Row())
			}
		}
	}
}
