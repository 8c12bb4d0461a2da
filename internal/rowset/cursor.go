package rowset

import (
	"github.com/rzpsarthak13/rowcache/internal/core"
	"github.com/rzpsarthak13/rowcache/internal/messages"
)

func (rs *RowSet) visibleAt(pos int) bool {
	row, err := rs.data.rows.Row(pos)
	if err != nil {
		return false
	}
	return rs.showDeleted || !row.Deleted()
}

func (rs *RowSet) visibleCount() int {
	return rs.data.rows.VisibleCount(rs.showDeleted)
}

func (rs *RowSet) onVisibleRow() bool {
	return !rs.cur.onInsert && rs.visibleAt(rs.cur.pos)
}

// resync recomputes the visible index after rows changed under the cursor.
func (rs *RowSet) resync() {
	n := rs.data.rows.Len()
	if rs.cur.pos <= 0 || rs.cur.pos > n {
		rs.cur.abs = 0
		return
	}
	abs := 0
	for pos := 1; pos <= rs.cur.pos; pos++ {
		if rs.visibleAt(pos) {
			abs++
		}
	}
	rs.cur.abs = abs
}

// stepNext moves one visible row forward, or to after-last.
func (rs *RowSet) stepNext() bool {
	n := rs.data.rows.Len()
	for {
		if rs.cur.pos >= n {
			rs.cur.pos = n + 1
			rs.cur.abs = 0
			return false
		}
		rs.cur.pos++
		if rs.visibleAt(rs.cur.pos) {
			rs.cur.abs++
			return true
		}
	}
}

// stepPrevious moves one visible row back, or to before-first.
func (rs *RowSet) stepPrevious() bool {
	n := rs.data.rows.Len()
	var base int
	switch {
	case rs.cur.pos > n:
		base = rs.visibleCount()
	case rs.visibleAt(rs.cur.pos):
		base = rs.cur.abs - 1
	default:
		base = rs.cur.abs
	}
	for {
		if rs.cur.pos <= 1 {
			rs.cur.pos = 0
			rs.cur.abs = 0
			return false
		}
		rs.cur.pos--
		if rs.visibleAt(rs.cur.pos) {
			rs.cur.abs = base
			return true
		}
	}
}

func (rs *RowSet) toBeforeFirst() {
	rs.cur.pos = 0
	rs.cur.abs = 0
}

func (rs *RowSet) toAfterLast() {
	rs.cur.pos = rs.data.rows.Len() + 1
	rs.cur.abs = 0
}

func (rs *RowSet) internalFirst() bool {
	if rs.data.rows.Len() == 0 {
		rs.toBeforeFirst()
		return false
	}
	rs.cur.pos = 1
	if rs.visibleAt(1) {
		rs.cur.abs = 1
		return true
	}
	rs.cur.abs = 0
	return rs.stepNext()
}

func (rs *RowSet) internalLast() bool {
	n := rs.data.rows.Len()
	if n == 0 {
		rs.toBeforeFirst()
		return false
	}
	rs.cur.pos = n
	rs.cur.abs = rs.visibleCount()
	if rs.visibleAt(n) {
		return true
	}
	return rs.stepPrevious()
}

// prepareMove leaves the insert row and validates the structural position.
func (rs *RowSet) prepareMove(scroll bool) error {
	if scroll && !rs.scrollable {
		return rs.fail(core.ErrCapability, messages.ForwardOnly)
	}
	if rs.cur.onInsert {
		rs.leaveInsertRow()
	}
	if rs.cur.pos < 0 || rs.cur.pos > rs.data.rows.Len()+1 {
		return rs.fail(core.ErrInvalidCursorPosition, messages.InvalidCursor)
	}
	return nil
}

// moved fires CursorMoved after a successful navigation call, including
// one that leaves the cursor where it was.
func (rs *RowSet) moved() {
	rs.notifyCursorMoved()
}

// Next moves to the next visible row. It returns false once the cursor
// is after the last row.
func (rs *RowSet) Next() (bool, error) {
	if err := rs.prepareMove(false); err != nil {
		return false, err
	}
	ok := rs.stepNext()
	rs.moved()
	return ok, nil
}

// Previous moves to the previous visible row. It returns false once the
// cursor is before the first row.
func (rs *RowSet) Previous() (bool, error) {
	if err := rs.prepareMove(true); err != nil {
		return false, err
	}
	ok := rs.stepPrevious()
	rs.moved()
	return ok, nil
}

// First moves to the first visible row.
func (rs *RowSet) First() (bool, error) {
	if err := rs.prepareMove(true); err != nil {
		return false, err
	}
	ok := rs.internalFirst()
	rs.moved()
	return ok, nil
}

// Last moves to the last visible row.
func (rs *RowSet) Last() (bool, error) {
	if err := rs.prepareMove(true); err != nil {
		return false, err
	}
	ok := rs.internalLast()
	rs.moved()
	return ok, nil
}

// BeforeFirst moves before the first row.
func (rs *RowSet) BeforeFirst() error {
	if err := rs.prepareMove(true); err != nil {
		return err
	}
	rs.toBeforeFirst()
	rs.moved()
	return nil
}

// AfterLast moves after the last row.
func (rs *RowSet) AfterLast() error {
	if err := rs.prepareMove(true); err != nil {
		return err
	}
	rs.toAfterLast()
	rs.moved()
	return nil
}

// Absolute moves to the n-th visible row. Negative n counts from the end,
// -1 being the last row. Targets past either end leave the cursor on the
// matching boundary and return false.
func (rs *RowSet) Absolute(n int) (bool, error) {
	if n == 0 {
		return false, rs.fail(core.ErrInvalidCursorPosition, messages.AbsoluteZero)
	}
	if err := rs.prepareMove(true); err != nil {
		return false, err
	}
	defer rs.moved()

	visible := rs.visibleCount()
	target := n
	if n < 0 {
		target = visible + n + 1
		if target < 1 {
			rs.toBeforeFirst()
			return false, nil
		}
	}
	if target > visible {
		rs.toAfterLast()
		return false, nil
	}

	if !rs.onVisibleRow() {
		if n < 0 {
			rs.internalLast()
		} else {
			rs.internalFirst()
		}
	}
	for rs.cur.abs != target {
		var ok bool
		if rs.cur.abs < target {
			ok = rs.stepNext()
		} else {
			ok = rs.stepPrevious()
		}
		if !ok {
			break
		}
	}
	return rs.onVisibleRow(), nil
}

// Relative moves k visible rows from the current row. The cursor must be
// on a row. Walking off either end leaves the cursor on that boundary and
// returns false.
func (rs *RowSet) Relative(k int) (bool, error) {
	if err := rs.prepareMove(true); err != nil {
		return false, err
	}
	n := rs.data.rows.Len()
	if n == 0 || rs.cur.pos == 0 || rs.cur.pos == n+1 {
		return false, rs.fail(core.ErrInvalidCursorPosition, messages.InvalidCursor)
	}
	defer rs.moved()
	if k == 0 {
		return true, nil
	}

	if k > 0 {
		if rs.cur.pos+k > n {
			rs.toAfterLast()
			return false, nil
		}
		for i := 0; i < k; i++ {
			if !rs.stepNext() {
				break
			}
		}
	} else {
		if rs.cur.pos+k < 0 {
			rs.toBeforeFirst()
			return false, nil
		}
		for i := k; i < 0; i++ {
			if !rs.stepPrevious() {
				break
			}
		}
	}
	return rs.onVisibleRow(), nil
}

// Row returns the 1-based index of the current row among visible rows, or
// 0 when the cursor is not on a row.
func (rs *RowSet) Row() int {
	if rs.onVisibleRow() {
		return rs.cur.abs
	}
	return 0
}

// Position returns the structural cursor position: 0 before the first
// row, Size()+1 after the last.
func (rs *RowSet) Position() int { return rs.cur.pos }

// IsBeforeFirst reports whether the cursor is before the first row of a
// non-empty row set.
func (rs *RowSet) IsBeforeFirst() bool {
	return !rs.cur.onInsert && rs.data.rows.Len() > 0 && rs.cur.pos == 0
}

// IsAfterLast reports whether the cursor is after the last row of a
// non-empty row set.
func (rs *RowSet) IsAfterLast() bool {
	n := rs.data.rows.Len()
	return !rs.cur.onInsert && n > 0 && rs.cur.pos == n+1
}

// IsFirst reports whether the cursor is on the first visible row.
func (rs *RowSet) IsFirst() bool {
	return rs.onVisibleRow() && rs.cur.abs == 1
}

// IsLast reports whether the cursor is on the last visible row.
func (rs *RowSet) IsLast() bool {
	return rs.onVisibleRow() && rs.cur.abs == rs.visibleCount()
}

// OnInsertRow reports whether the cursor is on the insert row.
func (rs *RowSet) OnInsertRow() bool { return rs.cur.onInsert }
