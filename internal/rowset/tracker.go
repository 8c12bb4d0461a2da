package rowset

import (
	"github.com/rzpsarthak13/rowcache/internal/core"
	"github.com/rzpsarthak13/rowcache/internal/messages"
	"github.com/rzpsarthak13/rowcache/internal/rowstore"
	"github.com/rzpsarthak13/rowcache/internal/schema"
)

// MoveToInsertRow moves the cursor to the insert row, remembering the
// current position. The insert row starts with every column unassigned.
func (rs *RowSet) MoveToInsertRow() error {
	if err := rs.checkWritable(); err != nil {
		return err
	}
	n := len(rs.data.columns)
	if n == 0 {
		return rs.fail(core.ErrNotReady, messages.NoMetadata)
	}
	if !rs.cur.onInsert {
		rs.cur.saved = rs.cur.pos
	}
	rs.insert = &insertBuffer{row: rowstore.NewRow(n), assigned: make([]bool, n)}
	rs.cur.onInsert = true
	return nil
}

// MoveToCurrentRow leaves the insert row and returns to the remembered
// position. It does nothing when the cursor is not on the insert row.
func (rs *RowSet) MoveToCurrentRow() {
	if rs.cur.onInsert {
		rs.leaveInsertRow()
	}
}

func (rs *RowSet) leaveInsertRow() {
	rs.cur.onInsert = false
	rs.cur.pos = rs.cur.saved
	if n := rs.data.rows.Len(); rs.cur.pos > n+1 {
		rs.cur.pos = n + 1
	}
	rs.resync()
}

// InsertRow commits the insert row into the store right after the
// remembered position, or at the end when that position is not a row, and
// returns the cursor to the remembered position. Every non-nullable column
// must have been assigned a non-nil value.
func (rs *RowSet) InsertRow() error {
	if err := rs.checkWritable(); err != nil {
		return err
	}
	if !rs.cur.onInsert || rs.insert == nil {
		return rs.fail(core.ErrInvalidCursorPosition, messages.InvalidCursor)
	}
	values := rs.insert.row.CurrentValues()
	if err := schema.NewValidator(rs.data.columns).ValidateInsertRow(values, rs.insert.assigned); err != nil {
		return err
	}

	row := rowstore.NewRowFromValues(values)
	row.SetInserted()

	n := rs.data.rows.Len()
	index := rs.cur.saved
	if index < 0 || index >= n {
		index = n
	}
	if err := rs.data.rows.InsertAt(index, row); err != nil {
		return err
	}
	if rs.cur.saved > n {
		rs.cur.saved = n + 2 // still after the last row
	}
	rs.insert = nil
	rs.leaveInsertRow()
	rs.notifyRowChanged(index + 1)
	return nil
}

// UpdateRow marks the current row updated after its columns were set.
func (rs *RowSet) UpdateRow() error {
	if err := rs.checkWritable(); err != nil {
		return err
	}
	row, err := rs.currentRow()
	if err != nil {
		return err
	}
	row.SetUpdated()
	rs.notifyRowChanged(rs.cur.pos)
	return nil
}

// DeleteRow flags the current row deleted. The row stays in the store
// until the changes are committed. Deleting a deleted row does nothing.
func (rs *RowSet) DeleteRow() error {
	if err := rs.checkWritable(); err != nil {
		return err
	}
	row, err := rs.currentRow()
	if err != nil {
		return err
	}
	if row.Deleted() {
		return nil
	}
	if err := rs.data.rows.MarkDeleted(rs.cur.pos); err != nil {
		return err
	}
	rs.resync()
	rs.notifyRowChanged(rs.cur.pos)
	return nil
}

// CancelRowUpdates clears the updated and column flags of the current row.
// The values set since the last commit are kept; RestoreOriginal or
// UndoUpdate put the committed values back.
func (rs *RowSet) CancelRowUpdates() error {
	row, err := rs.currentRow()
	if err != nil {
		return err
	}
	if row.Updated() || len(row.ChangedColumns()) > 0 {
		row.ClearUpdated()
		rs.notifyRowChanged(rs.cur.pos)
	}
	return nil
}

// RefreshRow clears the updated flag of the current row. Values are not
// reloaded from the source and stay as last set.
func (rs *RowSet) RefreshRow() error {
	row, err := rs.currentRow()
	if err != nil {
		return err
	}
	row.ClearUpdated()
	return nil
}

// UndoDelete clears the deleted flag of the current row. Deleted rows can
// only be reached while they are shown, so this does nothing otherwise.
func (rs *RowSet) UndoDelete() error {
	if !rs.showDeleted {
		return nil
	}
	row, err := rs.currentRow()
	if err != nil {
		return err
	}
	if !row.Deleted() {
		return nil
	}
	if err := rs.data.rows.ClearDeleted(rs.cur.pos); err != nil {
		return err
	}
	rs.notifyRowChanged(rs.cur.pos)
	return nil
}

// UndoInsert removes the current row, which must have been inserted since
// the last commit. The cursor moves to the row that followed it.
func (rs *RowSet) UndoInsert() error {
	row, err := rs.currentRow()
	if err != nil {
		return err
	}
	if !row.Inserted() {
		return rs.fail(core.ErrCapability, messages.NotInserted)
	}
	pos := rs.cur.pos
	if err := rs.data.rows.RemoveAt(pos); err != nil {
		return err
	}
	rs.resync()
	rs.notifyRowChanged(pos)
	return nil
}

// UndoUpdate leaves the insert row, then puts the committed values of the
// current row back and clears its change flags.
func (rs *RowSet) UndoUpdate() error {
	rs.MoveToCurrentRow()
	row, err := rs.currentRow()
	if err != nil {
		return err
	}
	if !row.Updated() && len(row.ChangedColumns()) == 0 {
		return nil
	}
	row.RestoreOriginal()
	rs.notifyRowChanged(rs.cur.pos)
	return nil
}

// makeOriginal commits a row's state, reporting whether it must leave the
// store.
func makeOriginal(row *rowstore.Row) (remove bool) {
	if row.Inserted() {
		row.ClearInserted()
	}
	if row.Updated() {
		row.MoveCurrentToOriginal()
	}
	return row.Deleted()
}

// SetOriginalRow commits the current row: inserted and updated rows become
// original, deleted rows are removed from the store.
func (rs *RowSet) SetOriginalRow() error {
	row, err := rs.currentRow()
	if err != nil {
		return err
	}
	pos := rs.cur.pos
	if makeOriginal(row) {
		if err := rs.data.rows.RemoveAt(pos); err != nil {
			return err
		}
		rs.resync()
	}
	rs.notifyRowChanged(pos)
	return nil
}

// SetOriginal commits every row and drops the rows flagged deleted. The
// cursor stays on the same row, or moves to the row that followed it when
// that row was dropped.
func (rs *RowSet) SetOriginal() {
	rs.setOriginal()
	rs.notifyRowSetChanged()
}

func (rs *RowSet) setOriginal() {
	rows := rs.data.rows.Rows()
	kept := make([]*rowstore.Row, 0, len(rows))
	removedBefore := 0
	for i, row := range rows {
		if makeOriginal(row) {
			if i+1 < rs.cur.pos {
				removedBefore++
			}
			continue
		}
		kept = append(kept, row)
	}
	_ = rs.data.rows.Replace(kept)

	rs.cur.pos -= removedBefore
	if n := len(kept); rs.cur.pos > n+1 {
		rs.cur.pos = n + 1
	}
	if rs.cur.onInsert && rs.cur.saved > len(kept)+1 {
		rs.cur.saved = len(kept) + 1
	}
	rs.resync()
}

// RestoreOriginal discards every change made since the last commit:
// inserted rows are removed, deleted rows restored and updated rows get
// their committed values back. The cursor moves before the first row.
func (rs *RowSet) RestoreOriginal() {
	rows := rs.data.rows.Rows()
	kept := make([]*rowstore.Row, 0, len(rows))
	for _, row := range rows {
		if row.Inserted() {
			continue
		}
		row.ClearDeleted()
		if row.Updated() || len(row.ChangedColumns()) > 0 {
			row.RestoreOriginal()
		}
		kept = append(kept, row)
	}
	_ = rs.data.rows.Replace(kept)
	rs.cur = cursor{}
	rs.insert = nil
	rs.notifyRowSetChanged()
}

// Release empties the row set. Column metadata is kept.
func (rs *RowSet) Release() {
	_ = rs.data.rows.Replace(nil)
	rs.cur = cursor{}
	rs.insert = nil
	rs.pager.reset()
	rs.notifyRowSetChanged()
}

// UpdateObject sets a column of the current row, or of the insert row when
// the cursor is on it. Call UpdateRow to mark a stored row updated.
func (rs *RowSet) UpdateObject(col int, value interface{}) error {
	if err := rs.checkWritable(); err != nil {
		return err
	}
	if rs.cur.onInsert {
		if err := rs.insert.row.SetColumnObject(col, value); err != nil {
			return err
		}
		rs.insert.assigned[col-1] = true
		return nil
	}
	row, err := rs.currentRow()
	if err != nil {
		return err
	}
	return row.SetColumnObject(col, value)
}

// UpdateNull sets a column to NULL.
func (rs *RowSet) UpdateNull(col int) error {
	return rs.UpdateObject(col, nil)
}

// UpdateObjectByName sets a column looked up with FindColumn.
func (rs *RowSet) UpdateObjectByName(name string, value interface{}) error {
	col, err := rs.FindColumn(name)
	if err != nil {
		return err
	}
	return rs.UpdateObject(col, value)
}

// RowInserted reports whether the current row was inserted since the last
// commit.
func (rs *RowSet) RowInserted() (bool, error) {
	row, err := rs.currentRow()
	if err != nil {
		return false, err
	}
	return row.Inserted(), nil
}

// RowUpdated reports whether the current row was marked updated.
func (rs *RowSet) RowUpdated() (bool, error) {
	row, err := rs.currentRow()
	if err != nil {
		return false, err
	}
	return row.Updated(), nil
}

// RowDeleted reports whether the current row is flagged deleted.
func (rs *RowSet) RowDeleted() (bool, error) {
	row, err := rs.currentRow()
	if err != nil {
		return false, err
	}
	return row.Deleted(), nil
}

// ColumnUpdated reports whether a column of the current row was set since
// the last commit.
func (rs *RowSet) ColumnUpdated(col int) (bool, error) {
	row, err := rs.currentRow()
	if err != nil {
		return false, err
	}
	return row.ColumnUpdated(col)
}

// OriginalRow returns the committed values of the current row.
func (rs *RowSet) OriginalRow() ([]interface{}, error) {
	row, err := rs.currentRow()
	if err != nil {
		return nil, err
	}
	return row.OriginalValues(), nil
}

// Values returns the current values of the current row, or of the insert
// row when the cursor is on it.
func (rs *RowSet) Values() ([]interface{}, error) {
	if rs.cur.onInsert {
		return rs.insert.row.CurrentValues(), nil
	}
	row, err := rs.currentRow()
	if err != nil {
		return nil, err
	}
	return row.CurrentValues(), nil
}
