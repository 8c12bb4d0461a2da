package rowset

import (
	"github.com/google/uuid"

	"github.com/rzpsarthak13/rowcache/internal/core"
	"github.com/rzpsarthak13/rowcache/internal/rowstore"
)

// clone copies the settings of rs into a new handle over data. Listeners
// and warnings are not carried over.
func (rs *RowSet) clone(data *table) *RowSet {
	c := &RowSet{
		id:          uuid.NewString(),
		data:        data,
		readOnly:    rs.readOnly,
		scrollable:  rs.scrollable,
		showDeleted: rs.showDeleted,
		tableName:   rs.tableName,
		syncTimeout: rs.syncTimeout,
		pager:       rs.pager,
		match:       rs.match,
		provider:    rs.provider,
		msgs:        rs.msgs,
		mapper:      rs.mapper,
	}
	return c
}

// CreateShared returns a handle over the same rows with its own cursor,
// positioned before the first row. Changes made through either handle are
// visible to both.
func (rs *RowSet) CreateShared() *RowSet {
	c := rs.clone(rs.data)
	c.pager.reset()
	return c
}

// CreateCopy returns an independent deep copy, cursor position included.
func (rs *RowSet) CreateCopy() *RowSet {
	cols := make([]core.Column, len(rs.data.columns))
	copy(cols, rs.data.columns)
	c := rs.clone(&table{rows: rs.data.rows.Clone(), columns: cols})
	c.cur = rs.cur
	c.cur.onInsert = false
	if rs.cur.onInsert {
		c.cur.pos = rs.cur.saved
	}
	return c
}

// CreateCopySchema returns an empty row set with the same columns and
// settings.
func (rs *RowSet) CreateCopySchema() *RowSet {
	cols := make([]core.Column, len(rs.data.columns))
	copy(cols, rs.data.columns)
	c := rs.clone(&table{rows: rowstore.New(), columns: cols})
	c.pager.reset()
	return c
}

// CreateCopyNoConstraints is CreateCopy without match columns.
func (rs *RowSet) CreateCopyNoConstraints() *RowSet {
	c := rs.CreateCopy()
	c.match = matchColumns{}
	return c
}

// ToSlice returns the current values of the visible rows.
func (rs *RowSet) ToSlice() [][]interface{} {
	var out [][]interface{}
	for _, row := range rs.data.rows.Rows() {
		if !rs.showDeleted && row.Deleted() {
			continue
		}
		out = append(out, row.CurrentValues())
	}
	return out
}
