package rowstore

import (
	"fmt"

	"github.com/rzpsarthak13/rowcache/internal/core"
)

// Row holds two generations of values for one record: the values last
// committed and the values currently visible. Columns are numbered from 1.
type Row struct {
	current    []interface{}
	original   []interface{}
	colUpdated []bool

	inserted bool
	updated  bool
	deleted  bool
}

// NewRow returns an empty row with n columns.
func NewRow(n int) *Row {
	return &Row{
		current:    make([]interface{}, n),
		original:   make([]interface{}, n),
		colUpdated: make([]bool, n),
	}
}

// NewRowFromValues returns a row whose current and original values are
// both copies of values.
func NewRowFromValues(values []interface{}) *Row {
	r := NewRow(len(values))
	copy(r.current, values)
	copy(r.original, values)
	return r
}

// ColumnCount returns the number of columns in the row.
func (r *Row) ColumnCount() int {
	return len(r.current)
}

func (r *Row) checkColumn(col int) error {
	if col < 1 || col > len(r.current) {
		return fmt.Errorf("%w: %d (row has %d columns)", core.ErrInvalidColumnIndex, col, len(r.current))
	}
	return nil
}

// ColumnObject returns the current value of a column.
func (r *Row) ColumnObject(col int) (interface{}, error) {
	if err := r.checkColumn(col); err != nil {
		return nil, err
	}
	return r.current[col-1], nil
}

// OriginalObject returns the committed value of a column.
func (r *Row) OriginalObject(col int) (interface{}, error) {
	if err := r.checkColumn(col); err != nil {
		return nil, err
	}
	return r.original[col-1], nil
}

// SetColumnObject sets the current value of a column and marks the column
// changed. The row-level updated flag is left alone.
func (r *Row) SetColumnObject(col int, value interface{}) error {
	if err := r.checkColumn(col); err != nil {
		return err
	}
	r.current[col-1] = value
	r.colUpdated[col-1] = true
	return nil
}

// ColumnUpdated reports whether a column was set since the last commit.
func (r *Row) ColumnUpdated(col int) (bool, error) {
	if err := r.checkColumn(col); err != nil {
		return false, err
	}
	return r.colUpdated[col-1], nil
}

// ChangedColumns returns the 1-based indexes of the changed columns.
func (r *Row) ChangedColumns() []int {
	var cols []int
	for i, changed := range r.colUpdated {
		if changed {
			cols = append(cols, i+1)
		}
	}
	return cols
}

// Inserted reports whether the row was added since the last commit.
func (r *Row) Inserted() bool { return r.inserted }

// Updated reports whether the row was marked updated.
func (r *Row) Updated() bool { return r.updated }

// Deleted reports whether the row is flagged deleted.
func (r *Row) Deleted() bool { return r.deleted }

// SetInserted flags the row as inserted.
func (r *Row) SetInserted() { r.inserted = true }

// SetUpdated flags the row as updated.
func (r *Row) SetUpdated() { r.updated = true }

// SetDeleted flags the row as deleted.
func (r *Row) SetDeleted() { r.deleted = true }

// ClearInserted drops the inserted flag.
func (r *Row) ClearInserted() { r.inserted = false }

// ClearDeleted drops the deleted flag.
func (r *Row) ClearDeleted() { r.deleted = false }

// ClearUpdated clears the updated flag and the column flags. Current
// values are kept as they are.
func (r *Row) ClearUpdated() {
	r.updated = false
	for i := range r.colUpdated {
		r.colUpdated[i] = false
	}
}

// MoveCurrentToOriginal makes the current values the committed ones.
func (r *Row) MoveCurrentToOriginal() {
	copy(r.original, r.current)
	r.ClearUpdated()
}

// RestoreOriginal puts the committed values back into the current
// generation and clears the change flags.
func (r *Row) RestoreOriginal() {
	copy(r.current, r.original)
	r.ClearUpdated()
}

// CurrentValues returns a copy of the current values.
func (r *Row) CurrentValues() []interface{} {
	out := make([]interface{}, len(r.current))
	copy(out, r.current)
	return out
}

// OriginalValues returns a copy of the committed values.
func (r *Row) OriginalValues() []interface{} {
	out := make([]interface{}, len(r.original))
	copy(out, r.original)
	return out
}

// Clone returns a deep copy of the row. Values are copied shallowly; byte
// slices are duplicated.
func (r *Row) Clone() *Row {
	c := &Row{
		current:    cloneValues(r.current),
		original:   cloneValues(r.original),
		colUpdated: make([]bool, len(r.colUpdated)),
		inserted:   r.inserted,
		updated:    r.updated,
		deleted:    r.deleted,
	}
	copy(c.colUpdated, r.colUpdated)
	return c
}

// Restore builds a row from exported state. Used by snapshot import.
func Restore(original, current []interface{}, changed []bool, inserted, updated, deleted bool) (*Row, error) {
	if len(original) != len(current) || len(changed) != len(current) {
		return nil, fmt.Errorf("%w: row generations have different widths", core.ErrInvalidColumnIndex)
	}
	r := &Row{
		current:    cloneValues(current),
		original:   cloneValues(original),
		colUpdated: make([]bool, len(changed)),
		inserted:   inserted,
		updated:    updated,
		deleted:    deleted,
	}
	copy(r.colUpdated, changed)
	return r, nil
}

// ColumnFlags returns a copy of the per-column changed flags.
func (r *Row) ColumnFlags() []bool {
	out := make([]bool, len(r.colUpdated))
	copy(out, r.colUpdated)
	return out
}

func cloneValues(values []interface{}) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		if b, ok := v.([]byte); ok {
			dup := make([]byte, len(b))
			copy(dup, b)
			out[i] = dup
			continue
		}
		out[i] = v
	}
	return out
}
