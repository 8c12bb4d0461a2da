// Package rowset implements a disconnected, scrollable cache of tabular
// rows. A RowSet is populated from a core.RecordSource, navigated with a
// cursor, edited locally with per-row change tracking, and reconciled with
// its source through a core.SyncProvider.
//
// A RowSet is not safe for concurrent use. Handles returned by CreateShared
// share rows with their parent and must be synchronized by the caller.
package rowset

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rzpsarthak13/rowcache/internal/core"
	"github.com/rzpsarthak13/rowcache/internal/messages"
	"github.com/rzpsarthak13/rowcache/internal/rowstore"
	"github.com/rzpsarthak13/rowcache/internal/schema"
)

// table is the data shared by handles created with CreateShared.
type table struct {
	rows    *rowstore.Store
	columns []core.Column
}

// cursor is the navigation state of one handle.
type cursor struct {
	pos      int // 0 before first, 1..n on a row, n+1 after last
	abs      int // visible rows at positions 1..pos
	onInsert bool
	saved    int // pos remembered by MoveToInsertRow
}

// insertBuffer is the scratch row edited while the cursor is on the
// insert row.
type insertBuffer struct {
	row      *rowstore.Row
	assigned []bool
}

// RowSet is a disconnected row cache with a cursor.
type RowSet struct {
	id     string
	data   *table
	cur    cursor
	insert *insertBuffer

	readOnly    bool
	scrollable  bool
	showDeleted bool
	tableName   string
	syncTimeout time.Duration

	pager    pager
	match    matchColumns
	provider core.SyncProvider
	msgs     core.Messages
	mapper   *schema.TypeMapper

	listeners listenerSet
	warnings  []Warning
}

// Option configures a RowSet.
type Option func(*RowSet)

// WithPageSize sets the number of rows materialized per page. 0 disables
// paging.
func WithPageSize(n int) Option {
	return func(rs *RowSet) { rs.pager.pageSize = n }
}

// WithMaxRows caps the number of rows materialized. 0 means unbounded.
func WithMaxRows(n int) Option {
	return func(rs *RowSet) { rs.pager.maxRows = n }
}

// WithShowDeleted makes rows flagged deleted visible to the cursor.
func WithShowDeleted(show bool) Option {
	return func(rs *RowSet) { rs.showDeleted = show }
}

// WithReadOnly rejects every mutation.
func WithReadOnly(readOnly bool) Option {
	return func(rs *RowSet) { rs.readOnly = readOnly }
}

// WithScrollable(false) makes the row set forward-only.
func WithScrollable(scrollable bool) Option {
	return func(rs *RowSet) { rs.scrollable = scrollable }
}

// WithTableName sets the table changes are written back to. Defaults to
// the table reported by the first column.
func WithTableName(name string) Option {
	return func(rs *RowSet) { rs.tableName = name }
}

// WithSyncProvider sets the provider used by AcceptChanges.
func WithSyncProvider(p core.SyncProvider) Option {
	return func(rs *RowSet) { rs.provider = p }
}

// WithSyncTimeout bounds each AcceptChanges call.
func WithSyncTimeout(d time.Duration) Option {
	return func(rs *RowSet) { rs.syncTimeout = d }
}

// WithMessages sets the message lookup used for errors and warnings.
func WithMessages(m core.Messages) Option {
	return func(rs *RowSet) {
		if m != nil {
			rs.msgs = m
		}
	}
}

// New creates an empty row set.
func New(opts ...Option) (*RowSet, error) {
	rs := &RowSet{
		id:         uuid.NewString(),
		data:       &table{rows: rowstore.New()},
		scrollable: true,
		msgs:       messages.Default(),
		mapper:     schema.NewTypeMapper(),
	}
	for _, opt := range opts {
		opt(rs)
	}
	if err := rs.checkSizes(rs.pager.pageSize, rs.pager.maxRows); err != nil {
		return nil, err
	}
	return rs, nil
}

// ID returns the unique id of this handle.
func (rs *RowSet) ID() string { return rs.id }

// Size returns the number of rows in the store, deleted ones included.
func (rs *RowSet) Size() int { return rs.data.rows.Len() }

// DeletedCount returns the number of rows flagged deleted.
func (rs *RowSet) DeletedCount() int { return rs.data.rows.DeletedCount() }

// Columns returns a copy of the column metadata.
func (rs *RowSet) Columns() []core.Column {
	out := make([]core.Column, len(rs.data.columns))
	copy(out, rs.data.columns)
	return out
}

// ColumnCount returns the number of columns.
func (rs *RowSet) ColumnCount() int { return len(rs.data.columns) }

// FindColumn returns the 1-based index of the column with the given name
// or label, ignoring case.
func (rs *RowSet) FindColumn(name string) (int, error) {
	for i, col := range rs.data.columns {
		if strings.EqualFold(col.Name, name) || strings.EqualFold(col.Label, name) {
			return i + 1, nil
		}
	}
	return 0, rs.fail(core.ErrInvalidColumnIndex, messages.UnknownColumn, name)
}

// ReadOnly reports whether mutations are rejected.
func (rs *RowSet) ReadOnly() bool { return rs.readOnly }

// Scrollable reports whether backward and absolute moves are allowed.
func (rs *RowSet) Scrollable() bool { return rs.scrollable }

// ShowDeleted reports whether rows flagged deleted are visible.
func (rs *RowSet) ShowDeleted() bool { return rs.showDeleted }

// SetShowDeleted changes deleted-row visibility. The cursor is kept on its
// row; its visible index is recomputed.
func (rs *RowSet) SetShowDeleted(show bool) {
	rs.showDeleted = show
	rs.resync()
}

// TableName returns the write-back table.
func (rs *RowSet) TableName() string {
	if rs.tableName != "" {
		return rs.tableName
	}
	for _, col := range rs.data.columns {
		if col.TableName != "" {
			return col.TableName
		}
	}
	return ""
}

// SetTableName sets the write-back table.
func (rs *RowSet) SetTableName(name string) { rs.tableName = name }

// SetSyncProvider replaces the provider used by AcceptChanges.
func (rs *RowSet) SetSyncProvider(p core.SyncProvider) { rs.provider = p }

// SyncProvider returns the configured provider, or nil.
func (rs *RowSet) SyncProvider() core.SyncProvider { return rs.provider }

// fail wraps sentinel with the rendered message for key.
func (rs *RowSet) fail(sentinel error, key string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", sentinel, rs.msgs.Text(key, args...))
}

func (rs *RowSet) checkWritable() error {
	if rs.readOnly {
		return rs.fail(core.ErrCapability, messages.ReadOnly)
	}
	return nil
}

// currentRow returns the row under the cursor. It fails on the insert row
// and at either boundary.
func (rs *RowSet) currentRow() (*rowstore.Row, error) {
	if rs.cur.onInsert {
		return nil, rs.fail(core.ErrInvalidCursorPosition, messages.OnInsertRow)
	}
	if rs.cur.pos < 1 || rs.cur.pos > rs.data.rows.Len() {
		return nil, rs.fail(core.ErrInvalidCursorPosition, messages.InvalidCursor)
	}
	return rs.data.rows.Row(rs.cur.pos)
}
