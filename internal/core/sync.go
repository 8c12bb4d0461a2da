package core

import "context"

// SyncProvider writes the pending changes of a row set back to its source.
type SyncProvider interface {
	// Name identifies the provider in logs and configuration.
	Name() string

	// WriteData applies the changes exposed by src. It returns
	// conflict=true when the source had diverged from the original values
	// and nothing was written. A non-nil error means the write failed for
	// another reason; nothing is committed in that case either.
	WriteData(ctx context.Context, src SyncSource) (conflict bool, err error)
}

// SyncSource is the read-only view of a row set handed to a SyncProvider.
type SyncSource interface {
	// TableName is the table the changes target.
	TableName() string

	// Columns returns the column metadata, in column order.
	Columns() []Column

	// KeyColumns returns the 1-based indexes of the columns that identify a
	// row. Empty means every column does.
	KeyColumns() []int

	// Changes returns every row carrying a change flag, in store order.
	Changes() []RowChange
}

// RowChange is one dirty row as seen by a SyncProvider.
type RowChange struct {
	// Position is the 1-based position of the row in the store.
	Position int

	Inserted bool
	Updated  bool
	Deleted  bool

	// Original and Current hold both generations of the row.
	Original []interface{}
	Current  []interface{}

	// ChangedColumns lists the 1-based columns set since the last commit.
	ChangedColumns []int
}
