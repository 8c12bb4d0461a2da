package core

// RecordSource is a cursor over an external tabular result that a row set
// materializes from. Columns are numbered from 1.
type RecordSource interface {
	// Next advances to the next record. It returns false at the end of the
	// source or on error; Err reports which.
	Next() bool

	// Err returns the error, if any, that stopped iteration.
	Err() error

	// ColumnCount returns the number of columns in each record.
	ColumnCount() int

	// Value returns the value of a column of the current record.
	Value(col int) (interface{}, error)

	// Column returns the metadata of a column.
	Column(col int) (Column, error)

	// Seek positions the source on record offset, so that the following
	// Next moves to record offset+1. Seek(0) rewinds to before the first
	// record.
	Seek(offset int) error

	// Scrollable reports whether Seek can move backwards.
	Scrollable() bool
}
