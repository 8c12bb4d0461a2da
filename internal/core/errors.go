package core

import "errors"

var (
	// ErrInvalidCursorPosition is returned when an operation needs the
	// cursor on a row and it is not, or when a move target is illegal.
	ErrInvalidCursorPosition = errors.New("invalid cursor position")

	// ErrInvalidColumnIndex is returned for a column outside [1, n] or an
	// unknown column name.
	ErrInvalidColumnIndex = errors.New("invalid column index")

	// ErrCapability is returned when the row set's mode forbids the
	// operation, such as writing to a read-only row set or scrolling a
	// forward-only one.
	ErrCapability = errors.New("operation not supported in current mode")

	// ErrDataConversion is returned when a stored value cannot be converted
	// to the requested type.
	ErrDataConversion = errors.New("data conversion failed")

	// ErrIncompleteInsertRow is returned when the insert row is committed
	// with a non-nullable column unassigned.
	ErrIncompleteInsertRow = errors.New("insert row incomplete")

	// ErrSyncConflict is returned when the source diverged from the
	// original values and the changes were not written.
	ErrSyncConflict = errors.New("synchronization conflict")

	// ErrSyncFailure is returned when writing changes back failed for a
	// reason other than a conflict.
	ErrSyncFailure = errors.New("synchronization failed")

	// ErrConfiguration is returned for invalid row set settings.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrNotReady is returned when a row set or store is used before it
	// has been populated or wired to a provider.
	ErrNotReady = errors.New("not ready")
)
