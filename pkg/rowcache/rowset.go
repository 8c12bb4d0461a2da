package rowcache

import (
	"io"

	"github.com/rzpsarthak13/rowcache/internal/core"
	"github.com/rzpsarthak13/rowcache/internal/rowset"
	"github.com/rzpsarthak13/rowcache/internal/snapshot"
	"github.com/rzpsarthak13/rowcache/internal/source"
)

type (
	// RowSet is a disconnected, scrollable, updatable set of rows.
	RowSet = rowset.RowSet

	// RowSetOption configures a row set when it is created.
	RowSetOption = rowset.Option

	// Snapshot is the serializable state of a row set.
	Snapshot = rowset.Snapshot

	// SnapshotRow is one row of a Snapshot.
	SnapshotRow = rowset.SnapshotRow

	// Properties are the settings saved with a Snapshot.
	Properties = rowset.Properties

	// Listener receives cursor, row and row set events.
	Listener = rowset.Listener

	// ListenerFuncs adapts plain functions to Listener.
	ListenerFuncs = rowset.ListenerFuncs

	// Event describes a change notified to a Listener.
	Event = rowset.Event

	// Warning is a non-fatal condition recorded by a row set.
	Warning = rowset.Warning

	Column       = core.Column
	Schema       = core.Schema
	RowChange    = core.RowChange
	RecordSource = core.RecordSource
	SyncProvider = core.SyncProvider
)

var (
	WithPageSize     = rowset.WithPageSize
	WithMaxRows      = rowset.WithMaxRows
	WithShowDeleted  = rowset.WithShowDeleted
	WithReadOnly     = rowset.WithReadOnly
	WithScrollable   = rowset.WithScrollable
	WithTableName    = rowset.WithTableName
	WithSyncProvider = rowset.WithSyncProvider
	WithSyncTimeout  = rowset.WithSyncTimeout
	WithMessages     = rowset.WithMessages
)

// NewRowSet creates an empty row set that is not backed by a client.
func NewRowSet(opts ...RowSetOption) (*RowSet, error) {
	return rowset.New(opts...)
}

// FromSnapshot rebuilds a row set from snap.
func FromSnapshot(snap *Snapshot, opts ...RowSetOption) (*RowSet, error) {
	return rowset.FromSnapshot(snap, opts...)
}

// NewMemorySource returns a scrollable RecordSource over records, for
// populating a row set without a database.
func NewMemorySource(columns []Column, records [][]interface{}) (RecordSource, error) {
	src, err := source.NewMemory(columns, records)
	if err != nil {
		return nil, err
	}
	return src, nil
}

// WriteSnapshot writes snap to w as XML.
func WriteSnapshot(w io.Writer, snap *Snapshot) error {
	return snapshot.Write(w, snap)
}

// ReadSnapshot reads an XML snapshot written by WriteSnapshot.
func ReadSnapshot(r io.Reader) (*Snapshot, error) {
	return snapshot.Read(r)
}
