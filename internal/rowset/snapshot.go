package rowset

import (
	"fmt"

	"github.com/rzpsarthak13/rowcache/internal/core"
	"github.com/rzpsarthak13/rowcache/internal/rowstore"
)

// Properties are the settings saved with a snapshot.
type Properties struct {
	TableName    string
	ReadOnly     bool
	Scrollable   bool
	ShowDeleted  bool
	PageSize     int
	MaxRows      int
	KeyIndexes   []int
	KeyNames     []string
	SyncProvider string
}

// SnapshotRow is the exported state of one row.
type SnapshotRow struct {
	Original []interface{}
	Current  []interface{}
	Changed  []bool
	Inserted bool
	Updated  bool
	Deleted  bool
}

// Snapshot is the full exported state of a row set.
type Snapshot struct {
	Properties Properties
	Columns    []core.Column
	Rows       []SnapshotRow

	// Position is the value of Row() when the snapshot was taken; 0 means
	// the cursor was not on a row.
	Position int
}

// Snapshot exports the rows, their change state, the settings and the
// cursor position.
func (rs *RowSet) Snapshot() *Snapshot {
	snap := &Snapshot{
		Properties: Properties{
			TableName:   rs.tableName,
			ReadOnly:    rs.readOnly,
			Scrollable:  rs.scrollable,
			ShowDeleted: rs.showDeleted,
			PageSize:    rs.pager.pageSize,
			MaxRows:     rs.pager.maxRows,
		},
		Columns:  rs.Columns(),
		Position: rs.Row(),
	}
	if rs.provider != nil {
		snap.Properties.SyncProvider = rs.provider.Name()
	}
	if idx, err := rs.MatchColumnIndexes(); err == nil {
		snap.Properties.KeyIndexes = idx
	}
	if names, err := rs.MatchColumnNames(); err == nil {
		snap.Properties.KeyNames = names
	}
	for _, row := range rs.data.rows.Rows() {
		snap.Rows = append(snap.Rows, SnapshotRow{
			Original: row.OriginalValues(),
			Current:  row.CurrentValues(),
			Changed:  row.ColumnFlags(),
			Inserted: row.Inserted(),
			Updated:  row.Updated(),
			Deleted:  row.Deleted(),
		})
	}
	return snap
}

// FromSnapshot rebuilds a row set from a snapshot and puts the cursor back
// on the row it was on. Options are applied after the saved settings.
func FromSnapshot(snap *Snapshot, opts ...Option) (*RowSet, error) {
	if snap == nil {
		return nil, fmt.Errorf("%w: nil snapshot", core.ErrConfiguration)
	}
	p := snap.Properties
	base := []Option{
		WithTableName(p.TableName),
		WithReadOnly(p.ReadOnly),
		WithScrollable(p.Scrollable),
		WithShowDeleted(p.ShowDeleted),
		WithPageSize(p.PageSize),
		WithMaxRows(p.MaxRows),
	}
	rs, err := New(append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	if len(p.KeyIndexes) > 0 {
		if err := rs.SetMatchColumnIndexes(p.KeyIndexes...); err != nil {
			return nil, err
		}
	}
	if len(p.KeyNames) > 0 {
		if err := rs.SetMatchColumnNames(p.KeyNames...); err != nil {
			return nil, err
		}
	}

	rows := make([]*rowstore.Row, 0, len(snap.Rows))
	for i, sr := range snap.Rows {
		if len(sr.Current) != len(snap.Columns) {
			return nil, fmt.Errorf("%w: row %d has %d values for %d columns",
				core.ErrInvalidColumnIndex, i+1, len(sr.Current), len(snap.Columns))
		}
		changed := sr.Changed
		if changed == nil {
			changed = make([]bool, len(sr.Current))
		}
		row, err := rowstore.Restore(sr.Original, sr.Current, changed, sr.Inserted, sr.Updated, sr.Deleted)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		rows = append(rows, row)
	}
	cols := make([]core.Column, len(snap.Columns))
	copy(cols, snap.Columns)
	rs.install(cols, rows)

	if snap.Position > 0 {
		if rs.scrollable {
			if _, err := rs.Absolute(snap.Position); err != nil {
				return nil, err
			}
		} else {
			for i := 0; i < snap.Position; i++ {
				if _, err := rs.Next(); err != nil {
					return nil, err
				}
			}
		}
	}
	return rs, nil
}
