// Package rowstore holds the ordered rows of a row set together with the
// per-row change state.
package rowstore

import (
	"fmt"

	"github.com/rzpsarthak13/rowcache/internal/core"
)

// Store is an ordered collection of rows. Positions are 1-based. A nil
// *Store is valid and reports core.ErrNotReady from every accessor.
type Store struct {
	rows    []*Row
	deleted int
}

// New returns an empty store.
func New() *Store {
	return &Store{}
}

// Len returns the number of rows, deleted ones included.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rows)
}

// DeletedCount returns the number of rows flagged deleted.
func (s *Store) DeletedCount() int {
	if s == nil {
		return 0
	}
	return s.deleted
}

// VisibleCount returns the number of rows a cursor can land on.
func (s *Store) VisibleCount(showDeleted bool) int {
	if showDeleted {
		return s.Len()
	}
	return s.Len() - s.DeletedCount()
}

// Row returns the row at pos.
func (s *Store) Row(pos int) (*Row, error) {
	if s == nil {
		return nil, core.ErrNotReady
	}
	if pos < 1 || pos > len(s.rows) {
		return nil, fmt.Errorf("%w: row %d of %d", core.ErrInvalidCursorPosition, pos, len(s.rows))
	}
	return s.rows[pos-1], nil
}

// Add appends a row.
func (s *Store) Add(row *Row) error {
	if s == nil {
		return core.ErrNotReady
	}
	s.rows = append(s.rows, row)
	if row.deleted {
		s.deleted++
	}
	return nil
}

// InsertAt inserts a row so that it ends up at 0-based index, shifting the
// rows after it. index == Len() appends.
func (s *Store) InsertAt(index int, row *Row) error {
	if s == nil {
		return core.ErrNotReady
	}
	if index < 0 || index > len(s.rows) {
		return fmt.Errorf("%w: insert index %d of %d", core.ErrInvalidCursorPosition, index, len(s.rows))
	}
	s.rows = append(s.rows, nil)
	copy(s.rows[index+1:], s.rows[index:])
	s.rows[index] = row
	if row.deleted {
		s.deleted++
	}
	return nil
}

// RemoveAt removes the row at pos.
func (s *Store) RemoveAt(pos int) error {
	row, err := s.Row(pos)
	if err != nil {
		return err
	}
	if row.deleted {
		s.deleted--
	}
	s.rows = append(s.rows[:pos-1], s.rows[pos:]...)
	return nil
}

// GetColumnObject returns the current value of a column of the row at pos.
func (s *Store) GetColumnObject(pos, col int) (interface{}, error) {
	row, err := s.Row(pos)
	if err != nil {
		return nil, err
	}
	return row.ColumnObject(col)
}

// SetColumnObject sets the current value of a column of the row at pos.
func (s *Store) SetColumnObject(pos, col int, value interface{}) error {
	row, err := s.Row(pos)
	if err != nil {
		return err
	}
	return row.SetColumnObject(col, value)
}

// MarkDeleted flags the row at pos deleted and counts it. Callers check
// Deleted first; marking twice counts twice.
func (s *Store) MarkDeleted(pos int) error {
	row, err := s.Row(pos)
	if err != nil {
		return err
	}
	row.SetDeleted()
	s.deleted++
	return nil
}

// ClearDeleted clears the deleted flag of the row at pos.
func (s *Store) ClearDeleted(pos int) error {
	row, err := s.Row(pos)
	if err != nil {
		return err
	}
	if row.deleted {
		row.ClearDeleted()
		s.deleted--
	}
	return nil
}

// ClearUpdated clears the updated and column flags of the row at pos.
func (s *Store) ClearUpdated(pos int) error {
	row, err := s.Row(pos)
	if err != nil {
		return err
	}
	row.ClearUpdated()
	return nil
}

// ClearInserted clears the inserted flag of the row at pos.
func (s *Store) ClearInserted(pos int) error {
	row, err := s.Row(pos)
	if err != nil {
		return err
	}
	row.ClearInserted()
	return nil
}

// MoveCurrentToOriginal commits the current values of the row at pos.
func (s *Store) MoveCurrentToOriginal(pos int) error {
	row, err := s.Row(pos)
	if err != nil {
		return err
	}
	row.MoveCurrentToOriginal()
	return nil
}

// Replace swaps the store's content for rows. Handles sharing the store
// see the new content.
func (s *Store) Replace(rows []*Row) error {
	if s == nil {
		return core.ErrNotReady
	}
	s.rows = rows
	s.deleted = 0
	for _, r := range rows {
		if r.deleted {
			s.deleted++
		}
	}
	return nil
}

// Rows returns the rows in order. The slice is shared with the store.
func (s *Store) Rows() []*Row {
	if s == nil {
		return nil
	}
	return s.rows
}

// Clone returns a deep copy of the store.
func (s *Store) Clone() *Store {
	if s == nil {
		return nil
	}
	c := &Store{rows: make([]*Row, len(s.rows)), deleted: s.deleted}
	for i, r := range s.rows {
		c.rows[i] = r.Clone()
	}
	return c
}
