package source

import (
	"context"
	"fmt"

	"github.com/rzpsarthak13/rowcache/internal/core"
	"github.com/rzpsarthak13/rowcache/internal/schema"
)

// SQL is a RecordSource over a query. Seeking backwards re-executes the
// query, so results are only stable when the query orders its rows.
type SQL struct {
	ctx   context.Context
	db    core.Database
	query string
	args  []interface{}

	rows    core.Rows
	columns []core.Column
	current []interface{}
	pos     int
	done    bool
	err     error
	mapper  *schema.TypeMapper
}

// NewSQL executes query and returns a source positioned before the first
// record. ctx bounds every execution of the query.
func NewSQL(ctx context.Context, db core.Database, query string, args ...interface{}) (*SQL, error) {
	s := &SQL{
		ctx:    ctx,
		db:     db,
		query:  query,
		args:   args,
		mapper: schema.NewTypeMapper(),
	}
	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQL) open() error {
	rows, err := s.db.Query(s.ctx, s.query, s.args...)
	if err != nil {
		return err
	}
	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		return fmt.Errorf("failed to read result columns: %w", err)
	}
	s.rows = rows
	s.columns = cols
	s.current = nil
	s.pos = 0
	s.done = false
	s.err = nil
	return nil
}

func (s *SQL) Next() bool {
	if s.err != nil || s.rows == nil || s.done {
		return false
	}
	if !s.rows.Next() {
		s.err = s.rows.Err()
		s.current = nil
		s.done = true
		s.pos++
		return false
	}

	raw := make([]interface{}, len(s.columns))
	ptrs := make([]interface{}, len(s.columns))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	if err := s.rows.Scan(ptrs...); err != nil {
		s.err = fmt.Errorf("failed to scan row: %w", err)
		return false
	}
	for i, col := range s.columns {
		v, err := s.mapper.ConvertFromDBValue(raw[i], col.Type)
		if err != nil {
			s.err = fmt.Errorf("column '%s': %w", col.Name, err)
			return false
		}
		raw[i] = v
	}
	s.current = raw
	s.pos++
	return true
}

func (s *SQL) Err() error { return s.err }

func (s *SQL) ColumnCount() int { return len(s.columns) }

func (s *SQL) Value(col int) (interface{}, error) {
	if s.current == nil {
		return nil, fmt.Errorf("%w: source is not on a record", core.ErrInvalidCursorPosition)
	}
	if col < 1 || col > len(s.columns) {
		return nil, fmt.Errorf("%w: %d", core.ErrInvalidColumnIndex, col)
	}
	return s.current[col-1], nil
}

func (s *SQL) Column(col int) (core.Column, error) {
	if col < 1 || col > len(s.columns) {
		return core.Column{}, fmt.Errorf("%w: %d", core.ErrInvalidColumnIndex, col)
	}
	return s.columns[col-1], nil
}

// Seek re-executes the query when offset is behind the current record,
// then skips forward.
func (s *SQL) Seek(offset int) error {
	if offset < 0 {
		return fmt.Errorf("%w: seek to %d", core.ErrInvalidCursorPosition, offset)
	}
	if offset < s.pos || s.rows == nil {
		if s.rows != nil {
			s.rows.Close()
		}
		if err := s.open(); err != nil {
			return err
		}
	}
	for s.pos < offset {
		if !s.Next() {
			break
		}
	}
	return s.err
}

func (s *SQL) Scrollable() bool { return true }

// Close releases the underlying result set.
func (s *SQL) Close() error {
	if s.rows == nil {
		return nil
	}
	err := s.rows.Close()
	s.rows = nil
	return err
}
