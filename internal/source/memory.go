// Package source provides core.RecordSource implementations.
package source

import (
	"fmt"

	"github.com/rzpsarthak13/rowcache/internal/core"
)

// Memory is a RecordSource over in-memory records.
type Memory struct {
	columns     []core.Column
	records     [][]interface{}
	pos         int
	forwardOnly bool
}

// NewMemory returns a source over records. Every record must have one value
// per column.
func NewMemory(columns []core.Column, records [][]interface{}) (*Memory, error) {
	for i, rec := range records {
		if len(rec) != len(columns) {
			return nil, fmt.Errorf("record %d has %d values, expected %d", i+1, len(rec), len(columns))
		}
	}
	return &Memory{columns: columns, records: records}, nil
}

// ForwardOnly makes Seek reject backward moves.
func (m *Memory) ForwardOnly() *Memory {
	m.forwardOnly = true
	return m
}

func (m *Memory) Next() bool {
	if m.pos < len(m.records) {
		m.pos++
		return true
	}
	m.pos = len(m.records) + 1
	return false
}

func (m *Memory) Err() error { return nil }

func (m *Memory) ColumnCount() int { return len(m.columns) }

func (m *Memory) Value(col int) (interface{}, error) {
	if m.pos < 1 || m.pos > len(m.records) {
		return nil, fmt.Errorf("%w: source is not on a record", core.ErrInvalidCursorPosition)
	}
	if col < 1 || col > len(m.columns) {
		return nil, fmt.Errorf("%w: %d", core.ErrInvalidColumnIndex, col)
	}
	return m.records[m.pos-1][col-1], nil
}

func (m *Memory) Column(col int) (core.Column, error) {
	if col < 1 || col > len(m.columns) {
		return core.Column{}, fmt.Errorf("%w: %d", core.ErrInvalidColumnIndex, col)
	}
	return m.columns[col-1], nil
}

func (m *Memory) Seek(offset int) error {
	if offset < 0 {
		return fmt.Errorf("%w: seek to %d", core.ErrInvalidCursorPosition, offset)
	}
	if m.forwardOnly && offset < m.pos {
		return fmt.Errorf("%w: forward-only source cannot seek back to %d", core.ErrCapability, offset)
	}
	if offset > len(m.records) {
		offset = len(m.records)
	}
	m.pos = offset
	return nil
}

func (m *Memory) Scrollable() bool { return !m.forwardOnly }
