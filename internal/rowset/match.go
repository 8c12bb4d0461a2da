package rowset

import (
	"github.com/rzpsarthak13/rowcache/internal/core"
	"github.com/rzpsarthak13/rowcache/internal/messages"
)

// MaxMatchColumns is the number of match column slots.
const MaxMatchColumns = 10

// matchColumns holds the columns that identify a row. Each slot holds
// either an index or a name; 0 and "" mean unset.
type matchColumns struct {
	indexes [MaxMatchColumns]int
	names   [MaxMatchColumns]string
}

func (m *matchColumns) empty() bool {
	return m.indexes[0] == 0 && m.names[0] == ""
}

// SetMatchColumnIndexes fills the first len(cols) slots with column
// indexes. Each slot must be unset.
func (rs *RowSet) SetMatchColumnIndexes(cols ...int) error {
	if len(cols) == 0 || len(cols) > MaxMatchColumns {
		return rs.fail(core.ErrConfiguration, messages.MatchColumnInvalid, cols)
	}
	for i, col := range cols {
		if col < 1 {
			return rs.fail(core.ErrConfiguration, messages.MatchColumnInvalid, col)
		}
		if rs.match.names[i] != "" {
			return rs.fail(core.ErrConfiguration, messages.MatchColumnMixed, i+1)
		}
		if rs.match.indexes[i] != 0 {
			return rs.fail(core.ErrConfiguration, messages.MatchColumnSet, i+1)
		}
	}
	copy(rs.match.indexes[:], cols)
	return nil
}

// SetMatchColumnNames fills the first len(names) slots with column names.
// Each slot must be unset.
func (rs *RowSet) SetMatchColumnNames(names ...string) error {
	if len(names) == 0 || len(names) > MaxMatchColumns {
		return rs.fail(core.ErrConfiguration, messages.MatchColumnInvalid, names)
	}
	for i, name := range names {
		if name == "" {
			return rs.fail(core.ErrConfiguration, messages.MatchColumnInvalid, name)
		}
		if rs.match.indexes[i] != 0 {
			return rs.fail(core.ErrConfiguration, messages.MatchColumnMixed, i+1)
		}
		if rs.match.names[i] != "" {
			return rs.fail(core.ErrConfiguration, messages.MatchColumnSet, i+1)
		}
	}
	copy(rs.match.names[:], names)
	return nil
}

// MatchColumnIndexes returns the column indexes set as match columns.
func (rs *RowSet) MatchColumnIndexes() ([]int, error) {
	if rs.match.indexes[0] == 0 {
		return nil, rs.fail(core.ErrConfiguration, messages.NoMatchColumns)
	}
	var out []int
	for _, idx := range rs.match.indexes {
		if idx != 0 {
			out = append(out, idx)
		}
	}
	return out, nil
}

// MatchColumnNames returns the column names set as match columns.
func (rs *RowSet) MatchColumnNames() ([]string, error) {
	if rs.match.names[0] == "" {
		return nil, rs.fail(core.ErrConfiguration, messages.NoMatchColumns)
	}
	var out []string
	for _, name := range rs.match.names {
		if name != "" {
			out = append(out, name)
		}
	}
	return out, nil
}

// UnsetMatchColumnIndexes clears the slots holding exactly cols.
func (rs *RowSet) UnsetMatchColumnIndexes(cols ...int) error {
	if len(cols) == 0 {
		return rs.fail(core.ErrConfiguration, messages.MatchColumnInvalid, cols)
	}
	for i, col := range cols {
		if i >= MaxMatchColumns || rs.match.names[i] != "" {
			return rs.fail(core.ErrConfiguration, messages.MatchColumnMixed, i+1)
		}
		if rs.match.indexes[i] != col {
			return rs.fail(core.ErrConfiguration, messages.MatchColumnUnset)
		}
	}
	for i := range cols {
		rs.match.indexes[i] = 0
	}
	return nil
}

// UnsetMatchColumnNames clears the slots holding exactly names.
func (rs *RowSet) UnsetMatchColumnNames(names ...string) error {
	if len(names) == 0 {
		return rs.fail(core.ErrConfiguration, messages.MatchColumnInvalid, names)
	}
	for i, name := range names {
		if i >= MaxMatchColumns || rs.match.indexes[i] != 0 {
			return rs.fail(core.ErrConfiguration, messages.MatchColumnMixed, i+1)
		}
		if rs.match.names[i] != name {
			return rs.fail(core.ErrConfiguration, messages.MatchColumnUnset)
		}
	}
	for i := range names {
		rs.match.names[i] = ""
	}
	return nil
}

// keyColumns resolves the match columns to 1-based indexes. Nil means no
// match columns are set.
func (rs *RowSet) keyColumns() ([]int, error) {
	if rs.match.empty() {
		return nil, nil
	}
	var keys []int
	for i := 0; i < MaxMatchColumns; i++ {
		switch {
		case rs.match.indexes[i] != 0:
			idx := rs.match.indexes[i]
			if idx > len(rs.data.columns) {
				return nil, rs.fail(core.ErrInvalidColumnIndex, messages.MatchColumnInvalid, idx)
			}
			keys = append(keys, idx)
		case rs.match.names[i] != "":
			idx, err := rs.FindColumn(rs.match.names[i])
			if err != nil {
				return nil, err
			}
			keys = append(keys, idx)
		}
	}
	return keys, nil
}
