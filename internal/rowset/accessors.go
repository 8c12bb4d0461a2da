package rowset

import "time"

// GetObject returns the value of a column of the current row, or of the
// insert row when the cursor is on it.
func (rs *RowSet) GetObject(col int) (interface{}, error) {
	if rs.cur.onInsert {
		return rs.insert.row.ColumnObject(col)
	}
	row, err := rs.currentRow()
	if err != nil {
		return nil, err
	}
	return row.ColumnObject(col)
}

// GetObjectByName returns the value of a column looked up with FindColumn.
func (rs *RowSet) GetObjectByName(name string) (interface{}, error) {
	col, err := rs.FindColumn(name)
	if err != nil {
		return nil, err
	}
	return rs.GetObject(col)
}

// IsNull reports whether a column of the current row is NULL.
func (rs *RowSet) IsNull(col int) (bool, error) {
	v, err := rs.GetObject(col)
	if err != nil {
		return false, err
	}
	return v == nil, nil
}

// GetString returns a column as text. NULL reads as "".
func (rs *RowSet) GetString(col int) (string, error) {
	v, err := rs.GetObject(col)
	if err != nil || v == nil {
		return "", err
	}
	return rs.mapper.ToString(v)
}

// GetInt64 returns a column as int64. NULL reads as 0.
func (rs *RowSet) GetInt64(col int) (int64, error) {
	v, err := rs.GetObject(col)
	if err != nil || v == nil {
		return 0, err
	}
	return rs.mapper.ToInt64(v)
}

// GetInt returns a column as int. NULL reads as 0.
func (rs *RowSet) GetInt(col int) (int, error) {
	v, err := rs.GetObject(col)
	if err != nil || v == nil {
		return 0, err
	}
	return rs.mapper.ToInt(v)
}

// GetFloat64 returns a column as float64. NULL reads as 0.
func (rs *RowSet) GetFloat64(col int) (float64, error) {
	v, err := rs.GetObject(col)
	if err != nil || v == nil {
		return 0, err
	}
	return rs.mapper.ToFloat64(v)
}

// GetBool returns a column as bool. NULL reads as false.
func (rs *RowSet) GetBool(col int) (bool, error) {
	v, err := rs.GetObject(col)
	if err != nil || v == nil {
		return false, err
	}
	return rs.mapper.ToBool(v)
}

// GetTime returns a column as time.Time. NULL reads as the zero time.
func (rs *RowSet) GetTime(col int) (time.Time, error) {
	v, err := rs.GetObject(col)
	if err != nil || v == nil {
		return time.Time{}, err
	}
	return rs.mapper.ToTime(v)
}

// GetBytes returns a column as a byte slice. NULL reads as nil.
func (rs *RowSet) GetBytes(col int) ([]byte, error) {
	v, err := rs.GetObject(col)
	if err != nil || v == nil {
		return nil, err
	}
	return rs.mapper.ToBytes(v)
}

// GetStringByName is GetString on a column looked up with FindColumn.
func (rs *RowSet) GetStringByName(name string) (string, error) {
	col, err := rs.FindColumn(name)
	if err != nil {
		return "", err
	}
	return rs.GetString(col)
}

// GetInt64ByName is GetInt64 on a column looked up with FindColumn.
func (rs *RowSet) GetInt64ByName(name string) (int64, error) {
	col, err := rs.FindColumn(name)
	if err != nil {
		return 0, err
	}
	return rs.GetInt64(col)
}

// GetFloat64ByName is GetFloat64 on a column looked up with FindColumn.
func (rs *RowSet) GetFloat64ByName(name string) (float64, error) {
	col, err := rs.FindColumn(name)
	if err != nil {
		return 0, err
	}
	return rs.GetFloat64(col)
}

// GetBoolByName is GetBool on a column looked up with FindColumn.
func (rs *RowSet) GetBoolByName(name string) (bool, error) {
	col, err := rs.FindColumn(name)
	if err != nil {
		return false, err
	}
	return rs.GetBool(col)
}

// GetTimeByName is GetTime on a column looked up with FindColumn.
func (rs *RowSet) GetTimeByName(name string) (time.Time, error) {
	col, err := rs.FindColumn(name)
	if err != nil {
		return time.Time{}, err
	}
	return rs.GetTime(col)
}
