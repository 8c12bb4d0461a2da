package schema

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rzpsarthak13/rowcache/internal/core"
)

// Kind is the Go representation chosen for a database column type.
type Kind int

const (
	KindUnknown Kind = iota
	KindInt
	KindFloat
	KindDecimal
	KindString
	KindBytes
	KindTime
	KindBool
	KindJSON
)

// TypeMapper converts between database values and the Go values held in a
// row set, and backs the typed accessors.
type TypeMapper struct{}

// NewTypeMapper creates a new type mapper.
func NewTypeMapper() *TypeMapper {
	return &TypeMapper{}
}

// baseType strips size/precision information: VARCHAR(255) -> VARCHAR.
func baseType(dbType string) string {
	t := strings.ToUpper(strings.TrimSpace(dbType))
	if t == "TINYINT(1)" {
		return "BOOL"
	}
	if idx := strings.Index(t, "("); idx > 0 {
		t = t[:idx]
	}
	return strings.TrimSpace(strings.TrimSuffix(t, " UNSIGNED"))
}

// KindOf classifies a database type name.
func (tm *TypeMapper) KindOf(dbType string) Kind {
	switch baseType(dbType) {
	case "INT", "INTEGER", "MEDIUMINT", "BIGINT", "SMALLINT", "TINYINT":
		return KindInt
	case "FLOAT", "DOUBLE", "DOUBLE PRECISION", "REAL":
		return KindFloat
	case "DECIMAL", "NUMERIC":
		return KindDecimal
	case "VARCHAR", "CHAR", "TEXT", "LONGTEXT", "MEDIUMTEXT", "TINYTEXT", "CLOB":
		return KindString
	case "BINARY", "VARBINARY", "BLOB", "LONGBLOB", "MEDIUMBLOB", "TINYBLOB":
		return KindBytes
	case "DATE", "DATETIME", "TIMESTAMP", "TIME":
		return KindTime
	case "BOOLEAN", "BOOL":
		return KindBool
	case "JSON", "JSONB":
		return KindJSON
	default:
		return KindUnknown
	}
}

// ConvertFromDBValue converts a scanned database value to the value stored
// in a row. Integers become int64, floats float64, decimals string.
func (tm *TypeMapper) ConvertFromDBValue(value interface{}, dbType string) (interface{}, error) {
	if value == nil {
		return nil, nil
	}

	// Handle sql.Null* types
	if valuer, ok := value.(driver.Valuer); ok {
		val, err := valuer.Value()
		if err != nil {
			return nil, err
		}
		if val == nil {
			return nil, nil
		}
		value = val
	}

	switch tm.KindOf(dbType) {
	case KindInt:
		return tm.ToInt64(value)
	case KindFloat:
		return tm.ToFloat64(value)
	case KindDecimal, KindString, KindJSON:
		return tm.ToString(value)
	case KindBytes:
		return tm.ToBytes(value)
	case KindTime:
		return tm.ToTime(value)
	case KindBool:
		return tm.ToBool(value)
	default:
		// Unknown types keep whatever the driver produced, with raw bytes
		// read as text.
		if b, ok := value.([]byte); ok {
			return string(b), nil
		}
		return value, nil
	}
}

// ConvertToDBValue converts a row value to a statement argument for a
// column of dbType.
func (tm *TypeMapper) ConvertToDBValue(value interface{}, dbType string) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	switch tm.KindOf(dbType) {
	case KindInt:
		return tm.ToInt64(value)
	case KindFloat:
		return tm.ToFloat64(value)
	case KindDecimal, KindString:
		return tm.ToString(value)
	case KindBytes:
		return tm.ToBytes(value)
	case KindTime:
		return tm.ToTime(value)
	case KindBool:
		return tm.ToBool(value)
	case KindJSON:
		return tm.toJSON(value)
	default:
		return value, nil
	}
}

func conversionError(value interface{}, target string, cause error) error {
	if cause != nil {
		return fmt.Errorf("%w: cannot convert %T to %s: %v", core.ErrDataConversion, value, target, cause)
	}
	return fmt.Errorf("%w: cannot convert %T to %s", core.ErrDataConversion, value, target)
}

// ToInt64 converts a value to int64. Floats must be integral.
func (tm *TypeMapper) ToInt64(value interface{}) (int64, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case uint:
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return 0, conversionError(value, "int64", fmt.Errorf("%d overflows", v))
		}
		return int64(v), nil
	case float32:
		return tm.ToInt64(float64(v))
	case float64:
		if v != math.Trunc(v) {
			return 0, conversionError(value, "int64", fmt.Errorf("%g is not integral", v))
		}
		return int64(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case []byte:
		return tm.ToInt64(string(v))
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, conversionError(value, "int64", err)
		}
		return i, nil
	default:
		return 0, conversionError(value, "int64", nil)
	}
}

// ToInt converts a value to int.
func (tm *TypeMapper) ToInt(value interface{}) (int, error) {
	i, err := tm.ToInt64(value)
	if err != nil {
		return 0, err
	}
	if i > math.MaxInt || i < math.MinInt {
		return 0, conversionError(value, "int", fmt.Errorf("%d overflows", i))
	}
	return int(i), nil
}

// ToFloat64 converts a value to float64.
func (tm *TypeMapper) ToFloat64(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case []byte:
		return tm.ToFloat64(string(v))
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, conversionError(value, "float64", err)
		}
		return f, nil
	default:
		return 0, conversionError(value, "float64", nil)
	}
}

// ToString converts a value to its text form. Times use RFC 3339.
func (tm *TypeMapper) ToString(value interface{}) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v), nil
	case float32, float64:
		return fmt.Sprintf("%g", v), nil
	case bool:
		return strconv.FormatBool(v), nil
	case time.Time:
		return v.Format(time.RFC3339Nano), nil
	default:
		// Try JSON encoding for complex types
		bytes, err := json.Marshal(v)
		if err != nil {
			return "", conversionError(value, "string", err)
		}
		return string(bytes), nil
	}
}

// ToBytes converts a value to a byte slice.
func (tm *TypeMapper) ToBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, conversionError(value, "[]byte", nil)
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"15:04:05",
}

// ToTime converts a value to time.Time. Integers are Unix seconds.
func (tm *TypeMapper) ToTime(value interface{}) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case []byte:
		return tm.ToTime(string(v))
	case string:
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t, nil
			}
		}
		return time.Time{}, conversionError(value, "time.Time", fmt.Errorf("unrecognized layout %q", v))
	case int64:
		return time.Unix(v, 0).UTC(), nil
	default:
		return time.Time{}, conversionError(value, "time.Time", nil)
	}
}

// ToBool converts a value to bool. Non-zero numbers are true.
func (tm *TypeMapper) ToBool(value interface{}) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		i, err := tm.ToInt64(v)
		if err != nil {
			return false, err
		}
		return i != 0, nil
	case []byte:
		return tm.ToBool(string(v))
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			// Try numeric string
			if i, err := strconv.ParseInt(v, 10, 64); err == nil {
				return i != 0, nil
			}
			return false, conversionError(value, "bool", err)
		}
		return b, nil
	default:
		return false, conversionError(value, "bool", nil)
	}
}

func (tm *TypeMapper) toJSON(value interface{}) (interface{}, error) {
	// JSON columns take a string holding valid JSON.
	switch v := value.(type) {
	case string:
		if !json.Valid([]byte(v)) {
			return nil, conversionError(value, "JSON", fmt.Errorf("invalid JSON text"))
		}
		return v, nil
	case []byte:
		if !json.Valid(v) {
			return nil, conversionError(value, "JSON", fmt.Errorf("invalid JSON bytes"))
		}
		return string(v), nil
	default:
		jsonBytes, err := json.Marshal(v)
		if err != nil {
			return nil, conversionError(value, "JSON", err)
		}
		return string(jsonBytes), nil
	}
}
