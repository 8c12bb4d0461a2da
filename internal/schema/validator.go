package schema

import (
	"fmt"

	"github.com/rzpsarthak13/rowcache/internal/core"
)

// Validator checks values against column definitions.
type Validator struct {
	columns []core.Column
	mapper  *TypeMapper
}

// NewValidator creates a validator over the given columns.
func NewValidator(columns []core.Column) *Validator {
	return &Validator{
		columns: columns,
		mapper:  NewTypeMapper(),
	}
}

// ValidateInsertRow checks that every non-nullable column was assigned a
// non-nil value. values and assigned are indexed by column, starting at 0.
func (v *Validator) ValidateInsertRow(values []interface{}, assigned []bool) error {
	if len(values) != len(v.columns) || len(assigned) != len(v.columns) {
		return fmt.Errorf("%w: expected %d columns, got %d", core.ErrInvalidColumnIndex, len(v.columns), len(values))
	}
	for i, col := range v.columns {
		if col.Nullable {
			continue
		}
		if !assigned[i] || values[i] == nil {
			return fmt.Errorf("%w: column '%s' cannot be NULL", core.ErrIncompleteInsertRow, col.Name)
		}
	}
	return nil
}

// ValidatePartialRecord validates the fields present in a record, such as
// the data of an UPDATE. Unknown fields are rejected.
func (v *Validator) ValidatePartialRecord(record map[string]interface{}) error {
	if record == nil {
		return fmt.Errorf("record cannot be nil")
	}

	for fieldName, fieldValue := range record {
		column := v.lookup(fieldName)
		if column == nil {
			return fmt.Errorf("%w: unknown column '%s'", core.ErrInvalidColumnIndex, fieldName)
		}

		if fieldValue == nil {
			if !column.Nullable {
				return fmt.Errorf("column '%s' cannot be NULL", fieldName)
			}
			continue
		}

		if err := v.validateColumnType(*column, fieldValue); err != nil {
			return fmt.Errorf("column '%s': %w", fieldName, err)
		}
	}

	return nil
}

func (v *Validator) lookup(name string) *core.Column {
	for i := range v.columns {
		if v.columns[i].Name == name {
			return &v.columns[i]
		}
	}
	return nil
}

// validateColumnType checks that a value converts to the column's type.
func (v *Validator) validateColumnType(column core.Column, value interface{}) error {
	if _, err := v.mapper.ConvertToDBValue(value, column.Type); err != nil {
		return fmt.Errorf("type mismatch: expected %s, got %T: %w", column.Type, value, err)
	}
	return nil
}
