package writeback

import (
	"fmt"

	"github.com/rzpsarthak13/rowcache/internal/core"
	"github.com/rzpsarthak13/rowcache/internal/schema"
)

// OperationValidator checks write operations against the columns of the
// row set they came from before they are logged and queued.
type OperationValidator struct {
	columns   []core.Column
	validator *schema.Validator
}

// NewOperationValidator creates a validator for columns.
func NewOperationValidator(columns []core.Column) *OperationValidator {
	return &OperationValidator{
		columns:   columns,
		validator: schema.NewValidator(columns),
	}
}

// Validate checks the operation type, that keys and data are present where
// the operation needs them, and that every value fits its column.
func (v *OperationValidator) Validate(op *core.WriteOperation) error {
	if op == nil {
		return fmt.Errorf("%w: operation cannot be nil", ErrInvalidOperation)
	}
	if op.Table == "" {
		return fmt.Errorf("%w: table name is required", ErrInvalidOperation)
	}

	switch op.Operation {
	case core.OperationCreate:
		if len(op.Data) == 0 {
			return fmt.Errorf("%w: insert into %s has no data", ErrInvalidOperation, op.Table)
		}
		for _, col := range v.columns {
			if col.Nullable {
				continue
			}
			if value, ok := op.Data[col.Name]; !ok || value == nil {
				return fmt.Errorf("%w: column '%s' cannot be NULL", core.ErrIncompleteInsertRow, col.Name)
			}
		}
	case core.OperationUpdate:
		if len(op.Key) == 0 {
			return fmt.Errorf("%w: update of %s has no key", ErrInvalidOperation, op.Table)
		}
		if len(op.Data) == 0 {
			return fmt.Errorf("%w: update of %s changes nothing", ErrInvalidOperation, op.Table)
		}
	case core.OperationDelete:
		if len(op.Key) == 0 {
			return fmt.Errorf("%w: delete from %s has no key", ErrInvalidOperation, op.Table)
		}
	default:
		return fmt.Errorf("%w: unsupported operation type '%s'", ErrInvalidOperation, op.Operation)
	}

	if len(op.Data) > 0 {
		if err := v.validator.ValidatePartialRecord(op.Data); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidOperation, err)
		}
	}
	for name := range op.Key {
		if !v.known(name) {
			return fmt.Errorf("%w: unknown key column '%s'", ErrInvalidOperation, name)
		}
	}
	return nil
}

func (v *OperationValidator) known(name string) bool {
	for _, col := range v.columns {
		if col.Name == name {
			return true
		}
	}
	return false
}
