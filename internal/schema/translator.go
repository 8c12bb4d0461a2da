package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rzpsarthak13/rowcache/internal/core"
)

// Statement is a parameterized SQL statement.
type Statement struct {
	Query string
	Args  []interface{}
}

// Field pairs a column with a value.
type Field struct {
	Column core.Column
	Value  interface{}
}

// Translator builds the INSERT, UPDATE and DELETE statements used to write
// row changes back. Placeholders are '?', accepted by MySQL and SQLite.
type Translator struct {
	mapper *TypeMapper
}

// NewTranslator creates a new statement translator.
func NewTranslator() *Translator {
	return &Translator{mapper: NewTypeMapper()}
}

// Insert builds an INSERT of fields into table.
func (t *Translator) Insert(table string, fields []Field) (Statement, error) {
	if table == "" {
		return Statement{}, fmt.Errorf("table name is required")
	}
	if len(fields) == 0 {
		return Statement{}, fmt.Errorf("no columns to insert")
	}

	columns := make([]string, 0, len(fields))
	placeholders := make([]string, 0, len(fields))
	args := make([]interface{}, 0, len(fields))
	for _, f := range fields {
		arg, err := t.arg(f)
		if err != nil {
			return Statement{}, err
		}
		columns = append(columns, f.Column.Name)
		placeholders = append(placeholders, "?")
		args = append(args, arg)
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		table,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	)
	return Statement{Query: query, Args: args}, nil
}

// Update builds an UPDATE setting set on the rows matching where.
func (t *Translator) Update(table string, set, where []Field) (Statement, error) {
	if table == "" {
		return Statement{}, fmt.Errorf("table name is required")
	}
	if len(set) == 0 {
		return Statement{}, fmt.Errorf("no columns to update")
	}
	if len(where) == 0 {
		return Statement{}, fmt.Errorf("update of %s needs key columns", table)
	}

	setParts := make([]string, 0, len(set))
	args := make([]interface{}, 0, len(set)+len(where))
	for _, f := range set {
		arg, err := t.arg(f)
		if err != nil {
			return Statement{}, err
		}
		setParts = append(setParts, fmt.Sprintf("%s = ?", f.Column.Name))
		args = append(args, arg)
	}

	clause, whereArgs, err := t.where(where)
	if err != nil {
		return Statement{}, err
	}
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s", table, strings.Join(setParts, ", "), clause)
	return Statement{Query: query, Args: append(args, whereArgs...)}, nil
}

// Delete builds a DELETE of the rows matching where.
func (t *Translator) Delete(table string, where []Field) (Statement, error) {
	if table == "" {
		return Statement{}, fmt.Errorf("table name is required")
	}
	if len(where) == 0 {
		return Statement{}, fmt.Errorf("delete from %s needs key columns", table)
	}
	clause, args, err := t.where(where)
	if err != nil {
		return Statement{}, err
	}
	return Statement{Query: fmt.Sprintf("DELETE FROM %s WHERE %s", table, clause), Args: args}, nil
}

// FromOperation builds the statement for a queued write operation.
// Map entries are emitted in column-name order.
func (t *Translator) FromOperation(op *core.WriteOperation) (Statement, error) {
	if op == nil {
		return Statement{}, fmt.Errorf("operation cannot be nil")
	}
	switch op.Operation {
	case core.OperationCreate:
		return t.Insert(op.Table, fieldsFromMap(op.Data))
	case core.OperationUpdate:
		return t.Update(op.Table, fieldsFromMap(op.Data), fieldsFromMap(op.Key))
	case core.OperationDelete:
		return t.Delete(op.Table, fieldsFromMap(op.Key))
	default:
		return Statement{}, fmt.Errorf("unsupported operation type: %s", op.Operation)
	}
}

// where renders key comparisons; nil values compare with IS NULL.
func (t *Translator) where(fields []Field) (string, []interface{}, error) {
	parts := make([]string, 0, len(fields))
	args := make([]interface{}, 0, len(fields))
	for _, f := range fields {
		if f.Value == nil {
			parts = append(parts, fmt.Sprintf("%s IS NULL", f.Column.Name))
			continue
		}
		arg, err := t.arg(f)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, fmt.Sprintf("%s = ?", f.Column.Name))
		args = append(args, arg)
	}
	return strings.Join(parts, " AND "), args, nil
}

func (t *Translator) arg(f Field) (interface{}, error) {
	if f.Value == nil || f.Column.Type == "" {
		return f.Value, nil
	}
	converted, err := t.mapper.ConvertToDBValue(f.Value, f.Column.Type)
	if err != nil {
		return nil, fmt.Errorf("failed to convert value for column '%s': %w", f.Column.Name, err)
	}
	return converted, nil
}

func fieldsFromMap(m map[string]interface{}) []Field {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	fields := make([]Field, 0, len(names))
	for _, name := range names {
		fields = append(fields, Field{Column: core.Column{Name: name}, Value: m[name]})
	}
	return fields
}
