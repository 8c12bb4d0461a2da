// Package syncprovider implements core.SyncProvider: SQL writes changes in
// one transaction with optimistic checks, Queue hands them to a write-back
// queue for a drainer.
package syncprovider

import (
	"github.com/rzpsarthak13/rowcache/internal/core"
	"github.com/rzpsarthak13/rowcache/internal/schema"
)

// action is the statement a dirty row turns into.
type action int

const (
	actionNone action = iota
	actionInsert
	actionUpdate
	actionDelete
)

// classify decides what to write for a row. A row inserted and then
// deleted before sync never reached the database and writes nothing.
func classify(c core.RowChange) action {
	switch {
	case c.Inserted && c.Deleted:
		return actionNone
	case c.Deleted:
		return actionDelete
	case c.Inserted:
		return actionInsert
	case c.Updated && len(c.ChangedColumns) > 0:
		return actionUpdate
	default:
		return actionNone
	}
}

// keyIndexes returns the 1-based key columns, every column when src names
// none.
func keyIndexes(src core.SyncSource) []int {
	if keys := src.KeyColumns(); len(keys) > 0 {
		return keys
	}
	all := make([]int, len(src.Columns()))
	for i := range all {
		all[i] = i + 1
	}
	return all
}

// keyFields pairs the key columns with the original values of the row.
func keyFields(columns []core.Column, keys []int, c core.RowChange) []schema.Field {
	fields := make([]schema.Field, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, schema.Field{Column: columns[k-1], Value: c.Original[k-1]})
	}
	return fields
}

// allFields pairs every column with the current values of the row.
func allFields(columns []core.Column, c core.RowChange) []schema.Field {
	fields := make([]schema.Field, len(columns))
	for i, col := range columns {
		fields[i] = schema.Field{Column: col, Value: c.Current[i]}
	}
	return fields
}

// changedFields pairs the changed columns with their current values.
func changedFields(columns []core.Column, c core.RowChange) []schema.Field {
	fields := make([]schema.Field, 0, len(c.ChangedColumns))
	for _, col := range c.ChangedColumns {
		fields = append(fields, schema.Field{Column: columns[col-1], Value: c.Current[col-1]})
	}
	return fields
}

func fieldMap(fields []schema.Field) map[string]interface{} {
	m := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		m[f.Column.Name] = f.Value
	}
	return m
}
