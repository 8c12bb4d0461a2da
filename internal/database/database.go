// Package database implements core.Database over database/sql drivers.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/rzpsarthak13/rowcache/internal/core"
)

// sqlDatabase holds what MySQL and SQLite share: statement execution,
// transactions and result wrapping.
type sqlDatabase struct {
	db     *sql.DB
	tag    string
	closed bool
}

// Query executes a SELECT query and returns rows.
func (d *sqlDatabase) Query(ctx context.Context, query string, args ...interface{}) (core.Rows, error) {
	if d.closed {
		return nil, fmt.Errorf("database is closed")
	}
	log.Printf("[%s] Executing query: %s with args: %v", d.tag, query, args)
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Printf("[%s] ERROR: Query failed: %v", d.tag, err)
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	return &sqlRows{rows: rows}, nil
}

// Exec executes a non-query statement and returns a result.
func (d *sqlDatabase) Exec(ctx context.Context, query string, args ...interface{}) (core.Result, error) {
	if d.closed {
		return nil, fmt.Errorf("database is closed")
	}
	log.Printf("[%s] Executing statement: %s with args: %v", d.tag, query, args)
	result, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Printf("[%s] ERROR: Exec failed: %v", d.tag, err)
		return nil, fmt.Errorf("failed to execute statement: %w", err)
	}
	return &sqlResult{result: result}, nil
}

// BeginTx starts a new transaction.
func (d *sqlDatabase) BeginTx(ctx context.Context) (core.Transaction, error) {
	if d.closed {
		return nil, fmt.Errorf("database is closed")
	}
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &sqlTransaction{tx: tx, tag: d.tag}, nil
}

// Close closes the database connection.
func (d *sqlDatabase) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	return d.db.Close()
}

// sqlRows wraps sql.Rows to implement core.Rows.
type sqlRows struct {
	rows *sql.Rows
}

func (r *sqlRows) Next() bool                      { return r.rows.Next() }
func (r *sqlRows) Scan(dest ...interface{}) error  { return r.rows.Scan(dest...) }
func (r *sqlRows) Close() error                    { return r.rows.Close() }
func (r *sqlRows) Err() error                      { return r.rows.Err() }
func (r *sqlRows) Columns() ([]core.Column, error) { return columnsOf(r.rows) }

// columnsOf converts driver column types to core columns.
func columnsOf(rows *sql.Rows) ([]core.Column, error) {
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	cols := make([]core.Column, len(types))
	for i, ct := range types {
		col := core.Column{
			Name:     ct.Name(),
			Type:     ct.DatabaseTypeName(),
			Nullable: true,
		}
		if nullable, ok := ct.Nullable(); ok {
			col.Nullable = nullable
		}
		if precision, scale, ok := ct.DecimalSize(); ok {
			col.Precision = int(precision)
			col.Scale = int(scale)
		} else if length, ok := ct.Length(); ok && length < 1<<31 {
			col.Precision = int(length)
		}
		cols[i] = col
	}
	return cols, nil
}

// sqlResult wraps sql.Result to implement core.Result.
type sqlResult struct {
	result sql.Result
}

func (r *sqlResult) LastInsertId() (int64, error) { return r.result.LastInsertId() }
func (r *sqlResult) RowsAffected() (int64, error) { return r.result.RowsAffected() }

// sqlTransaction wraps sql.Tx to implement core.Transaction.
type sqlTransaction struct {
	tx  *sql.Tx
	tag string
}

func (t *sqlTransaction) Commit() error   { return t.tx.Commit() }
func (t *sqlTransaction) Rollback() error { return t.tx.Rollback() }

func (t *sqlTransaction) Query(ctx context.Context, query string, args ...interface{}) (core.Rows, error) {
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return &sqlRows{rows: rows}, nil
}

func (t *sqlTransaction) Exec(ctx context.Context, query string, args ...interface{}) (core.Result, error) {
	log.Printf("[%s] Executing statement in transaction: %s with args: %v", t.tag, query, args)
	result, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return &sqlResult{result: result}, nil
}

// listNames runs a single-column query and collects the strings.
func (d *sqlDatabase) listNames(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
