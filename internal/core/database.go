package core

import "context"

// Database is the relational backend consumed by record sources and
// synchronization providers.
type Database interface {
	// Query executes a SELECT query and returns rows.
	Query(ctx context.Context, query string, args ...interface{}) (Rows, error)

	// Exec executes a non-query statement.
	Exec(ctx context.Context, query string, args ...interface{}) (Result, error)

	// BeginTx starts a new transaction.
	BeginTx(ctx context.Context) (Transaction, error)

	// GetSchema retrieves column and index information for a table.
	GetSchema(ctx context.Context, tableName string) (*Schema, error)

	// GetTables returns all table names in the database.
	GetTables(ctx context.Context) ([]string, error)

	// Close closes the database connection.
	Close() error
}

// Rows is a forward-only result set.
type Rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	// Columns describes the result columns in order.
	Columns() ([]Column, error)
	Close() error
	Err() error
}

// Result is the outcome of an Exec.
type Result interface {
	LastInsertId() (int64, error)
	RowsAffected() (int64, error)
}

// Transaction is a database transaction. Statements run on the
// transaction's connection until Commit or Rollback.
type Transaction interface {
	Query(ctx context.Context, query string, args ...interface{}) (Rows, error)
	Exec(ctx context.Context, query string, args ...interface{}) (Result, error)
	Commit() error
	Rollback() error
}

// ConstraintChecker is implemented by databases that can recognize a
// uniqueness or key constraint violation in a driver error.
type ConstraintChecker interface {
	IsConstraintViolation(err error) bool
}
