package writeback

import (
	"context"
	"fmt"
	"log"

	"github.com/rzpsarthak13/rowcache/internal/core"
	"github.com/rzpsarthak13/rowcache/internal/schema"
)

// SQLExecutor applies queued operations to a database.
type SQLExecutor struct {
	db         core.Database
	translator *schema.Translator
}

// NewSQLExecutor creates an executor writing to db.
func NewSQLExecutor(db core.Database) *SQLExecutor {
	return &SQLExecutor{db: db, translator: schema.NewTranslator()}
}

// Apply executes one operation. An UPDATE or DELETE that matches no row
// returns ErrStaleWrite: the row changed since the row set read it.
func (e *SQLExecutor) Apply(ctx context.Context, op *core.WriteOperation) error {
	stmt, err := e.translator.FromOperation(op)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOperation, err)
	}

	result, err := e.db.Exec(ctx, stmt.Query, stmt.Args...)
	if err != nil {
		return err
	}
	if op.Operation == core.OperationCreate {
		return nil
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		log.Printf("[WRITEBACK] %s on %s matched no row (key %v)", op.Operation, op.Table, op.Key)
		return fmt.Errorf("%w: %s on %s", ErrStaleWrite, op.Operation, op.Table)
	}
	return nil
}
