package syncprovider

import (
	"context"
	"fmt"
	"log"

	"github.com/rzpsarthak13/rowcache/internal/core"
	"github.com/rzpsarthak13/rowcache/internal/schema"
)

// SQL writes changes directly to a database in one transaction. UPDATE and
// DELETE match on the original values of the key columns, so a row changed
// by someone else since it was read matches nothing and the whole write is
// reported as a conflict.
type SQL struct {
	db         core.Database
	translator *schema.Translator
}

// NewSQL creates a provider writing to db. When db implements
// core.ConstraintChecker, duplicate keys on INSERT are conflicts rather than
// errors.
func NewSQL(db core.Database) *SQL {
	return &SQL{db: db, translator: schema.NewTranslator()}
}

// Name identifies the provider.
func (p *SQL) Name() string { return "sql" }

// WriteData applies every change in store order and commits only if all of
// them matched.
func (p *SQL) WriteData(ctx context.Context, src core.SyncSource) (bool, error) {
	table := src.TableName()
	if table == "" {
		return false, fmt.Errorf("%w: no table name to write to", core.ErrConfiguration)
	}
	changes := src.Changes()
	if len(changes) == 0 {
		return false, nil
	}

	tx, err := p.db.BeginTx(ctx)
	if err != nil {
		return false, err
	}

	columns := src.Columns()
	keys := keyIndexes(src)
	for _, c := range changes {
		conflict, err := p.apply(ctx, tx, table, columns, keys, c)
		if err != nil || conflict {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Printf("[SYNC] ERROR: rollback on %s failed: %v", table, rbErr)
			}
			if conflict {
				log.Printf("[SYNC] Row %d of %s no longer matches the database", c.Position, table)
			}
			return conflict, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit: %w", err)
	}
	log.Printf("[SYNC] Wrote %d changed rows to %s", len(changes), table)
	return false, nil
}

func (p *SQL) apply(ctx context.Context, tx core.Transaction, table string, columns []core.Column, keys []int, c core.RowChange) (bool, error) {
	var (
		stmt schema.Statement
		err  error
	)
	kind := classify(c)
	switch kind {
	case actionNone:
		return false, nil
	case actionDelete:
		stmt, err = p.translator.Delete(table, keyFields(columns, keys, c))
	case actionInsert:
		stmt, err = p.translator.Insert(table, allFields(columns, c))
	case actionUpdate:
		stmt, err = p.translator.Update(table, changedFields(columns, c), keyFields(columns, keys, c))
	}
	if err != nil {
		return false, fmt.Errorf("row %d: %w", c.Position, err)
	}

	result, err := tx.Exec(ctx, stmt.Query, stmt.Args...)
	if err != nil {
		if kind == actionInsert && p.isConstraintViolation(err) {
			return true, nil
		}
		return false, fmt.Errorf("row %d: %w", c.Position, err)
	}
	if kind == actionInsert {
		return false, nil
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("row %d: failed to read rows affected: %w", c.Position, err)
	}
	return affected == 0, nil
}

func (p *SQL) isConstraintViolation(err error) bool {
	checker, ok := p.db.(core.ConstraintChecker)
	return ok && checker.IsConstraintViolation(err)
}
