package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/rzpsarthak13/rowcache/internal/core"

	_ "modernc.org/sqlite" // pure Go driver registered as "sqlite"
)

// SQLiteDatabase implements core.Database on SQLite.
type SQLiteDatabase struct {
	sqlDatabase
}

// NewSQLiteDatabase opens path, which may be ":memory:". An in-memory
// database is held to one connection so every statement sees the same
// database; a result set left open then blocks other statements until it is
// closed.
func NewSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" || strings.Contains(path, "mode=memory") {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	log.Printf("[SQLITE] Opened %s", path)
	return &SQLiteDatabase{sqlDatabase{db: db, tag: "SQLITE"}}, nil
}

// IsConstraintViolation reports whether err came from a UNIQUE, PRIMARY KEY
// or other constraint check.
func (s *SQLiteDatabase) IsConstraintViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "constraint failed")
}

// GetSchema reads column information with PRAGMA table_info.
func (s *SQLiteDatabase) GetSchema(ctx context.Context, tableName string) (*core.Schema, error) {
	if s.closed {
		return nil, fmt.Errorf("database is closed")
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", tableName))
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	schema := &core.Schema{TableName: tableName}
	var pk []string
	for rows.Next() {
		var cid, notNull, pkOrdinal int
		var name, colType string
		var def sql.NullString
		if err := rows.Scan(&cid, &name, &colType, &notNull, &def, &pkOrdinal); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		col := core.Column{
			Name:      name,
			TableName: tableName,
			Type:      colType,
			Nullable:  notNull == 0 && pkOrdinal == 0,
		}
		if def.Valid {
			col.Default = def.String
		}
		if pkOrdinal > 0 {
			pk = append(pk, name)
		}
		schema.Columns = append(schema.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating columns: %w", err)
	}
	if len(schema.Columns) == 0 {
		return nil, fmt.Errorf("table %s not found", tableName)
	}
	if len(pk) > 0 {
		schema.PrimaryKey = pk[0]
		schema.Indexes = append(schema.Indexes, core.Index{
			Name:    "PRIMARY",
			Columns: pk,
			Unique:  true,
			Primary: true,
		})
	}
	return schema, nil
}

// GetTables lists user tables.
func (s *SQLiteDatabase) GetTables(ctx context.Context) ([]string, error) {
	if s.closed {
		return nil, fmt.Errorf("database is closed")
	}
	return s.listNames(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name`)
}
