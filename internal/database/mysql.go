package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/rzpsarthak13/rowcache/internal/core"
)

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// MySQLConfig holds connection settings for MySQL.
type MySQLConfig struct {
	Host              string
	Port              int
	Database          string
	Username          string
	Password          string
	MaxOpenConns      int
	MaxIdleConns      int
	ConnMaxLifetime   time.Duration
	ConnMaxIdleTime   time.Duration
	ConnectionTimeout time.Duration
}

// MySQLDatabase implements core.Database on MySQL.
type MySQLDatabase struct {
	sqlDatabase
}

// mysqlDSN builds the driver config. Affected-row counts report matched
// rows, so an UPDATE that writes the stored values back still counts.
func mysqlDSN(cfg MySQLConfig) *mysql.Config {
	dsn := mysql.NewConfig()
	dsn.User = cfg.Username
	dsn.Passwd = cfg.Password
	dsn.Net = "tcp"
	dsn.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	dsn.DBName = cfg.Database
	dsn.ParseTime = true
	dsn.ClientFoundRows = true
	dsn.Timeout = cfg.ConnectionTimeout
	return dsn
}

// NewMySQLDatabase opens a pool and pings the server.
func NewMySQLDatabase(cfg MySQLConfig) (*MySQLDatabase, error) {
	dsn := mysqlDSN(cfg)

	db, err := sql.Open("mysql", dsn.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	timeout := cfg.ConnectionTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	log.Printf("[MYSQL] Connected to %s/%s", dsn.Addr, cfg.Database)

	return &MySQLDatabase{sqlDatabase{db: db, tag: "MYSQL"}}, nil
}

// IsConstraintViolation reports whether err is a duplicate-key error.
func (m *MySQLDatabase) IsConstraintViolation(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry
}

// GetSchema reads column and index information from INFORMATION_SCHEMA.
func (m *MySQLDatabase) GetSchema(ctx context.Context, tableName string) (*core.Schema, error) {
	if m.closed {
		return nil, fmt.Errorf("database is closed")
	}

	schema := &core.Schema{TableName: tableName}

	rows, err := m.db.QueryContext(ctx, `
		SELECT COLUMN_NAME, COLUMN_TYPE, IS_NULLABLE, COLUMN_DEFAULT, COLUMN_KEY,
		       COALESCE(NUMERIC_PRECISION, CHARACTER_MAXIMUM_LENGTH, 0), COALESCE(NUMERIC_SCALE, 0)
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION`, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, colType, nullable, key string
		var def sql.NullString
		var precision, scale int64
		if err := rows.Scan(&name, &colType, &nullable, &def, &key, &precision, &scale); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		col := core.Column{
			Name:      name,
			TableName: tableName,
			Type:      colType,
			Nullable:  nullable == "YES",
			Precision: int(precision),
			Scale:     int(scale),
		}
		if def.Valid {
			col.Default = def.String
		}
		if key == "PRI" && schema.PrimaryKey == "" {
			schema.PrimaryKey = name
		}
		schema.Columns = append(schema.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating columns: %w", err)
	}

	indexRows, err := m.db.QueryContext(ctx, `
		SELECT INDEX_NAME, COLUMN_NAME, NON_UNIQUE
		FROM INFORMATION_SCHEMA.STATISTICS
		WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?
		ORDER BY INDEX_NAME, SEQ_IN_INDEX`, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query indexes: %w", err)
	}
	defer indexRows.Close()

	byName := make(map[string]int)
	for indexRows.Next() {
		var indexName, columnName string
		var nonUnique int
		if err := indexRows.Scan(&indexName, &columnName, &nonUnique); err != nil {
			return nil, fmt.Errorf("failed to scan index: %w", err)
		}
		if i, ok := byName[indexName]; ok {
			schema.Indexes[i].Columns = append(schema.Indexes[i].Columns, columnName)
			continue
		}
		byName[indexName] = len(schema.Indexes)
		schema.Indexes = append(schema.Indexes, core.Index{
			Name:    indexName,
			Columns: []string{columnName},
			Unique:  nonUnique == 0,
			Primary: indexName == "PRIMARY",
		})
	}
	return schema, indexRows.Err()
}

// GetTables lists base tables in the current schema.
func (m *MySQLDatabase) GetTables(ctx context.Context) ([]string, error) {
	if m.closed {
		return nil, fmt.Errorf("database is closed")
	}
	return m.listNames(ctx, `
		SELECT TABLE_NAME
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = DATABASE() AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME`)
}
