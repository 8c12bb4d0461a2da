package database

import (
	"strings"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
)

func TestMySQLDSN(t *testing.T) {
	dsn := mysqlDSN(MySQLConfig{
		Host:              "db.local",
		Port:              3306,
		Database:          "app",
		Username:          "rowcache",
		Password:          "secret",
		ConnectionTimeout: 3 * time.Second,
	})

	if !dsn.ClientFoundRows {
		t.Error("ClientFoundRows = false, unchanged updates would report 0 rows")
	}
	if !dsn.ParseTime {
		t.Error("ParseTime = false")
	}
	if dsn.Addr != "db.local:3306" || dsn.Net != "tcp" {
		t.Errorf("addr = %s %s", dsn.Net, dsn.Addr)
	}

	formatted := dsn.FormatDSN()
	if !strings.Contains(formatted, "clientFoundRows=true") {
		t.Errorf("FormatDSN() = %q, missing clientFoundRows", formatted)
	}
	parsed, err := mysql.ParseDSN(formatted)
	if err != nil {
		t.Fatalf("ParseDSN: %v", err)
	}
	if !parsed.ClientFoundRows || parsed.DBName != "app" || parsed.Timeout != 3*time.Second {
		t.Errorf("parsed = %+v", parsed)
	}
}
