package engine

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"   // register postgres driver
	_ "modernc.org/sqlite" // register pure-Go SQLite driver
)

// Dialect names a relational backend. Generated SQL is selected by the
// configured Dialect, never by inspecting the server at runtime.
type Dialect string

const (
	// Postgres is the standard engine; it supports multiple named recursive CTEs.
	Postgres Dialect = "postgres"
	// SQLite is the embedded engine; it supports a single WITH RECURSIVE binding.
	SQLite Dialect = "sqlite"
)

// ParseDialect resolves a configured driver name into a Dialect.
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "postgres", "postgresql", "pg":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	}
	return "", fmt.Errorf("engine: unsupported dialect %q", name)
}

// DriverName returns the database/sql driver registered for d.
func (d Dialect) DriverName() string {
	switch d {
	case Postgres:
		return "postgres"
	default:
		return "sqlite"
	}
}

// Open opens a connection pool for the given dialect.
//
// For file-based SQLite databases, pass a path like "./db.sqlite". For
// in-memory databases, pass ":memory:"; the pool is then pinned to a single
// connection because every SQLite connection gets its own private memory
// database.
func Open(d Dialect, dsn string) (*sql.DB, error) {
	if _, err := ParseDialect(string(d)); err != nil {
		return nil, err
	}
	db, err := sql.Open(d.DriverName(), dsn)
	if err != nil {
		return nil, err
	}
	if d == SQLite && strings.Contains(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// Querier is satisfied by *sql.DB, *sql.Conn and *sql.Tx so stores can run
// inside or outside a caller's transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)
)
