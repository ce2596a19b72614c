// Package database persists assessments in SQLite or PostgreSQL.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect identifies the SQL backend.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// DB wraps a database connection and the statement builder for its dialect.
type DB struct {
	conn    *sql.DB
	dialect Dialect
	path    string
	sb      sq.StatementBuilderType
}

// DialectFor returns the dialect implied by a DSN. postgres:// and
// postgresql:// URLs select PostgreSQL; anything else is a SQLite path.
func DialectFor(dsn string) Dialect {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return Postgres
	}
	return SQLite
}

// Open connects to dsn and brings its schema up to date.
func Open(dsn string) (*DB, error) {
	switch DialectFor(dsn) {
	case Postgres:
		return openPostgres(dsn)
	default:
		return openSQLite(strings.TrimPrefix(dsn, "file:"))
	}
}

func openSQLite(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	db := &DB{
		conn:    conn,
		dialect: SQLite,
		path:    dbPath,
		sb:      sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}
	if err := migrateSQLite(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	return db, nil
}

func openPostgres(dsn string) (*DB, error) {
	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	db := &DB{
		conn:    conn,
		dialect: Postgres,
		path:    redact(dsn),
		sb:      sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
	if err := migratePostgres(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Path returns the SQLite file path, or the DSN without its password.
func (db *DB) Path() string {
	return db.path
}

// Dialect returns the backend in use.
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// Describe names the backend for status output.
func (db *DB) Describe() string {
	if db.dialect == Postgres {
		return "PostgreSQL + pgvector"
	}
	return "SQLite"
}

// redact hides the password of a URL-style DSN.
func redact(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	scheme := strings.Index(dsn, "://")
	if at < 0 || scheme < 0 {
		return dsn
	}
	userinfo := dsn[scheme+3 : at]
	if colon := strings.Index(userinfo, ":"); colon >= 0 {
		return dsn[:scheme+3] + userinfo[:colon] + ":***" + dsn[at:]
	}
	return dsn
}
