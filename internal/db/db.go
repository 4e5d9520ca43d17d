package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/existflow/grantline/internal/metrics"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound is returned when a board, grant or milestone does not exist
	ErrNotFound = errors.New("not found")
	// ErrInvalid wraps validation failures of a write
	ErrInvalid = errors.New("invalid")
)

// Supported drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Column formats. Calendar dates are stored as YYYY-MM-DD text so ordering
// by the column orders by date in both dialects.
const (
	dateLayout  = "2006-01-02"
	stampLayout = time.RFC3339Nano
)

// DB wraps the SQL connection for either dialect
type DB struct {
	sql    *sql.DB
	driver string
	dsn    string
}

// DefaultDBPath returns the default database path (~/.grantline/grantline.db)
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".grantline", "grantline.db"), nil
}

// Open opens or creates the database and runs migrations
func Open(driver, dsn string) (*DB, error) {
	var sqlDB *sql.DB
	var err error

	switch driver {
	case DriverSQLite, "":
		driver = DriverSQLite
		if dir := filepath.Dir(dsn); dsn != ":memory:" && dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		sqlDB, err = sql.Open("sqlite", dsn)
		if err == nil {
			// one writer at a time; avoids SQLITE_BUSY between pooled conns
			sqlDB.SetMaxOpenConns(1)
		}
	case DriverPostgres:
		sqlDB, err = sql.Open("postgres", dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == DriverSQLite {
		if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	db := &DB{sql: sqlDB, driver: driver, dsn: dsn}
	if err := db.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// OpenDefault opens the sqlite database at the default path
func OpenDefault() (*DB, error) {
	path, err := DefaultDBPath()
	if err != nil {
		return nil, err
	}
	return Open(DriverSQLite, path)
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.sql.Close()
}

// Driver returns the dialect in use
func (db *DB) Driver() string { return db.driver }

// DSN returns the connection string the database was opened with
func (db *DB) DSN() string { return db.dsn }

// SQL exposes the underlying pool
func (db *DB) SQL() *sql.DB { return db.sql }

// rebind rewrites ? placeholders to $n for postgres
func (db *DB) rebind(query string) string {
	if db.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// querier is satisfied by *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (db *DB) exec(ctx context.Context, q querier, op, table, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQueryDuration(op, table, time.Since(start)) }()
	return q.ExecContext(ctx, db.rebind(query), args...)
}

func (db *DB) query(ctx context.Context, q querier, op, table, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQueryDuration(op, table, time.Since(start)) }()
	return q.QueryContext(ctx, db.rebind(query), args...)
}

func (db *DB) queryRow(ctx context.Context, q querier, op, table, query string, args ...any) *sql.Row {
	start := time.Now()
	defer func() { metrics.RecordDBQueryDuration(op, table, time.Since(start)) }()
	return q.QueryRowContext(ctx, db.rebind(query), args...)
}

// inTx runs fn in a transaction, rolling back on error
func (db *DB) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func formatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

func parseDate(s string) (time.Time, error) {
	// postgres may hand back a full timestamp for text that looks like one
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad date %q in database: %w", s, err)
	}
	return t, nil
}

func formatStamp(t time.Time) string {
	return t.UTC().Format(stampLayout)
}

func parseStamp(s string) time.Time {
	t, _ := time.Parse(stampLayout, s)
	return t
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}
