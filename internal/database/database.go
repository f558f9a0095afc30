// Package database owns the single *sql.DB handle of the process and the
// schema of the point-of-sale store.
//
// The handle is opened once in main and injected into every storage; each
// storage call borrows a pooled connection and returns it before the call
// ends. Two drivers are supported: MySQL for production and the pure-Go
// SQLite driver for local runs and tests.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"

	"api_pos/internal/apperr"
	"api_pos/internal/config"

	// Register the pure-Go SQLite driver under the name "sqlite".
	_ "modernc.org/sqlite"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Querier is satisfied by *sql.DB and *sql.Tx so row mappers can run either
// standalone or inside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open opens the database configured in cfg and checks it is reachable.
func Open(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	switch cfg.DBDriver {
	case DriverMySQL:
		return openMySQL(ctx, cfg)
	case DriverSQLite:
		return OpenSQLite(ctx, cfg.DBPath)
	default:
		return nil, fmt.Errorf("database: unsupported driver %q", cfg.DBDriver)
	}
}

// MySQLDSN builds the driver DSN. ClientFoundRows makes UPDATE report matched
// rows, so updating a row with identical values is not mistaken for a miss.
func MySQLDSN(cfg *config.Config) string {
	mc := mysql.NewConfig()
	mc.User = cfg.DBUser
	mc.Passwd = cfg.DBPassword
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.DBHost, strconv.Itoa(cfg.DBPort))
	mc.DBName = cfg.DBName
	mc.ParseTime = true
	mc.Loc = time.UTC
	mc.ClientFoundRows = true
	mc.TLSConfig = cfg.DBTLS
	return mc.FormatDSN()
}

func openMySQL(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open(DriverMySQL, MySQLDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("database: open mysql: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(3 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database: ping mysql at %s: %w", cfg.DBHost, err)
	}
	return db, nil
}

// OpenSQLite opens (or creates) the SQLite database at path.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	// _time_format=sqlite stores times as "YYYY-MM-DD HH:MM:SS.fff+00:00",
	// which sorts correctly as text when every value is UTC.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)&_time_format=sqlite", path)

	db, err := sql.Open(DriverSQLite, dsn)
	if err != nil {
		return nil, fmt.Errorf("database: open sqlite %q: %w", path, err)
	}
	// SQLite performs best with a single writer connection.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database: ping sqlite %q: %w", path, err)
	}
	return db, nil
}

// WithTx runs fn inside a transaction. The transaction is committed when fn
// returns nil and rolled back otherwise, including on panic.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Persistence("begin transaction", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return apperr.Persistence("commit transaction", err)
	}
	return nil
}

// NullString maps an absent optional to SQL NULL.
func NullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// NullFloat maps an absent optional to SQL NULL.
func NullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

// NullInt maps an absent optional to SQL NULL.
func NullInt(i *int64) any {
	if i == nil {
		return nil
	}
	return *i
}

// StringPtr converts a scanned nullable column back to an optional.
func StringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// FloatPtr converts a scanned nullable column back to an optional.
func FloatPtr(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	f := nf.Float64
	return &f
}

// IntPtr converts a scanned nullable column back to an optional.
func IntPtr(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	i := ni.Int64
	return &i
}
