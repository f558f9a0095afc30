// Package dbtest opens throwaway SQLite databases with the full schema
// applied, for storage and service tests.
package dbtest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"api_pos/internal/database"
)

// New returns a fresh database living in t's temp dir. It is closed when the
// test ends.
func New(t testing.TB) *sql.DB {
	t.Helper()
	ctx := context.Background()

	db, err := database.OpenSQLite(ctx, filepath.Join(t.TempDir(), "pos.db"))
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := database.ApplySchema(ctx, db, database.DriverSQLite); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return db
}

// Count returns the number of rows in table. Table names come from test code
// only.
func Count(t testing.TB, db *sql.DB, table string) int {
	t.Helper()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}
