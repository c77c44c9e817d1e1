package db

import (
	"database/sql"
	"testing"
)

// NewTestDB opens a private in-memory database with the current schema. It is
// closed when the test ends.
func NewTestDB(tb testing.TB) *sql.DB {
	tb.Helper()

	db, err := Open(":memory:")
	if err != nil {
		tb.Fatalf("opening test database: %v", err)
	}
	tb.Cleanup(func() { db.Close() })

	if err := EnsureSchema(db); err != nil {
		tb.Fatalf("applying test schema: %v", err)
	}
	return db
}
