package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema. Timestamps are stored as epoch milliseconds.
const schema = `
CREATE TABLE IF NOT EXISTS items (
    id          INTEGER PRIMARY KEY,
    name        TEXT NOT NULL,
    image_path  TEXT,
    location    TEXT NOT NULL,
    category    TEXT NOT NULL,
    expiry_date INTEGER,
    notes       TEXT,
    created_at  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_items_created_at ON items(created_at);
CREATE INDEX IF NOT EXISTS idx_items_location ON items(location);
CREATE INDEX IF NOT EXISTS idx_items_category ON items(category);
`

// migrations is a list of SQL statements applied in order after schema creation.
// Entry i upgrades the database to user_version i+1. Append new migrations at the end.
var migrations = []string{
	// Migration 1: partial index for the expiry window queries.
	`CREATE INDEX IF NOT EXISTS idx_items_expiry_date
	     ON items(expiry_date) WHERE expiry_date IS NOT NULL`,
}

// SchemaVersion is the user_version of a fully migrated database.
var SchemaVersion = len(migrations)

// EnsureSchema creates all tables and indexes if they don't already exist and
// applies pending migrations.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("reading user_version: %w", err)
	}

	for i := version; i < len(migrations); i++ {
		if _, err := db.Exec(migrations[i]); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", i+1)); err != nil {
			return fmt.Errorf("recording migration %d: %w", i+1, err)
		}
	}

	return nil
}
