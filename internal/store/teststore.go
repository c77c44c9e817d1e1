package store

import (
	"testing"

	"github.com/erazemk/shramba/internal/db"
)

// NewTestStore creates a store over a fresh in-memory database.
func NewTestStore(tb testing.TB, opts ...Option) *Store {
	tb.Helper()
	return New(db.NewTestDB(tb), opts...)
}
