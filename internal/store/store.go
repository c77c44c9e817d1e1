package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/erazemk/shramba/internal/live"
)

// TopicItems is the change bus topic published after every items mutation.
const TopicItems = "items"

// Store persists items and serves point and live queries over them.
type Store struct {
	db  *sql.DB
	bus *live.Bus
	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used to stamp created_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithBus shares an existing change bus instead of creating one.
func WithBus(bus *live.Bus) Option {
	return func(s *Store) { s.bus = bus }
}

// New creates a store over an open database whose schema is in place.
func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if s.bus == nil {
		s.bus = live.NewBus()
	}
	return s
}

// Bus returns the change bus the store publishes on.
func (s *Store) Bus() *live.Bus {
	return s.bus
}

// Now returns the store's current time.
func (s *Store) Now() time.Time {
	return s.now()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
