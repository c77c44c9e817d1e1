package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/erazemk/shramba/internal/model"
)

// RecentLimit is the number of items returned by ListRecent.
const RecentLimit = 5

// ExpiringLimit caps the number of items returned by ListExpiring.
const ExpiringLimit = 5

// ExpiringWindow is how far ahead an item counts as expiring soon.
const ExpiringWindow = 30 * 24 * time.Hour

const newestFirst = ` ORDER BY created_at DESC, id DESC`

// ListAll returns every item, newest first.
func (s *Store) ListAll(ctx context.Context) ([]model.Item, error) {
	return s.list(ctx, "listing items",
		`SELECT `+itemColumns+` FROM items`+newestFirst)
}

// ListRecent returns the most recently created items, newest first.
func (s *Store) ListRecent(ctx context.Context) ([]model.Item, error) {
	return s.list(ctx, "listing recent items",
		`SELECT `+itemColumns+` FROM items`+newestFirst+` LIMIT ?`, RecentLimit)
}

// ListByLocation returns the items stored at exactly location, newest first.
func (s *Store) ListByLocation(ctx context.Context, location string) ([]model.Item, error) {
	return s.list(ctx, "listing items by location",
		`SELECT `+itemColumns+` FROM items WHERE location = ?`+newestFirst, location)
}

// ListByCategory returns the items in exactly category, newest first.
func (s *Store) ListByCategory(ctx context.Context, category string) ([]model.Item, error) {
	return s.list(ctx, "listing items by category",
		`SELECT `+itemColumns+` FROM items WHERE category = ?`+newestFirst, category)
}

// Search returns the items whose name contains query, ignoring case, newest
// first. A blank query matches nothing.
func (s *Store) Search(ctx context.Context, query string) ([]model.Item, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []model.Item{}, nil
	}
	return s.list(ctx, "searching items",
		`SELECT `+itemColumns+` FROM items
		 WHERE lower(name) LIKE '%' || lower(?) || '%' ESCAPE '\'`+newestFirst,
		escapeLike(query))
}

// ListExpiring returns up to ExpiringLimit items expiring within [start, end],
// soonest first.
func (s *Store) ListExpiring(ctx context.Context, start, end time.Time) ([]model.Item, error) {
	return s.list(ctx, "listing expiring items",
		`SELECT `+itemColumns+` FROM items
		 WHERE expiry_date IS NOT NULL AND expiry_date BETWEEN ? AND ?
		 ORDER BY expiry_date ASC, id ASC LIMIT ?`,
		start.UnixMilli(), end.UnixMilli(), ExpiringLimit)
}

// Locations returns every location currently in use.
func (s *Store) Locations(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, "location")
}

// Categories returns every category currently in use.
func (s *Store) Categories(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, "category")
}

// CountItems returns the total number of items.
func (s *Store) CountItems(ctx context.Context) (int, error) {
	return s.count(ctx, "counting items", `SELECT COUNT(*) FROM items`)
}

// CountLocations returns the number of distinct locations in use.
func (s *Store) CountLocations(ctx context.Context) (int, error) {
	return s.count(ctx, "counting locations", `SELECT COUNT(DISTINCT location) FROM items`)
}

// CountExpiring returns the number of items expiring after now and no later
// than now+ExpiringWindow.
func (s *Store) CountExpiring(ctx context.Context, now time.Time) (int, error) {
	return s.count(ctx, "counting expiring items",
		`SELECT COUNT(*) FROM items
		 WHERE expiry_date IS NOT NULL AND expiry_date > ? AND expiry_date <= ?`,
		now.UnixMilli(), now.Add(ExpiringWindow).UnixMilli())
}

// Stats computes the dashboard summary at now.
func (s *Store) Stats(ctx context.Context, now time.Time) (model.Stats, error) {
	var st model.Stats
	var err error
	if st.TotalItems, err = s.CountItems(ctx); err != nil {
		return model.Stats{}, err
	}
	if st.LocationCount, err = s.CountLocations(ctx); err != nil {
		return model.Stats{}, err
	}
	if st.ExpiringCount, err = s.CountExpiring(ctx, now); err != nil {
		return model.Stats{}, err
	}
	return st, nil
}

func (s *Store) list(ctx context.Context, what, query string, args ...any) ([]model.Item, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	items, err := scanItems(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	return items, nil
}

// distinct lists the distinct values of a fixed column name.
func (s *Store) distinct(ctx context.Context, column string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT `+column+` FROM items ORDER BY `+column)
	if err != nil {
		return nil, fmt.Errorf("listing %ss: %w", column, err)
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", column, err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

func (s *Store) count(ctx context.Context, what, query string, args ...any) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", what, err)
	}
	return n, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
