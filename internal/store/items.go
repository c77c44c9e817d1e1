package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/erazemk/shramba/internal/model"
)

const itemColumns = `id, name, image_path, location, category, expiry_date, notes, created_at`

// Insert stores a new item and returns its assigned ID.
func (s *Store) Insert(ctx context.Context, d model.Draft) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO items (name, image_path, location, category, expiry_date, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.Name, nullString(d.ImagePath), d.Location, d.Category,
		nullMillis(d.ExpiresAt), nullString(d.Notes), s.now().UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting item id: %w", err)
	}

	s.bus.Publish(TopicItems)
	return id, nil
}

// Update replaces every editable field of the item with the given ID.
// Updating an item that does not exist affects no rows and is not an error.
func (s *Store) Update(ctx context.Context, item model.Item) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE items SET name = ?, image_path = ?, location = ?, category = ?, expiry_date = ?, notes = ?
		 WHERE id = ?`,
		item.Name, nullString(item.ImagePath), item.Location, item.Category,
		nullMillis(item.ExpiresAt), nullString(item.Notes), item.ID,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}

	if n, err := result.RowsAffected(); err == nil && n > 0 {
		s.bus.Publish(TopicItems)
	}
	return nil
}

// Delete removes the item with the given ID. Deleting a missing item is not an error.
func (s *Store) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}

	if n, err := result.RowsAffected(); err == nil && n > 0 {
		s.bus.Publish(TopicItems)
	}
	return nil
}

// Get returns an item by ID, or nil if it does not exist.
func (s *Store) Get(ctx context.Context, id int64) (*model.Item, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id,
	)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (*model.Item, error) {
	item := &model.Item{}
	var imagePath, notes sql.NullString
	var expiry sql.NullInt64
	var createdAt int64
	if err := row.Scan(&item.ID, &item.Name, &imagePath, &item.Location, &item.Category, &expiry, &notes, &createdAt); err != nil {
		return nil, err
	}
	item.ImagePath = imagePath.String
	item.Notes = notes.String
	if expiry.Valid {
		t := time.UnixMilli(expiry.Int64).UTC()
		item.ExpiresAt = &t
	}
	item.CreatedAt = time.UnixMilli(createdAt).UTC()
	return item, nil
}

func scanItems(rows *sql.Rows) ([]model.Item, error) {
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// nullString maps blank text to NULL.
func nullString(s string) sql.NullString {
	if strings.TrimSpace(s) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}
