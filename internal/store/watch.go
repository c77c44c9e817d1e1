package store

import (
	"context"
	"time"

	"github.com/erazemk/shramba/internal/live"
	"github.com/erazemk/shramba/internal/model"
)

// Live variants of the list queries. Each subscription delivers the current
// result immediately and a fresh one after every items mutation until it is
// cancelled or ctx ends. Evaluation errors go to onErr, which may be nil.

// WatchAll subscribes to ListAll.
func (s *Store) WatchAll(ctx context.Context, onErr func(error)) *live.Subscription[[]model.Item] {
	return live.Watch(ctx, s.bus, TopicItems, s.ListAll, onErr)
}

// WatchRecent subscribes to ListRecent.
func (s *Store) WatchRecent(ctx context.Context, onErr func(error)) *live.Subscription[[]model.Item] {
	return live.Watch(ctx, s.bus, TopicItems, s.ListRecent, onErr)
}

// WatchByLocation subscribes to ListByLocation.
func (s *Store) WatchByLocation(ctx context.Context, location string, onErr func(error)) *live.Subscription[[]model.Item] {
	return live.Watch(ctx, s.bus, TopicItems, func(ctx context.Context) ([]model.Item, error) {
		return s.ListByLocation(ctx, location)
	}, onErr)
}

// WatchByCategory subscribes to ListByCategory.
func (s *Store) WatchByCategory(ctx context.Context, category string, onErr func(error)) *live.Subscription[[]model.Item] {
	return live.Watch(ctx, s.bus, TopicItems, func(ctx context.Context) ([]model.Item, error) {
		return s.ListByCategory(ctx, category)
	}, onErr)
}

// WatchSearch subscribes to Search.
func (s *Store) WatchSearch(ctx context.Context, query string, onErr func(error)) *live.Subscription[[]model.Item] {
	return live.Watch(ctx, s.bus, TopicItems, func(ctx context.Context) ([]model.Item, error) {
		return s.Search(ctx, query)
	}, onErr)
}

// WatchExpiring subscribes to ListExpiring over a fixed window.
func (s *Store) WatchExpiring(ctx context.Context, start, end time.Time, onErr func(error)) *live.Subscription[[]model.Item] {
	return live.Watch(ctx, s.bus, TopicItems, func(ctx context.Context) ([]model.Item, error) {
		return s.ListExpiring(ctx, start, end)
	}, onErr)
}

// WatchLocations subscribes to Locations.
func (s *Store) WatchLocations(ctx context.Context, onErr func(error)) *live.Subscription[[]string] {
	return live.Watch(ctx, s.bus, TopicItems, s.Locations, onErr)
}

// WatchCategories subscribes to Categories.
func (s *Store) WatchCategories(ctx context.Context, onErr func(error)) *live.Subscription[[]string] {
	return live.Watch(ctx, s.bus, TopicItems, s.Categories, onErr)
}
