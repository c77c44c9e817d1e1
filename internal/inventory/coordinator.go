// Package inventory coordinates the application state shown by the
// presentation layer: warm item lists, dashboard stats, expiring items and
// the current search.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/erazemk/shramba/internal/live"
	"github.com/erazemk/shramba/internal/model"
	"github.com/erazemk/shramba/internal/store"
)

// DefaultGrace is how long a shared list keeps its query running after the
// last subscriber detaches.
const DefaultGrace = 5 * time.Second

// ErrInvalidItem is returned when an item is missing a required field.
var ErrInvalidItem = errors.New("invalid item")

// Options configures a Coordinator.
type Options struct {
	Grace  time.Duration
	Logger zerolog.Logger
}

// Coordinator owns the long-lived subscriptions behind the application state.
type Coordinator struct {
	store  *store.Store
	log    zerolog.Logger
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	all    *live.Shared[[]model.Item]
	recent *live.Shared[[]model.Item]

	statsMu sync.Mutex
	stats   *live.Value[model.Stats]

	expiring    *live.Value[[]model.Item]
	expiringSub *live.Subscription[[]model.Item]

	searchMu    sync.Mutex
	searchGen   uint64
	searchQuery string
	searchSub   *live.Subscription[[]model.Item]
	search      *live.Value[[]model.Item]
}

// New creates a coordinator over s. Stats are computed once before New
// returns and the expiring list tracks the 30 days following construction.
func New(ctx context.Context, s *store.Store, opts Options) (*Coordinator, error) {
	if opts.Grace <= 0 {
		opts.Grace = DefaultGrace
	}

	ctx, cancel := context.WithCancel(ctx)
	c := &Coordinator{
		store:    s,
		log:      opts.Logger.With().Str("component", "inventory").Logger(),
		ctx:      ctx,
		cancel:   cancel,
		stats:    live.NewValue(model.Stats{}),
		expiring: live.NewValue([]model.Item{}),
		search:   live.NewValue([]model.Item{}),
	}

	c.all = live.NewShared(ctx, func(ctx context.Context) *live.Subscription[[]model.Item] {
		return s.WatchAll(ctx, c.logFailure("all"))
	}, opts.Grace, []model.Item{})
	c.recent = live.NewShared(ctx, func(ctx context.Context) *live.Subscription[[]model.Item] {
		return s.WatchRecent(ctx, c.logFailure("recent"))
	}, opts.Grace, []model.Item{})

	if err := c.RefreshStats(ctx); err != nil {
		cancel()
		return nil, err
	}

	now := s.Now()
	c.expiringSub = s.WatchExpiring(ctx, now.Add(time.Millisecond), now.Add(store.ExpiringWindow), c.logFailure("expiring"))
	c.forward(c.expiringSub, func(items []model.Item) { c.expiring.Set(items) })

	return c, nil
}

func (c *Coordinator) logFailure(query string) func(error) {
	return func(err error) {
		c.log.Error().Stack().Err(err).Str("query", query).Msg("live query failed")
	}
}

// forward copies every snapshot of sub into set until sub ends.
func (c *Coordinator) forward(sub *live.Subscription[[]model.Item], set func([]model.Item)) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for items := range sub.C() {
			set(items)
		}
	}()
}

// AllItems subscribes to every item, newest first.
func (c *Coordinator) AllItems() *live.Subscription[[]model.Item] {
	return c.all.Attach()
}

// AllItemsValue returns the latest list of every item.
func (c *Coordinator) AllItemsValue() []model.Item {
	return c.all.Get()
}

// RecentItems subscribes to the most recently added items.
func (c *Coordinator) RecentItems() *live.Subscription[[]model.Item] {
	return c.recent.Attach()
}

// RecentItemsValue returns the latest list of recent items.
func (c *Coordinator) RecentItemsValue() []model.Item {
	return c.recent.Get()
}

// Stats returns the latest dashboard summary.
func (c *Coordinator) Stats() model.Stats {
	return c.stats.Get()
}

// WatchStats subscribes to dashboard summary updates.
func (c *Coordinator) WatchStats() *live.Subscription[model.Stats] {
	return c.stats.Watch()
}

// RefreshStats recomputes the dashboard summary.
func (c *Coordinator) RefreshStats(ctx context.Context) error {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()

	st, err := c.store.Stats(ctx, c.store.Now())
	if err != nil {
		return fmt.Errorf("refreshing stats: %w", err)
	}
	c.stats.Set(st)
	return nil
}

// ExpiringItems returns the latest list of items expiring soon.
func (c *Coordinator) ExpiringItems() []model.Item {
	return c.expiring.Get()
}

// WatchExpiring subscribes to the items expiring soon.
func (c *Coordinator) WatchExpiring() *live.Subscription[[]model.Item] {
	return c.expiring.Watch()
}

// SetSearchQuery switches the search results to query. Results of earlier
// queries are discarded even if they arrive late.
func (c *Coordinator) SetSearchQuery(query string) {
	c.searchMu.Lock()
	defer c.searchMu.Unlock()

	c.searchGen++
	gen := c.searchGen
	c.searchQuery = query

	if c.searchSub != nil {
		c.searchSub.Cancel()
		c.searchSub = nil
	}

	if strings.TrimSpace(query) == "" || c.ctx.Err() != nil {
		c.search.Set([]model.Item{})
		return
	}

	sub := c.store.WatchSearch(c.ctx, query, c.logFailure("search"))
	c.searchSub = sub
	c.forward(sub, func(items []model.Item) { c.setSearch(gen, items) })
}

// setSearch publishes items unless a newer query has replaced generation gen.
func (c *Coordinator) setSearch(gen uint64, items []model.Item) {
	c.searchMu.Lock()
	defer c.searchMu.Unlock()
	if gen == c.searchGen {
		c.search.Set(items)
	}
}

// SearchQuery returns the current search query.
func (c *Coordinator) SearchQuery() string {
	c.searchMu.Lock()
	defer c.searchMu.Unlock()
	return c.searchQuery
}

// SearchResults returns the latest results of the current search.
func (c *Coordinator) SearchResults() []model.Item {
	return c.search.Get()
}

// WatchSearch subscribes to the results of whichever search is current.
func (c *Coordinator) WatchSearch() *live.Subscription[[]model.Item] {
	return c.search.Watch()
}

// Add validates and stores a new item.
func (c *Coordinator) Add(ctx context.Context, d model.Draft) error {
	_, err := c.Create(ctx, d)
	return err
}

// Create is Add returning the stored item with its assigned ID and creation
// time.
func (c *Coordinator) Create(ctx context.Context, d model.Draft) (*model.Item, error) {
	if err := Validate(d); err != nil {
		return nil, err
	}
	id, err := c.store.Insert(ctx, d)
	if err != nil {
		return nil, err
	}
	c.log.Info().Int64("id", id).Str("name", d.Name).Msg("item added")
	c.afterWrite(ctx)

	item, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		// Deleted again before it could be read back.
		return &model.Item{ID: id}, nil
	}
	return item, nil
}

// Update validates and saves every editable field of item.
func (c *Coordinator) Update(ctx context.Context, item model.Item) error {
	if err := Validate(item.Draft()); err != nil {
		return err
	}
	if err := c.store.Update(ctx, item); err != nil {
		return err
	}
	c.log.Info().Int64("id", item.ID).Msg("item updated")
	c.afterWrite(ctx)
	return nil
}

// Delete removes item.
func (c *Coordinator) Delete(ctx context.Context, item model.Item) error {
	if err := c.store.Delete(ctx, item.ID); err != nil {
		return err
	}
	c.log.Info().Int64("id", item.ID).Msg("item deleted")
	c.afterWrite(ctx)
	return nil
}

// afterWrite refreshes stats once a write has committed. The write stands
// even if the refresh fails.
func (c *Coordinator) afterWrite(ctx context.Context) {
	if err := c.RefreshStats(ctx); err != nil {
		c.log.Error().Stack().Err(err).Msg("stats refresh after write failed")
	}
}

// Get returns an item by ID, or nil if it does not exist.
func (c *Coordinator) Get(ctx context.Context, id int64) (*model.Item, error) {
	return c.store.Get(ctx, id)
}

// WatchByLocation subscribes to the items at location.
func (c *Coordinator) WatchByLocation(ctx context.Context, location string) *live.Subscription[[]model.Item] {
	return c.store.WatchByLocation(ctx, location, c.logFailure("location"))
}

// WatchByCategory subscribes to the items in category.
func (c *Coordinator) WatchByCategory(ctx context.Context, category string) *live.Subscription[[]model.Item] {
	return c.store.WatchByCategory(ctx, category, c.logFailure("category"))
}

// WatchLocations subscribes to the locations in use.
func (c *Coordinator) WatchLocations(ctx context.Context) *live.Subscription[[]string] {
	return c.store.WatchLocations(ctx, c.logFailure("locations"))
}

// WatchCategories subscribes to the categories in use.
func (c *Coordinator) WatchCategories(ctx context.Context) *live.Subscription[[]string] {
	return c.store.WatchCategories(ctx, c.logFailure("categories"))
}

// Items returns the items at location and in category, newest first. Empty
// filters match everything; location wins when both are set.
func (c *Coordinator) Items(ctx context.Context, location, category string) ([]model.Item, error) {
	switch {
	case location != "":
		return c.store.ListByLocation(ctx, location)
	case category != "":
		return c.store.ListByCategory(ctx, category)
	default:
		return c.store.ListAll(ctx)
	}
}

// Recent returns the most recently added items.
func (c *Coordinator) Recent(ctx context.Context) ([]model.Item, error) {
	return c.store.ListRecent(ctx)
}

// Search returns the items whose name contains query, without changing the
// current search.
func (c *Coordinator) Search(ctx context.Context, query string) ([]model.Item, error) {
	return c.store.Search(ctx, query)
}

// Locations returns the locations in use.
func (c *Coordinator) Locations(ctx context.Context) ([]string, error) {
	return c.store.Locations(ctx)
}

// Categories returns the categories in use.
func (c *Coordinator) Categories(ctx context.Context) ([]string, error) {
	return c.store.Categories(ctx)
}

// Ping checks that the store is reachable.
func (c *Coordinator) Ping(ctx context.Context) error {
	return c.store.Ping(ctx)
}

// Now returns the current time as seen by the store.
func (c *Coordinator) Now() time.Time {
	return c.store.Now()
}

// Close stops every subscription the coordinator owns. Subscriptions handed
// out earlier receive no further snapshots.
func (c *Coordinator) Close() {
	c.cancel()
	c.all.Close()
	c.recent.Close()
	c.expiringSub.Cancel()

	c.searchMu.Lock()
	c.searchGen++
	if c.searchSub != nil {
		c.searchSub.Cancel()
		c.searchSub = nil
	}
	c.searchMu.Unlock()

	c.wg.Wait()
}
