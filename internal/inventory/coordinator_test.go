package inventory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/shramba/internal/db"
	"github.com/erazemk/shramba/internal/live"
	"github.com/erazemk/shramba/internal/logger"
	"github.com/erazemk/shramba/internal/model"
	"github.com/erazemk/shramba/internal/store"
)

const wait = 2 * time.Second
const tick = 5 * time.Millisecond

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestCoordinator(t *testing.T, grace time.Duration) (*Coordinator, *store.Store) {
	t.Helper()
	s := store.NewTestStore(t, store.WithClock(func() time.Time { return epoch }))
	c, err := New(context.Background(), s, Options{Grace: grace, Logger: zerolog.Nop()})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c, s
}

func draft(name string) model.Draft {
	return model.Draft{Name: name, Location: "Kitchen", Category: "Food"}
}

func expiringIn(name string, d time.Duration) model.Draft {
	at := epoch.Add(d)
	return model.Draft{Name: name, Location: "Kitchen", Category: "Food", ExpiresAt: &at}
}

func names(items []model.Item) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Name)
	}
	return out
}

func latest[T any](t *testing.T, sub *live.Subscription[T]) T {
	t.Helper()
	select {
	case v := <-sub.C():
		return v
	case <-time.After(wait):
		t.Fatal("timed out waiting for snapshot")
	}
	var zero T
	return zero
}

func TestNewComputesStats(t *testing.T) {
	s := store.NewTestStore(t, store.WithClock(func() time.Time { return epoch }))
	ctx := context.Background()
	_, err := s.Insert(ctx, draft("Bread"))
	require.NoError(t, err)

	c, err := New(ctx, s, Options{Logger: zerolog.Nop()})
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, model.Stats{TotalItems: 1, LocationCount: 1}, c.Stats())
}

func TestAddRefreshesStats(t *testing.T) {
	c, _ := newTestCoordinator(t, 0)
	ctx := context.Background()

	require.NoError(t, c.Add(ctx, expiringIn("Milk", 3*24*time.Hour)))
	require.NoError(t, c.Add(ctx, model.Draft{Name: "Desk lamp", Location: "Study", Category: "Electronics"}))

	assert.Equal(t, model.Stats{TotalItems: 2, LocationCount: 2, ExpiringCount: 1}, c.Stats())
}

func TestAddRejectsInvalidItems(t *testing.T) {
	c, s := newTestCoordinator(t, 0)
	ctx := context.Background()

	tests := []model.Draft{
		{Location: "Kitchen", Category: "Food"},
		{Name: "  ", Location: "Kitchen", Category: "Food"},
		{Name: "Milk", Category: "Food"},
		{Name: "Milk", Location: "Kitchen"},
	}
	for i, d := range tests {
		err := c.Add(ctx, d)
		assert.True(t, errors.Is(err, ErrInvalidItem), "case %d: got %v", i, err)
	}

	n, err := s.CountItems(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUpdateAndDelete(t *testing.T) {
	c, s := newTestCoordinator(t, 0)
	ctx := context.Background()

	require.NoError(t, c.Add(ctx, draft("Tea")))
	items, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)

	moved := items[0]
	moved.Location = "Storage Room"
	require.NoError(t, c.Update(ctx, moved))

	got, err := c.Get(ctx, moved.ID)
	require.NoError(t, err)
	assert.Equal(t, "Storage Room", got.Location)

	invalid := moved
	invalid.Name = ""
	assert.ErrorIs(t, c.Update(ctx, invalid), ErrInvalidItem)

	require.NoError(t, c.Delete(ctx, moved))
	require.NoError(t, c.Delete(ctx, moved))
	assert.Equal(t, model.Stats{}, c.Stats())
}

func TestAddWithCancelledContext(t *testing.T) {
	c, s := newTestCoordinator(t, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, c.Add(ctx, draft("Soap")))

	n, err := s.CountItems(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAllItemsSeesAdds(t *testing.T) {
	c, _ := newTestCoordinator(t, 0)
	ctx := context.Background()

	sub := c.AllItems()
	defer sub.Cancel()
	assert.Empty(t, latest(t, sub))

	require.NoError(t, c.Add(ctx, draft("Eggs")))
	require.Eventually(t, func() bool {
		return assert.ObjectsAreEqual([]string{"Eggs"}, names(c.AllItemsValue()))
	}, wait, tick)
}

func TestRecentItemsKeepsFive(t *testing.T) {
	c, _ := newTestCoordinator(t, 0)
	ctx := context.Background()

	sub := c.RecentItems()
	defer sub.Cancel()

	for i := 1; i <= 6; i++ {
		require.NoError(t, c.Add(ctx, draft(fmt.Sprintf("Item %d", i))))
	}

	want := []string{"Item 6", "Item 5", "Item 4", "Item 3", "Item 2"}
	require.Eventually(t, func() bool {
		return assert.ObjectsAreEqual(want, names(c.RecentItemsValue()))
	}, wait, tick)
}

func TestSharedListsStayWarmDuringGrace(t *testing.T) {
	c, _ := newTestCoordinator(t, time.Second)
	ctx := context.Background()

	first := c.AllItems()
	latest(t, first)
	first.Cancel()

	require.NoError(t, c.Add(ctx, draft("Jam")))

	// Still warm: a late subscriber gets the cached value without a restart.
	second := c.AllItems()
	defer second.Cancel()
	require.Eventually(t, func() bool {
		return len(c.AllItemsValue()) == 1
	}, wait, tick)
	assert.Equal(t, 1, c.all.Starts())
}

func TestSharedListsStopAfterGrace(t *testing.T) {
	c, _ := newTestCoordinator(t, 20*time.Millisecond)

	sub := c.AllItems()
	latest(t, sub)
	sub.Cancel()

	require.Eventually(t, func() bool { return !c.all.Active() }, wait, tick)

	again := c.AllItems()
	defer again.Cancel()
	latest(t, again)
	assert.True(t, c.all.Active())
	assert.Equal(t, 2, c.all.Starts())
}

func TestExpiringItems(t *testing.T) {
	c, _ := newTestCoordinator(t, 0)
	ctx := context.Background()
	day := 24 * time.Hour

	require.NoError(t, c.Add(ctx, expiringIn("Yogurt", 3*day)))
	require.NoError(t, c.Add(ctx, expiringIn("Cheese", 20*day)))
	require.NoError(t, c.Add(ctx, expiringIn("Soup", -day)))
	require.NoError(t, c.Add(ctx, expiringIn("Rice", 60*day)))
	require.NoError(t, c.Add(ctx, expiringIn("Now", 0)))
	require.NoError(t, c.Add(ctx, draft("Salt")))

	require.Eventually(t, func() bool {
		return assert.ObjectsAreEqual([]string{"Yogurt", "Cheese"}, names(c.ExpiringItems()))
	}, wait, tick)
	assert.Equal(t, 2, c.Stats().ExpiringCount)

	sub := c.WatchExpiring()
	defer sub.Cancel()
	assert.Equal(t, []string{"Yogurt", "Cheese"}, names(latest(t, sub)))
}

func TestSearchSwitchesToLatestQuery(t *testing.T) {
	c, _ := newTestCoordinator(t, 0)
	ctx := context.Background()

	require.NoError(t, c.Add(ctx, draft("Milk")))
	require.NoError(t, c.Add(ctx, model.Draft{Name: "Silk tie", Location: "Bedroom", Category: "Other"}))

	c.SetSearchQuery("milk")
	c.SetSearchQuery("silk")
	assert.Equal(t, "silk", c.SearchQuery())

	require.Eventually(t, func() bool {
		return assert.ObjectsAreEqual([]string{"Silk tie"}, names(c.SearchResults()))
	}, wait, tick)

	// A write re-runs only the current query.
	require.NoError(t, c.Add(ctx, draft("Milk chocolate")))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, []string{"Silk tie"}, names(c.SearchResults()))
}

func TestSearchFollowsWrites(t *testing.T) {
	c, _ := newTestCoordinator(t, 0)
	ctx := context.Background()

	c.SetSearchQuery("milk")
	sub := c.WatchSearch()
	defer sub.Cancel()

	require.NoError(t, c.Add(ctx, draft("Oat milk")))
	require.Eventually(t, func() bool {
		return assert.ObjectsAreEqual([]string{"Oat milk"}, names(c.SearchResults()))
	}, wait, tick)
}

func TestBlankSearchIsEmpty(t *testing.T) {
	c, _ := newTestCoordinator(t, 0)
	ctx := context.Background()

	require.NoError(t, c.Add(ctx, draft("Milk")))
	c.SetSearchQuery("milk")
	require.Eventually(t, func() bool { return len(c.SearchResults()) == 1 }, wait, tick)

	c.SetSearchQuery("   ")
	assert.Empty(t, c.SearchResults())
	assert.NotNil(t, c.SearchResults())
}

func TestCloseStopsEverything(t *testing.T) {
	s := store.NewTestStore(t)
	c, err := New(context.Background(), s, Options{Logger: zerolog.Nop()})
	require.NoError(t, err)

	all := c.AllItems()
	latest(t, all)
	c.SetSearchQuery("x")

	c.Close()
	assert.False(t, c.all.Active())
	assert.False(t, c.recent.Active())

	// Searches after Close never reach the store.
	c.SetSearchQuery("y")
	assert.Empty(t, c.SearchResults())
	all.Cancel()
}

func TestPointReads(t *testing.T) {
	c, _ := newTestCoordinator(t, 0)
	ctx := context.Background()

	require.NoError(t, c.Add(ctx, model.Draft{Name: "Milk", Location: "Kitchen", Category: "Food"}))
	require.NoError(t, c.Add(ctx, model.Draft{Name: "Drill", Location: "Storage Room", Category: "Tools"}))
	require.NoError(t, c.Add(ctx, model.Draft{Name: "Knife", Location: "Kitchen", Category: "Tools"}))

	all, err := c.Items(ctx, "", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Knife", "Drill", "Milk"}, names(all))

	kitchen, err := c.Items(ctx, "Kitchen", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Knife", "Milk"}, names(kitchen))

	tools, err := c.Items(ctx, "", "Tools")
	require.NoError(t, err)
	assert.Equal(t, []string{"Knife", "Drill"}, names(tools))

	found, err := c.Search(ctx, "MIL")
	require.NoError(t, err)
	assert.Equal(t, []string{"Milk"}, names(found))
	assert.Empty(t, c.SearchQuery())

	locations, err := c.Locations(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Kitchen", "Storage Room"}, locations)

	categories, err := c.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Food", "Tools"}, categories)

	assert.NoError(t, c.Ping(ctx))
}

func TestCreateReturnsStoredItem(t *testing.T) {
	c, _ := newTestCoordinator(t, 0)
	ctx := context.Background()

	item, err := c.Create(ctx, model.Draft{Name: "Glue", Location: "Study", Category: "Tools", Notes: "  "})
	require.NoError(t, err)
	require.NotZero(t, item.ID)
	assert.Equal(t, "Glue", item.Name)
	assert.Empty(t, item.Notes)
	assert.True(t, item.CreatedAt.Equal(epoch))

	got, err := c.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item, got)
	assert.Equal(t, 1, c.Stats().TotalItems)

	_, err = c.Create(ctx, model.Draft{Name: "Glue"})
	assert.ErrorIs(t, err, ErrInvalidItem)
}

func TestStaleSearchResultsAreDropped(t *testing.T) {
	c, _ := newTestCoordinator(t, 0)
	ctx := context.Background()

	require.NoError(t, c.Add(ctx, draft("Milk")))
	require.NoError(t, c.Add(ctx, model.Draft{Name: "Silk tie", Location: "Bedroom", Category: "Other"}))

	c.SetSearchQuery("milk")
	c.searchMu.Lock()
	milkGen := c.searchGen
	c.searchMu.Unlock()

	c.SetSearchQuery("silk")
	require.Eventually(t, func() bool {
		return assert.ObjectsAreEqual([]string{"Silk tie"}, names(c.SearchResults()))
	}, wait, tick)

	// A late snapshot from the replaced query must not overwrite the results.
	c.setSearch(milkGen, []model.Item{{ID: 1, Name: "Milk"}})
	assert.Equal(t, []string{"Silk tie"}, names(c.SearchResults()))

	c.searchMu.Lock()
	silkGen := c.searchGen
	c.searchMu.Unlock()
	c.setSearch(silkGen, []model.Item{{ID: 3, Name: "Silk scarf"}})
	assert.Equal(t, []string{"Silk scarf"}, names(c.SearchResults()))
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestQueryFailureLogsStack(t *testing.T) {
	logger.UseStacks()

	conn := db.NewTestDB(t)
	s := store.New(conn, store.WithClock(func() time.Time { return epoch }))
	var out syncBuffer
	c, err := New(context.Background(), s, Options{Logger: zerolog.New(&out)})
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, conn.Close())
	s.Bus().Publish(store.TopicItems)

	require.Eventually(t, func() bool {
		log := out.String()
		return strings.Contains(log, "live query failed") && strings.Contains(log, `"stack":[`)
	}, wait, tick)
}
