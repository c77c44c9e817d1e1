package live

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitTimeout = 2 * time.Second

func next[T any](t *testing.T, sub *Subscription[T]) T {
	t.Helper()
	select {
	case v, ok := <-sub.C():
		require.True(t, ok, "subscription closed")
		return v
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for snapshot")
	}
	var zero T
	return zero
}

// counter is a fake table: each query returns the current count.
type counter struct {
	mu    sync.Mutex
	n     int
	fail  bool
	calls atomic.Int32
}

func (c *counter) query(context.Context) (int, error) {
	c.calls.Add(1)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return 0, errors.New("disk on fire")
	}
	return c.n, nil
}

func (c *counter) set(n int, fail bool) {
	c.mu.Lock()
	c.n, c.fail = n, fail
	c.mu.Unlock()
}

func TestBusChangedClosesOnPublish(t *testing.T) {
	bus := NewBus()

	v0, changed := bus.Changed("items")
	select {
	case <-changed:
		t.Fatal("channel closed before publish")
	default:
	}

	bus.Publish("items")
	select {
	case <-changed:
	default:
		t.Fatal("channel not closed after publish")
	}

	v1, _ := bus.Changed("items")
	assert.Equal(t, v0+1, v1)

	// Other topics are unaffected.
	other, _ := bus.Changed("other")
	assert.Zero(t, other)
}

func TestWatchEmitsInitialAndOnChange(t *testing.T) {
	bus := NewBus()
	c := &counter{}
	sub := Watch(context.Background(), bus, "items", c.query, nil)
	defer sub.Cancel()

	assert.Equal(t, 0, next(t, sub))

	c.set(1, false)
	bus.Publish("items")
	assert.Equal(t, 1, next(t, sub))

	c.set(2, false)
	bus.Publish("items")
	assert.Equal(t, 2, next(t, sub))
}

func TestWatchIgnoresOtherTopics(t *testing.T) {
	bus := NewBus()
	c := &counter{}
	sub := Watch(context.Background(), bus, "items", c.query, nil)
	defer sub.Cancel()

	next(t, sub)
	bus.Publish("other")

	select {
	case v := <-sub.C():
		t.Fatalf("unexpected snapshot %d", v)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestWatchConflatesUnreadSnapshots(t *testing.T) {
	bus := NewBus()
	c := &counter{}
	sub := Watch(context.Background(), bus, "items", c.query, nil)
	defer sub.Cancel()

	for i := 1; i <= 5; i++ {
		c.set(i, false)
		bus.Publish("items")
	}

	// Whatever was skipped, the newest value eventually arrives and nothing
	// older follows it.
	require.Eventually(t, func() bool {
		select {
		case v := <-sub.C():
			return v == 5
		default:
			return false
		}
	}, waitTimeout, 5*time.Millisecond)
}

func TestWatchReportsErrorsAndRecovers(t *testing.T) {
	bus := NewBus()
	c := &counter{}
	c.set(0, true)

	errs := make(chan error, 4)
	sub := Watch(context.Background(), bus, "items", c.query, func(err error) { errs <- err })
	defer sub.Cancel()

	select {
	case err := <-errs:
		assert.EqualError(t, err, "disk on fire")
	case <-time.After(waitTimeout):
		t.Fatal("expected error callback")
	}

	c.set(3, false)
	bus.Publish("items")
	assert.Equal(t, 3, next(t, sub))
}

func TestWatchCancelClosesChannel(t *testing.T) {
	bus := NewBus()
	c := &counter{}
	sub := Watch(context.Background(), bus, "items", c.query, nil)
	next(t, sub)

	sub.Cancel()
	sub.Cancel()

	_, ok := <-sub.C()
	assert.False(t, ok, "expected closed channel after cancel")

	calls := c.calls.Load()
	bus.Publish("items")
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, calls, c.calls.Load(), "query ran after cancel")
}

func TestWatchStopsWithContext(t *testing.T) {
	bus := NewBus()
	c := &counter{}
	ctx, cancel := context.WithCancel(context.Background())
	sub := Watch(ctx, bus, "items", c.query, nil)
	next(t, sub)

	cancel()
	select {
	case _, ok := <-sub.C():
		assert.False(t, ok)
	case <-time.After(waitTimeout):
		t.Fatal("subscription did not end with its context")
	}
}

func TestValueWatchDeliversCurrentFirst(t *testing.T) {
	v := NewValue("a")
	sub := v.Watch()
	defer sub.Cancel()

	assert.Equal(t, "a", next(t, sub))

	v.Set("b")
	assert.Equal(t, "b", next(t, sub))
	assert.Equal(t, "b", v.Get())
	assert.Equal(t, 1, v.Watchers())

	sub.Cancel()
	assert.Equal(t, 0, v.Watchers())
	v.Set("c")
	_, ok := <-sub.C()
	assert.False(t, ok)
}

func TestSharedStartsOnceAndKeepsWarmDuringGrace(t *testing.T) {
	bus := NewBus()
	c := &counter{}
	start := func(ctx context.Context) *Subscription[int] {
		return Watch(ctx, bus, "items", c.query, nil)
	}
	shared := NewShared(context.Background(), start, time.Second, -1)
	defer shared.Close()

	assert.False(t, shared.Active())

	a := shared.Attach()
	b := shared.Attach()
	assert.Equal(t, 1, shared.Starts())

	// The first snapshot may be the initial value or the query result.
	require.Eventually(t, func() bool { return shared.Get() == 0 }, waitTimeout, 5*time.Millisecond)

	c.set(4, false)
	bus.Publish("items")
	require.Eventually(t, func() bool { return shared.Get() == 4 }, waitTimeout, 5*time.Millisecond)

	a.Cancel()
	b.Cancel()
	assert.True(t, shared.Active(), "upstream stopped before grace period")

	// Reattaching within the grace period reuses the running upstream and
	// delivers the latest snapshot straight away.
	again := shared.Attach()
	assert.Equal(t, 4, next(t, again))
	assert.Equal(t, 1, shared.Starts())
	again.Cancel()
}

func TestSharedStopsAfterGraceAndRestarts(t *testing.T) {
	bus := NewBus()
	c := &counter{}
	start := func(ctx context.Context) *Subscription[int] {
		return Watch(ctx, bus, "items", c.query, nil)
	}
	shared := NewShared(context.Background(), start, 20*time.Millisecond, 0)
	defer shared.Close()

	sub := shared.Attach()
	sub.Cancel()

	require.Eventually(t, func() bool { return !shared.Active() }, waitTimeout, 5*time.Millisecond)

	// Changes while idle are not observed...
	c.set(9, false)
	bus.Publish("items")

	// ...until the next attach restarts the upstream.
	sub = shared.Attach()
	defer sub.Cancel()
	assert.Equal(t, 2, shared.Starts())
	require.Eventually(t, func() bool { return shared.Get() == 9 }, waitTimeout, 5*time.Millisecond)
}

func TestSharedCloseStopsUpstream(t *testing.T) {
	bus := NewBus()
	c := &counter{}
	start := func(ctx context.Context) *Subscription[int] {
		return Watch(ctx, bus, "items", c.query, nil)
	}
	shared := NewShared(context.Background(), start, time.Hour, 0)

	sub := shared.Attach()
	defer sub.Cancel()
	shared.Close()
	assert.False(t, shared.Active())

	// Attaching after Close does not restart anything.
	late := shared.Attach()
	defer late.Cancel()
	assert.Equal(t, 1, shared.Starts())
}
