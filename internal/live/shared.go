package live

import (
	"context"
	"sync"
	"time"
)

// StartFunc opens the upstream subscription of a Shared value.
type StartFunc[T any] func(ctx context.Context) *Subscription[T]

// Shared multiplexes one upstream subscription to any number of attached
// subscribers. The upstream is started on the first attach, kept running
// while anyone is attached, and stopped once nobody has been attached for the
// grace period. The last received snapshot survives restarts.
type Shared[T any] struct {
	ctx   context.Context
	start StartFunc[T]
	grace time.Duration
	value *Value[T]

	mu       sync.Mutex
	refs     int
	idle     uint64
	timer    *time.Timer
	upstream *Subscription[T]
	pumpDone chan struct{}
	starts   int
	closed   bool
}

// NewShared creates a shared value holding initial until the upstream first
// delivers. Upstreams are started with ctx.
func NewShared[T any](ctx context.Context, start StartFunc[T], grace time.Duration, initial T) *Shared[T] {
	return &Shared[T]{
		ctx:   ctx,
		start: start,
		grace: grace,
		value: NewValue(initial),
	}
}

// Get returns the latest snapshot.
func (s *Shared[T]) Get() T {
	return s.value.Get()
}

// Attach subscribes to the shared value, starting the upstream if needed.
// The latest snapshot is delivered first.
func (s *Shared[T]) Attach() *Subscription[T] {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refs++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.upstream == nil && !s.closed {
		s.launch()
	}

	w := s.value.Watch()
	return &Subscription[T]{
		ch: w.ch,
		stop: func() {
			w.Cancel()
			s.detach()
		},
	}
}

// launch starts the upstream and its pump. Callers hold s.mu.
func (s *Shared[T]) launch() {
	up := s.start(s.ctx)
	done := make(chan struct{})
	s.upstream = up
	s.pumpDone = done
	s.starts++

	go func() {
		defer close(done)
		for v := range up.C() {
			s.value.Set(v)
		}
	}()
}

func (s *Shared[T]) detach() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refs--
	if s.refs > 0 || s.upstream == nil {
		return
	}

	s.idle++
	gen := s.idle
	s.timer = time.AfterFunc(s.grace, func() { s.expire(gen) })
}

func (s *Shared[T]) expire(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A newer detach or an attach since this timer was armed wins.
	if gen != s.idle || s.refs > 0 {
		return
	}
	s.timer = nil
	s.stopUpstream()
}

// stopUpstream cancels the upstream and waits for its pump so that no stale
// snapshot lands after a restart. Callers hold s.mu.
func (s *Shared[T]) stopUpstream() {
	if s.upstream == nil {
		return
	}
	s.upstream.Cancel()
	<-s.pumpDone
	s.upstream = nil
	s.pumpDone = nil
}

// Active reports whether the upstream is running.
func (s *Shared[T]) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upstream != nil
}

// Starts returns how many times the upstream has been started.
func (s *Shared[T]) Starts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.starts
}

// Close stops the upstream immediately. Attached subscriptions stay open but
// receive no further snapshots.
func (s *Shared[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.stopUpstream()
}
