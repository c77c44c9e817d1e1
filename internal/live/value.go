package live

import "sync"

// Value holds the latest snapshot of some state and pushes every update to
// its watchers.
type Value[T any] struct {
	mu       sync.Mutex
	cur      T
	next     uint64
	watchers map[uint64]chan T
}

// NewValue creates a value holding initial.
func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{cur: initial, watchers: make(map[uint64]chan T)}
}

// Get returns the current snapshot.
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cur
}

// Set replaces the current snapshot and pushes it to every watcher.
func (v *Value[T]) Set(x T) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.cur = x
	for _, ch := range v.watchers {
		offer(ch, x)
	}
}

// Watch subscribes to updates. The current snapshot is delivered first.
func (v *Value[T]) Watch() *Subscription[T] {
	v.mu.Lock()
	defer v.mu.Unlock()

	id := v.next
	v.next++
	ch := make(chan T, 1)
	ch <- v.cur
	v.watchers[id] = ch

	return &Subscription[T]{
		ch: ch,
		stop: func() {
			v.mu.Lock()
			delete(v.watchers, id)
			v.mu.Unlock()
			drain(ch)
		},
	}
}

// Watchers returns the number of active watchers.
func (v *Value[T]) Watchers() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.watchers)
}
