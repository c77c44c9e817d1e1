// Package live implements push-based query subscriptions over a change bus.
//
// Writers publish on a topic (one per table) after every committed mutation.
// A live query re-runs whenever its topic changes and pushes the fresh result
// to its subscriber. Subscribers only ever see the newest pending snapshot.
package live

import "sync"

// Bus is an in-process change notification bus keyed by topic.
type Bus struct {
	mu     sync.Mutex
	topics map[string]*topic
}

type topic struct {
	version uint64
	changed chan struct{}
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{topics: make(map[string]*topic)}
}

func (b *Bus) topic(name string) *topic {
	t, ok := b.topics[name]
	if !ok {
		t = &topic{changed: make(chan struct{})}
		b.topics[name] = t
	}
	return t
}

// Publish records a change on the named topic and wakes every watcher.
func (b *Bus) Publish(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := b.topic(name)
	t.version++
	close(t.changed)
	t.changed = make(chan struct{})
}

// Changed returns the current version of the named topic and a channel that
// is closed on the next Publish to it.
func (b *Bus) Changed(name string) (uint64, <-chan struct{}) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := b.topic(name)
	return t.version, t.changed
}
