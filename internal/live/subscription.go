package live

import (
	"context"
	"sync"
)

// Subscription delivers snapshots of a live value until cancelled.
type Subscription[T any] struct {
	ch   chan T
	once sync.Once
	stop func()
}

// C returns the channel snapshots are delivered on. It is closed once the
// subscription is cancelled.
func (s *Subscription[T]) C() <-chan T {
	return s.ch
}

// Cancel stops the subscription. No snapshot is delivered after Cancel returns.
// Cancel is safe to call more than once.
func (s *Subscription[T]) Cancel() {
	s.once.Do(s.stop)
}

// offer stores v as the single pending snapshot of ch, replacing an undelivered
// older one. Callers must be the only sender on ch.
func offer[T any](ch chan T, v T) {
	select {
	case ch <- v:
	default:
		select {
		case <-ch:
		default:
		}
		ch <- v
	}
}

// drain discards a pending snapshot and closes ch.
func drain[T any](ch chan T) {
	select {
	case <-ch:
	default:
	}
	close(ch)
}

// Watch runs query now and again after every change published on the named
// topic, delivering each result in order. A failed evaluation is reported to
// onErr (if non-nil) and retried on the next change. The subscription ends
// when ctx is done or it is cancelled.
func Watch[T any](ctx context.Context, bus *Bus, name string, query func(context.Context) (T, error), onErr func(error)) *Subscription[T] {
	ctx, cancel := context.WithCancel(ctx)
	ch := make(chan T, 1)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer drain(ch)

		for {
			// Observe the topic before querying so a commit racing with the
			// query still triggers another round.
			_, changed := bus.Changed(name)

			v, err := query(ctx)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				if onErr != nil {
					onErr(err)
				}
			} else {
				offer(ch, v)
			}

			select {
			case <-changed:
			case <-ctx.Done():
				return
			}
		}
	}()

	return &Subscription[T]{
		ch: ch,
		stop: func() {
			cancel()
			<-done
		},
	}
}
