// Package store holds the pieces shared by the collection store backends.
package store

import (
	"context"

	domain "realtime-users/internal/domain/user"
)

// Signal is a coalescing change notification: any number of Notify calls
// between two reads collapse into one.
type Signal chan struct{}

// NewSignal creates an unset signal.
func NewSignal() Signal {
	return make(Signal, 1)
}

// Notify sets the signal without blocking.
func (s Signal) Notify() {
	select {
	case s <- struct{}{}:
	default:
	}
}

// Loader reads the full current content of one collection.
type Loader func(ctx context.Context) ([]domain.User, error)

// Feed turns change signals into a stream of full snapshots.
//
// The current content is loaded and sent first, then once more after every
// signal. A signal raised before a loaded snapshot has been received reloads
// and replaces it, so a slow consumer only ever sees the latest content. The
// channel is closed when ctx is done, or right after an event carrying an
// error (a failed load or a value on failures).
func Feed(ctx context.Context, load Loader, signal Signal, failures <-chan error) <-chan domain.Event {
	out := make(chan domain.Event)

	go func() {
		defer close(out)

		fail := func(err error) {
			select {
			case out <- domain.Event{Err: err}:
			case <-ctx.Done():
			}
		}

		for {
			users, err := load(ctx)
			if err != nil {
				if ctx.Err() == nil {
					fail(err)
				}
				return
			}
			ev := domain.Event{Users: users}

			// A change that is already pending makes ev stale.
			select {
			case <-signal:
				continue
			default:
			}

			select {
			case <-ctx.Done():
				return
			case <-signal:
				continue
			case err := <-failures:
				fail(err)
				return
			case out <- ev:
			}

			select {
			case <-ctx.Done():
				return
			case <-signal:
			case err := <-failures:
				fail(err)
				return
			}
		}
	}()

	return out
}
