package user

import (
	"context"
	"errors"

	"go.uber.org/zap"

	domain "realtime-users/internal/domain/user"
	apperrors "realtime-users/pkg/errors"
)

// Watcher subscribes to a remote collection and republishes full snapshots.
type Watcher struct {
	coll Collection
	log  *zap.Logger
}

// NewWatcher creates a watcher over the given collection.
func NewWatcher(coll Collection, log *zap.Logger) *Watcher {
	return &Watcher{coll: coll, log: log}
}

// Subscription is a live, non-restartable stream of snapshots of one
// collection. When the consumer is slower than the changes, intermediate
// snapshots are dropped and only the latest is kept.
type Subscription struct {
	root      string
	snapshots chan domain.Snapshot
	errs      chan error
	cancel    context.CancelFunc
	done      chan struct{}
	log       *zap.Logger
}

// Subscribe starts watching root. The subscription must be closed by the
// consumer; it is also released when ctx is done.
func (w *Watcher) Subscribe(ctx context.Context, root string) (*Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)

	events, err := w.coll.Watch(ctx, root)
	if err != nil {
		cancel()
		w.log.Error("failed to subscribe", zap.String("root", root), zap.Error(err))
		return nil, syncError("could not subscribe to "+root, err)
	}

	sub := &Subscription{
		root:      root,
		snapshots: make(chan domain.Snapshot, 1),
		errs:      make(chan error, 1),
		cancel:    cancel,
		done:      make(chan struct{}),
		log:       w.log,
	}
	go sub.pump(ctx, events)

	w.log.Info("subscribed", zap.String("root", root))
	return sub, nil
}

// Snapshots returns the snapshot stream. It is closed when the subscription ends.
func (s *Subscription) Snapshots() <-chan domain.Snapshot {
	return s.snapshots
}

// Err returns a channel delivering at most one SyncError. It is closed when
// the subscription ends.
func (s *Subscription) Err() <-chan error {
	return s.errs
}

// Close releases the subscription and waits for it to wind down.
func (s *Subscription) Close() {
	s.cancel()
	<-s.done
}

func (s *Subscription) pump(ctx context.Context, events <-chan domain.Event) {
	defer close(s.done)
	defer close(s.errs)
	defer close(s.snapshots)
	defer s.cancel()

	for {
		var (
			ev domain.Event
			ok bool
		)
		select {
		case <-ctx.Done():
			return
		case ev, ok = <-events:
		}
		if !ok {
			break
		}

		if ev.Err != nil {
			s.log.Warn("subscription failed", zap.String("root", s.root), zap.Error(ev.Err))
			s.errs <- syncError("subscription to "+s.root+" dropped", ev.Err)
			return
		}

		snapshot := domain.NewSnapshot(ev.Users)
		select {
		case <-s.snapshots:
			s.log.Debug("stale snapshot dropped", zap.String("root", s.root))
		default:
		}
		s.snapshots <- snapshot
	}

	if ctx.Err() == nil {
		s.log.Warn("subscription closed by backend", zap.String("root", s.root))
		s.errs <- syncError("subscription to "+s.root+" closed by backend", nil)
	}
}

func syncError(cause string, err error) error {
	var syncErr *apperrors.SyncError
	if errors.As(err, &syncErr) {
		return err
	}
	return apperrors.NewSyncError(cause, err)
}
