package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	domain "realtime-users/internal/domain/user"
	apperrors "realtime-users/pkg/errors"
)

// feedCollection hands out a watch channel driven by the test. Like a real
// store it closes the channel once the watch context is done; events the test
// sends are forwarded until then.
func feedCollection(events chan domain.Event) *MockCollection {
	out := make(chan domain.Event)
	coll := new(MockCollection)
	coll.On("Watch", mock.Anything, domain.CollectionRoot).
		Run(func(args mock.Arguments) {
			ctx := args.Get(0).(context.Context)
			go func() {
				defer close(out)
				for {
					select {
					case <-ctx.Done():
						return
					case ev, ok := <-events:
						if !ok {
							return
						}
						select {
						case out <- ev:
						case <-ctx.Done():
							return
						}
					}
				}
			}()
		}).
		Return((<-chan domain.Event)(out), nil)
	return coll
}

// rawCollection hands events to the watcher directly and never closes it.
func rawCollection(events chan domain.Event) *MockCollection {
	coll := new(MockCollection)
	coll.On("Watch", mock.Anything, domain.CollectionRoot).Return((<-chan domain.Event)(events), nil)
	return coll
}

func nextSnapshot(t *testing.T, sub *Subscription) domain.Snapshot {
	t.Helper()
	select {
	case s, ok := <-sub.Snapshots():
		require.True(t, ok, "snapshots closed")
		return s
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	return nil
}

func nextErr(t *testing.T, sub *Subscription) error {
	t.Helper()
	select {
	case err := <-sub.Err():
		return err
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for error")
	}
	return nil
}

func TestWatcher_DeliversOrderedSnapshots(t *testing.T) {
	events := make(chan domain.Event)
	w := NewWatcher(feedCollection(events), zaptest.NewLogger(t))

	sub, err := w.Subscribe(context.Background(), domain.CollectionRoot)
	require.NoError(t, err)
	defer sub.Close()

	events <- domain.Event{Users: []domain.User{{ID: "2", Name: "Bob"}, {ID: "1", Name: "Alice"}}}

	s := nextSnapshot(t, sub)
	require.Len(t, s, 2)
	assert.Equal(t, "2", s[0].ID)
	assert.Equal(t, "1", s[1].ID)
}

func TestWatcher_EmptyCollection(t *testing.T) {
	events := make(chan domain.Event)
	w := NewWatcher(feedCollection(events), zaptest.NewLogger(t))

	sub, err := w.Subscribe(context.Background(), domain.CollectionRoot)
	require.NoError(t, err)
	defer sub.Close()

	events <- domain.Event{}

	s := nextSnapshot(t, sub)
	assert.NotNil(t, s)
	assert.Empty(t, s)
}

func TestWatcher_ConflatesToLatest(t *testing.T) {
	events := make(chan domain.Event)
	w := NewWatcher(rawCollection(events), zaptest.NewLogger(t))

	sub, err := w.Subscribe(context.Background(), domain.CollectionRoot)
	require.NoError(t, err)
	defer sub.Close()

	// The pump takes the next event only after handing over the previous
	// one, so the repeated last send returns once the third is buffered.
	latest := domain.Event{Users: []domain.User{{ID: "1"}, {ID: "2"}, {ID: "3"}}}
	events <- domain.Event{Users: []domain.User{{ID: "1"}}}
	events <- domain.Event{Users: []domain.User{{ID: "1"}, {ID: "2"}}}
	events <- latest
	events <- latest

	s := nextSnapshot(t, sub)
	assert.Len(t, s, 3)

	select {
	case s := <-sub.Snapshots():
		assert.Len(t, s, 3, "stale snapshot delivered after the latest")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestWatcher_SubscribeFailure(t *testing.T) {
	coll := new(MockCollection)
	coll.On("Watch", mock.Anything, domain.CollectionRoot).Return(nil, errors.New("permission denied"))
	w := NewWatcher(coll, zaptest.NewLogger(t))

	sub, err := w.Subscribe(context.Background(), domain.CollectionRoot)

	assert.Nil(t, sub)
	assert.True(t, apperrors.IsSync(err))
	assert.Contains(t, err.Error(), "permission denied")
}

func TestWatcher_DroppedSubscription(t *testing.T) {
	events := make(chan domain.Event, 1)
	w := NewWatcher(feedCollection(events), zaptest.NewLogger(t))

	sub, err := w.Subscribe(context.Background(), domain.CollectionRoot)
	require.NoError(t, err)
	defer sub.Close()

	lost := errors.New("connection reset")
	events <- domain.Event{Err: lost}

	err = nextErr(t, sub)
	assert.True(t, apperrors.IsSync(err))
	assert.ErrorIs(t, err, lost)

	_, ok := <-sub.Snapshots()
	assert.False(t, ok)
}

func TestWatcher_BackendClose(t *testing.T) {
	events := make(chan domain.Event)
	w := NewWatcher(feedCollection(events), zaptest.NewLogger(t))

	sub, err := w.Subscribe(context.Background(), domain.CollectionRoot)
	require.NoError(t, err)
	defer sub.Close()

	close(events)

	err = nextErr(t, sub)
	assert.True(t, apperrors.IsSync(err))
	assert.Contains(t, err.Error(), "closed by backend")
}

func TestWatcher_CloseEndsSilently(t *testing.T) {
	events := make(chan domain.Event)
	coll := new(MockCollection)
	coll.On("Watch", mock.Anything, domain.CollectionRoot).
		Run(func(args mock.Arguments) {
			ctx := args.Get(0).(context.Context)
			go func() {
				<-ctx.Done()
				close(events)
			}()
		}).
		Return((<-chan domain.Event)(events), nil)
	w := NewWatcher(coll, zaptest.NewLogger(t))

	sub, err := w.Subscribe(context.Background(), domain.CollectionRoot)
	require.NoError(t, err)

	sub.Close()

	err, ok := <-sub.Err()
	assert.False(t, ok)
	assert.NoError(t, err)
}

func TestWatcher_CloseReleasesStuckSource(t *testing.T) {
	w := NewWatcher(rawCollection(make(chan domain.Event)), zaptest.NewLogger(t))

	sub, err := w.Subscribe(context.Background(), domain.CollectionRoot)
	require.NoError(t, err)

	closed := make(chan struct{})
	go func() {
		sub.Close()
		close(closed)
	}()

	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("Close blocked on a source that never closes")
	}
	_, ok := <-sub.Snapshots()
	assert.False(t, ok)
	_, ok = <-sub.Err()
	assert.False(t, ok)
}

func TestWatcher_ParentCancelEndsSilently(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	w := NewWatcher(rawCollection(make(chan domain.Event)), zaptest.NewLogger(t))

	sub, err := w.Subscribe(ctx, domain.CollectionRoot)
	require.NoError(t, err)
	defer sub.Close()

	cancel()

	select {
	case err, ok := <-sub.Err():
		assert.False(t, ok, "unexpected error %v", err)
	case <-time.After(time.Second):
		t.Fatal("subscription did not end on cancel")
	}
}
