package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	domain "realtime-users/internal/domain/user"
	apperrors "realtime-users/pkg/errors"
)

func receive(t *testing.T, ch <-chan domain.Event) domain.Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "watch closed unexpectedly")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return domain.Event{}
}

func setupStore(t *testing.T) *Store {
	s := New(zaptest.NewLogger(t))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_WriteAndList(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "Users/b", domain.User{Name: "Bob", Email: "b@x.com"}))
	require.NoError(t, s.Write(ctx, "Users/a", domain.User{Name: "Alice", Email: "a@x.com"}))

	users, err := s.List(ctx, "Users")
	require.NoError(t, err)
	assert.Equal(t, []domain.User{
		{ID: "a", Name: "Alice", Email: "a@x.com"},
		{ID: "b", Name: "Bob", Email: "b@x.com"},
	}, users)
}

func TestStore_WriteOverwritesAndTakesIDFromPath(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "Users/1", domain.User{ID: "ignored", Name: "Bob", Email: "b@x.com"}))
	require.NoError(t, s.Write(ctx, "Users/1", domain.User{Name: "Bobby", Email: "b2@x.com"}))

	users, err := s.List(ctx, "Users")
	require.NoError(t, err)
	assert.Equal(t, []domain.User{{ID: "1", Name: "Bobby", Email: "b2@x.com"}}, users)
}

func TestStore_InvalidPath(t *testing.T) {
	s := setupStore(t)

	err := s.Write(context.Background(), "Users", domain.User{Name: "x", Email: "y"})
	assert.True(t, apperrors.IsValidation(err))

	err = s.Remove(context.Background(), "Users/")
	assert.True(t, apperrors.IsValidation(err))
}

func TestStore_RemoveMissingIsNoop(t *testing.T) {
	s := setupStore(t)
	assert.NoError(t, s.Remove(context.Background(), "Users/missing"))
}

func TestStore_WatchStreamsChanges(t *testing.T) {
	s := setupStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := s.Watch(ctx, "Users")
	require.NoError(t, err)

	ev := receive(t, events)
	assert.Empty(t, ev.Users)

	require.NoError(t, s.Write(ctx, "Users/1", domain.User{Name: "Alice", Email: "a@x.com"}))
	ev = receive(t, events)
	assert.Equal(t, []domain.User{{ID: "1", Name: "Alice", Email: "a@x.com"}}, ev.Users)

	require.NoError(t, s.Remove(ctx, "Users/1"))
	ev = receive(t, events)
	assert.Empty(t, ev.Users)
}

func TestStore_WatchIgnoresOtherCollections(t *testing.T) {
	s := setupStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := s.Watch(ctx, "Users")
	require.NoError(t, err)
	receive(t, events)

	require.NoError(t, s.Write(ctx, "Admins/1", domain.User{Name: "Root", Email: "r@x.com"}))

	select {
	case ev := <-events:
		t.Fatalf("unexpected event %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestStore_CloseEndsWatches(t *testing.T) {
	s := New(zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := s.Watch(ctx, "Users")
	require.NoError(t, err)
	receive(t, events)

	require.NoError(t, s.Close())

	ev := receive(t, events)
	assert.ErrorIs(t, ev.Err, ErrClosed)

	assert.ErrorIs(t, s.Write(ctx, "Users/1", domain.User{Name: "a", Email: "b"}), ErrClosed)
	_, err = s.Watch(ctx, "Users")
	assert.ErrorIs(t, err, ErrClosed)
}
