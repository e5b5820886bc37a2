package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	domain "realtime-users/internal/domain/user"
	apperrors "realtime-users/pkg/errors"
)

// setupTestRedis creates a miniredis instance for testing
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client, mr
}

func receive(t *testing.T, ch <-chan domain.Event) domain.Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "watch closed unexpectedly")
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return domain.Event{}
}

// waitFor reads snapshots until one satisfies match.
func waitFor(t *testing.T, ch <-chan domain.Event, match func([]domain.User) bool) {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			require.True(t, ok, "watch closed unexpectedly")
			require.NoError(t, ev.Err)
			if match(ev.Users) {
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for matching snapshot")
		}
	}
}

func TestStore_Write_StoresDocument(t *testing.T) {
	client, mr := setupTestRedis(t)
	s := New(client, "", zaptest.NewLogger(t))

	err := s.Write(context.Background(), "Users/1", domain.User{Name: "Alice", Email: "a@x.com"})
	require.NoError(t, err)

	assert.JSONEq(t, `{"name":"Alice","email":"a@x.com"}`, mr.HGet("rtdb:Users", "1"))
}

func TestStore_List_OrderedByKey(t *testing.T) {
	client, _ := setupTestRedis(t)
	s := New(client, "test", zaptest.NewLogger(t))
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "Users/02", domain.User{Name: "Bob", Email: "b@x.com"}))
	require.NoError(t, s.Write(ctx, "Users/01", domain.User{Name: "Alice", Email: "a@x.com"}))

	users, err := s.List(ctx, "Users")
	require.NoError(t, err)
	assert.Equal(t, []domain.User{
		{ID: "01", Name: "Alice", Email: "a@x.com"},
		{ID: "02", Name: "Bob", Email: "b@x.com"},
	}, users)
}

func TestStore_List_SkipsMalformedRecords(t *testing.T) {
	client, mr := setupTestRedis(t)
	s := New(client, "", zaptest.NewLogger(t))

	mr.HSet("rtdb:Users", "bad", "not json")
	mr.HSet("rtdb:Users", "good", `{"name":"Alice","email":"a@x.com"}`)

	users, err := s.List(context.Background(), "Users")
	require.NoError(t, err)
	assert.Equal(t, []domain.User{{ID: "good", Name: "Alice", Email: "a@x.com"}}, users)
}

func TestStore_Remove(t *testing.T) {
	client, mr := setupTestRedis(t)
	s := New(client, "", zaptest.NewLogger(t))
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "Users/1", domain.User{Name: "Alice", Email: "a@x.com"}))
	require.NoError(t, s.Remove(ctx, "Users/1"))
	assert.False(t, mr.Exists("rtdb:Users"))

	// Removing again is a no-op success.
	assert.NoError(t, s.Remove(ctx, "Users/1"))
}

func TestStore_Remove_AnnouncesOnlyExistingRecords(t *testing.T) {
	client, _ := setupTestRedis(t)
	s := New(client, "", zaptest.NewLogger(t))
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "Users/1", domain.User{Name: "Alice", Email: "a@x.com"}))

	ps := client.Subscribe(ctx, "rtdb:Users:changes")
	defer ps.Close()
	_, err := ps.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, s.Remove(ctx, "Users/1"))
	msg, err := ps.ReceiveTimeout(ctx, time.Second)
	require.NoError(t, err)
	m, ok := msg.(*redis.Message)
	require.True(t, ok, "got %T", msg)
	assert.Equal(t, "1", m.Payload)

	require.NoError(t, s.Remove(ctx, "Users/1"))
	_, err = ps.ReceiveTimeout(ctx, 100*time.Millisecond)
	assert.Error(t, err, "removing a missing record must not be announced")
}

func TestStore_InvalidPath(t *testing.T) {
	client, _ := setupTestRedis(t)
	s := New(client, "", zaptest.NewLogger(t))

	assert.True(t, apperrors.IsValidation(s.Write(context.Background(), "no-slash", domain.User{})))
	assert.True(t, apperrors.IsValidation(s.Remove(context.Background(), "/1")))
}

func TestStore_Watch_StreamsSnapshots(t *testing.T) {
	client, _ := setupTestRedis(t)
	s := New(client, "", zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.Write(ctx, "Users/1", domain.User{Name: "Bob", Email: "b@x.com"}))

	events, err := s.Watch(ctx, "Users")
	require.NoError(t, err)

	ev := receive(t, events)
	require.NoError(t, ev.Err)
	assert.Equal(t, []domain.User{{ID: "1", Name: "Bob", Email: "b@x.com"}}, ev.Users)

	require.NoError(t, s.Write(ctx, "Users/1", domain.User{Name: "Bobby", Email: "b2@x.com"}))

	waitFor(t, events, func(users []domain.User) bool {
		return len(users) == 1 && users[0].Name == "Bobby"
	})

	require.NoError(t, s.Remove(ctx, "Users/1"))
	waitFor(t, events, func(users []domain.User) bool {
		return len(users) == 0
	})
}

func TestStore_Watch_ServerLossIsReported(t *testing.T) {
	client, mr := setupTestRedis(t)
	s := New(client, "", zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := s.Watch(ctx, "Users")
	require.NoError(t, err)
	receive(t, events)

	mr.Close()

	ev := receive(t, events)
	assert.Error(t, ev.Err)
}

func TestStore_Watch_SubscribeFailure(t *testing.T) {
	client, mr := setupTestRedis(t)
	s := New(client, "", zaptest.NewLogger(t))
	mr.Close()

	_, err := s.Watch(context.Background(), "Users")
	assert.Error(t, err)
}
