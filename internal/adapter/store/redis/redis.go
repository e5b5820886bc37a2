// Package redis implements the realtime collection store on Redis.
//
// Each collection is a hash (field = record id, value = JSON document). Every
// mutation publishes the record id on the collection's change channel; a watch
// subscribes to that channel and reloads the hash on each message.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"realtime-users/internal/adapter/store"
	domain "realtime-users/internal/domain/user"
	apperrors "realtime-users/pkg/errors"
)

// document is the stored form of a record. The id lives in the hash field.
type document struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// removeRecord deletes field ARGV[1] of hash KEYS[1] and, only if it
// existed, publishes it on channel KEYS[2]. Returns the number removed.
var removeRecord = redis.NewScript(`
local n = redis.call('HDEL', KEYS[1], ARGV[1])
if n > 0 then
	redis.call('PUBLISH', KEYS[2], ARGV[1])
end
return n
`)

// Store implements the collection store on a Redis client.
type Store struct {
	client *redis.Client
	prefix string
	log    *zap.Logger
}

// New creates a store whose keys start with prefix.
func New(client *redis.Client, prefix string, log *zap.Logger) *Store {
	if prefix == "" {
		prefix = "rtdb"
	}
	return &Store{client: client, prefix: prefix, log: log}
}

// hashKey returns the key of the hash holding a collection.
func (s *Store) hashKey(root string) string {
	return fmt.Sprintf("%s:%s", s.prefix, root)
}

// channelKey returns the pub/sub channel announcing changes of a collection.
func (s *Store) channelKey(root string) string {
	return fmt.Sprintf("%s:%s:changes", s.prefix, root)
}

// Watch subscribes to the change channel of root and streams full snapshots.
func (s *Store) Watch(ctx context.Context, root string) (<-chan domain.Event, error) {
	ps := s.client.Subscribe(ctx, s.channelKey(root))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		s.log.Error("failed to subscribe", zap.String("root", root), zap.Error(err))
		return nil, fmt.Errorf("failed to subscribe to %s: %w", root, err)
	}

	signal := store.NewSignal()
	failures := make(chan error, 1)

	go func() {
		for {
			if _, err := ps.ReceiveMessage(ctx); err != nil {
				if ctx.Err() == nil {
					s.log.Warn("change channel lost", zap.String("root", root), zap.Error(err))
					failures <- err
				}
				return
			}
			signal.Notify()
		}
	}()

	go func() {
		<-ctx.Done()
		_ = ps.Close()
	}()

	s.log.Debug("watch started", zap.String("root", root))
	return store.Feed(ctx, func(ctx context.Context) ([]domain.User, error) {
		return s.List(ctx, root)
	}, signal, failures), nil
}

// Write stores u at path and announces the change.
func (s *Store) Write(ctx context.Context, path string, u domain.User) error {
	root, id, err := domain.SplitPath(path)
	if err != nil {
		return apperrors.NewValidationError("path", err.Error())
	}

	data, err := json.Marshal(document{Name: u.Name, Email: u.Email})
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}

	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.hashKey(root), id, data)
		pipe.Publish(ctx, s.channelKey(root), id)
		return nil
	})
	if err != nil {
		s.log.Error("failed to write record", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	s.log.Debug("record written", zap.String("path", path))
	return nil
}

// Remove deletes the record at path. A missing record is not announced.
func (s *Store) Remove(ctx context.Context, path string) error {
	root, id, err := domain.SplitPath(path)
	if err != nil {
		return apperrors.NewValidationError("path", err.Error())
	}

	n, err := removeRecord.Run(ctx, s.client, []string{s.hashKey(root), s.channelKey(root)}, id).Int()
	if err != nil {
		s.log.Error("failed to remove record", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	if n == 0 {
		return nil
	}

	s.log.Debug("record removed", zap.String("path", path))
	return nil
}

// List returns the records of root in key order.
func (s *Store) List(ctx context.Context, root string) ([]domain.User, error) {
	fields, err := s.client.HGetAll(ctx, s.hashKey(root)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", root, err)
	}

	ids := make([]string, 0, len(fields))
	for id := range fields {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	users := make([]domain.User, 0, len(ids))
	for _, id := range ids {
		var doc document
		if err := json.Unmarshal([]byte(fields[id]), &doc); err != nil {
			s.log.Warn("skipping malformed record", zap.String("root", root), zap.String("id", id), zap.Error(err))
			continue
		}
		users = append(users, domain.User{ID: id, Name: doc.Name, Email: doc.Email})
	}
	return users, nil
}
