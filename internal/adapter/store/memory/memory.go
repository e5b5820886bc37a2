// Package memory implements an in-process collection store with push
// notifications. It backs local development and tests.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"go.uber.org/zap"

	"realtime-users/internal/adapter/store"
	domain "realtime-users/internal/domain/user"
	apperrors "realtime-users/pkg/errors"
)

// ErrClosed is returned by every operation on a closed store.
var ErrClosed = errors.New("store closed")

type watcher struct {
	signal   store.Signal
	failures chan error
}

// Store keeps collections in memory, keyed by record id.
type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]domain.User
	watchers    map[string]map[*watcher]struct{}
	closed      bool
	log         *zap.Logger
}

// New creates an empty store.
func New(log *zap.Logger) *Store {
	return &Store{
		collections: make(map[string]map[string]domain.User),
		watchers:    make(map[string]map[*watcher]struct{}),
		log:         log,
	}
}

// Watch streams the content of root, starting with its current state.
func (s *Store) Watch(ctx context.Context, root string) (<-chan domain.Event, error) {
	w := &watcher{signal: store.NewSignal(), failures: make(chan error, 1)}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	if s.watchers[root] == nil {
		s.watchers[root] = make(map[*watcher]struct{})
	}
	s.watchers[root][w] = struct{}{}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.watchers[root], w)
		s.mu.Unlock()
	}()

	s.log.Debug("watch started", zap.String("root", root))
	return store.Feed(ctx, func(ctx context.Context) ([]domain.User, error) {
		return s.List(ctx, root)
	}, w.signal, w.failures), nil
}

// Write stores u at path, replacing any existing record.
func (s *Store) Write(ctx context.Context, path string, u domain.User) error {
	root, id, err := domain.SplitPath(path)
	if err != nil {
		return apperrors.NewValidationError("path", err.Error())
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	u.ID = id

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	if s.collections[root] == nil {
		s.collections[root] = make(map[string]domain.User)
	}
	s.collections[root][id] = u
	s.notifyLocked(root)

	s.log.Debug("record written", zap.String("path", path))
	return nil
}

// Remove deletes the record at path. Removing a missing record is a no-op.
func (s *Store) Remove(ctx context.Context, path string) error {
	root, id, err := domain.SplitPath(path)
	if err != nil {
		return apperrors.NewValidationError("path", err.Error())
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	if _, ok := s.collections[root][id]; !ok {
		return nil
	}
	delete(s.collections[root], id)
	s.notifyLocked(root)

	s.log.Debug("record removed", zap.String("path", path))
	return nil
}

// List returns the records of root in key order.
func (s *Store) List(ctx context.Context, root string) ([]domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	users := make([]domain.User, 0, len(s.collections[root]))
	for _, u := range s.collections[root] {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

// Close ends every active watch with ErrClosed and rejects further calls.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	for _, ws := range s.watchers {
		for w := range ws {
			w.failures <- ErrClosed
		}
	}
	s.watchers = make(map[string]map[*watcher]struct{})
	return nil
}

func (s *Store) notifyLocked(root string) {
	for w := range s.watchers[root] {
		w.signal.Notify()
	}
}
