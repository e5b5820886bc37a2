package user

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	domain "realtime-users/internal/domain/user"
)

// MockCollection is a mock implementation of the Collection interface
type MockCollection struct {
	mock.Mock
}

func (m *MockCollection) Watch(ctx context.Context, root string) (<-chan domain.Event, error) {
	args := m.Called(ctx, root)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan domain.Event), args.Error(1)
}

func (m *MockCollection) Write(ctx context.Context, path string, u domain.User) error {
	args := m.Called(ctx, path, u)
	return args.Error(0)
}

func (m *MockCollection) Remove(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}

// MockGateway is a mock implementation of the MutationGateway interface
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Create(ctx context.Context, name, email string) (string, error) {
	args := m.Called(ctx, name, email)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) Update(ctx context.Context, id, name, email string) error {
	args := m.Called(ctx, id, name, email)
	return args.Error(0)
}

func (m *MockGateway) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// inlineRunner completes work synchronously, as if the loop delivered the
// completion immediately.
type inlineRunner struct{}

func (inlineRunner) Go(ctx context.Context, work func(context.Context) error, done func(error)) {
	done(work(ctx))
}

// heldRunner runs work immediately but holds completions until flushed, so
// tests can interleave user actions with late results.
type heldRunner struct {
	pending []func()
}

func (r *heldRunner) Go(ctx context.Context, work func(context.Context) error, done func(error)) {
	err := work(ctx)
	r.pending = append(r.pending, func() { done(err) })
}

func (r *heldRunner) flush() {
	pending := r.pending
	r.pending = nil
	for _, fn := range pending {
		fn()
	}
}

// recordingView records every call made on it.
type recordingView struct {
	mu       sync.Mutex
	renders  []domain.Snapshot
	name     string
	email    string
	clears   int
	mode     Mode
	notices  []string
	failures []error
}

func (v *recordingView) Render(snapshot domain.Snapshot) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.renders = append(v.renders, snapshot)
}

func (v *recordingView) Fill(name, email string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.name, v.email = name, email
}

func (v *recordingView) Clear() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.name, v.email = "", ""
	v.clears++
}

func (v *recordingView) SetMode(mode Mode) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.mode = mode
}

func (v *recordingView) Notify(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.notices = append(v.notices, message)
}

func (v *recordingView) Fail(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.failures = append(v.failures, err)
}

func (v *recordingView) form() (string, string, Mode) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.name, v.email, v.mode
}

func (v *recordingView) lastRender() (domain.Snapshot, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.renders) == 0 {
		return nil, false
	}
	return v.renders[len(v.renders)-1], true
}

func (v *recordingView) renderCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.renders)
}

func (v *recordingView) hasNotice(message string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, n := range v.notices {
		if n == message {
			return true
		}
	}
	return false
}

func (v *recordingView) noticeCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.notices)
}

func (v *recordingView) lastFailure() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.failures) == 0 {
		return nil
	}
	return v.failures[len(v.failures)-1]
}
