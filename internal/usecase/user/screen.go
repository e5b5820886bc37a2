package user

import (
	"context"
	"errors"

	"go.uber.org/zap"

	domain "realtime-users/internal/domain/user"
	apperrors "realtime-users/pkg/errors"
)

// MsgEditedRemoved is shown when the record being edited disappears from the list.
const MsgEditedRemoved = "The user being edited was deleted"

// Screen wires the list and the form of one user-facing screen:
// Watcher → Projection → View, and form actions → EditSession → Gateway.
// Its exported methods may be called from any goroutine; the work they
// request runs on the screen loop.
type Screen struct {
	root       string
	loop       *Loop
	watcher    *Watcher
	projection *Projection
	session    *EditSession
	view       View
	log        *zap.Logger

	ctx context.Context // owned by the loop
}

// NewScreen creates a screen over the users collection.
func NewScreen(coll Collection, view View, log *zap.Logger) *Screen {
	loop := NewLoop(64, log)
	return &Screen{
		root:       domain.CollectionRoot,
		loop:       loop,
		watcher:    NewWatcher(coll, log),
		projection: NewProjection(view.Render),
		session:    NewEditSession(NewGateway(coll, domain.CollectionRoot, log), loop, view, log),
		view:       view,
		log:        log,
		ctx:        context.Background(),
	}
}

// Run subscribes to the collection and processes events until ctx is done.
// A failed subscription is shown on the view; the screen keeps running.
func (s *Screen) Run(ctx context.Context) error {
	s.loop.Post(func() {
		s.ctx = ctx
		s.view.SetMode(ModeCreating)
		s.view.Render(s.projection.Current())
	})

	sub, err := s.watcher.Subscribe(ctx, s.root)
	if err != nil {
		s.loop.Post(func() { s.view.Fail(err) })
	} else {
		go s.pump(sub)
	}

	err = s.loop.Run(ctx)

	if sub != nil {
		sub.Close()
	}
	s.loop.Wait()

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Submit submits the form values.
func (s *Screen) Submit(name, email string) {
	s.loop.Post(func() {
		_ = s.session.Submit(s.ctx, name, email)
	})
}

// Edit starts editing the record shown at row (0-based).
func (s *Screen) Edit(row int) {
	s.loop.Post(func() {
		u, ok := s.row(row)
		if !ok {
			return
		}
		s.session.BeginEdit(u)
	})
}

// Delete removes the record shown at row (0-based).
func (s *Screen) Delete(row int) {
	s.loop.Post(func() {
		u, ok := s.row(row)
		if !ok {
			return
		}
		s.session.Delete(s.ctx, u.ID)
	})
}

// CancelEdit abandons the current edit, if any, and clears the form.
func (s *Screen) CancelEdit() {
	s.loop.Post(func() {
		if _, id := s.session.State(); id != "" {
			s.session.CancelIfEditing(id)
		}
	})
}

// Refresh renders the current snapshot again.
func (s *Screen) Refresh() {
	s.loop.Post(func() {
		s.view.Render(s.projection.Current())
	})
}

// Snapshot returns the latest snapshot applied to the screen.
func (s *Screen) Snapshot() domain.Snapshot {
	return s.projection.Current()
}

// State reports the form mode and pending record id as seen on the loop.
// It returns false if the loop stopped before answering.
func (s *Screen) State(ctx context.Context) (Mode, string, bool) {
	type state struct {
		mode Mode
		id   string
	}
	ch := make(chan state, 1)
	if !s.loop.Post(func() {
		mode, id := s.session.State()
		ch <- state{mode, id}
	}) {
		return ModeCreating, "", false
	}

	select {
	case st := <-ch:
		return st.mode, st.id, true
	case <-ctx.Done():
		return ModeCreating, "", false
	}
}

func (s *Screen) row(row int) (domain.User, bool) {
	snapshot := s.projection.Current()
	if row < 0 || row >= len(snapshot) {
		s.view.Fail(apperrors.NewValidationError("row", "no such row"))
		return domain.User{}, false
	}
	return snapshot[row], true
}

func (s *Screen) pump(sub *Subscription) {
	snapshots, errs := sub.Snapshots(), sub.Err()
	for snapshots != nil || errs != nil {
		select {
		case snapshot, ok := <-snapshots:
			if !ok {
				snapshots = nil
				continue
			}
			s.loop.Post(func() { s.apply(snapshot) })
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			s.loop.Post(func() { s.view.Fail(err) })
		}
	}
}

func (s *Screen) apply(snapshot domain.Snapshot) {
	s.projection.Apply(snapshot)

	if mode, id := s.session.State(); mode == ModeEditing && !snapshot.Contains(id) {
		if s.session.CancelIfEditing(id) {
			s.view.Notify(MsgEditedRemoved)
		}
	}
}
