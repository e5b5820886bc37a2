package user

import (
	"context"

	"go.uber.org/zap"

	domain "realtime-users/internal/domain/user"
)

// Mode is the state of the single user form.
type Mode int

const (
	// ModeCreating means the next submit creates a new record.
	ModeCreating Mode = iota
	// ModeEditing means the next submit overwrites the record being edited.
	ModeEditing
)

// String returns the state name.
func (m Mode) String() string {
	if m == ModeEditing {
		return "editing"
	}
	return "creating"
}

// Label returns the text of the form's submit button.
func (m Mode) Label() string {
	if m == ModeEditing {
		return "Update"
	}
	return "Save"
}

// Messages shown after a successful mutation.
const (
	MsgAdded   = "Data added"
	MsgUpdated = "Data updated"
	MsgDeleted = "Data deleted"
)

// EditSession routes form submissions to create or update.
//
// It holds at most one pending record id; an empty id means Creating. Every
// terminal path (successful create, successful update, removal of the edited
// record) returns it to Creating. epoch changes on every transition so that a
// completion arriving after the user moved on does not touch the form.
// EditSession is not safe for concurrent use; it must only be driven from the
// loop its Runner delivers completions to.
type EditSession struct {
	gateway MutationGateway
	runner  Runner
	view    View
	log     *zap.Logger

	editing string
	epoch   uint64
}

// NewEditSession creates a session in the Creating state.
func NewEditSession(gateway MutationGateway, runner Runner, view View, log *zap.Logger) *EditSession {
	return &EditSession{
		gateway: gateway,
		runner:  runner,
		view:    view,
		log:     log,
	}
}

// State returns the current mode and, when editing, the pending record id.
func (s *EditSession) State() (Mode, string) {
	if s.editing == "" {
		return ModeCreating, ""
	}
	return ModeEditing, s.editing
}

// BeginEdit switches to editing u and fills the form with its fields.
func (s *EditSession) BeginEdit(u domain.User) {
	s.editing = u.ID
	s.epoch++
	s.log.Debug("begin edit", zap.String("id", u.ID))

	s.view.Fill(u.Name, u.Email)
	s.view.SetMode(ModeEditing)
}

// Submit validates the form values and dispatches a create or an update.
// A validation failure is returned and shown; gateway results arrive later
// through the runner.
func (s *EditSession) Submit(ctx context.Context, name, email string) error {
	in, err := ValidateForm(name, email)
	if err != nil {
		s.log.Warn("validate failed", zap.Error(err))
		s.view.Fail(err)
		return err
	}

	epoch, id := s.epoch, s.editing
	if id == "" {
		var created string
		s.runner.Go(ctx,
			func(ctx context.Context) error {
				newID, err := s.gateway.Create(ctx, in.Name, in.Email)
				created = newID
				return err
			},
			func(err error) { s.created(epoch, created, err) },
		)
		return nil
	}

	s.runner.Go(ctx,
		func(ctx context.Context) error {
			return s.gateway.Update(ctx, id, in.Name, in.Email)
		},
		func(err error) { s.updated(epoch, id, err) },
	)
	return nil
}

// Delete removes the record with the given id.
func (s *EditSession) Delete(ctx context.Context, id string) {
	s.runner.Go(ctx,
		func(ctx context.Context) error {
			return s.gateway.Delete(ctx, id)
		},
		func(err error) {
			if err != nil {
				s.view.Fail(err)
				return
			}
			s.view.Notify(MsgDeleted)
			s.CancelIfEditing(id)
		},
	)
}

// CancelIfEditing returns to Creating when id is the record being edited.
func (s *EditSession) CancelIfEditing(id string) bool {
	if id == "" || s.editing != id {
		return false
	}
	s.log.Debug("edit cancelled", zap.String("id", id))
	s.reset()
	return true
}

func (s *EditSession) created(epoch uint64, id string, err error) {
	if err != nil {
		s.view.Fail(err)
		return
	}

	s.log.Debug("create completed", zap.String("id", id))
	s.view.Notify(MsgAdded)
	if s.epoch == epoch {
		s.view.Clear()
	}
}

func (s *EditSession) updated(epoch uint64, id string, err error) {
	if err != nil {
		s.view.Fail(err)
		return
	}

	s.log.Debug("update completed", zap.String("id", id))
	s.view.Notify(MsgUpdated)
	if s.epoch == epoch && s.editing == id {
		s.reset()
	}
}

func (s *EditSession) reset() {
	s.editing = ""
	s.epoch++
	s.view.Clear()
	s.view.SetMode(ModeCreating)
}
