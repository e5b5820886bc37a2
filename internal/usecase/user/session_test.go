package user

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	domain "realtime-users/internal/domain/user"
	apperrors "realtime-users/pkg/errors"
)

func setupTestSession(t *testing.T, runner Runner) (*EditSession, *MockGateway, *recordingView) {
	gateway := new(MockGateway)
	view := &recordingView{}
	s := NewEditSession(gateway, runner, view, zaptest.NewLogger(t))
	return s, gateway, view
}

func TestEditSession_StartsCreating(t *testing.T) {
	s, _, _ := setupTestSession(t, inlineRunner{})

	mode, id := s.State()
	assert.Equal(t, ModeCreating, mode)
	assert.Empty(t, id)
	assert.Equal(t, "Save", mode.Label())
}

func TestEditSession_SubmitCreates(t *testing.T) {
	s, gateway, view := setupTestSession(t, inlineRunner{})
	ctx := context.Background()
	view.Fill("Alice", "a@x.com")

	gateway.On("Create", ctx, "Alice", "a@x.com").Return("01A", nil)

	require.NoError(t, s.Submit(ctx, "Alice", "a@x.com"))

	name, email, mode := view.form()
	assert.Empty(t, name)
	assert.Empty(t, email)
	assert.Equal(t, ModeCreating, mode)
	assert.True(t, view.hasNotice(MsgAdded))
	gateway.AssertExpectations(t)
}

func TestEditSession_SubmitSendsTrimmedValues(t *testing.T) {
	s, gateway, _ := setupTestSession(t, inlineRunner{})
	gateway.On("Create", mock.Anything, "Alice", "a@x.com").Return("01A", nil)

	require.NoError(t, s.Submit(context.Background(), " Alice ", " a@x.com "))
	gateway.AssertExpectations(t)
}

func TestEditSession_ValidationFailure(t *testing.T) {
	s, gateway, view := setupTestSession(t, inlineRunner{})
	view.Fill("", "a@x.com")

	err := s.Submit(context.Background(), "", "a@x.com")

	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, err, view.lastFailure())
	name, email, _ := view.form()
	assert.Empty(t, name)
	assert.Equal(t, "a@x.com", email)
	gateway.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestEditSession_ValidationFailureWhileEditingKeepsEdit(t *testing.T) {
	s, gateway, _ := setupTestSession(t, inlineRunner{})
	s.BeginEdit(domain.User{ID: "1", Name: "Bob", Email: "b@x.com"})

	err := s.Submit(context.Background(), "Bobby", "")

	assert.Error(t, err)
	mode, id := s.State()
	assert.Equal(t, ModeEditing, mode)
	assert.Equal(t, "1", id)
	gateway.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEditSession_CreateFailureKeepsForm(t *testing.T) {
	s, gateway, view := setupTestSession(t, inlineRunner{})
	view.Fill("Alice", "a@x.com")
	storeErr := apperrors.NewStoreError("create", "", errors.New("denied"))
	gateway.On("Create", mock.Anything, "Alice", "a@x.com").Return("", storeErr)

	require.NoError(t, s.Submit(context.Background(), "Alice", "a@x.com"))

	name, email, _ := view.form()
	assert.Equal(t, "Alice", name)
	assert.Equal(t, "a@x.com", email)
	assert.Equal(t, storeErr, view.lastFailure())
	assert.Zero(t, view.noticeCount())
}

func TestEditSession_BeginEditFillsForm(t *testing.T) {
	s, _, view := setupTestSession(t, inlineRunner{})

	s.BeginEdit(domain.User{ID: "1", Name: "Bob", Email: "b@x.com"})

	name, email, mode := view.form()
	assert.Equal(t, "Bob", name)
	assert.Equal(t, "b@x.com", email)
	assert.Equal(t, ModeEditing, mode)
	assert.Equal(t, "Update", mode.Label())
}

func TestEditSession_SubmitUpdatesEditedRecord(t *testing.T) {
	s, gateway, view := setupTestSession(t, inlineRunner{})
	ctx := context.Background()
	s.BeginEdit(domain.User{ID: "1", Name: "Bob", Email: "b@x.com"})

	gateway.On("Update", ctx, "1", "Bobby", "b@x.com").Return(nil)

	require.NoError(t, s.Submit(ctx, "Bobby", "b@x.com"))

	mode, id := s.State()
	assert.Equal(t, ModeCreating, mode)
	assert.Empty(t, id)
	name, _, viewMode := view.form()
	assert.Empty(t, name)
	assert.Equal(t, ModeCreating, viewMode)
	assert.True(t, view.hasNotice(MsgUpdated))
	gateway.AssertExpectations(t)
}

func TestEditSession_UpdateFailureStaysEditing(t *testing.T) {
	s, gateway, view := setupTestSession(t, inlineRunner{})
	s.BeginEdit(domain.User{ID: "1", Name: "Bob", Email: "b@x.com"})
	gateway.On("Update", mock.Anything, "1", "Bobby", "b@x.com").Return(apperrors.NewStoreError("update", "Users/1", errors.New("x")))

	require.NoError(t, s.Submit(context.Background(), "Bobby", "b@x.com"))

	mode, id := s.State()
	assert.Equal(t, ModeEditing, mode)
	assert.Equal(t, "1", id)
	assert.True(t, apperrors.IsStore(view.lastFailure()))
}

func TestEditSession_BeginEditSwitchesRecord(t *testing.T) {
	s, gateway, _ := setupTestSession(t, inlineRunner{})
	s.BeginEdit(domain.User{ID: "1", Name: "Bob", Email: "b@x.com"})
	s.BeginEdit(domain.User{ID: "2", Name: "Carol", Email: "c@x.com"})

	gateway.On("Update", mock.Anything, "2", "Caroline", "c@x.com").Return(nil)
	require.NoError(t, s.Submit(context.Background(), "Caroline", "c@x.com"))

	gateway.AssertExpectations(t)
}

func TestEditSession_CancelIfEditing(t *testing.T) {
	s, _, view := setupTestSession(t, inlineRunner{})
	s.BeginEdit(domain.User{ID: "1", Name: "Bob", Email: "b@x.com"})

	assert.False(t, s.CancelIfEditing("2"))
	assert.False(t, s.CancelIfEditing(""))
	mode, _ := s.State()
	assert.Equal(t, ModeEditing, mode)

	assert.True(t, s.CancelIfEditing("1"))
	mode, id := s.State()
	assert.Equal(t, ModeCreating, mode)
	assert.Empty(t, id)
	_, _, viewMode := view.form()
	assert.Equal(t, ModeCreating, viewMode)
}

func TestEditSession_DeleteEditedRecordCancelsEdit(t *testing.T) {
	s, gateway, view := setupTestSession(t, inlineRunner{})
	s.BeginEdit(domain.User{ID: "1", Name: "Bob", Email: "b@x.com"})
	gateway.On("Delete", mock.Anything, "1").Return(nil)

	s.Delete(context.Background(), "1")

	mode, _ := s.State()
	assert.Equal(t, ModeCreating, mode)
	assert.True(t, view.hasNotice(MsgDeleted))
}

func TestEditSession_DeleteOtherRecordKeepsEdit(t *testing.T) {
	s, gateway, _ := setupTestSession(t, inlineRunner{})
	s.BeginEdit(domain.User{ID: "1", Name: "Bob", Email: "b@x.com"})
	gateway.On("Delete", mock.Anything, "2").Return(nil)

	s.Delete(context.Background(), "2")

	_, id := s.State()
	assert.Equal(t, "1", id)
}

func TestEditSession_DeleteFailure(t *testing.T) {
	s, gateway, view := setupTestSession(t, inlineRunner{})
	gateway.On("Delete", mock.Anything, "1").Return(apperrors.NewStoreError("delete", "Users/1", errors.New("x")))

	s.Delete(context.Background(), "1")

	assert.True(t, apperrors.IsStore(view.lastFailure()))
	assert.False(t, view.hasNotice(MsgDeleted))
}

// ==================== LATE COMPLETIONS ====================

func TestEditSession_LateCreateDoesNotClearNewEdit(t *testing.T) {
	runner := &heldRunner{}
	s, gateway, view := setupTestSession(t, runner)
	gateway.On("Create", mock.Anything, "Alice", "a@x.com").Return("01A", nil)

	require.NoError(t, s.Submit(context.Background(), "Alice", "a@x.com"))
	s.BeginEdit(domain.User{ID: "1", Name: "Bob", Email: "b@x.com"})
	runner.flush()

	name, _, mode := view.form()
	assert.Equal(t, "Bob", name)
	assert.Equal(t, ModeEditing, mode)
	assert.True(t, view.hasNotice(MsgAdded))
}

func TestEditSession_LateUpdateDoesNotResetNewerEdit(t *testing.T) {
	runner := &heldRunner{}
	s, gateway, view := setupTestSession(t, runner)
	gateway.On("Update", mock.Anything, "1", "Bobby", "b@x.com").Return(nil)

	s.BeginEdit(domain.User{ID: "1", Name: "Bob", Email: "b@x.com"})
	require.NoError(t, s.Submit(context.Background(), "Bobby", "b@x.com"))
	s.BeginEdit(domain.User{ID: "2", Name: "Carol", Email: "c@x.com"})
	runner.flush()

	mode, id := s.State()
	assert.Equal(t, ModeEditing, mode)
	assert.Equal(t, "2", id)
	name, _, _ := view.form()
	assert.Equal(t, "Carol", name)
	assert.True(t, view.hasNotice(MsgUpdated))
}
