// Package errors defines the application's error kinds. Each kind carries the
// gRPC status it travels as, so servers can return them directly and clients
// can rebuild them with FromStatus.
package errors

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Identity failures shared by the backend and the CLI.
var (
	ErrInvalidCredentials = NewAuthError("invalid email or password", nil)
	ErrNoSession          = NewAuthError("not signed in", nil)
)

// GRPCStatuser is implemented by every error kind in this package.
type GRPCStatuser interface {
	GRPCStatus() *status.Status
}

// cause is a message with an optional underlying error.
type cause struct {
	Message string
	Err     error
}

func (c cause) Error() string {
	if c.Err == nil {
		return c.Message
	}
	return c.Message + ": " + c.Err.Error()
}

func (c cause) Unwrap() error { return c.Err }

// ValidationError is a rejected form field. Nothing was submitted.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a validation error for field, which may be empty.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed: %s - %s", e.Field, e.Message)
}

// GRPCStatus implements GRPCStatuser.
func (e *ValidationError) GRPCStatus() *status.Status {
	return status.New(codes.InvalidArgument, e.Error())
}

// StoreError represents a failed mutation against the remote collection.
// Local state must be left unchanged when it is returned.
type StoreError struct {
	Op   string // create, update, delete
	Path string
	Err  error
}

// NewStoreError creates a new store error
func NewStoreError(op, path string, err error) *StoreError {
	return &StoreError{Op: op, Path: path, Err: err}
}

func (e *StoreError) Error() string {
	target := e.Op
	if e.Path != "" {
		target += " " + e.Path
	}
	return fmt.Sprintf("failed to %s: %v", target, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// GRPCStatus implements GRPCStatuser.
func (e *StoreError) GRPCStatus() *status.Status {
	return status.New(codes.Unavailable, e.Error())
}

// SyncError represents a watch that could not be established or was dropped.
type SyncError struct {
	Cause string // human readable
	Err   error
}

// NewSyncError creates a new sync error
func NewSyncError(cause string, err error) *SyncError {
	return &SyncError{Cause: cause, Err: err}
}

func (e *SyncError) Error() string {
	return "sync failed: " + cause{e.Cause, e.Err}.Error()
}

func (e *SyncError) Unwrap() error { return e.Err }

// GRPCStatus implements GRPCStatuser.
func (e *SyncError) GRPCStatus() *status.Status {
	return status.New(codes.Unavailable, e.Error())
}

// AuthError represents a failed sign-in, sign-up or missing session.
type AuthError struct{ cause }

// NewAuthError creates a new auth error
func NewAuthError(message string, err error) *AuthError {
	return &AuthError{cause{message, err}}
}

// GRPCStatus implements GRPCStatuser. The cause stays on the server.
func (e *AuthError) GRPCStatus() *status.Status {
	return status.New(codes.Unauthenticated, e.Message)
}

// AlreadyExistsError reports a duplicate, such as an email that already has an account.
type AlreadyExistsError struct {
	Resource string
	Message  string
}

// NewAlreadyExistsError creates an already-exists error. An empty message
// is derived from resource.
func NewAlreadyExistsError(resource, message string) *AlreadyExistsError {
	if message == "" {
		message = resource + " already exists"
	}
	return &AlreadyExistsError{Resource: resource, Message: message}
}

func (e *AlreadyExistsError) Error() string { return e.Message }

// GRPCStatus implements GRPCStatuser.
func (e *AlreadyExistsError) GRPCStatus() *status.Status {
	return status.New(codes.AlreadyExists, e.Message)
}

// InternalError is an unexpected failure. Only its message leaves the process.
type InternalError struct{ cause }

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *InternalError {
	return &InternalError{cause{message, err}}
}

// GRPCStatus implements GRPCStatuser.
func (e *InternalError) GRPCStatus() *status.Status {
	return status.New(codes.Internal, e.Message)
}

func is[T error](err error) bool {
	var target T
	return errors.As(err, &target)
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool { return is[*ValidationError](err) }

// IsStore reports whether err is or wraps a StoreError.
func IsStore(err error) bool { return is[*StoreError](err) }

// IsSync reports whether err is or wraps a SyncError.
func IsSync(err error) bool { return is[*SyncError](err) }

// IsAuth reports whether err is or wraps an AuthError.
func IsAuth(err error) bool { return is[*AuthError](err) }

// FromStatus converts a gRPC status error received by a client back into
// the matching application error. op and path describe the failed call.
func FromStatus(err error, op, path string) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return NewStoreError(op, path, err)
	}
	switch st.Code() {
	case codes.InvalidArgument:
		return NewValidationError("", st.Message())
	case codes.Unauthenticated:
		return NewAuthError(st.Message(), nil)
	case codes.AlreadyExists:
		return NewAlreadyExistsError("", st.Message())
	default:
		return NewStoreError(op, path, errors.New(st.Message()))
	}
}
