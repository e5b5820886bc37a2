package user

import (
	"context"

	domain "realtime-users/internal/domain/user"
)

// Collection is the remote document store a list is synchronized with.
// Implementations must close the Watch channel once ctx is done or right after
// delivering an event that carries an error.
type Collection interface {
	Watch(ctx context.Context, root string) (<-chan domain.Event, error) // Stream full snapshots of root
	Write(ctx context.Context, path string, u domain.User) error         // Create or overwrite the record at path
	Remove(ctx context.Context, path string) error                       // Remove the record at path, no-op if absent
}

// MutationGateway issues record mutations against the remote collection.
type MutationGateway interface {
	Create(ctx context.Context, name, email string) (string, error)
	Update(ctx context.Context, id, name, email string) error
	Delete(ctx context.Context, id string) error
}

// View is the display a screen renders into. All calls happen on the screen loop.
type View interface {
	// Render shows a new snapshot of the list.
	Render(snapshot domain.Snapshot)

	// Fill populates the form fields.
	Fill(name, email string)

	// Clear empties the form fields.
	Clear()

	// SetMode switches the form between saving a new record and updating one.
	SetMode(mode Mode)

	// Notify shows a short informational message.
	Notify(message string)

	// Fail shows an error to the user.
	Fail(err error)
}

// Runner runs blocking collaborator work off the loop and delivers its
// completion back onto the loop.
type Runner interface {
	Go(ctx context.Context, work func(ctx context.Context) error, done func(err error))
}
