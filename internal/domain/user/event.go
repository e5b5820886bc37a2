package user

// Event is one notification delivered by a collection watch.
// Exactly one of Users or Err is meaningful; an event with Err ends the watch.
type Event struct {
	Users []User
	Err   error
}
