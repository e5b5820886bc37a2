package user

// Snapshot is the full, ordered set of users in a collection at one point in time.
// A snapshot is replaced as a whole, never patched.
type Snapshot []User

// NewSnapshot copies users into a snapshot, keeping the order the store
// delivered them in.
func NewSnapshot(users []User) Snapshot {
	s := make(Snapshot, len(users))
	copy(s, users)
	return s
}

// Find returns the user with the given id.
func (s Snapshot) Find(id string) (User, bool) {
	for _, u := range s {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}

// Contains reports whether a user with the given id is present.
func (s Snapshot) Contains(id string) bool {
	_, ok := s.Find(id)
	return ok
}

// Clone returns a copy that shares nothing with s.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return Snapshot{}
	}
	c := make(Snapshot, len(s))
	copy(c, s)
	return c
}
