package user

// User represents a user record in the realtime collection.
type User struct {
	ID    string `json:"id"`    // ID is the store-assigned key, immutable once assigned
	Name  string `json:"name"`  // Name is the display name of the user
	Email string `json:"email"` // Email is the contact address of the user
}
