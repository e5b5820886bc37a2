package account

import "time"

// Account represents a registered identity.
type Account struct {
	ID           string    // ID is the unique identifier of the account
	Email        string    // Email is the sign-in address, unique across accounts
	PasswordHash string    // PasswordHash is the bcrypt hash of the password
	CreatedAt    time.Time // CreatedAt is when the account was registered
}

// Session is an authenticated session issued to an account.
type Session struct {
	Token     string
	AccountID string
	Email     string
	ExpiresAt time.Time
}
