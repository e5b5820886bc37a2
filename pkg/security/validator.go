package security

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
)

const (
	// MinPasswordLength defines the minimum allowed length for passwords
	MinPasswordLength = 8
	// MaxPasswordLength is bcrypt's input limit
	MaxPasswordLength = 72
)

// specialChars lists the symbols accepted as a password's special character.
const specialChars = `!@#$%^&*()_+=-[]{};':"\|,.<>/?`

// localPartPattern matches the part of an address before the '@'
var localPartPattern = regexp.MustCompile(`^[A-Za-z0-9._%+-]+$`)

var (
	ErrPasswordTooShort = errors.New("Password must be at least 8 characters")
	ErrPasswordTooLong  = errors.New("Password must be at most 72 characters")
	ErrPasswordWeak     = errors.New("Password must contain at least one uppercase letter, one lowercase letter, one number and one special character")
)

// ValidatePassword checks the strength rules for a new password
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}

	var upper, lower, digit, special bool
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			upper = true
		case unicode.IsLower(char):
			lower = true
		case unicode.IsDigit(char):
			digit = true
		case strings.ContainsRune(specialChars, char):
			special = true
		}
	}

	if !upper || !lower || !digit || !special {
		return ErrPasswordWeak
	}
	return nil
}

// ValidateEmailDomain checks that email belongs to domain. An empty domain
// accepts every address whose local part uses safe characters.
func ValidateEmailDomain(email, domain string) error {
	local, host, ok := strings.Cut(email, "@")
	if !ok || !localPartPattern.MatchString(local) || host == "" {
		return errors.New("Email must be in valid format")
	}

	domain = strings.TrimPrefix(strings.TrimSpace(domain), "@")
	if domain != "" && !strings.EqualFold(host, domain) {
		return errors.New("Email must be in valid format and end with @" + domain)
	}
	return nil
}
