package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"realtime-users/internal/usecase/auth"
)

// StoredSession is the session persisted between invocations.
type StoredSession struct {
	auth.SessionResponse
	Server string `json:"server"`
}

// Expired reports whether the session token is past its expiry at now.
func (s StoredSession) Expired(now time.Time) bool {
	return s.ExpiresAt != 0 && !now.Before(time.Unix(s.ExpiresAt, 0))
}

// SessionFile reads and writes the session at a fixed path.
type SessionFile struct {
	Path string
}

// Load returns the stored session, or nil when there is none.
func (f SessionFile) Load() (*StoredSession, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var s StoredSession
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", f.Path, err)
	}
	return &s, nil
}

// Save writes s, readable by the current user only.
func (f SessionFile) Save(s StoredSession) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(f.Path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

// Remove deletes the stored session. Removing a missing session is not an error.
func (f SessionFile) Remove() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	return nil
}
