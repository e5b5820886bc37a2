package cli

import (
	"bytes"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"realtime-users/internal/usecase/auth"
)

const waitFor = 3 * time.Second

// syncBuffer is a bytes.Buffer safe for concurrent writers and readers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// storeSession writes a valid session for server and returns its path.
func storeSession(t *testing.T, server, token string) string {
	path := filepath.Join(t.TempDir(), "session.json")
	err := SessionFile{Path: path}.Save(StoredSession{
		SessionResponse: auth.SessionResponse{
			Token:     token,
			Email:     "me@example.com",
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		},
		Server: server,
	})
	require.NoError(t, err)
	return path
}
