package cli

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"realtime-users/internal/usecase/auth"
	apperrors "realtime-users/pkg/errors"
)

// apiError is the error body returned by the REST API.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Identity signs accounts in and out against the REST API and keeps the
// resulting session on disk.
type Identity struct {
	client  *resty.Client
	server  string
	session SessionFile
	now     func() time.Time
}

// NewIdentity creates an identity client for server, storing the session at sessionPath.
func NewIdentity(server, sessionPath string) *Identity {
	server = strings.TrimRight(server, "/")
	return &Identity{
		client: resty.New().
			SetBaseURL(server).
			SetTimeout(10*time.Second).
			SetHeader("Content-Type", "application/json"),
		server:  server,
		session: SessionFile{Path: sessionPath},
		now:     time.Now,
	}
}

// CurrentSession returns the stored session, or nil if there is none, it
// expired, or it was opened against a different server.
func (i *Identity) CurrentSession() (*StoredSession, error) {
	s, err := i.session.Load()
	if err != nil || s == nil {
		return nil, err
	}
	if s.Expired(i.now()) || strings.TrimRight(s.Server, "/") != i.server {
		return nil, nil
	}
	return s, nil
}

// SignUp registers an account and stores its session.
func (i *Identity) SignUp(ctx context.Context, email, password, confirm string) (*StoredSession, error) {
	return i.open(ctx, "/v1/auth/signup", auth.SignUpRequest{Email: email, Password: password, Confirm: confirm})
}

// SignIn opens a session for an existing account and stores it.
func (i *Identity) SignIn(ctx context.Context, email, password string) (*StoredSession, error) {
	return i.open(ctx, "/v1/auth/signin", auth.SignInRequest{Email: email, Password: password})
}

// SignOut forgets the stored session.
func (i *Identity) SignOut() error {
	return i.session.Remove()
}

func (i *Identity) open(ctx context.Context, path string, body any) (*StoredSession, error) {
	var (
		session auth.SessionResponse
		failure apiError
	)
	resp, err := i.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&session).
		SetError(&failure).
		Post(path)
	if err != nil {
		return nil, apperrors.NewInternalError("identity service unreachable", err)
	}
	if resp.IsError() {
		return nil, responseError(resp.StatusCode(), failure)
	}

	stored := StoredSession{SessionResponse: session, Server: i.server}
	if err := i.session.Save(stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

// responseError maps a REST error response onto the application error types.
func responseError(code int, body apiError) error {
	message := body.Message
	if message == "" {
		message = http.StatusText(code)
	}
	switch code {
	case http.StatusBadRequest:
		return apperrors.NewValidationError("", message)
	case http.StatusUnauthorized:
		return apperrors.NewAuthError(message, nil)
	case http.StatusConflict:
		return apperrors.NewAlreadyExistsError("account", message)
	case http.StatusTooManyRequests:
		return apperrors.NewInternalError("too many attempts, try again later", nil)
	default:
		return apperrors.NewInternalError(fmt.Sprintf("identity service error (%d)", code), fmt.Errorf("%s", message))
	}
}
