package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"realtime-users/internal/domain/account"
	"realtime-users/internal/usecase/auth"
	apperrors "realtime-users/pkg/errors"
)

// MockAuthService is a mock implementation of auth.Service
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) SignUp(ctx context.Context, req auth.SignUpRequest) (*account.Session, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Session), args.Error(1)
}

func (m *MockAuthService) SignIn(ctx context.Context, req auth.SignInRequest) (*account.Session, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Session), args.Error(1)
}

func (m *MockAuthService) Verify(ctx context.Context, token string) (*account.Session, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Session), args.Error(1)
}

func setupAuthTest(t *testing.T) (*gin.Engine, *MockAuthService) {
	gin.SetMode(gin.TestMode)
	svc := new(MockAuthService)
	h := NewAuthHandler(svc, zaptest.NewLogger(t))

	r := gin.New()
	r.POST("/signup", h.SignUp)
	r.POST("/signin", h.SignIn)
	return r, svc
}

func TestSignUp(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		r, svc := setupAuthTest(t)
		expires := time.Unix(1_900_000_000, 0)
		req := auth.SignUpRequest{Email: "a@x.com", Password: "Secret#123", Confirm: "Secret#123"}
		svc.On("SignUp", mock.Anything, req).Return(&account.Session{Token: "tok", Email: "a@x.com", ExpiresAt: expires}, nil)

		w := doJSON(r, http.MethodPost, "/signup", req)

		assert.Equal(t, http.StatusCreated, w.Code)
		var resp auth.SessionResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "tok", resp.Token)
		assert.Equal(t, expires.Unix(), resp.ExpiresAt)
	})

	t.Run("EmailTaken", func(t *testing.T) {
		r, svc := setupAuthTest(t)
		svc.On("SignUp", mock.Anything, mock.Anything).Return(nil, apperrors.NewAlreadyExistsError("account", ""))

		w := doJSON(r, http.MethodPost, "/signup", auth.SignUpRequest{Email: "a@x.com"})

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Invalid", func(t *testing.T) {
		r, svc := setupAuthTest(t)
		svc.On("SignUp", mock.Anything, mock.Anything).Return(nil, apperrors.NewValidationError("Confirm", auth.MsgPasswordsMismatch))

		w := doJSON(r, http.MethodPost, "/signup", auth.SignUpRequest{Email: "a@x.com"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), auth.MsgPasswordsMismatch)
	})
}

func TestSignIn(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		r, svc := setupAuthTest(t)
		svc.On("SignIn", mock.Anything, auth.SignInRequest{Email: "a@x.com", Password: "pw"}).
			Return(&account.Session{Token: "tok", Email: "a@x.com", ExpiresAt: time.Now().Add(time.Hour)}, nil)

		w := doJSON(r, http.MethodPost, "/signin", auth.SignInRequest{Email: "a@x.com", Password: "pw"})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"token":"tok"`)
	})

	t.Run("WrongCredentials", func(t *testing.T) {
		r, svc := setupAuthTest(t)
		svc.On("SignIn", mock.Anything, mock.Anything).Return(nil, apperrors.ErrInvalidCredentials)

		w := doJSON(r, http.MethodPost, "/signin", auth.SignInRequest{Email: "a@x.com", Password: "bad"})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "invalid email or password")
	})
}
