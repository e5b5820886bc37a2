package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"realtime-users/internal/domain/account"
	apperrors "realtime-users/pkg/errors"
	"realtime-users/pkg/security"
)

// Usecase implements the identity service.
type Usecase struct {
	repo        Repository
	tokens      *TokenIssuer
	emailDomain string
	log         *zap.Logger
	now         func() time.Time
}

// New creates a new identity usecase. emailDomain, when set, restricts
// sign-ups to addresses of that domain.
func New(repo Repository, tokens *TokenIssuer, emailDomain string, log *zap.Logger) *Usecase {
	return &Usecase{
		repo:        repo,
		tokens:      tokens,
		emailDomain: emailDomain,
		log:         log,
		now:         time.Now,
	}
}

// SignUp registers a new account and opens a session for it.
func (uc *Usecase) SignUp(ctx context.Context, req SignUpRequest) (*account.Session, error) {
	req.normalize()
	if err := validate.Struct(req); err != nil {
		uc.log.Warn("sign-up validation failed", zap.Error(err))
		return nil, formatValidationError(err)
	}
	if err := security.ValidatePassword(req.Password); err != nil {
		return nil, apperrors.NewValidationError("Password", err.Error())
	}
	if err := security.ValidateEmailDomain(req.Email, uc.emailDomain); err != nil {
		return nil, apperrors.NewValidationError("Email", err.Error())
	}

	existing, err := uc.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		uc.log.Error("failed to check existing email", zap.Error(err))
		return nil, apperrors.NewInternalError("failed to check existing email", err)
	}
	if existing != nil {
		uc.log.Warn("email already registered", zap.String("email", req.Email))
		return nil, apperrors.NewAlreadyExistsError("account", "an account with this email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to hash password", err)
	}

	a := &account.Account{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: string(hash),
		CreatedAt:    uc.now(),
	}
	if err := uc.repo.Create(ctx, a); err != nil {
		var existsErr *apperrors.AlreadyExistsError
		if errors.As(err, &existsErr) {
			return nil, err
		}
		uc.log.Error("failed to create account", zap.Error(err))
		return nil, apperrors.NewInternalError("failed to create account", err)
	}

	uc.log.Info("account registered", zap.String("id", a.ID))
	return uc.issue(a)
}

// SignIn checks the credentials and opens a session.
func (uc *Usecase) SignIn(ctx context.Context, req SignInRequest) (*account.Session, error) {
	req.normalize()
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	a, err := uc.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		uc.log.Error("failed to load account", zap.Error(err))
		return nil, apperrors.NewInternalError("failed to load account", err)
	}
	if a == nil {
		uc.log.Debug("sign-in for unknown email", zap.String("email", req.Email))
		return nil, apperrors.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(req.Password)); err != nil {
		uc.log.Debug("sign-in with wrong password", zap.String("id", a.ID))
		return nil, apperrors.ErrInvalidCredentials
	}

	uc.log.Info("account signed in", zap.String("id", a.ID))
	return uc.issue(a)
}

// Verify validates a session token and returns the session it describes.
func (uc *Usecase) Verify(ctx context.Context, token string) (*account.Session, error) {
	if token == "" {
		return nil, apperrors.ErrNoSession
	}

	claims, err := uc.tokens.Parse(token)
	if err != nil {
		uc.log.Debug("rejected session token", zap.Error(err))
		return nil, apperrors.NewAuthError("invalid or expired session", err)
	}

	return &account.Session{
		Token:     token,
		AccountID: claims.AccountID,
		Email:     claims.Email,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (uc *Usecase) issue(a *account.Account) (*account.Session, error) {
	s, err := uc.tokens.Issue(a, uc.now())
	if err != nil {
		uc.log.Error("failed to issue session", zap.Error(err))
		return nil, apperrors.NewInternalError("failed to issue session", err)
	}
	return s, nil
}

// ToSessionResponse converts a session to its wire form.
func ToSessionResponse(s *account.Session) SessionResponse {
	return SessionResponse{
		Token:     s.Token,
		Email:     s.Email,
		ExpiresAt: s.ExpiresAt.Unix(),
	}
}
