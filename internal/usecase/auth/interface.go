package auth

import (
	"context"

	"realtime-users/internal/domain/account"
)

// Repository defines persistence operations for accounts.
type Repository interface {
	Create(ctx context.Context, a *account.Account) error
	GetByEmail(ctx context.Context, email string) (*account.Account, error) // nil, nil when absent
	GetByID(ctx context.Context, id string) (*account.Account, error)       // nil, nil when absent
}

// Service is the identity API used by transports.
type Service interface {
	SignUp(ctx context.Context, req SignUpRequest) (*account.Session, error)
	SignIn(ctx context.Context, req SignInRequest) (*account.Session, error)
	Verify(ctx context.Context, token string) (*account.Session, error)
}
