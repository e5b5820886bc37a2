package middleware

import (
	"context"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"realtime-users/internal/domain/account"
	"realtime-users/internal/usecase/auth"
	apperrors "realtime-users/pkg/errors"
)

// Verifier checks a session token.
type Verifier interface {
	Verify(ctx context.Context, token string) (*account.Session, error)
}

// Authenticator rejects calls that do not carry a valid bearer token in
// their "authorization" metadata.
type Authenticator struct {
	verifier Verifier
	log      *zap.Logger
}

// NewAuthenticator creates an authenticator backed by verifier.
func NewAuthenticator(verifier Verifier, log *zap.Logger) *Authenticator {
	return &Authenticator{verifier: verifier, log: log}
}

// UnaryInterceptor returns a gRPC unary interceptor enforcing authentication.
func (a *Authenticator) UnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		ctx, err := a.authenticate(ctx, info.FullMethod)
		if err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// StreamInterceptor returns a gRPC stream interceptor enforcing authentication.
func (a *Authenticator) StreamInterceptor() grpc.StreamServerInterceptor {
	return func(
		srv any,
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		ctx, err := a.authenticate(ss.Context(), info.FullMethod)
		if err != nil {
			return err
		}
		return handler(srv, &authStream{ServerStream: ss, ctx: ctx})
	}
}

func (a *Authenticator) authenticate(ctx context.Context, method string) (context.Context, error) {
	var token string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get("authorization"); len(values) > 0 {
			token = auth.BearerToken(values[0])
		}
	}
	if token == "" {
		a.log.Debug("missing bearer token", zap.String("method", method))
		return nil, apperrors.ErrNoSession
	}

	session, err := a.verifier.Verify(ctx, token)
	if err != nil {
		a.log.Debug("rejected bearer token", zap.String("method", method), zap.Error(err))
		return nil, err
	}
	return auth.WithSession(ctx, session), nil
}

type authStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *authStream) Context() context.Context {
	return s.ctx
}
