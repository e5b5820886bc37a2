package auth

import (
	"context"
	"strings"

	"realtime-users/internal/domain/account"
	"realtime-users/pkg/logger"
)

type sessionKey struct{}

// WithSession returns a context carrying s. The account id is also exposed
// to logger.WithContext.
func WithSession(ctx context.Context, s *account.Session) context.Context {
	ctx = context.WithValue(ctx, sessionKey{}, s)
	return context.WithValue(ctx, logger.AccountIDKey, s.AccountID)
}

// SessionFrom returns the session stored in ctx, if any.
func SessionFrom(ctx context.Context) (*account.Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*account.Session)
	return s, ok && s != nil
}

// BearerToken extracts the token of an "Authorization: Bearer <token>" value.
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
