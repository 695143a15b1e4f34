package internal

import (
	"context"
	"time"

	"github.com/frahmantamala/zhar/internal/core/user"
)

type ctxKey string

const ContextUserKey ctxKey = "user"

// UserFromContext returns the principal placed by the access middleware.
func UserFromContext(ctx context.Context) (*user.User, bool) {
	if ctx == nil {
		return nil, false
	}
	u, ok := ctx.Value(ContextUserKey).(*user.User)
	return u, ok && u != nil
}

func UserIDFromContext(ctx context.Context) string {
	if u, ok := UserFromContext(ctx); ok {
		return u.ID
	}
	return ""
}

func ContextWithUser(ctx context.Context, u *user.User) context.Context {
	return context.WithValue(ctx, ContextUserKey, u)
}

const DefaultRequestTimeout = 5 * time.Second

// WithTimeout returns a context with timeout, defaulting to DefaultRequestTimeout if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = DefaultRequestTimeout
	}
	return context.WithTimeout(ctx, duration)
}
