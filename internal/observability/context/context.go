package context

import (
	stdcontext "context"
	"strings"
)

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	userIDKey    ctxKey = "user_id"
	usernameKey  ctxKey = "username"
)

// WithRequestID stores the inbound request id.
func WithRequestID(ctx stdcontext.Context, requestID string) stdcontext.Context {
	return withValue(ctx, requestIDKey, requestID)
}

func RequestIDFromContext(ctx stdcontext.Context) string {
	return valueFrom(ctx, requestIDKey)
}

// WithUser stores the authenticated user for log enrichment.
func WithUser(ctx stdcontext.Context, userID, username string) stdcontext.Context {
	ctx = withValue(ctx, userIDKey, userID)
	return withValue(ctx, usernameKey, username)
}

func UserFromContext(ctx stdcontext.Context) (string, string) {
	return valueFrom(ctx, userIDKey), valueFrom(ctx, usernameKey)
}

func withValue(ctx stdcontext.Context, key ctxKey, value string) stdcontext.Context {
	if ctx == nil {
		ctx = stdcontext.Background()
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return ctx
	}
	return stdcontext.WithValue(ctx, key, value)
}

func valueFrom(ctx stdcontext.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}
