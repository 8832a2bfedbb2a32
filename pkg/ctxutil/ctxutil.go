package ctxutil

import "context"

type ctxKey string

const (
	requestIDKey  ctxKey = "request_id"
	authSourceKey ctxKey = "auth_source"
)

// Where an accepted token was found on the request.
const (
	AuthSourceHeader = "header"
	AuthSourceQuery  = "query"
)

// WithRequestID stores the request ID in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromCtx extracts the request ID from the context.
// Returns an empty string if absent.
func RequestIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithAuthSource records that the request was authenticated and how.
func WithAuthSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, authSourceKey, source)
}

// AuthSourceFromCtx returns the auth source and false if the request was
// not authenticated.
func AuthSourceFromCtx(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(authSourceKey).(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}
