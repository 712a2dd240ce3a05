// Package requestctx carries per-request identifiers into code that logs but
// does not know about HTTP.
package requestctx

import "context"

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	ownerIDKey   ctxKey = "owner_id"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func GetRequestID(ctx context.Context) string {
	if value, ok := ctx.Value(requestIDKey).(string); ok {
		return value
	}
	return ""
}

func WithOwnerID(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerIDKey, ownerID)
}

func GetOwnerID(ctx context.Context) string {
	if value, ok := ctx.Value(ownerIDKey).(string); ok {
		return value
	}
	return ""
}

// LogAttrs returns slog key/value pairs for the identifiers present in ctx.
func LogAttrs(ctx context.Context) []any {
	var attrs []any
	if id := GetRequestID(ctx); id != "" {
		attrs = append(attrs, "requestId", id)
	}
	if owner := GetOwnerID(ctx); owner != "" {
		attrs = append(attrs, "owner", owner)
	}
	return attrs
}
