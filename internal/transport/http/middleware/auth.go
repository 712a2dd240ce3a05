package middleware

import (
	"context"
	"net/http"
	"strings"

	"wagevo/internal/domain/auth"
	"wagevo/internal/requestctx"
	"wagevo/internal/transport/http/api"
)

type ctxKey string

const ctxKeyUser ctxKey = "user"

// Auth resolves the worker a request acts for. A valid bearer token names the
// worker through its uid claim; without an Authorization header the default
// worker is assumed. A malformed or invalid token is rejected.
func Auth(secret, defaultOwner string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				if defaultOwner == "" {
					next.ServeHTTP(w, r)
					return
				}
				ctx := WithUser(r.Context(), auth.UserContext{UserID: defaultOwner, Default: true})
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || secret == "" {
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "invalid authorization header", GetRequestID(r.Context()))
				return
			}
			claims, err := auth.ParseToken(secret, parts[1])
			if err != nil {
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "invalid token", GetRequestID(r.Context()))
				return
			}

			ctx := WithUser(r.Context(), auth.UserContext{UserID: claims.UserID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func WithUser(ctx context.Context, user auth.UserContext) context.Context {
	ctx = requestctx.WithOwnerID(ctx, user.UserID)
	return context.WithValue(ctx, ctxKeyUser, user)
}

func GetUser(ctx context.Context) (auth.UserContext, bool) {
	user, ok := ctx.Value(ctxKeyUser).(auth.UserContext)
	return user, ok && user.UserID != ""
}
