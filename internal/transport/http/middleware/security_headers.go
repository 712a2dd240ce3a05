package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

func SecureHeaders(isProd bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			headers := w.Header()
			headers.Set("X-Content-Type-Options", "nosniff")
			headers.Set("X-Frame-Options", "DENY")
			headers.Set("Referrer-Policy", "no-referrer")
			headers.Set("Cache-Control", "no-store")
			headers.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			headers.Set("Cross-Origin-Resource-Policy", "same-origin")
			if isProd {
				headers.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// OriginPolicy is the set of browser origins allowed to call the API and open
// the event stream.
type OriginPolicy struct {
	allowed  map[string]struct{}
	wildcard bool
}

func NewOriginPolicy(origins []string) OriginPolicy {
	p := OriginPolicy{allowed: map[string]struct{}{}}
	for _, origin := range origins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin == "*" {
			p.wildcard = true
			continue
		}
		if origin != "" {
			p.allowed[origin] = struct{}{}
		}
	}
	return p
}

func (p OriginPolicy) Allowed(origin string) bool {
	if p.wildcard {
		return true
	}
	_, ok := p.allowed[strings.TrimRight(origin, "/")]
	return ok
}

// CORS lets origins accepted by policy call the API from a browser. With no
// allowed origins configured it adds nothing.
func CORS(policy OriginPolicy) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowOriginFunc: func(_ *http.Request, origin string) bool {
			return policy.Allowed(origin)
		},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "Idempotency-Key", "X-Request-ID"},
		ExposedHeaders: []string{
			"X-Request-ID",
			"X-RateLimit-Limit",
			"X-RateLimit-Remaining",
			"X-RateLimit-Reset",
			"Retry-After",
			"Idempotent-Replayed",
			"X-Wagevo-Warning",
		},
		MaxAge: 600,
	})
}
