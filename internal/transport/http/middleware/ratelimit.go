package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/httprate"

	"wagevo/internal/transport/http/api"
)

type RateLimitOption func(*limiterConfig)

type limiterConfig struct {
	keyFn          httprate.KeyFunc
	trustForwarded bool
}

func WithKeyFunc(fn httprate.KeyFunc) RateLimitOption {
	return func(c *limiterConfig) {
		if fn != nil {
			c.keyFn = fn
		}
	}
}

// WithForwardedFor keys anonymous callers by the client address a proxy
// reports. Only enable it behind a proxy that overwrites those headers.
func WithForwardedFor() RateLimitOption {
	return func(c *limiterConfig) {
		c.trustForwarded = true
	}
}

// RateLimit allows limit requests per window for each caller. A non-positive
// limit disables it.
func RateLimit(limit int, window time.Duration, opts ...RateLimitOption) func(http.Handler) http.Handler {
	if limit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	cfg := limiterConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.keyFn == nil {
		cfg.keyFn = cfg.workerOrIP
	}
	return httprate.Limit(limit, window,
		httprate.WithKeyFuncs(cfg.keyFn),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			tooManyRequests(w, r, limit, window)
		}),
	)
}

// ClockMutationRateLimit gives clock-in, clock-out and shift deletion a
// quarter of the general budget. Other requests pass through untouched.
func ClockMutationRateLimit(baseLimit int, window time.Duration, opts ...RateLimitOption) func(http.Handler) http.Handler {
	limiter := RateLimit(max(baseLimit/4, 1), window, opts...)
	return func(next http.Handler) http.Handler {
		limited := limiter(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isClockMutation(r) {
				limited.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// workerOrIP keys authenticated workers by id. Requests that fell back to the
// default worker share that id, so they are keyed by address instead.
func (c limiterConfig) workerOrIP(r *http.Request) (string, error) {
	if user, ok := GetUser(r.Context()); ok && user.UserID != "" && !user.Default {
		return "worker:" + user.UserID, nil
	}
	keyByAddr := httprate.KeyByIP
	if c.trustForwarded {
		keyByAddr = httprate.KeyByRealIP
	}
	addr, err := keyByAddr(r)
	if err != nil {
		return "", err
	}
	return "ip:" + addr, nil
}

func tooManyRequests(w http.ResponseWriter, r *http.Request, limit int, window time.Duration) {
	attrs := []any{"method", r.Method, "path", r.URL.Path, "limit", limit, "window", window.String()}
	if user, ok := GetUser(r.Context()); ok && !user.Default {
		attrs = append(attrs, "worker", user.UserID)
	}
	slog.Warn("rate limit exceeded", attrs...)
	api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
}

func isClockMutation(r *http.Request) bool {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1")
	switch r.Method {
	case http.MethodPost:
		return path == "/clock/in" || path == "/clock/out"
	case http.MethodDelete:
		return strings.HasPrefix(path, "/shifts/")
	}
	return false
}
