package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wagevo/internal/domain/auth"
)

func noContent(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func asWorker(req *http.Request, user auth.UserContext) *http.Request {
	return req.WithContext(WithUser(req.Context(), user))
}

func TestRateLimitKeysByWorkerAcrossAddresses(t *testing.T) {
	limited := RateLimit(1, time.Minute)(http.HandlerFunc(noContent))
	worker := auth.UserContext{UserID: "worker-1"}

	first := asWorker(httptest.NewRequest(http.MethodPost, "/api/v1/clock/in", nil), worker)
	first.RemoteAddr = "198.51.100.11:2222"
	if rec := serve(limited, first); rec.Code != http.StatusNoContent {
		t.Fatalf("expected first request to pass, got %d", rec.Code)
	}

	second := asWorker(httptest.NewRequest(http.MethodPost, "/api/v1/clock/out", nil), worker)
	second.RemoteAddr = "198.51.100.12:3333"
	if rec := serve(limited, second); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled by worker key, got %d", rec.Code)
	}
}

func TestRateLimitDefaultWorkerKeyedByAddress(t *testing.T) {
	limited := RateLimit(1, time.Minute)(http.HandlerFunc(noContent))
	anon := auth.UserContext{UserID: "local", Default: true}

	for _, addr := range []string{"203.0.113.1:1000", "203.0.113.2:1000"} {
		req := asWorker(httptest.NewRequest(http.MethodGet, "/api/v1/shifts", nil), anon)
		req.RemoteAddr = addr
		if rec := serve(limited, req); rec.Code != http.StatusNoContent {
			t.Fatalf("expected %s to have its own budget, got %d", addr, rec.Code)
		}
	}

	again := asWorker(httptest.NewRequest(http.MethodGet, "/api/v1/shifts", nil), anon)
	again.RemoteAddr = "203.0.113.1:2000"
	rec := serve(limited, again)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected repeat address to be throttled, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" || rec.Header().Get("X-RateLimit-Reset") == "" {
		t.Fatal("expected retry metadata headers")
	}
	if rec.Header().Get("X-RateLimit-Limit") != "1" {
		t.Fatalf("expected limit header 1, got %q", rec.Header().Get("X-RateLimit-Limit"))
	}
}

func TestRateLimitForwardedFor(t *testing.T) {
	tests := []struct {
		name     string
		opts     []RateLimitOption
		wantCode int
	}{
		{name: "ignored by default", wantCode: http.StatusTooManyRequests},
		{name: "trusted when enabled", opts: []RateLimitOption{WithForwardedFor()}, wantCode: http.StatusNoContent},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			limited := RateLimit(1, time.Minute, tc.opts...)(http.HandlerFunc(noContent))
			for i, fwd := range []string{"192.0.2.1", "192.0.2.2, 10.0.0.1"} {
				req := httptest.NewRequest(http.MethodGet, "/api/v1/shifts", nil)
				req.RemoteAddr = "10.0.0.1:443"
				req.Header.Set("X-Forwarded-For", fwd)
				rec := serve(limited, req)
				if i == 0 && rec.Code != http.StatusNoContent {
					t.Fatalf("expected first request to pass, got %d", rec.Code)
				}
				if i == 1 && rec.Code != tc.wantCode {
					t.Fatalf("expected %d, got %d", tc.wantCode, rec.Code)
				}
			}
		})
	}
}

func TestRateLimitWindowReset(t *testing.T) {
	window := 50 * time.Millisecond
	limited := RateLimit(1, window)(http.HandlerFunc(noContent))

	send := func() int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/clock/status", nil)
		req.RemoteAddr = "192.0.2.20:1111"
		return serve(limited, req).Code
	}
	if code := send(); code != http.StatusNoContent {
		t.Fatalf("expected first request to pass, got %d", code)
	}
	if code := send(); code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled, got %d", code)
	}
	// The counter slides over the previous window, so wait out two of them.
	time.Sleep(3 * window)
	if code := send(); code != http.StatusNoContent {
		t.Fatalf("expected request after the window to pass, got %d", code)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	limited := RateLimit(0, time.Minute)(http.HandlerFunc(noContent))
	for i := 0; i < 3; i++ {
		if rec := serve(limited, httptest.NewRequest(http.MethodGet, "/api/v1/shifts", nil)); rec.Code != http.StatusNoContent {
			t.Fatalf("expected disabled limiter to pass request %d, got %d", i+1, rec.Code)
		}
	}
}

func TestClockMutationRateLimitScope(t *testing.T) {
	limited := ClockMutationRateLimit(4, time.Minute)(http.HandlerFunc(noContent))

	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/earnings/summary", nil)
		req.RemoteAddr = "198.51.100.40:8888"
		if rec := serve(limited, req); rec.Code != http.StatusNoContent {
			t.Fatalf("expected read request %d to bypass the clock limit, got %d", i+1, rec.Code)
		}
	}

	worker := auth.UserContext{UserID: "worker-2"}
	first := asWorker(httptest.NewRequest(http.MethodPost, "/api/v1/clock/in", nil), worker)
	if rec := serve(limited, first); rec.Code != http.StatusNoContent {
		t.Fatalf("expected first mutation to pass, got %d", rec.Code)
	}
	second := asWorker(httptest.NewRequest(http.MethodDelete, "/api/v1/shifts/abc", nil), worker)
	if rec := serve(limited, second); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second mutation to be throttled, got %d", rec.Code)
	}
}
