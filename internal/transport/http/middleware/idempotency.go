package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/goccy/go-json"

	"wagevo/internal/platform/kv"
	"wagevo/internal/transport/http/api"
)

const idempotencyPrefix = "idempotency/"

var ErrIdempotencyConflict = errors.New("idempotency key conflicts with existing request")

// StoredResponse is the replayable outcome of a request made under an
// Idempotency-Key.
type StoredResponse struct {
	RequestHash string          `json:"requestHash"`
	Status      int             `json:"status"`
	Body        json.RawMessage `json:"body"`
}

type IdempotencyStore struct {
	db kv.Store

	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func NewIdempotencyStore(db kv.Store) *IdempotencyStore {
	return &IdempotencyStore{db: db, locks: map[string]*keyLock{}}
}

// Lock holds off other requests under the same key until the returned
// function is called. It only serializes requests within this process.
func (s *IdempotencyStore) Lock(ownerID, endpoint, key string) func() {
	id := idempotencyKey(ownerID, endpoint, key)
	s.mu.Lock()
	if s.locks == nil {
		s.locks = map[string]*keyLock{}
	}
	l, ok := s.locks[id]
	if !ok {
		l = &keyLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}

func RequestHash(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func idempotencyKey(ownerID, endpoint, key string) string {
	return idempotencyPrefix + url.PathEscape(ownerID) + "/" + url.PathEscape(endpoint) + "/" + url.PathEscape(key)
}

// Check returns the stored response for key. A stored request whose hash
// differs from requestHash is reported as ErrIdempotencyConflict.
func (s *IdempotencyStore) Check(ctx context.Context, ownerID, endpoint, key, requestHash string) (StoredResponse, bool, error) {
	if s == nil || s.db == nil {
		return StoredResponse{}, false, nil
	}
	raw, err := s.db.Get(ctx, idempotencyKey(ownerID, endpoint, key))
	if errors.Is(err, kv.ErrNotFound) {
		return StoredResponse{}, false, nil
	}
	if err != nil {
		return StoredResponse{}, false, err
	}
	var stored StoredResponse
	if err := json.Unmarshal(raw, &stored); err != nil {
		slog.Warn("discarding unreadable idempotency record", "endpoint", endpoint, "err", err)
		return StoredResponse{}, false, nil
	}
	if stored.RequestHash != requestHash {
		return StoredResponse{}, false, ErrIdempotencyConflict
	}
	return stored, true, nil
}

// Save records response unless a response is already stored for key. The
// first response wins.
func (s *IdempotencyStore) Save(ctx context.Context, ownerID, endpoint, key string, response StoredResponse) error {
	if s == nil || s.db == nil {
		return nil
	}
	_, found, err := s.Check(ctx, ownerID, endpoint, key, response.RequestHash)
	if err != nil {
		return err
	}
	if found {
		return nil
	}
	data, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("encode idempotency record: %w", err)
	}
	return s.db.Set(ctx, idempotencyKey(ownerID, endpoint, key), data)
}

type bufferedResponse struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (b *bufferedResponse) WriteHeader(code int) {
	b.status = code
	b.ResponseWriter.WriteHeader(code)
}

func (b *bufferedResponse) Write(p []byte) (int, error) {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	b.body.Write(p)
	return b.ResponseWriter.Write(p)
}

// Idempotent replays the first response of a POST carrying an Idempotency-Key
// header. Retrying clock in with the same key returns the original shift
// instead of a conflict. Server errors are not remembered.
func Idempotent(store *IdempotencyStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("Idempotency-Key")
			if r.Method != http.MethodPost || key == "" || store == nil {
				next.ServeHTTP(w, r)
				return
			}
			reqID := GetRequestID(r.Context())
			if len(key) > 128 {
				api.Fail(w, http.StatusBadRequest, "invalid_idempotency_key", "idempotency key too long", reqID)
				return
			}
			payload, err := io.ReadAll(r.Body)
			if err != nil {
				api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", reqID)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(payload))

			owner := ""
			if user, ok := GetUser(r.Context()); ok {
				owner = user.UserID
			}
			endpoint := r.URL.Path
			hash := RequestHash(payload)

			unlock := store.Lock(owner, endpoint, key)
			defer unlock()

			stored, found, err := store.Check(r.Context(), owner, endpoint, key, hash)
			switch {
			case errors.Is(err, ErrIdempotencyConflict):
				api.Fail(w, http.StatusConflict, "idempotency_conflict", "idempotency key reused with a different request", reqID)
				return
			case err != nil:
				slog.Error("idempotency lookup failed", "endpoint", endpoint, "err", err, "requestId", reqID)
				api.Fail(w, http.StatusInternalServerError, "internal_error", "internal error", reqID)
				return
			case found:
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Idempotent-Replayed", "true")
				w.WriteHeader(stored.Status)
				_, _ = w.Write(stored.Body)
				return
			}

			recorder := &bufferedResponse{ResponseWriter: w}
			next.ServeHTTP(recorder, r)
			if recorder.status == 0 || recorder.status >= http.StatusInternalServerError {
				return
			}
			response := StoredResponse{RequestHash: hash, Status: recorder.status, Body: json.RawMessage(bytes.TrimSpace(recorder.body.Bytes()))}
			if err := store.Save(r.Context(), owner, endpoint, key, response); err != nil {
				slog.Warn("idempotency save failed", "endpoint", endpoint, "err", err, "requestId", reqID)
			}
		})
	}
}
