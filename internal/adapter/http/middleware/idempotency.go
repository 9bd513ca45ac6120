package middleware

import (
	"bytes"
	"net/http"
	"time"

	"github.com/iho/bankcore/internal/usecase"
)

const (
	// IdempotencyKeyHeader is the header name for idempotency keys.
	IdempotencyKeyHeader = "Idempotency-Key"

	// ReplayHeader marks responses served from the idempotency store.
	ReplayHeader = "X-Idempotency-Replay"

	// inFlightMarker mirrors the placeholder the store writes while the
	// first request with a key is still executing.
	inFlightMarker = "processing"

	defaultIdempotencyTTL = 24 * time.Hour
)

// IdempotencyMiddleware makes mutating requests safe to retry: the first
// request with a given Idempotency-Key executes and has its response
// recorded, duplicates get that response back, and a duplicate arriving
// while the first is still running is rejected rather than run twice.
type IdempotencyMiddleware struct {
	store usecase.IdempotencyStore
	ttl   time.Duration
}

// NewIdempotencyMiddleware creates a new IdempotencyMiddleware.
func NewIdempotencyMiddleware(store usecase.IdempotencyStore, ttl time.Duration) *IdempotencyMiddleware {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}

	return &IdempotencyMiddleware{store: store, ttl: ttl}
}

// Wrap wraps an http.Handler with idempotency checking.
func (m *IdempotencyMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodPut {
			next.ServeHTTP(w, r)
			return
		}

		key := r.Header.Get(IdempotencyKeyHeader)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}

		seen, recorded, err := m.store.CheckAndSet(r.Context(), key, nil, m.ttl)
		if err != nil {
			// Fail closed: executing a transfer twice is worse than
			// refusing one.
			http.Error(w, "idempotency check failed", http.StatusInternalServerError)
			return
		}

		if seen {
			m.replay(w, recorded)
			return
		}

		rec := &responseRecorder{
			ResponseWriter: w,
			body:           &bytes.Buffer{},
			statusCode:     http.StatusOK,
		}
		next.ServeHTTP(rec, r)

		// Only successful outcomes are worth replaying. A failed request
		// may legitimately be retried, so its claim on the key is released
		// instead of left to expire with the TTL.
		if rec.statusCode >= 200 && rec.statusCode < 300 {
			_ = m.store.Update(r.Context(), key, rec.body.Bytes(), m.ttl)
		} else {
			_ = m.store.Delete(r.Context(), key)
		}
	})
}

func (m *IdempotencyMiddleware) replay(w http.ResponseWriter, recorded []byte) {
	if string(recorded) == inFlightMarker || recorded == nil {
		writeJSONError(w, http.StatusConflict, "request with this idempotency key is still in flight")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(ReplayHeader, "true")
	_, _ = w.Write(recorded)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}

type responseRecorder struct {
	http.ResponseWriter

	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}
