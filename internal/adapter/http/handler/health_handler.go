package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const readinessTimeout = 5 * time.Second

// HealthHandler reports process liveness and dependency readiness.
type HealthHandler struct {
	db    *pgxpool.Pool
	cache *redis.Client
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db *pgxpool.Pool, cache *redis.Client) *HealthHandler {
	return &HealthHandler{
		db:    db,
		cache: cache,
	}
}

// Liveness returns 200 as long as the process is serving requests.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness pings both backing stores and reports per-dependency status.
// Any failing dependency makes the whole check 503.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	overall := "ready"
	status := http.StatusOK
	checks := map[string]string{
		"postgres": "ok",
		"redis":    "ok",
	}

	if err := h.db.Ping(ctx); err != nil {
		checks["postgres"] = err.Error()
		overall = "unavailable"
		status = http.StatusServiceUnavailable
	}

	if err := h.cache.Ping(ctx).Err(); err != nil {
		checks["redis"] = err.Error()
		overall = "unavailable"
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, map[string]any{
		"status": overall,
		"checks": checks,
	})
}
