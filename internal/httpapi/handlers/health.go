package handlers

import (
	"context"
	"net/http"
	"time"

	"socialcard/internal/httpkit"
)

// Health performs a health check of the service. With ?deep=true it also
// pings postgres, redis and storage.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := h.log.FromContext(ctx)

	health := map[string]any{
		"status":  "ok",
		"service": "socialcard-api",
		"version": h.version,
	}

	if r.URL.Query().Get("deep") == "true" {
		checks := h.deepHealthCheck(ctx)
		health["checks"] = checks

		for _, check := range checks {
			if check["status"] == "error" {
				health["status"] = "degraded"
				log.Warn("health check degraded", "checks", checks)
				break
			}
		}
	}

	httpkit.WriteJSON(w, http.StatusOK, health)
}

func (h *Handler) deepHealthCheck(ctx context.Context) map[string]map[string]any {
	return map[string]map[string]any{
		"postgres": h.checkPostgres(ctx),
		"redis":    h.checkRedis(ctx),
		"storage":  h.checkStorage(ctx),
	}
}

func (h *Handler) checkPostgres(ctx context.Context) map[string]any {
	if h.pool == nil {
		return map[string]any{"status": "disabled"}
	}

	start := time.Now()
	result := map[string]any{"status": "ok"}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := h.pool.Ping(checkCtx); err != nil {
		result["status"] = "error"
		result["error"] = err.Error()
	} else {
		stats := h.pool.Stat()
		result["total_conns"] = stats.TotalConns()
		result["idle_conns"] = stats.IdleConns()
		result["acquired_conns"] = stats.AcquiredConns()
	}

	result["latency_ms"] = time.Since(start).Milliseconds()
	return result
}

func (h *Handler) checkRedis(ctx context.Context) map[string]any {
	if h.rdb == nil {
		return map[string]any{"status": "disabled"}
	}

	start := time.Now()
	result := map[string]any{"status": "ok"}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := h.rdb.Ping(checkCtx).Err(); err != nil {
		result["status"] = "error"
		result["error"] = err.Error()
	}

	result["latency_ms"] = time.Since(start).Milliseconds()
	return result
}

func (h *Handler) checkStorage(_ context.Context) map[string]any {
	if h.sp == nil {
		return map[string]any{"status": "disabled"}
	}
	return map[string]any{
		"status":   "ok",
		"provider": h.sp.Provider(),
	}
}
