package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"socialcard/internal/httpkit"
	"socialcard/internal/pkg/errors"
	"socialcard/internal/repositories"
)

// ListRenders returns the most recent stored renders.
func (h *Handler) ListRenders(w http.ResponseWriter, r *http.Request) error {
	limit := 50
	if v, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("limit"))); err == nil && v > 0 && v <= 200 {
		limit = v
	}

	items, err := h.renders.List(r.Context(), limit)
	if err != nil {
		if repositories.IsUndefinedTable(err) {
			return errors.Unavailable("render store")
		}
		return errors.Wrap(err, "renders.list", "db query failed")
	}

	httpkit.WriteJSON(w, http.StatusOK, map[string]any{"renders": items})
	return nil
}
