package handlers

import (
	"net/http"

	"socialcard/internal/httpkit"
	"socialcard/internal/output"
	"socialcard/internal/pipeline"
	"socialcard/internal/pkg/errors"
)

// PostRender renders a card synchronously. Binary mode answers with the
// PNG; url mode with {"url": ...}.
func (h *Handler) PostRender(w http.ResponseWriter, r *http.Request) error {
	var raw pipeline.RawRequest
	if err := httpkit.DecodeJSON(r, &raw); err != nil {
		return errors.Validation("invalid json body")
	}

	req, err := pipeline.NewRequest(raw)
	if err != nil {
		return err
	}

	res, err := h.renderer.Run(r.Context(), req)
	if err != nil {
		return err
	}

	if res.Mode == output.ModeStoredURL {
		httpkit.WriteJSON(w, http.StatusOK, map[string]string{"url": res.URL})
		return nil
	}

	httpkit.WriteBytes(w, http.StatusOK, res.ContentType, res.CacheControl, res.Bytes)
	return nil
}
