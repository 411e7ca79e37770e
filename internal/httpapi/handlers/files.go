package handlers

import (
	"io"
	"io/fs"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"socialcard/internal/pkg/errors"
)

// GetFile streams a stored object so that localfs URLs resolve.
func (h *Handler) GetFile(w http.ResponseWriter, r *http.Request) error {
	key := chi.URLParam(r, "*")
	if key == "" {
		return errors.NotFound("file", key)
	}

	rc, contentType, size, err := h.sp.GetObject(r.Context(), key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return errors.NotFound("file", key)
		}
		return errors.WrapWithCode(err, errors.CodeStorage, "files.get", "failed to read file")
	}
	defer rc.Close()

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	if size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	}
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, rc); err != nil {
		h.log.FromContext(r.Context()).WithError(err).Warn("file stream interrupted", "key", key)
	}
	return nil
}
