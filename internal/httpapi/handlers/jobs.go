package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"socialcard/internal/httpkit"
	"socialcard/internal/models"
	"socialcard/internal/pipeline"
	"socialcard/internal/pkg/errors"
	"socialcard/internal/util"
)

// PostRenderJob queues a url-mode render for the worker. The request is
// validated up front so that a job never fails for a missing
// backgroundUrl.
func (h *Handler) PostRenderJob(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var raw pipeline.RawRequest
	if err := httpkit.DecodeJSON(r, &raw); err != nil {
		return errors.Validation("invalid json body")
	}
	req, err := pipeline.NewRequest(raw)
	if err != nil {
		return err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return errors.Wrap(err, "jobs.create", "failed to encode job request")
	}

	job := &models.RenderJob{ID: util.NewID("job"), Request: body}
	if err := h.jobs.Create(ctx, job); err != nil {
		return errors.Wrap(err, "jobs.create", "db insert failed")
	}

	if err := h.queue.Push(ctx, job.ID); err != nil {
		return errors.Wrap(err, "jobs.enqueue", "queue push failed")
	}

	h.log.FromContext(ctx).Info("render job queued", "job_id", job.ID)
	httpkit.WriteJSON(w, http.StatusAccepted, map[string]any{"job": job})
	return nil
}

// GetRenderJob returns a job's status and, once done, its URL.
func (h *Handler) GetRenderJob(w http.ResponseWriter, r *http.Request) error {
	jobID := chi.URLParam(r, "jobId")

	job, err := h.jobs.Get(r.Context(), jobID)
	if err != nil {
		return err
	}

	httpkit.WriteJSON(w, http.StatusOK, map[string]any{"job": job})
	return nil
}
