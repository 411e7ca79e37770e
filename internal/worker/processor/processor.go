// Package processor executes queued render jobs.
package processor

import (
	"context"
	"encoding/json"

	"socialcard/internal/models"
	"socialcard/internal/output"
	"socialcard/internal/pipeline"
	"socialcard/internal/pkg/errors"
	"socialcard/internal/pkg/logger"
)

// JobStore reads and updates render jobs.
type JobStore interface {
	Get(ctx context.Context, id string) (*models.RenderJob, error)
	MarkRunning(ctx context.Context, id string) error
	MarkDone(ctx context.Context, id, url, key string) error
	MarkFailed(ctx context.Context, id, message string) error
}

// Renderer runs a normalised render request.
type Renderer interface {
	Run(ctx context.Context, req pipeline.Request) (output.Result, error)
}

type Deps struct {
	Jobs     JobStore
	Renderer Renderer
	Log      *logger.Logger
}

type Processor struct {
	jobs     JobStore
	renderer Renderer
	log      *logger.Logger
}

func New(d Deps) *Processor {
	log := d.Log
	if log == nil {
		log = logger.Discard()
	}
	return &Processor{
		jobs:     d.Jobs,
		renderer: d.Renderer,
		log:      log.WithComponent("processor"),
	}
}

// ProcessJob renders one queued job in url mode and records the outcome.
func (p *Processor) ProcessJob(ctx context.Context, jobID string) error {
	log := p.log.FromContext(ctx).WithJobID(jobID)

	job, err := p.jobs.Get(ctx, jobID)
	if err != nil {
		return errors.Wrap(err, "processor.fetch", "failed to fetch job")
	}
	if job.Status != models.JobQueued {
		log.Warn("skipping job not in queued state", "status", string(job.Status))
		return nil
	}

	var raw pipeline.RawRequest
	if err := json.Unmarshal(job.Request, &raw); err != nil {
		return p.failJob(ctx, jobID, errors.WrapWithCode(err, errors.CodeValidation, "processor.parse", "invalid job request"))
	}
	req, err := pipeline.NewRequest(raw)
	if err != nil {
		return p.failJob(ctx, jobID, err)
	}
	req.Mode = output.ModeStoredURL

	if err := p.jobs.MarkRunning(ctx, jobID); err != nil {
		return p.failJob(ctx, jobID, errors.Wrap(err, "processor.status", "failed to mark job as running"))
	}

	log.Debug("starting render", "variant", req.Variant)
	res, err := p.renderer.Run(ctx, req)
	if err != nil {
		return p.failJob(ctx, jobID, err)
	}

	if err := p.jobs.MarkDone(ctx, jobID, res.URL, res.Key); err != nil {
		return errors.Wrap(err, "processor.status", "failed to mark job as done")
	}
	log.Info("job stored", "url", res.URL, "key", res.Key)
	return nil
}

func (p *Processor) failJob(ctx context.Context, jobID string, cause error) error {
	log := p.log.FromContext(ctx).WithJobID(jobID)

	if errors.IsValidation(cause) {
		log.Warn("job rejected", "error", errors.PublicMessage(cause))
	} else {
		p.log.LogError(logger.ContextWithJobID(ctx, jobID), "job failed", cause)
	}

	if err := p.jobs.MarkFailed(ctx, jobID, errors.PublicMessage(cause)); err != nil {
		log.WithError(err).Warn("failed to mark job as failed")
	}
	return cause
}
