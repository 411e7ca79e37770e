package worker

import (
	"context"
	"time"

	"socialcard/internal/pkg/errors"
	"socialcard/internal/pkg/logger"
)

// retryDelay is the pause after a failed queue read.
var retryDelay = time.Second

// Run pops job ids until ctx is canceled and processes them one at a
// time. A failing job does not stop the loop.
func Run(ctx context.Context, d Deps) error {
	log := d.Log
	if log == nil {
		log = logger.Discard()
	}
	log = log.WithComponent("worker")

	for {
		select {
		case <-ctx.Done():
			log.Info("worker context canceled, stopping")
			return ctx.Err()
		default:
		}

		jobID, err := d.Queue.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("worker stopping due to context cancellation")
				return ctx.Err()
			}

			log.Warn("queue pop error, retrying", "error", err.Error())
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryDelay):
			}
			continue
		}

		if jobID == "" {
			continue
		}

		jobCtx := logger.ContextWithJobID(ctx, jobID)
		jobLog := log.WithJobID(jobID)

		jobLog.Info("processing job")
		startTime := time.Now()

		if err := d.Processor.ProcessJob(jobCtx, jobID); err != nil {
			if errors.IsNotFound(err) {
				jobLog.Warn("job not found, dropping")
				continue
			}
			log.LogError(jobCtx, "job failed", err,
				"duration_ms", time.Since(startTime).Milliseconds(),
			)
		} else {
			jobLog.Info("job completed",
				"duration_ms", time.Since(startTime).Milliseconds(),
			)
		}
	}
}
