package worker

import (
	"context"

	"socialcard/internal/pkg/logger"
)

// Queue yields job ids. Pop returns "" when nothing arrived in time.
type Queue interface {
	Pop(ctx context.Context) (string, error)
}

// JobProcessor executes one job.
type JobProcessor interface {
	ProcessJob(ctx context.Context, jobID string) error
}

type Deps struct {
	Queue     Queue
	Processor JobProcessor
	Log       *logger.Logger
}
