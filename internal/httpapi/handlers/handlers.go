package handlers

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"socialcard/internal/models"
	"socialcard/internal/output"
	"socialcard/internal/pipeline"
	"socialcard/internal/pkg/logger"
	"socialcard/internal/ports"
)

// Renderer runs a render request.
type Renderer interface {
	Run(ctx context.Context, req pipeline.Request) (output.Result, error)
}

// RenderLister lists stored renders.
type RenderLister interface {
	List(ctx context.Context, limit int) ([]models.Render, error)
}

// JobStore persists render jobs.
type JobStore interface {
	Create(ctx context.Context, job *models.RenderJob) error
	Get(ctx context.Context, id string) (*models.RenderJob, error)
}

// JobQueue enqueues render job ids for the worker.
type JobQueue interface {
	Push(ctx context.Context, jobID string) error
}

type Deps struct {
	Renderer Renderer
	SP       ports.StorageProvider
	Renders  RenderLister
	Jobs     JobStore
	Queue    JobQueue
	Pool     *pgxpool.Pool
	RDB      *redis.Client
	Log      *logger.Logger
	Version  string
}

type Handler struct {
	renderer Renderer
	sp       ports.StorageProvider
	renders  RenderLister
	jobs     JobStore
	queue    JobQueue
	pool     *pgxpool.Pool
	rdb      *redis.Client
	log      *logger.Logger
	version  string
}

func New(d Deps) *Handler {
	log := d.Log
	if log == nil {
		log = logger.Discard()
	}
	version := d.Version
	if version == "" {
		version = "0.1.0"
	}
	return &Handler{
		renderer: d.Renderer,
		sp:       d.SP,
		renders:  d.Renders,
		jobs:     d.Jobs,
		queue:    d.Queue,
		pool:     d.Pool,
		rdb:      d.RDB,
		log:      log,
		version:  version,
	}
}

// Log returns the handler's logger, for wrapping error-returning handlers.
func (h *Handler) Log() *logger.Logger { return h.log }
