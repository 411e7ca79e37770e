package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"socialcard/internal/assets"
	"socialcard/internal/output"
	"socialcard/internal/pipeline"
	"socialcard/internal/pkg/logger"
	"socialcard/internal/pkg/shutdown"
	"socialcard/internal/repositories"
	"socialcard/internal/storage"
	"socialcard/internal/util"
	"socialcard/internal/worker"
	"socialcard/internal/worker/processor"
	"socialcard/internal/worker/queue"
)

func main() {
	log := logger.New(logger.ConfigFromEnv("socialcard-worker"))

	dbURL := util.MustEnv("DATABASE_URL")
	redisAddr := util.MustEnv("REDIS_ADDR")
	queueName := util.Env("JOB_QUEUE_NAME", queue.DefaultName)
	fetchTimeout := util.DurationEnv("FETCH_TIMEOUT", assets.DefaultTimeout)

	ctx, stop := shutdown.SignalContext(context.Background())
	defer stop()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.LogFatal("failed to connect to PostgreSQL", err)
	}
	defer pool.Close()

	if err := repositories.EnsureSchema(ctx, pool); err != nil {
		log.LogFatal("failed to apply schema", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer rdb.Close()

	sp, err := storage.NewProvider(ctx, storage.ConfigFromEnv())
	if err != nil {
		log.LogFatal("failed to initialize storage provider", err)
	}

	renders := repositories.NewRenderRepository(pool)
	renderer, err := pipeline.New(pipeline.Config{
		DefaultVariant:  util.Env("RENDER_VARIANT", "centered"),
		FontFamily:      util.Env("FONT_FAMILY", ""),
		FontRegularURL:  util.Env("FONT_REGULAR_URL", ""),
		FontSemiBoldURL: util.Env("FONT_SEMIBOLD_URL", ""),
	},
		assets.NewFetcher(&http.Client{Timeout: fetchTimeout}, log),
		output.NewDispatcher(sp, renders, log),
		log,
	)
	if err != nil {
		log.LogFatal("failed to configure render pipeline", err)
	}
	log.Info("render pipeline ready", "default_variant", renderer.DefaultVariant().Name)

	proc := processor.New(processor.Deps{
		Jobs:     repositories.NewJobRepository(pool),
		Renderer: renderer,
		Log:      log,
	})

	log.Info("socialcard worker started", "queue", queueName, "storage", sp.Provider())
	err = worker.Run(ctx, worker.Deps{
		Queue:     queue.NewRedisQueue(rdb, queueName),
		Processor: proc,
		Log:       log,
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.LogFatal("worker stopped", err)
	}
	log.Info("socialcard worker stopped")
}
