package main

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"socialcard/internal/assets"
	"socialcard/internal/httpapi"
	"socialcard/internal/httpapi/handlers"
	"socialcard/internal/output"
	"socialcard/internal/pipeline"
	"socialcard/internal/pkg/logger"
	"socialcard/internal/pkg/shutdown"
	"socialcard/internal/repositories"
	"socialcard/internal/storage"
	"socialcard/internal/util"
	"socialcard/internal/worker/queue"
)

const version = "0.1.0"

func main() {
	// Initialize logger
	log := logger.New(logger.ConfigFromEnv("socialcard-api"))

	log.Info("starting socialcard API", "version", version)

	// Load configuration
	httpPort := util.Env("HTTP_PORT", "8080")
	dbURL := util.Env("DATABASE_URL", "")
	redisAddr := util.Env("REDIS_ADDR", "")
	queueName := util.Env("JOB_QUEUE_NAME", queue.DefaultName)
	requestTimeout := util.DurationEnv("REQUEST_TIMEOUT", 60*time.Second)
	fetchTimeout := util.DurationEnv("FETCH_TIMEOUT", assets.DefaultTimeout)
	allowedOrigins := util.CSVEnv("CORS_ALLOWED_ORIGINS", []string{"*"})

	ctx := context.Background()

	// Initialize shutdown manager
	shutdownMgr := shutdown.NewManager(log, 30*time.Second)

	var (
		pool    *pgxpool.Pool
		rdb     *redis.Client
		renders *repositories.RenderRepository
		jobs    *repositories.JobRepository
		jobQ    *queue.RedisQueue
	)

	// Connect to PostgreSQL
	if dbURL != "" {
		log.Info("connecting to PostgreSQL")
		var err error
		pool, err = pgxpool.New(ctx, dbURL)
		if err != nil {
			log.LogFatal("failed to connect to PostgreSQL", err)
		}
		shutdownMgr.RegisterSimple("postgres", pool.Close)

		if err := pool.Ping(ctx); err != nil {
			log.LogFatal("failed to ping PostgreSQL", err)
		}
		if err := repositories.EnsureSchema(ctx, pool); err != nil {
			log.LogFatal("failed to apply schema", err)
		}
		renders = repositories.NewRenderRepository(pool)
		jobs = repositories.NewJobRepository(pool)
		log.Info("PostgreSQL connected")
	} else {
		log.Info("DATABASE_URL not set, render history and jobs disabled")
	}

	// Connect to Redis
	if redisAddr != "" {
		log.Info("connecting to Redis")
		rdb = redis.NewClient(&redis.Options{Addr: redisAddr})
		shutdownMgr.Register("redis", func(ctx context.Context) error {
			return rdb.Close()
		})

		if err := rdb.Ping(ctx).Err(); err != nil {
			log.LogFatal("failed to ping Redis", err)
		}
		jobQ = queue.NewRedisQueue(rdb, queueName)
		log.Info("Redis connected", "queue", jobQ.Name())
	} else {
		log.Info("REDIS_ADDR not set, render jobs disabled")
	}

	// Initialize storage provider
	storageCfg := storage.ConfigFromEnv()
	sp, err := storage.NewProvider(ctx, storageCfg)
	if err != nil {
		log.LogFatal("failed to initialize storage provider", err)
	}
	log.Info("storage provider initialized", "provider", sp.Provider())

	// Build the render pipeline
	var recorder output.Recorder
	if renders != nil {
		recorder = renders
	}
	fetcher := assets.NewFetcher(&http.Client{Timeout: fetchTimeout}, log)
	dispatcher := output.NewDispatcher(sp, recorder, log)
	renderer, err := pipeline.New(pipeline.Config{
		DefaultVariant:  util.Env("RENDER_VARIANT", "centered"),
		FontFamily:      util.Env("FONT_FAMILY", ""),
		FontRegularURL:  util.Env("FONT_REGULAR_URL", ""),
		FontSemiBoldURL: util.Env("FONT_SEMIBOLD_URL", ""),
	}, fetcher, dispatcher, log)
	if err != nil {
		log.LogFatal("failed to configure render pipeline", err)
	}
	log.Info("render pipeline ready", "default_variant", renderer.DefaultVariant().Name)

	// Create HTTP router
	hd := handlers.Deps{
		Renderer: renderer,
		SP:       sp,
		Pool:     pool,
		RDB:      rdb,
		Log:      log,
		Version:  version,
	}
	if renders != nil {
		hd.Renders = renders
	}
	if jobs != nil && jobQ != nil {
		hd.Jobs = jobs
		hd.Queue = jobQ
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Handlers:       hd,
		AllowedOrigins: allowedOrigins,
		RequestTimeout: requestTimeout,
		ServeFiles:     storageCfg.Provider == "localfs",
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         "0.0.0.0:" + httpPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: requestTimeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Register server shutdown last so it runs first
	shutdownMgr.Register("http-server", func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return server.Shutdown(ctx)
	})

	go func() {
		log.Info("HTTP server listening", "addr", server.Addr, "port", httpPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.LogFatal("HTTP server failed", err)
		}
	}()

	if err := shutdownMgr.Wait(); err != nil {
		log.Error("shutdown completed with errors", "error", err.Error())
	}
}
