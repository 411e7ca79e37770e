package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"socialcard/internal/httpapi/handlers"
	"socialcard/internal/httpkit"
	"socialcard/internal/pkg/logger"
	"socialcard/internal/pkg/middleware"
)

type Deps struct {
	Handlers handlers.Deps

	// AllowedOrigins feeds the CORS middleware.
	AllowedOrigins []string
	// RequestTimeout bounds every request, including its asset fetches.
	RequestTimeout time.Duration
	// ServeFiles mounts GET /files/* over the storage provider.
	ServeFiles bool
}

func NewRouter(d Deps) http.Handler {
	log := d.Handlers.Log
	if log == nil {
		log = logger.Discard()
	}
	d.Handlers.Log = log

	timeout := d.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(log))
	r.Use(middleware.Recovery(log))
	r.Use(httpkit.CORS(httpkit.CORSOptions{
		AllowedOrigins: d.AllowedOrigins,
		AllowedHeaders: []string{"Content-Type", "Accept"},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAgeSeconds:  600,
	}))

	h := handlers.New(d.Handlers)
	wrap := func(fn middleware.ErrorHandlerFunc) http.HandlerFunc {
		return middleware.WrapHandler(log, fn)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpkit.WriteErr(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpkit.WriteErr(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	// ---- HEALTH ----
	r.Get("/health", h.Health)

	// ---- FILES ----
	if d.ServeFiles && d.Handlers.SP != nil {
		r.Get("/files/*", wrap(h.GetFile))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(timeout))

		// ---- RENDER ----
		r.Post("/render", wrap(h.PostRender))

		// ---- RENDERS ----
		if d.Handlers.Renders != nil {
			r.Get("/renders", wrap(h.ListRenders))
		}

		// ---- JOBS ----
		if d.Handlers.Jobs != nil && d.Handlers.Queue != nil {
			r.Post("/render/jobs", wrap(h.PostRenderJob))
			r.Get("/render/jobs/{jobId}", wrap(h.GetRenderJob))
		}
	})

	return r
}
