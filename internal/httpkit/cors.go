package httpkit

import (
	"net/http"
	"strconv"
	"strings"
)

// corsMethods are the only methods the render API exposes.
const corsMethods = "GET, POST, OPTIONS"

// CORSOptions configures the CORS middleware. An origin of "*" allows
// every origin.
type CORSOptions struct {
	AllowedOrigins []string
	AllowedHeaders []string
	ExposedHeaders []string
	MaxAgeSeconds  int
}

// CORS answers preflight requests with 204 and echoes allowed origins.
func CORS(opt CORSOptions) func(http.Handler) http.Handler {
	if len(opt.AllowedHeaders) == 0 {
		opt.AllowedHeaders = []string{"Content-Type", "Accept"}
	}
	if opt.MaxAgeSeconds == 0 {
		opt.MaxAgeSeconds = 600
	}

	origins := make(map[string]bool, len(opt.AllowedOrigins))
	for _, o := range opt.AllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins[o] = true
		}
	}
	anyOrigin := origins["*"]

	allowedHeaders := strings.Join(opt.AllowedHeaders, ", ")
	exposedHeaders := strings.Join(opt.ExposedHeaders, ", ")
	maxAge := strconv.Itoa(opt.MaxAgeSeconds)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if origin != "" && (anyOrigin || origins[origin]) {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
				h.Set("Access-Control-Allow-Methods", corsMethods)
				h.Set("Access-Control-Allow-Headers", allowedHeaders)
				h.Set("Access-Control-Max-Age", maxAge)
				if exposedHeaders != "" {
					h.Set("Access-Control-Expose-Headers", exposedHeaders)
				}
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
