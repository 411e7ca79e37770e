// Package logger wraps log/slog with the request and render-job context
// used by the API and the worker.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"socialcard/internal/pkg/errors"
	"socialcard/internal/util"
)

type contextKey string

const (
	// RequestIDKey carries the HTTP request id.
	RequestIDKey contextKey = "request_id"
	// JobIDKey carries the render job id inside the worker.
	JobIDKey contextKey = "job_id"
)

// contextAttrs are copied from a context onto the logger by FromContext.
var contextAttrs = []contextKey{RequestIDKey, JobIDKey}

type Logger struct {
	*slog.Logger
}

type Config struct {
	// Level is debug, info, warn or error.
	Level string
	// Format is json or text.
	Format string
	// Output defaults to os.Stdout.
	Output    io.Writer
	AddSource bool
	// ServiceName is attached to every record as "service".
	ServiceName string
}

// ConfigFromEnv reads LOG_LEVEL, LOG_FORMAT and LOG_SOURCE for service.
func ConfigFromEnv(service string) Config {
	return Config{
		Level:       util.Env("LOG_LEVEL", "info"),
		Format:      util.Env("LOG_FORMAT", "json"),
		AddSource:   util.BoolEnv("LOG_SOURCE", false),
		ServiceName: service,
	}
}

func New(cfg Config) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}

	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.Level),
		AddSource: cfg.AddSource,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339Nano))
				}
			}
			return a
		},
	}

	var handler slog.Handler = slog.NewJSONHandler(cfg.Output, opts)
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(cfg.Output, opts)
	}
	if cfg.ServiceName != "" {
		handler = handler.WithAttrs([]slog.Attr{slog.String("service", cfg.ServiceName)})
	}

	return &Logger{Logger: slog.New(handler)}
}

// Discard returns a logger that drops everything. Components built without
// a logger use it.
func Discard() *Logger {
	return New(Config{Level: "error", Output: io.Discard})
}

func (l *Logger) with(key, value string) *Logger {
	return &Logger{Logger: l.Logger.With(slog.String(key, value))}
}

func (l *Logger) WithRequestID(requestID string) *Logger {
	return l.with(string(RequestIDKey), requestID)
}

func (l *Logger) WithJobID(jobID string) *Logger {
	return l.with(string(JobIDKey), jobID)
}

// WithComponent tags records with the emitting package, e.g. "pipeline".
func (l *Logger) WithComponent(component string) *Logger {
	return l.with("component", component)
}

func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return l.with("error", err.Error())
}

// FromContext returns l enriched with the request and job ids found in ctx.
func (l *Logger) FromContext(ctx context.Context) *Logger {
	result := l
	for _, key := range contextAttrs {
		if v, ok := ctx.Value(key).(string); ok && v != "" {
			result = result.with(string(key), v)
		}
	}
	return result
}

// LogError logs err at error level with the caller's position. Coded
// errors also log their code and failing operation.
func (l *Logger) LogError(ctx context.Context, msg string, err error, args ...any) {
	if err == nil {
		return
	}

	if _, file, line, ok := runtime.Caller(1); ok {
		args = append(args, "caller", slog.GroupValue(
			slog.String("file", file),
			slog.Int("line", line),
		))
	}

	var appErr *errors.Error
	if errors.As(err, &appErr) {
		args = append(args, "code", string(appErr.Code), "op", appErr.Op)
	}

	args = append(args, "error", err.Error())
	l.FromContext(ctx).Error(msg, args...)
}

// LogFatal logs at error level and exits with status 1.
func (l *Logger) LogFatal(msg string, err error, args ...any) {
	if err != nil {
		args = append(args, "error", err.Error())
	}
	l.Error(msg, args...)
	os.Exit(1)
}

func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

func ContextWithJobID(ctx context.Context, jobID string) context.Context {
	return context.WithValue(ctx, JobIDKey, jobID)
}

// parseLevel accepts slog level names in any case plus "warning"; anything
// else is info.
func parseLevel(level string) slog.Level {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "warning" {
		level = "warn"
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
