package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	runIDKey   contextKey = "run_id"
	batchIDKey contextKey = "batch_id"
	fileKey    contextKey = "file"
	loggerKey  contextKey = "logger"
)

// NewRunID returns a short unique id for one file's pipeline run.
// Eight UUID characters keep log lines readable while staying unique
// enough for a single process lifetime.
func NewRunID() string {
	return uuid.New().String()[:8]
}

// WithRunID stores a run id in the context.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

// WithNewRunID stores a freshly generated run id in the context.
func WithNewRunID(ctx context.Context) context.Context {
	return WithRunID(ctx, NewRunID())
}

// RunIDFromContext returns the run id, or "" when none is stored.
func RunIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey).(string); ok {
		return id
	}
	return ""
}

// WithNewBatchID stores a freshly generated id for one watch pass, so
// the runs of all files picked up together can be correlated.
func WithNewBatchID(ctx context.Context) context.Context {
	return context.WithValue(ctx, batchIDKey, NewRunID())
}

// BatchIDFromContext returns the batch id, or "" when none is stored.
func BatchIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(batchIDKey).(string); ok {
		return id
	}
	return ""
}

// WithFile stores the path of the file currently being processed.
func WithFile(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, fileKey, path)
}

// FileFromContext returns the stored file path, or "".
func FileFromContext(ctx context.Context) string {
	if path, ok := ctx.Value(fileKey).(string); ok {
		return path
	}
	return ""
}

// WithLogger stores a pre-built logger in the context. Tests use this
// to capture a subsystem's output without touching the global logger.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// LoggerFromContext returns the stored logger, falling back to the
// global one.
func LoggerFromContext(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(loggerKey).(zerolog.Logger); ok {
		return logger
	}
	return Logger()
}

// Ctx returns a logger carrying the run id and file path stored in the
// context, so every line of one file's pipeline run can be correlated.
//
//	logging.Ctx(ctx).Info().Msg("sidecar deleted")
//	// {"level":"info","run_id":"ab12cd34","file":"/in/IMG.mov","message":"sidecar deleted"}
func Ctx(ctx context.Context) *zerolog.Logger {
	logger := LoggerFromContext(ctx)

	builder := logger.With()
	if id := BatchIDFromContext(ctx); id != "" {
		builder = builder.Str("batch_id", id)
	}
	if id := RunIDFromContext(ctx); id != "" {
		builder = builder.Str("run_id", id)
	}
	if path := FileFromContext(ctx); path != "" {
		builder = builder.Str("file", path)
	}

	contextLogger := builder.Logger()
	return &contextLogger
}
