package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type runIDKey struct{}

// WithRunID tags ctx with the id of the current migration run and returns a
// logger carrying the same id. Source query traces read it back from ctx.
func WithRunID(ctx context.Context, log *zap.Logger, runID string) (context.Context, *zap.Logger) {
	return context.WithValue(ctx, runIDKey{}, runID), log.With(zap.String("run_id", runID))
}

// GetRunID returns the run id stored by WithRunID, or "".
func GetRunID(ctx context.Context) string {
	runID, _ := ctx.Value(runIDKey{}).(string)
	return runID
}

// WithTraceContext adds trace_id and span_id of the active span in ctx.
// log is returned unchanged when ctx has no valid span.
func WithTraceContext(ctx context.Context, log *zap.Logger) *zap.Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return log
	}
	return log.With(
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	)
}
