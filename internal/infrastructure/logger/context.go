package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type scopeKey struct{}

// scope is what the HTTP layer attaches to a request context so that
// repositories and the notifier log with the same request_id.
type scope struct {
	log       *zap.Logger
	requestID string
}

func scopeFrom(ctx context.Context) (scope, bool) {
	s, ok := ctx.Value(scopeKey{}).(scope)
	return s, ok
}

// WithRequestID stores a request-scoped logger on ctx and returns both.
func WithRequestID(ctx context.Context, base *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	log := base
	if requestID != "" {
		log = base.With(zap.String("request_id", requestID))
	}
	return context.WithValue(ctx, scopeKey{}, scope{log: log, requestID: requestID}), log
}

// GetRequestID returns the id stored by WithRequestID, or "".
func GetRequestID(ctx context.Context) string {
	s, _ := scopeFrom(ctx)
	return s.requestID
}

// FromContext returns the request-scoped logger, or a no-op logger
// outside of a request.
func FromContext(ctx context.Context) *zap.Logger {
	if s, ok := scopeFrom(ctx); ok && s.log != nil {
		return s.log
	}
	return zap.NewNop()
}

// WithTraceContext tags log with the trace_id and span_id of the span on
// ctx. Without a recording span log is returned as is.
func WithTraceContext(ctx context.Context, log *zap.Logger) *zap.Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return log
	}
	return log.With(
		zap.Stringer("trace_id", sc.TraceID()),
		zap.Stringer("span_id", sc.SpanID()),
	)
}

// L is FromContext plus trace correlation.
func L(ctx context.Context) *zap.Logger {
	return WithTraceContext(ctx, FromContext(ctx))
}
