package reactive

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// Option configures a Runtime at construction.
type Option func(*Runtime)

// WithLogger sets the logger used for runtime diagnostics. Defaults to
// slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(rt *Runtime) {
		if logger != nil {
			rt.logger = logger
		}
	}
}

// WithMetrics attaches a Metrics collector set to the runtime. Without it
// the runtime records nothing.
func WithMetrics(m *Metrics) Option {
	return func(rt *Runtime) {
		rt.metrics = m
	}
}

// WithTracer enables OpenTelemetry spans around flushes and batches.
func WithTracer(tracer trace.Tracer) Option {
	return func(rt *Runtime) {
		rt.tracer = tracer
	}
}

// WithEffectBudget caps effect runs within a single flush. Exceeding the
// budget panics with ErrBudgetExceeded. Values below 1 are ignored.
func WithEffectBudget(n int) Option {
	return func(rt *Runtime) {
		if n > 0 {
			rt.effectBudget = n
		}
	}
}
