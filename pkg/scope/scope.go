// Package scope binds reactive runtimes to request lifecycles. A server
// must give every request its own Runtime and dispose it once the response
// is produced, so reactive nodes never leak across requests; the
// middleware here does exactly that for net/http handlers.
package scope

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pulse-ui/pulse/pkg/reactive"
)

// Config configures the request-scope middleware.
type Config struct {
	// RuntimeOptions are passed to every per-request NewRuntime call.
	RuntimeOptions []reactive.Option

	// Logger receives a debug line per disposed runtime.
	// Default: slog.Default().
	Logger *slog.Logger
}

// Option configures Middleware.
type Option func(*Config)

// WithRuntimeOptions sets options for the per-request runtimes.
func WithRuntimeOptions(opts ...reactive.Option) Option {
	return func(c *Config) {
		c.RuntimeOptions = opts
	}
}

// WithLogger sets the middleware logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// ctxKey keys the runtime in the request context.
type ctxKey struct{}

// Middleware returns net/http middleware that creates a fresh Runtime for
// each request, installs it for the handler goroutine, and disposes it,
// cleanups and all, after the handler returns, panics included.
func Middleware(opts ...Option) func(http.Handler) http.Handler {
	cfg := Config{Logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rt := reactive.NewRuntime(cfg.RuntimeOptions...)
			defer func() {
				rt.Dispose()
				cfg.Logger.Debug("request runtime disposed",
					slog.String("path", r.URL.Path))
			}()

			ctx := context.WithValue(r.Context(), ctxKey{}, rt)
			rt.Run(func() {
				next.ServeHTTP(w, r.WithContext(ctx))
			})
		})
	}
}

// RuntimeFrom returns the request's Runtime. Handlers that hand work to
// other goroutines use this together with Runtime.Run to re-enter the
// request's reactive scope.
func RuntimeFrom(ctx context.Context) (*reactive.Runtime, bool) {
	rt, ok := ctx.Value(ctxKey{}).(*reactive.Runtime)
	return rt, ok
}

// Router returns a chi router with the request-scope middleware already
// applied, for servers that do not assemble their own middleware stack.
func Router(opts ...Option) chi.Router {
	r := chi.NewRouter()
	r.Use(Middleware(opts...))
	return r
}
