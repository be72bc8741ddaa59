package reactive

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the Prometheus collectors for a runtime.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "pulse").
	Namespace string

	// Subsystem is the metrics subsystem (default: "reactive").
	Subsystem string

	// ConstLabels are constant labels added to all metrics. Useful to tell
	// runtimes apart when a process hosts several (e.g. per-request).
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for flush duration.
	// Default: prometheus.DefBuckets.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

// MetricsOption configures NewMetrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the flush-duration histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "pulse",
		Subsystem: "reactive",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics is a set of Prometheus collectors describing runtime activity.
// Attach one with WithMetrics; a nil *Metrics records nothing, so the hot
// paths need no conditionals at call sites.
type Metrics struct {
	nodesCreated   prometheus.Counter
	nodesLive      prometheus.Gauge
	signalWrites   prometheus.Counter
	memoRecomputes prometheus.Counter
	effectRuns     prometheus.Counter
	flushes        prometheus.Counter
	flushDuration  prometheus.Histogram
}

// NewMetrics creates and registers the runtime collectors.
func NewMetrics(opts ...MetricsOption) *Metrics {
	cfg := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	factory := promauto.With(cfg.Registry)

	return &Metrics{
		nodesCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "nodes_created_total",
			Help:        "Reactive nodes allocated in the arena.",
			ConstLabels: cfg.ConstLabels,
		}),
		nodesLive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "nodes_live",
			Help:        "Reactive nodes currently alive.",
			ConstLabels: cfg.ConstLabels,
		}),
		signalWrites: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "signal_writes_total",
			Help:        "Signal writes that changed the stored value.",
			ConstLabels: cfg.ConstLabels,
		}),
		memoRecomputes: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "memo_recomputes_total",
			Help:        "Memo computations executed.",
			ConstLabels: cfg.ConstLabels,
		}),
		effectRuns: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "effect_runs_total",
			Help:        "Effect executions, initial runs included.",
			ConstLabels: cfg.ConstLabels,
		}),
		flushes: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "flushes_total",
			Help:        "Effect-queue flush passes.",
			ConstLabels: cfg.ConstLabels,
		}),
		flushDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "flush_duration_seconds",
			Help:        "Wall time per effect-queue flush pass.",
			ConstLabels: cfg.ConstLabels,
			Buckets:     cfg.Buckets,
		}),
	}
}

func (m *Metrics) nodeCreated() {
	if m == nil {
		return
	}
	m.nodesCreated.Inc()
	m.nodesLive.Inc()
}

func (m *Metrics) nodeDisposed() {
	if m == nil {
		return
	}
	m.nodesLive.Dec()
}

func (m *Metrics) signalWrote() {
	if m == nil {
		return
	}
	m.signalWrites.Inc()
}

func (m *Metrics) memoRecomputed() {
	if m == nil {
		return
	}
	m.memoRecomputes.Inc()
}

func (m *Metrics) effectRan() {
	if m == nil {
		return
	}
	m.effectRuns.Inc()
}

func (m *Metrics) flushDone(d time.Duration) {
	if m == nil {
		return
	}
	m.flushes.Inc()
	m.flushDuration.Observe(d.Seconds())
}
