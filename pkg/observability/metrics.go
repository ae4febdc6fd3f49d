package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/canopy/pkg/command"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "canopy"

// StatusSuccess labels successful executions; failures use their command.Kind.
const StatusSuccess = "success"

// Metrics provides Prometheus metrics for a builder.
type Metrics struct {
	registry *prometheus.Registry

	commands        *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec
	hookActions     *prometheus.CounterVec
	drops           *prometheus.CounterVec
}

// Option configures Metrics.
type Option func(*config)

type config struct {
	namespace     string
	buckets       []float64
	processMetric bool
}

// WithNamespace overrides DefaultNamespace.
func WithNamespace(ns string) Option {
	return func(c *config) { c.namespace = ns }
}

// WithBuckets sets the command duration histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *config) { c.buckets = buckets }
}

// WithRuntimeCollectors adds the Go runtime and process collectors.
func WithRuntimeCollectors() Option {
	return func(c *config) { c.processMetric = true }
}

// NewMetrics creates a metrics set registered on a fresh registry.
func NewMetrics(opts ...Option) *Metrics {
	cfg := &config{
		namespace: DefaultNamespace,
		buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.namespace,
				Name:      "commands_total",
				Help:      "Total number of command executions by outcome",
			},
			[]string{"command", "status"},
		),
		commandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.namespace,
				Name:      "command_duration_seconds",
				Help:      "Duration of command executions in seconds",
				Buckets:   cfg.buckets,
			},
			[]string{"command"},
		),
		hookActions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.namespace,
				Name:      "hook_actions_total",
				Help:      "Total number of action hook dispatches",
			},
			[]string{"tag"},
		),
		drops: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.namespace,
				Name:      "drop_resolutions_total",
				Help:      "Drop target resolutions by winning algorithm",
			},
			[]string{"algorithm"},
		),
	}

	m.registry.MustRegister(m.commands, m.commandDuration, m.hookActions, m.drops)
	if cfg.processMetric {
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return m
}

// Registry returns the registry backing these metrics.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveCommand is a command.Middleware; register it with Engine.Finally.
func (m *Metrics) ObserveCommand(_ context.Context, ex *command.Execution) error {
	status := StatusSuccess
	if !ex.Success {
		status = string(ex.Kind)
	}
	m.commands.WithLabelValues(ex.Command, status).Inc()
	m.commandDuration.WithLabelValues(ex.Command).Observe(ex.Duration.Seconds())
	return nil
}

// ObserveAction counts one action dispatch; pass it to hooks.WithActionObserver.
func (m *Metrics) ObserveAction(tag string) {
	m.hookActions.WithLabelValues(tag).Inc()
}

// ObserveDrop counts a resolved drop. An empty algorithm means no target was found.
func (m *Metrics) ObserveDrop(algorithm string) {
	if algorithm == "" {
		algorithm = "none"
	}
	m.drops.WithLabelValues(algorithm).Inc()
}

// TrackQueue exports fn as a gauge of pending queued commands.
func (m *Metrics) TrackQueue(namespace string, fn func() int) {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "command_queue_length",
			Help:      "Commands waiting in the sequential queue",
		},
		func() float64 { return float64(fn()) },
	))
}
