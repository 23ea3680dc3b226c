// Package metrics implements blizzard.Observer with Prometheus
// collectors, in the options-struct shape of
// vango-go-vango/pkg/middleware/metrics.go (namespace/subsystem/
// const-labels/registry, all overridable via functional Options).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/blizzardproto/blizzard"
)

// Config configures the Prometheus-backed Collector.
type Config struct {
	Namespace   string
	Subsystem   string
	ConstLabels prometheus.Labels
	Registry    prometheus.Registerer
}

// Option configures a Config.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) { c.Namespace = namespace }
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) { c.Subsystem = subsystem }
}

// WithConstLabels sets constant labels applied to every metric.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) { c.ConstLabels = labels }
}

// WithRegistry sets the Prometheus registerer metrics are registered
// against. Default: prometheus.DefaultRegisterer.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) { c.Registry = registry }
}

func defaultConfig() Config {
	return Config{
		Namespace: "blizzard",
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Collector implements blizzard.Observer, counting frames by type,
// requests dispatched to handlers, and dispatch failures by code.
type Collector struct {
	framesDecoded    *prometheus.CounterVec
	framesEncoded    *prometheus.CounterVec
	requestsTotal    prometheus.Counter
	dispatchFailures *prometheus.CounterVec
}

var _ blizzard.Observer = (*Collector)(nil)

// New builds a Collector and registers its metrics against cfg's
// registry.
func New(opts ...Option) *Collector {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	factory := promauto.With(cfg.Registry)

	return &Collector{
		framesDecoded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "frames_decoded_total",
			Help:        "Frames decoded from the transport, by frame type.",
			ConstLabels: cfg.ConstLabels,
		}, []string{"type"}),
		framesEncoded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "frames_encoded_total",
			Help:        "Frames encoded for the transport, by frame type.",
			ConstLabels: cfg.ConstLabels,
		}, []string{"type"}),
		requestsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "requests_dispatched_total",
			Help:        "Requests dispatched to an exposed method handler.",
			ConstLabels: cfg.ConstLabels,
		}),
		dispatchFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "dispatch_failures_total",
			Help:        "Protocol failures raised by the dispatcher, by error code.",
			ConstLabels: cfg.ConstLabels,
		}, []string{"code"}),
	}
}

func frameTypeLabel(typ blizzard.FrameType) string {
	switch typ {
	case blizzard.FrameHandshake:
		return "handshake"
	case blizzard.FrameJSON:
		return "json"
	case blizzard.FrameBufferResponse:
		return "buffer_response"
	default:
		return "unknown"
	}
}

func (c *Collector) FrameDecoded(typ blizzard.FrameType) {
	c.framesDecoded.WithLabelValues(frameTypeLabel(typ)).Inc()
}

func (c *Collector) FrameEncoded(typ blizzard.FrameType) {
	c.framesEncoded.WithLabelValues(frameTypeLabel(typ)).Inc()
}

func (c *Collector) RequestDispatched() {
	c.requestsTotal.Inc()
}

func (c *Collector) DispatchFailed(code blizzard.ErrorCode) {
	c.dispatchFailures.WithLabelValues(code.String()).Inc()
}
