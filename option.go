package blizzard

import (
	"time"
)

// RateLimiter throttles outbound bytes for a session (spec §4.10: a
// policy knob sitting between the frame codec and the transport, never
// part of the wire protocol). internal/ratelimit.Limiter implements this.
type RateLimiter interface {
	// Wait blocks until n bytes' worth of tokens are available.
	Wait(n int)
}

// options holds the configuration for a Session.
type options struct {
	logger Logger
	obs    Observer

	rateLimiter RateLimiter
	onFatal     func(error)

	bufferSize     int           // size of the outbound frame channel
	maxStreamBytes int           // cap on a single BUFFER_RESPONSE reassembly (0 = unlimited)
	idleTimeout    time.Duration // read/write deadline base
}

// Option configures a Session.
type Option func(*options)

// default configuration values, in the shape of the teacher's
// defaultBufferSize / defaultMaxPackageLength constants.
const (
	defaultBufferSize     = 16
	defaultMaxStreamBytes = 16 * 1024 * 1024
	defaultIdleTimeout    = 30 * time.Second
)

func defaultOptions() options {
	return options{
		logger:         defaultLogger(),
		obs:            noopObserver{},
		bufferSize:     defaultBufferSize,
		maxStreamBytes: defaultMaxStreamBytes,
		idleTimeout:    defaultIdleTimeout,
	}
}

// WithLogger sets the session's logger. If not set, the default slog
// logger is used.
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithBufferSize sets the size of the outbound frame channel. A larger
// buffer allows more frames to be queued before Request/Reply blocks.
func WithBufferSize(size int) Option {
	return func(o *options) {
		o.bufferSize = size
	}
}

// WithMaxStreamBytes caps the size of a single BUFFER_RESPONSE
// reassembly. Zero means unlimited (spec §4.3: this is a policy knob, not
// a protocol rule).
func WithMaxStreamBytes(max int) Option {
	return func(o *options) {
		o.maxStreamBytes = max
	}
}

// WithIdleTimeout sets the base read/write deadline (applied as
// idleTimeout*2, matching the teacher's heartbeat convention).
func WithIdleTimeout(d time.Duration) Option {
	return func(o *options) {
		o.idleTimeout = d
	}
}

// WithRateLimit attaches an outbound RateLimiter (spec §4.10).
func WithRateLimit(limiter RateLimiter) Option {
	return func(o *options) {
		o.rateLimiter = limiter
	}
}

// WithObserver attaches a metrics Observer (spec §4.11), e.g.
// internal/metrics's Prometheus collector. Sessions default to a no-op
// observer.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		o.obs = obs
	}
}

// WithOnFatal registers a callback invoked synchronously, from whichever
// internal goroutine detects the failure, the moment a session hits a
// fatal error (spec §4.8, §6). It runs before the fatal Event is pushed
// onto the buffered Events() channel, so a host relying on it is told
// immediately rather than racing a channel a slow reader might not have
// drained yet. Mirrors the teacher's OnErrorOption callback-option shape.
func WithOnFatal(cb func(error)) Option {
	return func(o *options) {
		o.onFatal = cb
	}
}
