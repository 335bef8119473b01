package slither

import (
	logAdapter "github.com/bft-labs/slither/internal/adapters/log"
	"github.com/bft-labs/slither/internal/clock"
	"github.com/bft-labs/slither/internal/ports"
)

// Logger is the interface for structured logging.
type Logger = ports.Logger

// LogField represents a structured log field.
type LogField = ports.Field

// Dialer opens links to motor and pose endpoints.
type Dialer = ports.Dialer

// Link is one open connection to an endpoint.
type Link = ports.Link

// Clock drives session timing.
type Clock = clock.Clock

// Option configures optional behavior of a Controller.
type Option func(*options)

// options holds the optional configuration for a Controller instance.
type options struct {
	dialer       ports.Dialer
	clock        clock.Clock
	logger       ports.Logger
	eventHandler EventHandler
}

func defaultOptions() options {
	return options{
		clock:  clock.Real{},
		logger: logAdapter.NewNoopLogger(),
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithEventHandler sets a handler for controller events.
// If not provided, no events are emitted.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithDialer replaces the TCP/serial transport.
func WithDialer(d Dialer) Option {
	return func(o *options) {
		o.dialer = d
	}
}

// WithClock replaces the monotonic clock that paces sessions.
func WithClock(c Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}
