package transport

import (
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/hostlink-dev/hostlink-sdk/go/domain/ports"
)

var validate = validator.New()

// config accumulates options for New.
type config struct {
	Logger        *slog.Logger     `validate:"required"`
	Clock         func() time.Time `validate:"required"`
	NewUUID       func() string    `validate:"required"`
	HandshakeFunc string           `validate:"required"`
	Checker       ports.CapabilityChecker
	Middleware    []HandlerMiddleware
}

func defaultConfig() config {
	return config{
		Logger:        slog.Default(),
		Clock:         time.Now,
		NewUUID:       uuid.NewString,
		HandshakeFunc: DefaultHandshakeFunc,
	}
}

// Option configures a Transport.
type Option func(*config)

// WithLogger sets the logger for dropped frames and handler failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.Logger = l
	}
}

// WithCapabilityChecker sets the checker RequestPort consults before
// asking the host for a channel.
func WithCapabilityChecker(cc ports.CapabilityChecker) Option {
	return func(c *config) {
		c.Checker = cc
	}
}

// WithClock overrides the request timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		c.Clock = now
	}
}

// WithUUIDGenerator overrides the request uuid source.
func WithUUIDGenerator(gen func() string) Option {
	return func(c *config) {
		c.NewUUID = gen
	}
}

// WithHandshakeFunc names the only message that may be posted before the
// host origin is known.
func WithHandshakeFunc(name string) Option {
	return func(c *config) {
		c.HandshakeFunc = name
	}
}

// WithMiddleware adds handler middleware.
// Middleware executes in FIFO order (first added wraps first).
func WithMiddleware(mw ...HandlerMiddleware) Option {
	return func(c *config) {
		c.Middleware = append(c.Middleware, mw...)
	}
}
