package sdk

import (
	"log/slog"

	"github.com/hostlink-dev/hostlink-sdk/go/application/negotiation"
	"github.com/hostlink-dev/hostlink-sdk/go/application/transport"
	"github.com/hostlink-dev/hostlink-sdk/go/domain/entities"
)

// config holds the settings Initialize accumulates from options.
// This struct is unexported to enforce the functional options pattern.
type config struct {
	Logger           *slog.Logger                  `validate:"required"`
	Baseline         func() entities.RuntimeRecord `validate:"required"`
	VersionGates     negotiation.VersionGatedMap
	SDKVersion       string   `validate:"required"`
	AllowedOrigins   []string `validate:"required,min=1,dive,required"`
	TransportOptions []transport.Option
}

func defaultConfig() config {
	return config{
		Logger:       slog.Default(),
		Baseline:     negotiation.LegacyHostBaseline,
		VersionGates: negotiation.DefaultVersionGatedMap(),
		SDKVersion:   Version,
	}
}

// Option configures Initialize.
type Option func(*config)

// WithLogger sets the logger shared by the app, its transport and registry.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.Logger = l
	}
}

// WithAllowedOrigins sets the https origins (optionally with one wildcard
// label, e.g. "*.example.com") host messages are accepted from.
func WithAllowedOrigins(origins ...string) Option {
	return func(c *config) {
		c.AllowedOrigins = append(c.AllowedOrigins, origins...)
	}
}

// WithSDKVersion overrides the SDK version reported in the handshake.
func WithSDKVersion(v string) Option {
	return func(c *config) {
		c.SDKVersion = v
	}
}

// WithLegacyBaseline overrides the capabilities assumed for every legacy host.
func WithLegacyBaseline(baseline func() entities.RuntimeRecord) Option {
	return func(c *config) {
		c.Baseline = baseline
	}
}

// WithVersionGates overrides the capabilities legacy hosts gain by client version.
func WithVersionGates(m negotiation.VersionGatedMap) Option {
	return func(c *config) {
		c.VersionGates = m
	}
}

// WithTransportOptions passes options through to the message transport.
func WithTransportOptions(opts ...transport.Option) Option {
	return func(c *config) {
		c.TransportOptions = append(c.TransportOptions, opts...)
	}
}
