// Package log provides a log/slog handler that forwards records to the host
// over a telemetry channel.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
)

// Sink receives serialized log records. Messages passed to Send are
// LogMessageWire values.
type Sink interface {
	Send(msg any) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(msg any) error

// Send implements Sink.
func (f SinkFunc) Send(msg any) error {
	return f(msg)
}

// HostHandler implements slog.Handler by forwarding every record to a Sink.
type HostHandler struct {
	sink  Sink
	mu    *sync.Mutex
	group string
	attrs []LogAttrWire
	opts  handlerConfig
}

// HandlerOption configures the HostHandler.
type HandlerOption func(*handlerConfig)

type handlerConfig struct {
	fallback  io.Writer
	logger    string
	level     slog.Leveler
	addSource bool
}

// defaultHandlerConfig returns the default configuration.
func defaultHandlerConfig() handlerConfig {
	return handlerConfig{
		level: slog.LevelInfo,
	}
}

// WithLevel sets the minimum log level to report.
// Records below this level are filtered before they reach the sink.
func WithLevel(level slog.Leveler) HandlerOption {
	return func(c *handlerConfig) {
		c.level = level
	}
}

// WithSource enables reporting of source location (file/line).
func WithSource(enabled bool) HandlerOption {
	return func(c *handlerConfig) {
		c.addSource = enabled
	}
}

// WithFallback sets where records go when the sink fails.
func WithFallback(w io.Writer) HandlerOption {
	return func(c *handlerConfig) {
		c.fallback = w
	}
}

// WithLoggerName tags every record with the name of the emitting component.
func WithLoggerName(name string) HandlerOption {
	return func(c *handlerConfig) {
		c.logger = name
	}
}

// NewHandler creates a new HostHandler sending to sink.
func NewHandler(sink Sink, opts ...HandlerOption) *HostHandler {
	cfg := defaultHandlerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &HostHandler{sink: sink, opts: cfg, mu: &sync.Mutex{}}
}

// Enabled reports whether the handler handles records at the given level.
func (h *HostHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.level.Level()
}

// Handle serializes record and sends it to the sink. A sink failure is
// written to the fallback writer, if any, and never returned: logging must
// not fail the caller.
func (h *HostHandler) Handle(_ context.Context, record slog.Record) error {
	msg := LogMessageWire{
		Timestamp: record.Time,
		Level:     record.Level.String(),
		Message:   record.Message,
		Logger:    h.opts.logger,
	}
	if len(h.attrs) > 0 {
		msg.Attrs = append(msg.Attrs, h.attrs...)
	}
	record.Attrs(func(attr slog.Attr) bool {
		msg.Attrs = appendAttr(msg.Attrs, h.group, attr)
		return true
	})
	if h.opts.addSource && record.PC != 0 {
		frames := runtime.CallersFrames([]uintptr{record.PC})
		frame, _ := frames.Next()
		msg.Source = fmt.Sprintf("%s:%d", frame.File, frame.Line)
	}

	h.mu.Lock()
	err := h.sink.Send(msg)
	h.mu.Unlock()
	if err != nil && h.opts.fallback != nil {
		fmt.Fprintf(h.opts.fallback, "hostlink: failed to forward log record: %v, original: [%s] %s\n", err, msg.Level, msg.Message)
	}
	return nil
}

// WithAttrs returns a new HostHandler that includes the given attributes.
func (h *HostHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	next := h.clone()
	for _, a := range attrs {
		next.attrs = appendAttr(next.attrs, h.group, a)
	}
	return next
}

// WithGroup returns a new HostHandler whose later attributes are qualified
// by name.
func (h *HostHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := h.clone()
	next.group = joinKey(h.group, name)
	return next
}

func (h *HostHandler) clone() *HostHandler {
	next := *h
	next.attrs = append([]LogAttrWire(nil), h.attrs...)
	return &next
}
