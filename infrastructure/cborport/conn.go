// Package cborport frames values as CBOR over a dedicated MessagePort.
// Each port message carries exactly one encoded value.
package cborport

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/fxamacker/cbor/v2"

	"github.com/hostlink-dev/hostlink-sdk/go/domain/ports"
)

// DefaultMaxFrame is the largest encoded value accepted in either direction.
const DefaultMaxFrame = 1 << 20

// ErrFrameTooLarge is returned when an encoded value exceeds the frame limit.
var ErrFrameTooLarge = errors.New("cborport: frame too large")

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("cborport: connection closed")

// Conn is a CBOR connection over a MessagePort. It is safe for concurrent use.
type Conn struct {
	port     ports.MessagePort
	enc      cbor.EncMode
	dec      cbor.DecMode
	logger   *slog.Logger
	stops    []func()
	maxFrame int
	mu       sync.Mutex
	closed   bool
}

// Option configures a Conn.
type Option func(*Conn)

// WithMaxFrame overrides DefaultMaxFrame.
func WithMaxFrame(n int) Option {
	return func(c *Conn) {
		c.maxFrame = n
	}
}

// WithLogger sets the logger used for dropped frames.
func WithLogger(l *slog.Logger) Option {
	return func(c *Conn) {
		c.logger = l
	}
}

// New wraps port. Maps are encoded in canonical key order and times as
// RFC 3339 strings so hosts in any language decode them without tags.
func New(port ports.MessagePort, opts ...Option) (*Conn, error) {
	enc, err := cbor.EncOptions{
		Sort: cbor.SortCanonical,
		Time: cbor.TimeRFC3339Nano,
	}.EncMode()
	if err != nil {
		return nil, fmt.Errorf("failed to build cbor encoder: %w", err)
	}
	dec, err := cbor.DecOptions{
		DupMapKey: cbor.DupMapKeyEnforcedAPF,
	}.DecMode()
	if err != nil {
		return nil, fmt.Errorf("failed to build cbor decoder: %w", err)
	}
	c := &Conn{
		port:     port,
		enc:      enc,
		dec:      dec,
		logger:   slog.Default(),
		maxFrame: DefaultMaxFrame,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Send encodes v and posts it as one frame.
func (c *Conn) Send(v any) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}
	data, err := c.enc.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	if len(data) > c.maxFrame {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrFrameTooLarge, len(data), c.maxFrame)
	}
	return c.port.PostMessage(data)
}

// Decode decodes one frame into v.
func (c *Conn) Decode(data []byte, v any) error {
	if len(data) > c.maxFrame {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrFrameTooLarge, len(data), c.maxFrame)
	}
	return c.dec.Unmarshal(data, v)
}

// ListenRaw delivers every incoming frame undecoded.
func (c *Conn) ListenRaw(fn func(cbor.RawMessage)) (stop func()) {
	stop = c.port.Listen(func(data []byte) {
		if len(data) > c.maxFrame {
			c.logger.Warn("dropping oversized frame", "size", len(data), "max", c.maxFrame)
			return
		}
		fn(cbor.RawMessage(data))
	})
	c.mu.Lock()
	c.stops = append(c.stops, stop)
	c.mu.Unlock()
	return stop
}

// Listen decodes every incoming frame into a T and passes it to fn.
// Frames that do not decode are logged and dropped.
func Listen[T any](c *Conn, fn func(T)) (stop func()) {
	return c.ListenRaw(func(raw cbor.RawMessage) {
		var v T
		if err := c.dec.Unmarshal(raw, &v); err != nil {
			c.logger.Warn("dropping undecodable frame", "error", err, "size", len(raw))
			return
		}
		fn(v)
	})
}

// Close removes the listeners and closes the port.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	stops := c.stops
	c.stops = nil
	c.mu.Unlock()
	for _, stop := range stops {
		stop()
	}
	return c.port.Close()
}
