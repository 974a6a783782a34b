package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hostlink-dev/hostlink-sdk/go/domain/entities"
	"github.com/hostlink-dev/hostlink-sdk/go/domain/ports"
)

// Handler answers an event or a host-initiated request. For a request the
// returned value (or error) is posted back to the host; for an event it is
// discarded.
type Handler func(ctx context.Context, args []json.RawMessage) (any, error)

// HandlerMiddleware wraps a Handler to add cross-cutting behavior.
// Middleware executes in FIFO order (first registered wraps first, onion model).
//
// Example usage:
//
//	timing := func(next transport.Handler) transport.Handler {
//	    return func(ctx context.Context, args []json.RawMessage) (any, error) {
//	        start := time.Now()
//	        defer func() { slog.Debug("handled", "took", time.Since(start)) }()
//	        return next(ctx, args)
//	    }
//	}
type HandlerMiddleware func(next Handler) Handler

// HandlerContext carries the dispatch details of one handler invocation.
type HandlerContext interface {
	context.Context

	// HandlerName returns the func name the host addressed.
	HandlerName() string

	// RequestID returns the id of a host-initiated request. ok is false
	// for plain events.
	RequestID() (id int64, ok bool)

	// Ports returns the channels transferred with the message.
	Ports() []ports.MessagePort
}

type handlerContext struct {
	context.Context
	name  string
	ports []ports.MessagePort
	id    int64
	hasID bool
}

func (c *handlerContext) Ports() []ports.MessagePort {
	return c.ports
}

func (c *handlerContext) HandlerName() string {
	return c.name
}

func (c *handlerContext) RequestID() (int64, bool) {
	return c.id, c.hasID
}

type handlerContextKey struct{}

// Value makes the dispatch details reachable through contexts derived
// from c, e.g. by context.WithValue in a middleware.
func (c *handlerContext) Value(key any) any {
	if _, ok := key.(handlerContextKey); ok {
		return c
	}
	return c.Context.Value(key)
}

// HandlerContextFrom extracts the HandlerContext of a handler invocation.
// It also finds it behind contexts that middleware derived from it; the
// returned HandlerContext then wraps ctx, keeping the derived values.
func HandlerContextFrom(ctx context.Context) (HandlerContext, bool) {
	if hc, ok := ctx.(*handlerContext); ok {
		return hc, true
	}
	base, ok := ctx.Value(handlerContextKey{}).(*handlerContext)
	if !ok {
		return nil, false
	}
	derived := *base
	derived.Context = ctx
	return &derived, true
}

// TypedHandler decodes the first argument into Req.
func TypedHandler[Req any, Resp any](fn func(context.Context, Req) (Resp, error)) Handler {
	return func(ctx context.Context, args []json.RawMessage) (any, error) {
		var req Req
		if len(args) > 0 {
			if err := json.Unmarshal(args[0], &req); err != nil {
				return nil, entities.NewErrorDetail(entities.ErrorCodeInvalidArguments, fmt.Sprintf("failed to unmarshal argument: %v", err))
			}
		}
		return fn(ctx, req)
	}
}

// PanicRecoveryMiddleware returns a middleware that converts handler panics
// into internal errors instead of crashing the listener. The transport
// always installs it outermost.
func PanicRecoveryMiddleware() HandlerMiddleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, args []json.RawMessage) (result any, err error) {
			defer func() {
				if r := recover(); r != nil {
					result = nil
					err = entities.NewErrorDetail(entities.ErrorCodeInternalError, panicMessage(r))
				}
			}()
			return next(ctx, args)
		}
	}
}

func panicMessage(v any) string {
	switch p := v.(type) {
	case error:
		return "panic: " + p.Error()
	case string:
		return "panic: " + p
	default:
		return "panic recovered"
	}
}

// LoggingMiddleware returns a middleware that logs handler invocations.
func LoggingMiddleware(logger *slog.Logger) HandlerMiddleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, args []json.RawMessage) (any, error) {
			name := "unknown"
			if hc, ok := HandlerContextFrom(ctx); ok {
				name = hc.HandlerName()
			}
			logger.DebugContext(ctx, "invoking handler", "func", name, "args", len(args))
			result, err := next(ctx, args)
			if err != nil {
				logger.WarnContext(ctx, "handler failed", "func", name, "error", err)
			}
			return result, err
		}
	}
}

// chain wraps h with mw, first element outermost, and recovery around all.
func chain(h Handler, mw []HandlerMiddleware) Handler {
	wrapped := h
	for i := len(mw) - 1; i >= 0; i-- {
		wrapped = mw[i](wrapped)
	}
	return PanicRecoveryMiddleware()(wrapped)
}
