// Package invoke adapts future-returning operations so that callers may
// either await the future or pass a callback. The operation itself is
// written once against the transport.
package invoke

import (
	"errors"

	sdkerrors "github.com/hostlink-dev/hostlink-sdk/go/domain/errors"
	"github.com/hostlink-dev/hostlink-sdk/go/future"
)

// Callback receives the outcome of an operation. err is nil on success.
type Callback[T any] func(err error, value T)

// Invocation selects the call convention of a single operation. The zero
// value is the future convention.
type Invocation[T any] struct {
	cb Callback[T]
}

// Future returns the future-only convention.
func Future[T any]() Invocation[T] {
	return Invocation[T]{}
}

// WithCallback returns the callback convention. A nil callback is the
// future convention.
func WithCallback[T any](cb Callback[T]) Invocation[T] {
	return Invocation[T]{cb: cb}
}

// IsCallback reports whether a callback was supplied.
func (i Invocation[T]) IsCallback() bool {
	return i.cb != nil
}

// Bind attaches the invocation to f and returns f itself. With a callback,
// it is called exactly once after f settles, with the identical error or
// value the future carries. A future that never settles never calls it;
// transport teardown rejects every pending request.
func (i Invocation[T]) Bind(f *future.Future[T]) *future.Future[T] {
	if i.cb == nil {
		return f
	}
	cb := i.cb
	f.OnSettle(func(v T, err error) {
		cb(err, v)
	})
	return f
}

// Call runs fn and binds its future to inv.
//
// Errors that mean the integration itself is broken (no runtime negotiated,
// or an unsupported runtime) are returned synchronously. Any other error
// fn returns is delivered through the future and the callback, like a
// rejection from the host.
func Call[T any](inv Invocation[T], fn func() (*future.Future[T], error)) (*future.Future[T], error) {
	f, err := fn()
	if err != nil {
		if isFatal(err) {
			return nil, err
		}
		f = future.Rejected[T](err)
	}
	return inv.Bind(f), nil
}

func isFatal(err error) bool {
	return errors.Is(err, &sdkerrors.NotInitializedError{}) ||
		errors.Is(err, &sdkerrors.UnsupportedRuntimeError{})
}
