// Package future provides a single-assignment asynchronous result.
package future

import (
	"context"
	"sync"
)

// Future is a value that becomes available once. The first call to Resolve
// or Reject settles it; later calls are no-ops.
type Future[T any] struct {
	value T
	err   error
	done  chan struct{}
	once  sync.Once

	mu    sync.Mutex
	conts []func()
}

// New returns an unsettled future.
func New[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolved returns a future already settled with v.
func Resolved[T any](v T) *Future[T] {
	f := New[T]()
	f.Resolve(v)
	return f
}

// Rejected returns a future already settled with err.
func Rejected[T any](err error) *Future[T] {
	f := New[T]()
	f.Reject(err)
	return f
}

// Resolve settles the future with v. It reports whether this call settled it.
func (f *Future[T]) Resolve(v T) bool {
	return f.settle(v, nil)
}

// Reject settles the future with err. It reports whether this call settled it.
func (f *Future[T]) Reject(err error) bool {
	var zero T
	return f.settle(zero, err)
}

func (f *Future[T]) settle(v T, err error) bool {
	settled := false
	f.once.Do(func() {
		f.value = v
		f.err = err
		settled = true
		close(f.done)

		f.mu.Lock()
		conts := f.conts
		f.conts = nil
		f.mu.Unlock()
		for _, fn := range conts {
			go fn()
		}
	})
	return settled
}

// OnSettle arranges for fn to run on its own goroutine once f settles,
// or right away if it already has. Nothing runs while f is pending, so a
// future that never settles holds fn without holding a goroutine.
func (f *Future[T]) OnSettle(fn func(value T, err error)) {
	cont := func() { fn(f.value, f.err) }

	f.mu.Lock()
	if !f.Settled() {
		f.conts = append(f.conts, cont)
		f.mu.Unlock()
		return
	}
	f.mu.Unlock()
	go cont()
}

// Done is closed once the future settles.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Settled reports whether the future has a value or an error.
func (f *Future[T]) Settled() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Await blocks until the future settles or ctx is done. A cancelled wait
// does not affect the future.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Peek returns the settled outcome without blocking. ok is false while
// the future is pending.
func (f *Future[T]) Peek() (value T, ok bool, err error) {
	if !f.Settled() {
		var zero T
		return zero, false, nil
	}
	return f.value, true, f.err
}

// Then returns a future settled with fn applied to the value of f.
// Errors pass through unchanged. fn runs after f settles; if f never
// settles, neither does the returned future.
func Then[T, U any](f *Future[T], fn func(T) (U, error)) *Future[U] {
	next := New[U]()
	f.OnSettle(func(v T, err error) {
		if err != nil {
			next.Reject(err)
			return
		}
		u, err := fn(v)
		if err != nil {
			next.Reject(err)
			return
		}
		next.Resolve(u)
	})
	return next
}
