// Package inproc provides an in-process host: a ports.Window connected to a
// scriptable host simulator, and connected MessagePort pairs. Delivery is
// synchronous, which makes message ordering in tests deterministic.
package inproc

import (
	"sync"

	"github.com/hostlink-dev/hostlink-sdk/go/domain/ports"
)

// Window is the app side of an in-process host connection.
type Window struct {
	onPost    func(data []byte, targetOrigin string) error
	listeners map[int]func(ports.MessageEvent)
	nextID    int
	mu        sync.Mutex
}

var _ ports.Window = (*Window)(nil)

// NewWindow returns a window whose outgoing messages are passed to onPost.
func NewWindow(onPost func(data []byte, targetOrigin string) error) *Window {
	return &Window{onPost: onPost, listeners: make(map[int]func(ports.MessageEvent))}
}

// PostMessage implements ports.Window.
func (w *Window) PostMessage(data []byte, targetOrigin string) error {
	if w.onPost == nil {
		return nil
	}
	return w.onPost(append([]byte(nil), data...), targetOrigin)
}

// Listen implements ports.Window.
func (w *Window) Listen(fn func(ports.MessageEvent)) func() {
	w.mu.Lock()
	id := w.nextID
	w.nextID++
	w.listeners[id] = fn
	w.mu.Unlock()
	return func() {
		w.mu.Lock()
		delete(w.listeners, id)
		w.mu.Unlock()
	}
}

// Listeners returns the number of active listeners.
func (w *Window) Listeners() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.listeners)
}

// Dispatch delivers ev to every listener, in registration order.
func (w *Window) Dispatch(ev ports.MessageEvent) {
	w.mu.Lock()
	fns := make([]func(ports.MessageEvent), 0, len(w.listeners))
	for i := 0; i < w.nextID; i++ {
		if fn, ok := w.listeners[i]; ok {
			fns = append(fns, fn)
		}
	}
	w.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}
