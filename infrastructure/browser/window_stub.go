//go:build !(js && wasm)

package browser

import "github.com/hostlink-dev/hostlink-sdk/go/domain/ports"

// Window stub for native builds.
type Window struct{}

var _ ports.Window = (*Window)(nil)

// NewWindow always returns ErrUnavailable outside js/wasm.
func NewWindow() (*Window, error) {
	return nil, ErrUnavailable
}

func (w *Window) PostMessage([]byte, string) error {
	return ErrUnavailable
}

func (w *Window) Listen(func(ports.MessageEvent)) func() {
	return func() {}
}
