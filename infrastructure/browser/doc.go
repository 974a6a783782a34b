// Package browser adapts the page's cross-window messaging to the ports
// interfaces. The window posts to window.parent and listens on the page's
// message event; transferred channels are wrapped as MessagePorts.
//
// The adapter only works in js/wasm builds. Native builds get a stub whose
// constructor returns ErrUnavailable.
package browser

import "errors"

// ErrUnavailable is returned when the page has no parent window to talk to.
var ErrUnavailable = errors.New("browser: cross-window messaging unavailable")
