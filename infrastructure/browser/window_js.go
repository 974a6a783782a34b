//go:build js && wasm

package browser

import (
	"fmt"
	"sync"
	"syscall/js"

	"github.com/hostlink-dev/hostlink-sdk/go/domain/ports"
)

var (
	_ ports.Window      = (*Window)(nil)
	_ ports.MessagePort = (*Port)(nil)
)

// Window posts to the parent window and listens on the global message event.
type Window struct {
	self   js.Value
	target js.Value
}

// NewWindow binds the current page. It returns ErrUnavailable when the page
// is not embedded in a parent (or opener) window.
func NewWindow() (*Window, error) {
	self := js.Global()
	if self.Get("addEventListener").IsUndefined() {
		return nil, ErrUnavailable
	}
	target := self.Get("parent")
	if target.IsUndefined() || target.IsNull() || target.Equal(self) {
		target = self.Get("opener")
	}
	if target.IsUndefined() || target.IsNull() {
		return nil, ErrUnavailable
	}
	return &Window{self: self, target: target}, nil
}

// PostMessage posts data as a string to the parent window.
func (w *Window) PostMessage(data []byte, targetOrigin string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("browser: postMessage failed: %v", r)
		}
	}()
	w.target.Call("postMessage", string(data), targetOrigin)
	return nil
}

// Listen installs fn on the message event. Messages from windows other than
// the parent are ignored.
func (w *Window) Listen(fn func(ports.MessageEvent)) (stop func()) {
	cb := js.FuncOf(func(_ js.Value, args []js.Value) any {
		if len(args) == 0 {
			return nil
		}
		ev := args[0]
		if src := ev.Get("source"); !src.IsNull() && !src.Equal(w.target) {
			return nil
		}
		fn(ports.MessageEvent{
			Origin: ev.Get("origin").String(),
			Data:   messageData(ev.Get("data")),
			Ports:  transferredPorts(ev.Get("ports")),
		})
		return nil
	})
	w.self.Call("addEventListener", "message", cb)
	var once sync.Once
	return func() {
		once.Do(func() {
			w.self.Call("removeEventListener", "message", cb)
			cb.Release()
		})
	}
}

func messageData(v js.Value) []byte {
	switch v.Type() {
	case js.TypeString:
		return []byte(v.String())
	case js.TypeUndefined, js.TypeNull:
		return nil
	default:
		return []byte(js.Global().Get("JSON").Call("stringify", v).String())
	}
}

func transferredPorts(v js.Value) []ports.MessagePort {
	if v.IsUndefined() || v.IsNull() {
		return nil
	}
	n := v.Length()
	out := make([]ports.MessagePort, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, &Port{port: v.Index(i)})
	}
	return out
}

// Port wraps a browser MessagePort. Frames travel as Uint8Array.
type Port struct {
	port js.Value
}

// PostMessage copies data into a Uint8Array and posts it.
func (p *Port) PostMessage(data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("browser: port postMessage failed: %v", r)
		}
	}()
	arr := js.Global().Get("Uint8Array").New(len(data))
	js.CopyBytesToJS(arr, data)
	p.port.Call("postMessage", arr)
	return nil
}

// Listen installs fn and starts the port.
func (p *Port) Listen(fn func([]byte)) (stop func()) {
	cb := js.FuncOf(func(_ js.Value, args []js.Value) any {
		if len(args) == 0 {
			return nil
		}
		fn(frameBytes(args[0].Get("data")))
		return nil
	})
	p.port.Call("addEventListener", "message", cb)
	p.port.Call("start")
	var once sync.Once
	return func() {
		once.Do(func() {
			p.port.Call("removeEventListener", "message", cb)
			cb.Release()
		})
	}
}

func frameBytes(v js.Value) []byte {
	if v.Type() == js.TypeString {
		return []byte(v.String())
	}
	if v.InstanceOf(js.Global().Get("ArrayBuffer")) {
		v = js.Global().Get("Uint8Array").New(v)
	}
	if !v.InstanceOf(js.Global().Get("Uint8Array")) {
		return messageData(v)
	}
	out := make([]byte, v.Get("byteLength").Int())
	js.CopyBytesToGo(out, v)
	return out
}

// Close closes the port.
func (p *Port) Close() error {
	p.port.Call("close")
	return nil
}
