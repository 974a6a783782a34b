package inproc

import (
	"errors"
	"sync"

	"github.com/hostlink-dev/hostlink-sdk/go/domain/ports"
)

// ErrClosed is returned when posting on a closed port.
var ErrClosed = errors.New("inproc: port closed")

// Port is one end of an in-process channel. Messages are delivered
// synchronously to the peer's listeners; messages posted before the peer
// listens are queued.
type Port struct {
	peer      *Port
	listeners map[int]func([]byte)
	queue     [][]byte
	state     *channelState
	nextID    int
	mu        sync.Mutex
}

type channelState struct {
	mu     sync.Mutex
	closed bool
}

var _ ports.MessagePort = (*Port)(nil)

// NewChannel returns the two connected ends of a channel.
func NewChannel() (*Port, *Port) {
	state := &channelState{}
	a := &Port{state: state, listeners: make(map[int]func([]byte))}
	b := &Port{state: state, listeners: make(map[int]func([]byte))}
	a.peer, b.peer = b, a
	return a, b
}

// PostMessage delivers a copy of data to the peer.
func (p *Port) PostMessage(data []byte) error {
	if p.Closed() {
		return ErrClosed
	}
	p.peer.deliver(append([]byte(nil), data...))
	return nil
}

func (p *Port) deliver(data []byte) {
	p.mu.Lock()
	if len(p.listeners) == 0 {
		p.queue = append(p.queue, data)
		p.mu.Unlock()
		return
	}
	fns := p.snapshotLocked()
	p.mu.Unlock()
	for _, fn := range fns {
		fn(data)
	}
}

func (p *Port) snapshotLocked() []func([]byte) {
	fns := make([]func([]byte), 0, len(p.listeners))
	for i := 0; i < p.nextID; i++ {
		if fn, ok := p.listeners[i]; ok {
			fns = append(fns, fn)
		}
	}
	return fns
}

// Listen registers fn and flushes any queued messages to it.
func (p *Port) Listen(fn func([]byte)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	queued := p.queue
	p.queue = nil
	p.mu.Unlock()

	for _, data := range queued {
		fn(data)
	}
	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

// Close closes both ends of the channel.
func (p *Port) Close() error {
	p.state.mu.Lock()
	defer p.state.mu.Unlock()
	p.state.closed = true
	return nil
}

// Closed reports whether the channel was closed from either end.
func (p *Port) Closed() bool {
	p.state.mu.Lock()
	defer p.state.mu.Unlock()
	return p.state.closed
}
