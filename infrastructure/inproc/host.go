package inproc

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hostlink-dev/hostlink-sdk/go/domain/entities"
	"github.com/hostlink-dev/hostlink-sdk/go/domain/ports"
	"github.com/hostlink-dev/hostlink-sdk/go/wireformat"
)

// DefaultOrigin is the origin the simulated host posts from.
const DefaultOrigin = "https://host.example.com"

// Response is what a Responder answers a request with.
type Response struct {
	Error *entities.ErrorDetail
	Args  []any
	Ports []ports.MessagePort

	// Defer leaves the request unanswered; reply later with Host.Reply.
	Defer bool
}

// Responder answers one app request.
type Responder func(req wireformat.Request) Response

// Posted is a message the app posted to the host.
type Posted struct {
	TargetOrigin string
	Data         []byte
	Request      *wireformat.Request
	Response     *wireformat.Envelope
}

// Host simulates the host side of the protocol.
type Host struct {
	window     *Window
	logger     *slog.Logger
	responders map[string]Responder
	origin     string
	posted     []Posted
	mu         sync.Mutex
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithOrigin sets the origin host messages carry.
func WithOrigin(origin string) HostOption {
	return func(h *Host) {
		h.origin = origin
	}
}

// WithHostLogger sets the logger for undecodable app messages.
func WithHostLogger(l *slog.Logger) HostOption {
	return func(h *Host) {
		h.logger = l
	}
}

// NewHost creates a host simulator with its connected window.
func NewHost(opts ...HostOption) *Host {
	h := &Host{
		origin:     DefaultOrigin,
		logger:     slog.Default(),
		responders: make(map[string]Responder),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.window = NewWindow(h.receive)
	return h
}

// Window returns the app side of the connection.
func (h *Host) Window() *Window {
	return h.window
}

// Origin returns the origin host messages carry.
func (h *Host) Origin() string {
	return h.origin
}

// Handle installs r for requests addressed to funcName.
func (h *Host) Handle(funcName string, r Responder) {
	h.mu.Lock()
	h.responders[funcName] = r
	h.mu.Unlock()
}

// HandleStatic answers funcName with fixed arguments.
func (h *Host) HandleStatic(funcName string, args ...any) {
	h.Handle(funcName, func(wireformat.Request) Response {
		return Response{Args: args}
	})
}

// HandleInitialize answers the handshake with the given reply slots.
// runtimeConfig may be a JSON document, a version string or empty.
func (h *Host) HandleInitialize(frameContext entities.FrameContext, hostClass entities.HostClass, runtimeConfig, clientSDKVersion string) {
	h.HandleStatic("initialize", string(frameContext), string(hostClass), runtimeConfig, clientSDKVersion)
}

func (h *Host) receive(data []byte, targetOrigin string) error {
	env, err := wireformat.DecodeEnvelope(data)
	if err != nil {
		h.logger.Debug("host dropping undecodable message", "error", err)
		return nil
	}
	p := Posted{TargetOrigin: targetOrigin, Data: data}

	if env.Kind() == wireformat.KindResponse {
		p.Response = env
		h.record(p)
		return nil
	}

	var req wireformat.Request
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("inproc host: %w", err)
	}
	p.Request = &req
	h.record(p)

	h.mu.Lock()
	r, ok := h.responders[req.Func]
	h.mu.Unlock()
	if !ok {
		return nil
	}
	resp := r(req)
	if resp.Defer {
		return nil
	}
	return h.reply(req.ID, req.UUID, resp)
}

func (h *Host) record(p Posted) {
	h.mu.Lock()
	h.posted = append(h.posted, p)
	h.mu.Unlock()
}

// Posted returns every message the app posted, in order.
func (h *Host) Posted() []Posted {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Posted, len(h.posted))
	copy(out, h.posted)
	return out
}

// Requests returns the requests the app posted, in order.
func (h *Host) Requests() []wireformat.Request {
	var out []wireformat.Request
	for _, p := range h.Posted() {
		if p.Request != nil {
			out = append(out, *p.Request)
		}
	}
	return out
}

// RequestsFor returns the requests addressed to funcName.
func (h *Host) RequestsFor(funcName string) []wireformat.Request {
	var out []wireformat.Request
	for _, r := range h.Requests() {
		if r.Func == funcName {
			out = append(out, r)
		}
	}
	return out
}

// Responses returns the app's answers to host-initiated requests.
func (h *Host) Responses() []*wireformat.Envelope {
	var out []*wireformat.Envelope
	for _, p := range h.Posted() {
		if p.Response != nil {
			out = append(out, p.Response)
		}
	}
	return out
}

// Reply answers request id with args.
func (h *Host) Reply(id int64, args ...any) error {
	return h.reply(id, "", Response{Args: args})
}

// ReplyWithPorts answers request id, transferring ports.
func (h *Host) ReplyWithPorts(id int64, transferred []ports.MessagePort, args ...any) error {
	return h.reply(id, "", Response{Args: args, Ports: transferred})
}

// ReplyError answers request id with an error payload.
func (h *Host) ReplyError(id int64, detail *entities.ErrorDetail) error {
	return h.reply(id, "", Response{Error: detail})
}

func (h *Host) reply(id int64, uuid string, resp Response) error {
	frame := wireformat.Frame{ID: &id, UUID: uuid, Error: resp.Error, Args: resp.Args}
	if resp.Error == nil && frame.Args == nil {
		frame.Args = []any{}
	}
	return h.post(frame, resp.Ports)
}

// Push sends an event to the app.
func (h *Host) Push(funcName string, args ...any) error {
	return h.post(wireformat.Frame{Func: funcName, Args: args}, nil)
}

// Call sends a host-initiated request. The app's answer shows up in Responses.
func (h *Host) Call(id int64, funcName string, args ...any) error {
	return h.post(wireformat.Frame{ID: &id, Func: funcName, Args: args}, nil)
}

// PostRaw delivers data as if posted from origin.
func (h *Host) PostRaw(origin string, data []byte, transferred ...ports.MessagePort) {
	h.window.Dispatch(ports.MessageEvent{Origin: origin, Data: data, Ports: transferred})
}

func (h *Host) post(frame wireformat.Frame, transferred []ports.MessagePort) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("inproc host: %w", err)
	}
	h.PostRaw(h.origin, data, transferred...)
	return nil
}
