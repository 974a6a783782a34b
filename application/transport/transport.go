// Package transport correlates requests posted to the host with their
// responses, dispatches host events to registered handlers and caches the
// side channels ("ports") the host hands out.
//
// A Transport is safe for concurrent use. Its lock is never held while
// posting, settling futures or running handlers, so handlers may call back
// into Send, RegisterHandler and RequestPort.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	sdkerrors "github.com/hostlink-dev/hostlink-sdk/go/domain/errors"
	"github.com/hostlink-dev/hostlink-sdk/go/domain/ports"
	"github.com/hostlink-dev/hostlink-sdk/go/future"
	"github.com/hostlink-dev/hostlink-sdk/go/wireformat"
)

// DefaultHandshakeFunc is the func of the initial handshake request.
const DefaultHandshakeFunc = "initialize"

// Transport is the app side of the host message protocol.
type Transport struct {
	portGroup singleflight.Group

	window        ports.Window
	stopListening func()
	handlers      map[string]Handler
	portCache     map[string]ports.MessagePort
	pending       pendingTable
	hostOrigin    string
	allowed       []originPattern
	cfg           config
	nextID        int64
	generation    int
	mu            sync.Mutex
	initialized   bool
}

// New creates a transport. It does nothing until Initialize.
func New(opts ...Option) (*Transport, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, &sdkerrors.ConfigError{Err: err}
	}
	return &Transport{
		cfg:       cfg,
		pending:   newPendingTable(),
		handlers:  make(map[string]Handler),
		portCache: make(map[string]ports.MessagePort),
	}, nil
}

// Initialize starts listening on window. Messages are accepted only from
// https origins matching allowedOrigins.
func (t *Transport) Initialize(window ports.Window, allowedOrigins []string) error {
	if window == nil {
		return &sdkerrors.ConfigError{Field: "window", Err: fmt.Errorf("window is required")}
	}
	patterns, err := compileOrigins(allowedOrigins)
	if err != nil {
		return err
	}

	t.mu.Lock()
	if t.initialized {
		t.mu.Unlock()
		return fmt.Errorf("transport already initialized")
	}
	t.window = window
	t.allowed = patterns
	t.hostOrigin = ""
	t.initialized = true
	t.generation++
	gen := t.generation
	t.mu.Unlock()

	stop := window.Listen(t.HandleMessage)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.generation != gen || !t.initialized {
		stop()
		return &sdkerrors.NotInitializedError{Component: "transport", Reason: "torn down during initialization"}
	}
	t.stopListening = stop
	return nil
}

// IsInitialized reports whether Initialize has run and Teardown has not.
func (t *Transport) IsInitialized() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.initialized
}

// HostOrigin returns the origin learned from the first accepted message.
func (t *Transport) HostOrigin() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.hostOrigin
}

// Send posts a request and returns a future for its response. tag is
// carried for diagnostics only. The future rejects with HostError when the
// host answers with an error and with DisconnectedError on Teardown.
//
// Send never waits for the host; ctx only guards the call itself.
func (t *Transport) Send(ctx context.Context, tag, apiName string, args ...any) (*future.Future[Reply], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if apiName == "" {
		return nil, &sdkerrors.ConfigError{Field: "func", Err: fmt.Errorf("api name is required")}
	}

	t.mu.Lock()
	if !t.initialized {
		t.mu.Unlock()
		return nil, &sdkerrors.NotInitializedError{Component: "transport", Reason: "cannot send " + apiName}
	}
	target, err := t.targetOriginLocked(apiName)
	if err != nil {
		t.mu.Unlock()
		return nil, err
	}
	req := &pendingRequest{
		id:        t.nextID,
		uuid:      t.cfg.NewUUID(),
		apiName:   apiName,
		createdAt: t.cfg.Clock(),
		future:    future.New[Reply](),
	}
	t.nextID++
	t.pending.add(req)
	window := t.window
	t.mu.Unlock()

	data, err := t.encodeRequest(req.id, req.uuid, tag, apiName, req.createdAt.UnixMilli(), args)
	if err == nil {
		err = window.PostMessage(data, target)
		if err != nil {
			err = fmt.Errorf("failed to post %s: %w", apiName, err)
		}
	}
	if err != nil {
		t.mu.Lock()
		t.pending.remove(req.id)
		t.mu.Unlock()
		return nil, err
	}
	return req.future, nil
}

// Notify posts a request nobody waits for. A response to it is dropped.
func (t *Transport) Notify(tag, apiName string, args ...any) error {
	if apiName == "" {
		return &sdkerrors.ConfigError{Field: "func", Err: fmt.Errorf("api name is required")}
	}

	t.mu.Lock()
	if !t.initialized {
		t.mu.Unlock()
		return &sdkerrors.NotInitializedError{Component: "transport", Reason: "cannot notify " + apiName}
	}
	target, err := t.targetOriginLocked(apiName)
	if err != nil {
		t.mu.Unlock()
		return err
	}
	id := t.nextID
	t.nextID++
	window := t.window
	t.mu.Unlock()

	data, err := t.encodeRequest(id, "", tag, apiName, t.cfg.Clock().UnixMilli(), args)
	if err != nil {
		return err
	}
	if err := window.PostMessage(data, target); err != nil {
		return fmt.Errorf("failed to post %s: %w", apiName, err)
	}
	return nil
}

func (t *Transport) encodeRequest(id int64, uuid, tag, apiName string, timestamp int64, args []any) ([]byte, error) {
	if args == nil {
		args = []any{}
	}
	req := wireformat.Request{
		ID:            id,
		UUID:          uuid,
		Func:          apiName,
		Args:          args,
		APIVersionTag: tag,
		Timestamp:     timestamp,
	}
	if err := validate.Struct(req); err != nil {
		return nil, &sdkerrors.WireFormatError{Operation: "encode", Type: apiName, Err: err}
	}
	data, err := json.Marshal(req)
	if err != nil {
		return nil, &sdkerrors.WireFormatError{Operation: "encode", Type: apiName, Err: err}
	}
	return data, nil
}

// targetOriginLocked picks the origin outbound messages are posted to.
func (t *Transport) targetOriginLocked(apiName string) (string, error) {
	if t.hostOrigin != "" {
		return t.hostOrigin, nil
	}
	for _, p := range t.allowed {
		if origin, ok := p.exactOrigin(); ok {
			return origin, nil
		}
	}
	if apiName == t.cfg.HandshakeFunc {
		return "*", nil
	}
	return "", &sdkerrors.NotInitializedError{Component: "transport", Reason: "host origin is not known yet"}
}

// HandleMessage processes one incoming message. Frames from unexpected
// origins, malformed frames and frames addressed to nothing are dropped.
func (t *Transport) HandleMessage(ev ports.MessageEvent) {
	defer func() {
		if r := recover(); r != nil {
			t.cfg.Logger.Error("recovered panic in message listener", "panic", r)
		}
	}()

	t.mu.Lock()
	if !t.initialized {
		t.mu.Unlock()
		return
	}
	accepted := t.acceptLocked(ev.Origin)
	t.mu.Unlock()
	if !accepted {
		t.cfg.Logger.Debug("dropping message from unexpected origin", "origin", ev.Origin)
		return
	}

	env, err := wireformat.DecodeEnvelope(ev.Data)
	if err != nil {
		t.cfg.Logger.Debug("dropping malformed message", "origin", ev.Origin, "error", err)
		return
	}

	switch env.Kind() {
	case wireformat.KindResponse:
		if !t.settle(env, ev.Ports) {
			t.cfg.Logger.Debug("dropping response for unknown or settled request", "id", derefID(env.ID), "uuid", env.UUID)
		}
	case wireformat.KindHostRequest:
		// Hosts may echo func in a reply; an id that matches a live
		// request is always a response.
		if !t.settle(env, ev.Ports) {
			t.dispatch(env, ev.Ports, true)
		}
	case wireformat.KindEvent:
		t.dispatch(env, ev.Ports, false)
	default:
		t.cfg.Logger.Debug("dropping unaddressable message", "origin", ev.Origin)
	}
}

func (t *Transport) acceptLocked(origin string) bool {
	if t.hostOrigin != "" && origin == t.hostOrigin {
		return true
	}
	if !matchesAny(t.allowed, origin) {
		return false
	}
	if t.hostOrigin == "" {
		t.hostOrigin = origin
	}
	return true
}

// settle resolves the pending request env addresses. It reports false
// when no live request matches.
func (t *Transport) settle(env *wireformat.Envelope, transferred []ports.MessagePort) bool {
	t.mu.Lock()
	req, ok := t.pending.take(env.ID, env.UUID)
	t.mu.Unlock()
	if !ok {
		return false
	}

	if env.Error != nil {
		req.future.Reject(sdkerrors.NewHostError(req.apiName, env.Error))
		return true
	}
	args := env.Args
	if len(args) == 0 && len(env.Result) > 0 {
		args = []json.RawMessage{env.Result}
	}
	req.future.Resolve(Reply{APIName: req.apiName, Args: args, Ports: transferred})
	return true
}

func (t *Transport) dispatch(env *wireformat.Envelope, transferred []ports.MessagePort, isRequest bool) {
	name := *env.Func

	t.mu.Lock()
	h, ok := t.handlers[name]
	t.mu.Unlock()

	if !ok {
		t.cfg.Logger.Debug("no handler registered", "func", name)
		if isRequest {
			t.respond(env, nil, sdkerrors.NewNotSupported(name))
		}
		return
	}

	ctx := &handlerContext{Context: context.Background(), name: name, ports: transferred}
	if env.ID != nil {
		ctx.id, ctx.hasID = *env.ID, true
	}
	result, err := h(ctx, env.Args)
	if !isRequest {
		if err != nil {
			t.cfg.Logger.Warn("event handler failed", "func", name, "error", err)
		}
		return
	}
	t.respond(env, result, err)
}

// respond answers a host-initiated request.
func (t *Transport) respond(env *wireformat.Envelope, result any, handlerErr error) {
	frame := wireformat.Frame{ID: env.ID, UUID: env.UUID}
	if handlerErr != nil {
		frame.Error = sdkerrors.ToErrorDetail(handlerErr)
	} else {
		frame.Args = []any{result}
	}
	data, err := json.Marshal(frame)
	if err != nil {
		t.cfg.Logger.Warn("failed to encode handler response", "func", *env.Func, "error", err)
		return
	}

	t.mu.Lock()
	window, target := t.window, t.hostOrigin
	t.mu.Unlock()
	if window == nil || target == "" {
		return
	}
	if err := window.PostMessage(data, target); err != nil {
		t.cfg.Logger.Warn("failed to post handler response", "func", *env.Func, "error", err)
	}
}

// RegisterHandler subscribes h to host messages addressed to name,
// replacing any previous handler. Handlers persist until unregistered or
// until Teardown.
func (t *Transport) RegisterHandler(name string, h Handler) error {
	if name == "" || h == nil {
		return &sdkerrors.ConfigError{Field: "handler", Err: fmt.Errorf("handler name and function are required")}
	}
	wrapped := chain(h, t.cfg.Middleware)
	t.mu.Lock()
	t.handlers[name] = wrapped
	t.mu.Unlock()
	return nil
}

// UnregisterHandler removes the handler for name. It reports whether one existed.
func (t *Transport) UnregisterHandler(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.handlers[name]
	delete(t.handlers, name)
	return ok
}

// HasHandler reports whether a handler is registered for name.
func (t *Transport) HasHandler(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.handlers[name]
	return ok
}

// Tracked returns the ids of requests still awaiting a response.
func (t *Transport) Tracked() []int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending.ids()
}

// Teardown stops listening, rejects every pending request with
// DisconnectedError, drops all handlers and closes cached ports.
// The transport may be initialized again afterwards.
func (t *Transport) Teardown() {
	t.mu.Lock()
	stop := t.stopListening
	pending := t.pending.drain()
	cached := t.portCache
	t.stopListening = nil
	t.portCache = make(map[string]ports.MessagePort)
	t.handlers = make(map[string]Handler)
	t.window = nil
	t.allowed = nil
	t.hostOrigin = ""
	t.initialized = false
	t.generation++
	t.mu.Unlock()

	if stop != nil {
		stop()
	}
	for _, req := range pending {
		req.future.Reject(&sdkerrors.DisconnectedError{APIName: req.apiName})
	}
	for name, p := range cached {
		if err := p.Close(); err != nil {
			t.cfg.Logger.Debug("failed to close port", "channel", name, "error", err)
		}
	}
}

func derefID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}
