// Package sdk connects an embedded app to its host.
//
// Initialize performs the handshake over a cross-window messaging primitive,
// negotiates the host runtime (synthesizing one for legacy hosts) and
// returns an App through which capability modules check support, call the
// host and subscribe to host events.
//
//	app, err := sdk.Initialize(ctx, window, sdk.WithAllowedOrigins("*.example.com"))
//	if err != nil {
//		return err
//	}
//	defer app.Uninitialize()
//	if ok, _ := app.IsSupported("chat"); ok {
//		...
//	}
package sdk

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/hostlink-dev/hostlink-sdk/go/apitag"
	"github.com/hostlink-dev/hostlink-sdk/go/application/negotiation"
	"github.com/hostlink-dev/hostlink-sdk/go/application/transport"
	"github.com/hostlink-dev/hostlink-sdk/go/domain/entities"
	sdkerrors "github.com/hostlink-dev/hostlink-sdk/go/domain/errors"
	"github.com/hostlink-dev/hostlink-sdk/go/domain/ports"
	"github.com/hostlink-dev/hostlink-sdk/go/future"
	"github.com/hostlink-dev/hostlink-sdk/go/infrastructure/cborport"
	"github.com/hostlink-dev/hostlink-sdk/go/invoke"
	hostlog "github.com/hostlink-dev/hostlink-sdk/go/log"
)

// Version is the SDK version reported to hosts in the handshake.
const Version = "2.5.0"

// Host functions used by the app itself.
const (
	funcInitialize      = transport.DefaultHandshakeFunc
	funcRegisterHandler = "registerHandler"
	funcSuccess         = "appInitialization.success"
	telemetryChannel    = "telemetry"
)

var appArea = apitag.NewArea("app", apitag.V2)

// App is an initialized connection to the host.
// All methods are safe for concurrent use.
type App struct {
	transport        *transport.Transport
	registry         *negotiation.Registry
	logger           *slog.Logger
	telemetry        *cborport.Conn
	frameContext     entities.FrameContext
	hostClass        entities.HostClass
	clientSDKVersion string
	mu               sync.RWMutex
	initialized      bool
}

// Initialize performs the handshake with the host behind window and
// installs the negotiated runtime. It blocks until the host answers or ctx
// is done; on any failure nothing stays listening on window.
func Initialize(ctx context.Context, window ports.Window, opts ...Option) (*App, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	registry := negotiation.NewRegistry(negotiation.WithRegistryLogger(cfg.Logger))
	topts := append([]transport.Option{transport.WithLogger(cfg.Logger)}, cfg.TransportOptions...)
	topts = append(topts, transport.WithCapabilityChecker(registry))
	tr, err := transport.New(topts...)
	if err != nil {
		return nil, err
	}
	if err := tr.Initialize(window, cfg.AllowedOrigins); err != nil {
		return nil, err
	}

	app := &App{transport: tr, registry: registry, logger: cfg.Logger}
	if err := app.handshake(ctx, cfg); err != nil {
		tr.Teardown()
		registry.Teardown()
		return nil, err
	}
	return app, nil
}

func (a *App) handshake(ctx context.Context, cfg config) error {
	f, err := a.transport.Send(ctx, appArea.Tag("initialize"), funcInitialize, cfg.SDKVersion, negotiation.LatestSchemaVersion)
	if err != nil {
		return fmt.Errorf("failed to send handshake: %w", err)
	}
	reply, err := f.Await(ctx)
	if err != nil {
		return fmt.Errorf("handshake failed: %w", err)
	}
	hs, err := decodeInitializeReply(reply.Args)
	if err != nil {
		return &sdkerrors.WireFormatError{Operation: "decode", Type: funcInitialize, Err: err}
	}

	snap, clientVersion, source, err := installRuntime(a.registry, cfg, hs)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.frameContext = hs.FrameContext
	a.hostClass = hs.HostClass
	a.clientSDKVersion = clientVersion
	a.initialized = true
	a.mu.Unlock()

	a.logger.Info("initialized",
		"frame_context", hs.FrameContext,
		"host_class", hs.HostClass,
		"client_sdk_version", clientVersion,
		"runtime_source", source,
		"legacy_host", snap.IsLegacyHost())
	return nil
}

// FrameContext returns the page role the host loaded the app in.
func (a *App) FrameContext() entities.FrameContext {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.frameContext
}

// HostClass returns the host client category.
func (a *App) HostClass() entities.HostClass {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.hostClass
}

// ClientSupportedSDKVersion returns the highest SDK version the host client supports.
func (a *App) ClientSupportedSDKVersion() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.clientSDKVersion
}

// Runtime returns the negotiated runtime snapshot.
func (a *App) Runtime() *negotiation.Snapshot {
	return a.registry.Current()
}

// EnsureInitialized returns NotInitializedError until the handshake
// completed and after Uninitialize. With frame contexts given, it also
// returns ContextMismatchError unless the app runs in one of them.
func (a *App) EnsureInitialized(frameContexts ...entities.FrameContext) error {
	a.mu.RLock()
	initialized, current := a.initialized, a.frameContext
	a.mu.RUnlock()
	if !initialized {
		return &sdkerrors.NotInitializedError{Component: "app", Reason: "call Initialize first"}
	}
	if len(frameContexts) > 0 && !slices.Contains(frameContexts, current) {
		return &sdkerrors.ContextMismatchError{Current: current, Expected: frameContexts}
	}
	return nil
}

// IsSupported reports whether the negotiated runtime has the capability
// at path. It errors only before initialization.
func (a *App) IsSupported(path ...string) (bool, error) {
	if err := a.EnsureInitialized(); err != nil {
		return false, err
	}
	return a.registry.Supports(path...)
}

// RequireSupported is IsSupported that treats a missing capability as
// NotSupportedOnPlatformError.
func (a *App) RequireSupported(path ...string) error {
	ok, err := a.IsSupported(path...)
	if err != nil {
		return err
	}
	if !ok {
		return sdkerrors.NewNotSupported(path...)
	}
	return nil
}

// IsCurrentSDKVersionAtLeast reports whether the host client supports at
// least version v of the SDK.
func (a *App) IsCurrentSDKVersionAtLeast(v string) bool {
	return negotiation.IsVersionAtLeast(a.ClientSupportedSDKVersion(), v)
}

// Send posts a request to the host. See transport.Transport.Send.
func (a *App) Send(ctx context.Context, tag, apiName string, args ...any) (*future.Future[transport.Reply], error) {
	if err := a.EnsureInitialized(); err != nil {
		return nil, err
	}
	return a.transport.Send(ctx, tag, apiName, args...)
}

// Notify posts a request without waiting for an answer.
func (a *App) Notify(tag, apiName string, args ...any) error {
	if err := a.EnsureInitialized(); err != nil {
		return err
	}
	return a.transport.Notify(tag, apiName, args...)
}

// NotifySuccess tells the host the app finished loading.
func (a *App) NotifySuccess() error {
	return a.Notify(appArea.Tag("notifySuccess"), funcSuccess, Version)
}

// RegisterHandler subscribes h to the host messages addressed to name and
// tells the host about the subscription.
func (a *App) RegisterHandler(tag, name string, h transport.Handler) error {
	if err := a.EnsureInitialized(); err != nil {
		return err
	}
	if err := a.transport.RegisterHandler(name, h); err != nil {
		return err
	}
	if err := a.transport.Notify(tag, funcRegisterHandler, name); err != nil {
		return fmt.Errorf("failed to announce handler %s: %w", name, err)
	}
	return nil
}

// UnregisterHandler removes the handler for name.
func (a *App) UnregisterHandler(name string) bool {
	return a.transport.UnregisterHandler(name)
}

// RequestPort returns the side channel called name. See
// transport.Transport.RequestPort.
func (a *App) RequestPort(ctx context.Context, tag, name string) (ports.MessagePort, error) {
	if err := a.EnsureInitialized(); err != nil {
		return nil, err
	}
	return a.transport.RequestPort(ctx, tag, name)
}

// TelemetryLogger returns a logger whose records are forwarded as CBOR
// frames over the host's telemetry channel. Records the host cannot take
// are written to the handler's fallback, if configured.
func (a *App) TelemetryLogger(ctx context.Context, opts ...hostlog.HandlerOption) (*slog.Logger, error) {
	conn, err := a.telemetryConn(ctx)
	if err != nil {
		return nil, err
	}
	return slog.New(hostlog.NewHandler(conn, opts...)), nil
}

func (a *App) telemetryConn(ctx context.Context) (*cborport.Conn, error) {
	a.mu.RLock()
	conn := a.telemetry
	a.mu.RUnlock()
	if conn != nil {
		return conn, nil
	}

	port, err := a.RequestPort(ctx, appArea.Tag("telemetry"), telemetryChannel)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.telemetry != nil {
		return a.telemetry, nil
	}
	conn, err = cborport.New(port, cborport.WithLogger(a.logger))
	if err != nil {
		return nil, err
	}
	a.telemetry = conn
	return conn, nil
}

// Uninitialize tears the connection down. Pending requests reject with
// DisconnectedError, handlers are dropped, ports are closed and the
// runtime returns to the uninitialized sentinel.
func (a *App) Uninitialize() {
	a.mu.Lock()
	conn := a.telemetry
	a.telemetry = nil
	a.initialized = false
	a.frameContext = ""
	a.hostClass = ""
	a.clientSDKVersion = ""
	a.mu.Unlock()

	if conn != nil {
		if err := conn.Close(); err != nil {
			a.logger.Debug("failed to close telemetry", "error", err)
		}
	}
	a.transport.Teardown()
	a.registry.Teardown()
}

// Call sends apiName and decodes the first reply argument into T, delivering
// the outcome through inv. Integration errors (not initialized, unsupported
// runtime) are returned synchronously; everything else rejects the future.
func Call[T any](ctx context.Context, a *App, inv invoke.Invocation[T], tag, apiName string, args ...any) (*future.Future[T], error) {
	return invoke.Call(inv, func() (*future.Future[T], error) {
		f, err := a.Send(ctx, tag, apiName, args...)
		if err != nil {
			return nil, err
		}
		return invoke.Unwrap[T](f), nil
	})
}
