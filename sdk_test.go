package sdk

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostlink-dev/hostlink-sdk/go/application/negotiation"
	"github.com/hostlink-dev/hostlink-sdk/go/application/transport"
	"github.com/hostlink-dev/hostlink-sdk/go/domain/entities"
	sdkerrors "github.com/hostlink-dev/hostlink-sdk/go/domain/errors"
	"github.com/hostlink-dev/hostlink-sdk/go/domain/ports"
	"github.com/hostlink-dev/hostlink-sdk/go/infrastructure/cborport"
	"github.com/hostlink-dev/hostlink-sdk/go/infrastructure/inproc"
	"github.com/hostlink-dev/hostlink-sdk/go/internal/testutil"
	"github.com/hostlink-dev/hostlink-sdk/go/invoke"
	hostlog "github.com/hostlink-dev/hostlink-sdk/go/log"
	"github.com/hostlink-dev/hostlink-sdk/go/wireformat"
)

const hostPattern = "host.example.com"

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	t.Cleanup(cancel)
	return ctx
}

func newHost() *inproc.Host {
	return inproc.NewHost(inproc.WithHostLogger(quietLogger))
}

func initialize(t *testing.T, h *inproc.Host, opts ...Option) (*App, error) {
	t.Helper()
	base := []Option{WithLogger(quietLogger), WithAllowedOrigins(hostPattern)}
	return Initialize(testContext(t), h.Window(), append(base, opts...)...)
}

func mustInitialize(t *testing.T, h *inproc.Host, opts ...Option) *App {
	t.Helper()
	app, err := initialize(t, h, opts...)
	require.NoError(t, err)
	t.Cleanup(app.Uninitialize)
	return app
}

func runtimeJSON(t *testing.T, schemaVersion int, paths ...string) string {
	t.Helper()
	data, err := negotiation.EncodeRuntime(entities.RuntimeRecord{
		SchemaVersion: schemaVersion,
		Supports:      entities.CapabilitiesFromPaths(paths...),
	})
	require.NoError(t, err)
	return string(data)
}

func TestInitialize_InstallsHostRuntime(t *testing.T) {
	h := newHost()
	h.HandleInitialize(entities.FrameContextContent, entities.HostClassWeb, runtimeJSON(t, 1, "widgetX"), "2.6.0")

	app := mustInitialize(t, h)

	ok, err := app.IsSupported("widgetX")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = app.IsSupported("widgetY")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, entities.FrameContextContent, app.FrameContext())
	assert.Equal(t, entities.HostClassWeb, app.HostClass())
	assert.Equal(t, "2.6.0", app.ClientSupportedSDKVersion())
	assert.Equal(t, negotiation.LatestSchemaVersion, app.Runtime().SchemaVersion())
	assert.False(t, app.Runtime().IsLegacyHost())

	reqs := h.RequestsFor("initialize")
	require.Len(t, reqs, 1)
	assert.Equal(t, "v2_app.initialize", reqs[0].APIVersionTag)
	assert.Equal(t, []any{Version, float64(negotiation.LatestSchemaVersion)}, reqs[0].Args)
}

func TestInitialize_RuntimeAsJSONObject(t *testing.T) {
	h := newHost()
	h.HandleStatic("initialize", "content", "web", json.RawMessage(runtimeJSON(t, 4, "chat")), "2.6.0")

	app := mustInitialize(t, h)

	ok, err := app.IsSupported("chat")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestInitialize_LegacyHosts(t *testing.T) {
	tests := []struct {
		name          string
		runtimeSlot   string
		versionSlot   string
		hostClass     entities.HostClass
		wantVersion   string
		wantJoined    bool
		wantWebStore  bool
		wantLocations bool
	}{
		{"version in runtime slot", "2.0.1", "", entities.HostClassDesktop, "2.0.1", true, true, true},
		{"old version", "1.5.0", "", entities.HostClassDesktop, "1.5.0", false, false, false},
		{"nothing sent", "", "", entities.HostClassDesktop, negotiation.DefaultSDKVersion, true, true, true},
		{"version in version slot", "", "2.0.5", entities.HostClassAndroid, "2.0.5", true, true, true},
		{"host class filter", "2.0.1", "", entities.HostClassSurfaceHub, "2.0.1", false, false, true},
		{"garbage version", "not-a-version", "", entities.HostClassDesktop, negotiation.DefaultSDKVersion, true, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHost()
			h.HandleInitialize(entities.FrameContextContent, tt.hostClass, tt.runtimeSlot, tt.versionSlot)

			app := mustInitialize(t, h)
			snap := app.Runtime()

			assert.True(t, snap.IsLegacyHost())
			assert.Equal(t, tt.wantVersion, app.ClientSupportedSDKVersion())
			assert.True(t, snap.Has("chat"), "baseline is always present")
			assert.Equal(t, tt.wantJoined, snap.Has("teams", "fullTrust", "joinedTeams"))
			assert.Equal(t, tt.wantWebStore, snap.Has("webStorage"))
			assert.Equal(t, tt.wantLocations, snap.Has("location"))
		})
	}
}

func TestInitialize_FlippedSlots(t *testing.T) {
	h := newHost()
	h.HandleInitialize(entities.FrameContextSettings, entities.HostClassWeb, "2.0.5", runtimeJSON(t, 2, "widgetX"))

	app := mustInitialize(t, h)

	assert.False(t, app.Runtime().IsLegacyHost())
	assert.True(t, app.Runtime().Has("widgetX"))
	assert.Equal(t, "2.0.5", app.ClientSupportedSDKVersion())
	assert.True(t, app.IsCurrentSDKVersionAtLeast("2.0.1"))
	assert.False(t, app.IsCurrentSDKVersionAtLeast("2.1"))
}

func TestInitialize_Failures(t *testing.T) {
	tests := []struct {
		name  string
		setup func(h *inproc.Host)
		check func(t *testing.T, err error)
	}{
		{
			name: "runtime without version",
			setup: func(h *inproc.Host) {
				h.HandleInitialize(entities.FrameContextContent, entities.HostClassWeb, `{"supports":{}}`, "2.0.1")
			},
			check: func(t *testing.T, err error) {
				testutil.RequireErrorAs[*sdkerrors.WireFormatError](t, err)
			},
		},
		{
			name: "null runtime",
			setup: func(h *inproc.Host) {
				h.HandleInitialize(entities.FrameContextContent, entities.HostClassWeb, "null", "2.0.1")
			},
			check: func(t *testing.T, err error) {
				testutil.RequireErrorAs[*sdkerrors.WireFormatError](t, err)
			},
		},
		{
			name: "unknown schema version",
			setup: func(h *inproc.Host) {
				h.HandleInitialize(entities.FrameContextContent, entities.HostClassWeb, `{"apiVersion":9,"supports":{}}`, "2.0.1")
			},
			check: func(t *testing.T, err error) {
				ue := testutil.RequireErrorAs[*sdkerrors.UnsupportedRuntimeError](t, err)
				assert.Equal(t, 9, ue.SchemaVersion)
			},
		},
		{
			name: "missing frame context",
			setup: func(h *inproc.Host) {
				h.HandleStatic("initialize")
			},
			check: func(t *testing.T, err error) {
				we := testutil.RequireErrorAs[*sdkerrors.WireFormatError](t, err)
				assert.Equal(t, "initialize", we.Type)
			},
		},
		{
			name: "host error",
			setup: func(h *inproc.Host) {
				h.Handle("initialize", func(wireformat.Request) inproc.Response {
					return inproc.Response{Error: entities.NewErrorDetail(entities.ErrorCodeOldPlatform, "too old")}
				})
			},
			check: func(t *testing.T, err error) {
				he := testutil.RequireErrorAs[*sdkerrors.HostError](t, err)
				assert.Equal(t, entities.ErrorCodeOldPlatform, he.Code)
				assert.Equal(t, "too old", he.Message)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHost()
			tt.setup(h)

			app, err := initialize(t, h)
			assert.Nil(t, app)
			tt.check(t, err)
			assert.Zero(t, h.Window().Listeners(), "failed handshake must stop listening")
		})
	}
}

func TestInitialize_HostNeverAnswers(t *testing.T) {
	h := newHost()
	h.Handle("initialize", func(wireformat.Request) inproc.Response { return inproc.Response{Defer: true} })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	app, err := Initialize(ctx, h.Window(), WithLogger(quietLogger), WithAllowedOrigins(hostPattern))

	assert.Nil(t, app)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, h.Window().Listeners())
}

func TestInitialize_InvalidConfig(t *testing.T) {
	tests := []struct {
		name  string
		opts  []Option
		field string
	}{
		{"no origins", []Option{WithLogger(quietLogger)}, "AllowedOrigins"},
		{"empty origin", []Option{WithLogger(quietLogger), WithAllowedOrigins("")}, "AllowedOrigins[0]"},
		{"nil logger", []Option{WithLogger(nil), WithAllowedOrigins(hostPattern)}, "Logger"},
		{"empty version", []Option{WithLogger(quietLogger), WithAllowedOrigins(hostPattern), WithSDKVersion("")}, "SDKVersion"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHost()
			_, err := Initialize(testContext(t), h.Window(), tt.opts...)
			ce := testutil.RequireErrorAs[*sdkerrors.ConfigError](t, err)
			assert.Equal(t, tt.field, ce.Field)
			assert.Empty(t, h.Posted())
		})
	}
}

func TestInitialize_InsecureOrigin(t *testing.T) {
	h := newHost()
	_, err := Initialize(testContext(t), h.Window(), WithLogger(quietLogger), WithAllowedOrigins("http://host.example.com"))
	testutil.RequireErrorAs[*sdkerrors.ConfigError](t, err)
}

func TestApp_EnsureInitialized(t *testing.T) {
	h := newHost()
	h.HandleInitialize(entities.FrameContextContent, entities.HostClassWeb, runtimeJSON(t, 4, "chat"), "2.0.1")
	app := mustInitialize(t, h)

	require.NoError(t, app.EnsureInitialized())
	require.NoError(t, app.EnsureInitialized(entities.FrameContextSettings, entities.FrameContextContent))

	err := app.EnsureInitialized(entities.FrameContextSettings, entities.FrameContextRemove)
	me := testutil.RequireErrorAs[*sdkerrors.ContextMismatchError](t, err)
	assert.Equal(t, entities.FrameContextContent, me.Current)
	assert.Equal(t, entities.ErrorCodeNotSupportedInCurrentContext, sdkerrors.ToErrorDetail(err).Code)

	app.Uninitialize()
	assert.ErrorIs(t, app.EnsureInitialized(), &sdkerrors.NotInitializedError{})
	_, err = app.IsSupported("chat")
	assert.ErrorIs(t, err, &sdkerrors.NotInitializedError{})
	assert.Equal(t, entities.UninitializedSchemaVersion, app.Runtime().SchemaVersion())
}

func TestApp_RequireSupported(t *testing.T) {
	h := newHost()
	h.HandleInitialize(entities.FrameContextContent, entities.HostClassWeb, runtimeJSON(t, 4, "chat"), "2.0.1")
	app := mustInitialize(t, h)

	require.NoError(t, app.RequireSupported("chat"))
	err := app.RequireSupported("calendar", "open")
	ne := testutil.RequireErrorAs[*sdkerrors.NotSupportedOnPlatformError](t, err)
	assert.Equal(t, "calendar.open", ne.Capability)
}

type chatResult struct {
	ChatID string `json:"chatId"`
}

func TestCall_FutureAndCallbackAgree(t *testing.T) {
	h := newHost()
	h.HandleInitialize(entities.FrameContextContent, entities.HostClassWeb, runtimeJSON(t, 4, "chat"), "2.0.1")
	h.HandleStatic("chat.openChat", map[string]string{"chatId": "c1"})
	app := mustInitialize(t, h)
	ctx := testContext(t)

	f, err := Call(ctx, app, invoke.Future[chatResult](), "v2_chat.openChat", "chat.openChat", "user@example.com")
	require.NoError(t, err)
	got, err := f.Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, "c1", got.ChatID)

	type outcome struct {
		err error
		v   chatResult
	}
	ch := make(chan outcome, 1)
	inv := invoke.WithCallback(func(err error, v chatResult) { ch <- outcome{err, v} })
	_, err = Call(ctx, app, inv, "v2_chat.openChat", "chat.openChat")
	require.NoError(t, err)
	select {
	case o := <-ch:
		require.NoError(t, o.err)
		assert.Equal(t, got, o.v)
	case <-ctx.Done():
		t.Fatal("callback not called")
	}

	reqs := h.RequestsFor("chat.openChat")
	require.Len(t, reqs, 2)
	assert.Equal(t, []any{"user@example.com"}, reqs[0].Args)
	assert.Equal(t, "v2_chat.openChat", reqs[0].APIVersionTag)
}

func TestCall_HostErrorRejects(t *testing.T) {
	h := newHost()
	h.HandleInitialize(entities.FrameContextContent, entities.HostClassWeb, runtimeJSON(t, 4), "2.0.1")
	h.Handle("chat.openChat", func(wireformat.Request) inproc.Response {
		return inproc.Response{Error: entities.NewErrorDetail(entities.ErrorCodePermissionDenied, "denied")}
	})
	app := mustInitialize(t, h)

	f, err := Call(testContext(t), app, invoke.Future[chatResult](), "v2_chat.openChat", "chat.openChat")
	require.NoError(t, err)
	_, err = f.Await(testContext(t))
	he := testutil.RequireErrorAs[*sdkerrors.HostError](t, err)
	assert.Equal(t, entities.ErrorCodePermissionDenied, he.Code)
}

func TestCall_NotInitializedIsSynchronous(t *testing.T) {
	h := newHost()
	h.HandleInitialize(entities.FrameContextContent, entities.HostClassWeb, runtimeJSON(t, 4), "2.0.1")
	app := mustInitialize(t, h)
	app.Uninitialize()

	called := false
	inv := invoke.WithCallback(func(error, chatResult) { called = true })
	f, err := Call(testContext(t), app, inv, "v2_chat.openChat", "chat.openChat")
	assert.Nil(t, f)
	assert.ErrorIs(t, err, &sdkerrors.NotInitializedError{})
	assert.False(t, called)
}

func TestApp_UninitializeRejectsPending(t *testing.T) {
	h := newHost()
	h.HandleInitialize(entities.FrameContextContent, entities.HostClassWeb, runtimeJSON(t, 4), "2.0.1")
	h.Handle("slow", func(wireformat.Request) inproc.Response { return inproc.Response{Defer: true} })
	app := mustInitialize(t, h)

	f, err := app.Send(testContext(t), "v2_test", "slow")
	require.NoError(t, err)
	app.Uninitialize()

	_, err = f.Await(testContext(t))
	de := testutil.RequireErrorAs[*sdkerrors.DisconnectedError](t, err)
	assert.Equal(t, "slow", de.APIName)
	assert.Zero(t, h.Window().Listeners())
}

func TestApp_RegisterHandler(t *testing.T) {
	h := newHost()
	h.HandleInitialize(entities.FrameContextContent, entities.HostClassWeb, runtimeJSON(t, 4), "2.0.1")
	app := mustInitialize(t, h)

	var themes []string
	err := app.RegisterHandler("v2_app.registerOnThemeChangeHandler", "themeChange",
		transport.TypedHandler(func(_ context.Context, theme string) (any, error) {
			themes = append(themes, theme)
			return nil, nil
		}))
	require.NoError(t, err)

	reqs := h.RequestsFor("registerHandler")
	require.Len(t, reqs, 1)
	assert.Equal(t, []any{"themeChange"}, reqs[0].Args)

	require.NoError(t, h.Push("themeChange", "dark"))
	assert.Equal(t, []string{"dark"}, themes)

	assert.True(t, app.UnregisterHandler("themeChange"))
	require.NoError(t, h.Push("themeChange", "light"))
	assert.Equal(t, []string{"dark"}, themes)
}

func TestApp_NotifySuccess(t *testing.T) {
	h := newHost()
	h.HandleInitialize(entities.FrameContextContent, entities.HostClassWeb, runtimeJSON(t, 4), "2.0.1")
	app := mustInitialize(t, h)

	require.NoError(t, app.NotifySuccess())
	reqs := h.RequestsFor("appInitialization.success")
	require.Len(t, reqs, 1)
	assert.Equal(t, []any{Version}, reqs[0].Args)
	assert.Empty(t, app.transport.Tracked())
}

// serveTelemetry answers the telemetry port handshake and returns the host ends.
func serveTelemetry(h *inproc.Host) *[]*inproc.Port {
	var hostEnds []*inproc.Port
	h.Handle(transport.PortFunc("telemetry"), func(wireformat.Request) inproc.Response {
		appEnd, hostEnd := inproc.NewChannel()
		hostEnds = append(hostEnds, hostEnd)
		return inproc.Response{Ports: []ports.MessagePort{appEnd}}
	})
	return &hostEnds
}

func TestApp_RequestPortIsCached(t *testing.T) {
	h := newHost()
	h.HandleInitialize(entities.FrameContextContent, entities.HostClassWeb, runtimeJSON(t, 4, "messageChannels.telemetry"), "2.0.1")
	serveTelemetry(h)
	app := mustInitialize(t, h)
	ctx := testContext(t)

	first, err := app.RequestPort(ctx, "v2_test", "telemetry")
	require.NoError(t, err)
	second, err := app.RequestPort(ctx, "v2_test", "telemetry")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Len(t, h.RequestsFor(transport.PortFunc("telemetry")), 1)
}

func TestApp_TelemetryLogger(t *testing.T) {
	h := newHost()
	h.HandleInitialize(entities.FrameContextContent, entities.HostClassWeb, runtimeJSON(t, 4, "messageChannels.telemetry"), "2.0.1")
	hostEnds := serveTelemetry(h)
	app := mustInitialize(t, h)
	ctx := testContext(t)

	logger, err := app.TelemetryLogger(ctx, hostlog.WithLoggerName("widget"))
	require.NoError(t, err)
	logger.Info("rendered", "items", 3)

	again, err := app.TelemetryLogger(ctx)
	require.NoError(t, err)
	again.Warn("slow render")

	require.Len(t, *hostEnds, 1)
	hostConn, err := cborport.New((*hostEnds)[0])
	require.NoError(t, err)
	var got []hostlog.LogMessageWire
	cborport.Listen(hostConn, func(m hostlog.LogMessageWire) { got = append(got, m) })

	require.Len(t, got, 2)
	assert.Equal(t, "rendered", got[0].Message)
	assert.Equal(t, "widget", got[0].Logger)
	assert.Equal(t, []hostlog.LogAttrWire{{Key: "items", Type: "int64", Value: "3"}}, got[0].Attrs)
	assert.Equal(t, "WARN", got[1].Level)
	assert.Len(t, h.RequestsFor(transport.PortFunc("telemetry")), 1)

	app.Uninitialize()
	assert.True(t, (*hostEnds)[0].Closed())
}

func TestApp_TelemetryNotSupported(t *testing.T) {
	h := newHost()
	h.HandleInitialize(entities.FrameContextContent, entities.HostClassWeb, runtimeJSON(t, 4, "chat"), "2.0.1")
	serveTelemetry(h)
	app := mustInitialize(t, h)

	_, err := app.TelemetryLogger(testContext(t))
	ne := testutil.RequireErrorAs[*sdkerrors.NotSupportedOnPlatformError](t, err)
	assert.Equal(t, "messageChannels.telemetry", ne.Capability)
	assert.Empty(t, h.RequestsFor(transport.PortFunc("telemetry")))
}
