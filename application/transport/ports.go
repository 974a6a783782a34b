package transport

import (
	"context"
	"fmt"
	"sort"

	sdkerrors "github.com/hostlink-dev/hostlink-sdk/go/domain/errors"
	"github.com/hostlink-dev/hostlink-sdk/go/domain/ports"
)

// PortCapability is the capability node under which hosts list the side
// channels they can open.
const PortCapability = "messageChannels"

// PortFunc returns the request func that asks the host for channel name.
func PortFunc(name string) string {
	return fmt.Sprintf("%s.%s.getPort", PortCapability, name)
}

// RequestPort returns the side channel called name, asking the host for it
// on first use. The capability messageChannels.<name> is checked before
// anything is posted. Later calls return the cached port; concurrent first
// calls share a single request.
func (t *Transport) RequestPort(ctx context.Context, tag, name string) (ports.MessagePort, error) {
	if name == "" {
		return nil, &sdkerrors.ConfigError{Field: "channel", Err: fmt.Errorf("channel name is required")}
	}

	t.mu.Lock()
	if !t.initialized {
		t.mu.Unlock()
		return nil, &sdkerrors.NotInitializedError{Component: "transport", Reason: "cannot request port " + name}
	}
	if p, ok := t.portCache[name]; ok {
		t.mu.Unlock()
		return p, nil
	}
	checker := t.cfg.Checker
	t.mu.Unlock()

	if checker == nil {
		return nil, &sdkerrors.NotInitializedError{Component: "capability registry", Reason: "no capability checker configured"}
	}
	ok, err := checker.Supports(PortCapability, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, sdkerrors.NewNotSupported(PortCapability, name)
	}

	ch := t.portGroup.DoChan(name, func() (any, error) {
		return t.openPort(context.WithoutCancel(ctx), tag, name)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(ports.MessagePort), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *Transport) openPort(ctx context.Context, tag, name string) (ports.MessagePort, error) {
	t.mu.Lock()
	if p, ok := t.portCache[name]; ok {
		t.mu.Unlock()
		return p, nil
	}
	t.mu.Unlock()

	apiName := PortFunc(name)
	f, err := t.Send(ctx, tag, apiName)
	if err != nil {
		return nil, err
	}
	reply, err := f.Await(ctx)
	if err != nil {
		return nil, err
	}
	if len(reply.Ports) == 0 {
		return nil, &sdkerrors.WireFormatError{Operation: "decode", Type: apiName, Err: fmt.Errorf("host reply carried no port")}
	}
	p := reply.Ports[0]

	t.mu.Lock()
	if !t.initialized {
		t.mu.Unlock()
		_ = p.Close()
		return nil, &sdkerrors.DisconnectedError{APIName: apiName}
	}
	t.portCache[name] = p
	t.mu.Unlock()

	t.cfg.Logger.Debug("port opened", "channel", name)
	return p, nil
}

// CachedPorts returns the names of ports opened so far.
func (t *Transport) CachedPorts() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	names := make([]string, 0, len(t.portCache))
	for name := range t.portCache {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
