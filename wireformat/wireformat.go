// Package wireformat defines the JSON wire format structures exchanged between
// the embedded app and its host over the cross-window messaging primitive.
// These types must remain stable and backward compatible as they define the
// protocol contract with hosts of every version.
package wireformat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/hostlink-dev/hostlink-sdk/go/domain/entities"
)

// Request is a correlated call from the app to the host.
type Request struct {
	Args          []any  `json:"args"`
	UUID          string `json:"uuid,omitempty"`
	Func          string `json:"func" validate:"required"`
	APIVersionTag string `json:"apiVersionTag,omitempty"`
	ID            int64  `json:"id"`
	Timestamp     int64  `json:"timestamp,omitempty"`
}

// Frame is any message a host posts to the app: a response (ID set, Func
// empty), an event push (Func set, no ID) or a host-initiated request (both).
// Hosts and simulators build frames; the app decodes them as Envelope.
type Frame struct {
	ID     *int64                `json:"id,omitempty"`
	Error  *entities.ErrorDetail `json:"error,omitempty"`
	Result any                   `json:"result,omitempty"`
	UUID   string                `json:"uuid,omitempty"`
	Func   string                `json:"func,omitempty"`
	Args   []any                 `json:"args,omitempty"`
}

// Kind discriminates incoming envelopes.
type Kind int

const (
	KindUnknown Kind = iota
	KindResponse
	KindEvent
	KindHostRequest
)

func (k Kind) String() string {
	switch k {
	case KindResponse:
		return "response"
	case KindEvent:
		return "event"
	case KindHostRequest:
		return "host_request"
	default:
		return "unknown"
	}
}

// Envelope is the decoded form of an incoming frame. Payloads stay raw so
// the thin capability modules decode them into their own types.
type Envelope struct {
	ID     *int64                `json:"id,omitempty"`
	Func   *string               `json:"func,omitempty"`
	Error  *entities.ErrorDetail `json:"error,omitempty"`
	UUID   string                `json:"uuid,omitempty"`
	Result json.RawMessage       `json:"result,omitempty"`
	Args   []json.RawMessage     `json:"args,omitempty"`
}

// Kind classifies the envelope.
func (e *Envelope) Kind() Kind {
	hasID := e.ID != nil || e.UUID != ""
	hasFunc := e.Func != nil && *e.Func != ""
	switch {
	case hasID && hasFunc:
		return KindHostRequest
	case hasID:
		return KindResponse
	case hasFunc:
		return KindEvent
	default:
		return KindUnknown
	}
}

// DecodeEnvelope decodes one incoming frame.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// RuntimeWire is the JSON form of a runtime record as sent by hosts.
// Fields introduced by later schema versions are optional.
type RuntimeWire struct {
	HostVersionInfo      *entities.HostVersionInfo `json:"hostVersionsInfo,omitempty"`
	PreferredAuthChannel *bool                     `json:"preferredAuthChannel,omitempty"`
	Supports             entities.Capabilities     `json:"supports"`
	APIVersion           json.RawMessage           `json:"apiVersion"`
	IsLegacyHost         bool                      `json:"isLegacyHost,omitempty"`
}

// SchemaVersion returns the declared schema version. A version given as a
// numeric string is a legacy marker and is normalized to version 1.
func (w *RuntimeWire) SchemaVersion() (int, error) {
	raw := bytes.TrimSpace(w.APIVersion)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, fmt.Errorf("runtime record has no apiVersion")
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
		if !isDottedNumber(s) {
			return 0, fmt.Errorf("apiVersion %q is not a dotted numeric version", s)
		}
		return 1, nil
	}
	var v int
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, fmt.Errorf("apiVersion must be an integer: %w", err)
	}
	return v, nil
}

// isDottedNumber reports whether s is one or more runs of ASCII digits
// separated by single dots, e.g. "1", "1.6" or "2.0.1".
func isDottedNumber(s string) bool {
	if s == "" {
		return false
	}
	digits := 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= '0' && c <= '9':
			digits++
		case c == '.' && digits > 0:
			digits = 0
		default:
			return false
		}
	}
	return digits > 0
}

// ToRecord converts the wire form into a runtime record at its declared version.
func (w *RuntimeWire) ToRecord() (entities.RuntimeRecord, error) {
	v, err := w.SchemaVersion()
	if err != nil {
		return entities.RuntimeRecord{}, err
	}
	supports := w.Supports
	if supports == nil {
		supports = entities.Capabilities{}
	}
	return entities.RuntimeRecord{
		SchemaVersion: v,
		Host: entities.HostMetadata{
			HostVersionInfo:      w.HostVersionInfo.Clone(),
			PreferredAuthChannel: w.PreferredAuthChannel,
			IsLegacyHost:         w.IsLegacyHost,
		},
		Supports: supports,
	}, nil
}

// RuntimeWireFromRecord converts a record into its wire form.
func RuntimeWireFromRecord(r entities.RuntimeRecord) RuntimeWire {
	return RuntimeWire{
		APIVersion:           json.RawMessage(strconv.Itoa(r.SchemaVersion)),
		HostVersionInfo:      r.Host.HostVersionInfo.Clone(),
		PreferredAuthChannel: r.Host.PreferredAuthChannel,
		IsLegacyHost:         r.Host.IsLegacyHost,
		Supports:             r.Supports.Clone(),
	}
}

// InitializeReply is the decoded reply to the handshake request.
type InitializeReply struct {
	FrameContext              entities.FrameContext `validate:"required"`
	HostClass                 entities.HostClass
	RuntimeConfig             string
	ClientSupportedSDKVersion string
}
