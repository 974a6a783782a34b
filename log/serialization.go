package log

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"
)

// LogMessageWire is the wire format of a log record sent to the host.
type LogMessageWire struct {
	Timestamp time.Time     `json:"timestamp"`
	Attrs     []LogAttrWire `json:"attrs,omitempty"`
	Level     string        `json:"level"`
	Message   string        `json:"message"`
	Logger    string        `json:"logger,omitempty"`
	Source    string        `json:"source,omitempty"`
}

// LogAttrWire represents a single slog attribute for wire transfer.
// Group members are flattened with dotted keys.
type LogAttrWire struct {
	Key   string `json:"key"`
	Type  string `json:"type"`  // "string", "int64", "bool", "float64", "time", "error", "json", "any"
	Value string `json:"value"` // String representation of the value
}

func joinKey(group, key string) string {
	if group == "" {
		return key
	}
	return group + "." + key
}

// appendAttr resolves attr and appends it, flattening groups.
func appendAttr(dst []LogAttrWire, group string, attr slog.Attr) []LogAttrWire {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return dst
	}
	if attr.Value.Kind() == slog.KindGroup {
		prefix := group
		if attr.Key != "" {
			prefix = joinKey(group, attr.Key)
		}
		for _, member := range attr.Value.Group() {
			dst = appendAttr(dst, prefix, member)
		}
		return dst
	}
	wire := toLogAttrWire(attr)
	wire.Key = joinKey(group, wire.Key)
	return append(dst, wire)
}

// toLogAttrWire converts a resolved non-group attribute. Scalars are
// rendered with strconv so hosts can parse them back losslessly.
func toLogAttrWire(attr slog.Attr) LogAttrWire {
	v := attr.Value.Resolve()
	wire := LogAttrWire{Key: attr.Key, Type: "any"}

	switch v.Kind() {
	case slog.KindString:
		wire.Type, wire.Value = "string", v.String()
	case slog.KindInt64:
		wire.Type, wire.Value = "int64", strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		wire.Type, wire.Value = "uint64", strconv.FormatUint(v.Uint64(), 10)
	case slog.KindBool:
		wire.Type, wire.Value = "bool", strconv.FormatBool(v.Bool())
	case slog.KindFloat64:
		wire.Type, wire.Value = "float64", strconv.FormatFloat(v.Float64(), 'g', -1, 64)
	case slog.KindTime:
		wire.Type, wire.Value = "time", v.Time().Format(time.RFC3339Nano)
	case slog.KindDuration:
		wire.Type, wire.Value = "duration", v.Duration().String()
	case slog.KindAny:
		wire.Type, wire.Value = anyWire(v.Any())
	default:
		wire.Value = v.String()
	}
	return wire
}

func anyWire(v any) (typ, value string) {
	switch val := v.(type) {
	case nil:
		return "any", "<nil>"
	case error:
		return "error", val.Error()
	case fmt.Stringer:
		return "string", val.String()
	}
	if data, err := json.Marshal(v); err == nil {
		return "json", string(data)
	}
	return "any", fmt.Sprintf("%v", v)
}
