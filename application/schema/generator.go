// Package schema generates JSON schemas for the wire envelopes and validates
// captured host traffic against them.
package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"

	"github.com/invopop/jsonschema"

	"github.com/hostlink-dev/hostlink-sdk/go/domain/entities"
	sdkerrors "github.com/hostlink-dev/hostlink-sdk/go/domain/errors"
	"github.com/hostlink-dev/hostlink-sdk/go/wireformat"
)

// Document names.
const (
	DocumentRequest = "request"
	DocumentFrame   = "frame"
	DocumentRuntime = "runtime"
)

var documents = map[string]any{
	DocumentRequest: wireformat.Request{},
	DocumentFrame:   wireformat.Frame{},
	DocumentRuntime: wireformat.RuntimeWire{},
}

var (
	capabilitiesType = reflect.TypeOf(entities.Capabilities{})
	rawMessageType   = reflect.TypeOf(json.RawMessage{})
)

// GenerateSchema creates a JSON schema from a Go struct.
// Definitions are expanded inline and the $schema keyword is omitted so the
// output is accepted by draft-07 validators.
func GenerateSchema(v any) ([]byte, error) {
	reflector := jsonschema.Reflector{
		ExpandedStruct:            true,
		DoNotReference:            true,
		AllowAdditionalProperties: true,
		Mapper:                    mapType,
	}
	s := reflector.Reflect(v)
	s.Version = ""

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, &sdkerrors.SchemaError{Type: fmt.Sprintf("%T", v), Err: fmt.Errorf("failed to marshal schema: %w", err)}
	}
	return data, nil
}

// mapType overrides types whose reflected schema would be wrong: the
// capability tree is recursive and accepts true leaves, and the runtime
// apiVersion is an integer or a legacy numeric string.
func mapType(t reflect.Type) *jsonschema.Schema {
	switch t {
	case capabilitiesType:
		return &jsonschema.Schema{Type: "object"}
	case rawMessageType:
		return &jsonschema.Schema{OneOf: []*jsonschema.Schema{
			{Type: "integer"},
			{Type: "string"},
		}}
	default:
		return nil
	}
}

// Documents returns the known document names, sorted.
func Documents() []string {
	names := make([]string, 0, len(documents))
	for name := range documents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Document returns the schema of a named wire document.
func Document(name string) ([]byte, error) {
	v, ok := documents[name]
	if !ok {
		return nil, &sdkerrors.SchemaError{Type: name, Err: fmt.Errorf("unknown document, expected one of %v", Documents())}
	}
	return GenerateSchema(v)
}
