package schema

import (
	"errors"
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	sdkerrors "github.com/hostlink-dev/hostlink-sdk/go/domain/errors"
)

// Validate checks a JSON document against a JSON schema. A document that
// does not conform returns a *SchemaError listing every problem.
func Validate(schemaJSON, document []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewBytesLoader(document),
	)
	if err != nil {
		return &sdkerrors.SchemaError{Err: fmt.Errorf("failed to validate: %w", err)}
	}
	if result.Valid() {
		return nil
	}
	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	return &sdkerrors.SchemaError{Problems: problems}
}

// ValidateDocument validates data against the named wire document.
func ValidateDocument(name string, data []byte) error {
	s, err := Document(name)
	if err != nil {
		return err
	}
	if err := Validate(s, data); err != nil {
		var se *sdkerrors.SchemaError
		if errors.As(err, &se) {
			se.Type = name
		}
		return err
	}
	return nil
}
