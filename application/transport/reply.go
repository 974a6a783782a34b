package transport

import (
	"encoding/json"
	"fmt"

	sdkerrors "github.com/hostlink-dev/hostlink-sdk/go/domain/errors"
	"github.com/hostlink-dev/hostlink-sdk/go/domain/ports"
)

// Reply is the successful answer to a Send.
type Reply struct {
	// APIName is the func the request addressed.
	APIName string

	// Args are the reply arguments, undecoded. A response that only
	// carries a result has it as the single argument.
	Args []json.RawMessage

	// Ports are channels the host transferred with the reply.
	Ports []ports.MessagePort
}

// Len returns the number of reply arguments.
func (r Reply) Len() int {
	return len(r.Args)
}

// Decode unmarshals argument i into v. A missing argument leaves v untouched.
func (r Reply) Decode(i int, v any) error {
	if i < 0 || i >= len(r.Args) {
		return nil
	}
	if err := json.Unmarshal(r.Args[i], v); err != nil {
		return &sdkerrors.WireFormatError{Operation: "decode", Type: fmt.Sprintf("%s reply argument %d", r.APIName, i), Err: err}
	}
	return nil
}
