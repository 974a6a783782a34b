package invoke

import (
	"encoding/json"
	"fmt"

	"github.com/hostlink-dev/hostlink-sdk/go/application/transport"
	"github.com/hostlink-dev/hostlink-sdk/go/domain/entities"
	sdkerrors "github.com/hostlink-dev/hostlink-sdk/go/domain/errors"
	"github.com/hostlink-dev/hostlink-sdk/go/future"
)

// Unwrap resolves with the first reply argument decoded as T.
func Unwrap[T any](f *future.Future[transport.Reply]) *future.Future[T] {
	return future.Then(f, func(r transport.Reply) (T, error) {
		var v T
		if err := r.Decode(0, &v); err != nil {
			return v, err
		}
		return v, nil
	})
}

// SdkErrorResult handles replies shaped [error, result]. A non-null error
// slot rejects with a HostError carrying the host's code and message.
func SdkErrorResult[T any](f *future.Future[transport.Reply]) *future.Future[T] {
	return future.Then(f, func(r transport.Reply) (T, error) {
		var v T
		var detail *entities.ErrorDetail
		if err := r.Decode(0, &detail); err != nil {
			return v, err
		}
		if detail != nil {
			return v, sdkerrors.NewHostError(r.APIName, detail)
		}
		if err := r.Decode(1, &v); err != nil {
			return v, err
		}
		return v, nil
	})
}

// StatusAndReason handles replies shaped [status, reason]. A false status
// rejects with the host's reason, or defaultError when it gave none.
func StatusAndReason(f *future.Future[transport.Reply], defaultError string) *future.Future[struct{}] {
	return future.Then(f, func(r transport.Reply) (struct{}, error) {
		var status bool
		if err := r.Decode(0, &status); err != nil {
			return struct{}{}, err
		}
		if status {
			return struct{}{}, nil
		}
		var reason string
		if err := r.Decode(1, &reason); err != nil {
			return struct{}{}, err
		}
		if reason == "" {
			reason = defaultError
		}
		return struct{}{}, &sdkerrors.HostError{APIName: r.APIName, Message: reason, Code: entities.ErrorCodeInternalError}
	})
}

// Raw resolves with the first reply argument left undecoded.
func Raw(f *future.Future[transport.Reply]) *future.Future[json.RawMessage] {
	return future.Then(f, func(r transport.Reply) (json.RawMessage, error) {
		if len(r.Args) == 0 {
			return nil, fmt.Errorf("%s: reply has no arguments", r.APIName)
		}
		return r.Args[0], nil
	})
}
