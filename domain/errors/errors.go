// Package errors provides domain-specific error types for the SDK.
// All error types support error unwrapping via errors.As() and errors.Is().
package errors

import (
	stdErrors "errors"
	"fmt"
	"strings"

	"github.com/hostlink-dev/hostlink-sdk/go/domain/entities"
)

// ErrorDetail is an alias to entities.ErrorDetail for convenience.
type ErrorDetail = entities.ErrorDetail

// DetailedError is an interface for custom error types that can convert themselves
// to a structured ErrorDetail. New error types only need to implement this
// interface without modifying ToErrorDetail.
type DetailedError interface {
	error
	ToErrorDetail() *entities.ErrorDetail
}

// ToErrorDetail converts a Go error to our structured ErrorDetail.
// This function recognizes custom error types and categorizes them appropriately.
func ToErrorDetail(err error) *entities.ErrorDetail {
	if err == nil {
		return nil
	}

	// If the error is already a *ErrorDetail (entity), use it directly.
	var e *entities.ErrorDetail
	if stdErrors.As(err, &e) {
		return e
	}

	var de DetailedError
	if stdErrors.As(err, &de) {
		return de.ToErrorDetail()
	}

	// Generic error - categorize as internal
	return &entities.ErrorDetail{
		Message: err.Error(),
		Type:    "internal",
		Code:    entities.ErrorCodeInternalError,
	}
}

// NotInitializedError is returned when the registry or the transport is used
// before the host handshake completed.
type NotInitializedError struct {
	Component string
	Reason    string
}

func (e *NotInitializedError) Error() string {
	msg := "sdk not initialized"
	if e.Component != "" {
		msg = fmt.Sprintf("%s not initialized", e.Component)
	}
	if e.Reason != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Reason)
	}
	return msg
}

// Is matches any *NotInitializedError.
func (e *NotInitializedError) Is(target error) bool {
	_, ok := target.(*NotInitializedError)
	return ok
}

// ToErrorDetail implements DetailedError.
func (e *NotInitializedError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "not_initialized", Code: entities.ErrorCodeInternalError}
}

// UnsupportedRuntimeError reports a runtime record whose schema version cannot
// be upgraded to the latest one. It indicates a broken integration and is
// never retried.
type UnsupportedRuntimeError struct {
	SchemaVersion int
	Latest        int
}

func (e *UnsupportedRuntimeError) Error() string {
	return fmt.Sprintf("unsupported runtime schema version %d (latest %d)", e.SchemaVersion, e.Latest)
}

// Is matches any *UnsupportedRuntimeError.
func (e *UnsupportedRuntimeError) Is(target error) bool {
	_, ok := target.(*UnsupportedRuntimeError)
	return ok
}

// ToErrorDetail implements DetailedError.
func (e *UnsupportedRuntimeError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "runtime", Code: entities.ErrorCodeInternalError}
}

// NotSupportedOnPlatformError reports a capability absent from the negotiated tree.
type NotSupportedOnPlatformError struct {
	Capability string
}

func (e *NotSupportedOnPlatformError) Error() string {
	if e.Capability != "" {
		return fmt.Sprintf("capability %s is not supported on this platform", e.Capability)
	}
	return "not supported on this platform"
}

// Is matches any *NotSupportedOnPlatformError.
func (e *NotSupportedOnPlatformError) Is(target error) bool {
	_, ok := target.(*NotSupportedOnPlatformError)
	return ok
}

// ToErrorDetail implements DetailedError.
func (e *NotSupportedOnPlatformError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "capability", Code: entities.ErrorCodeNotSupportedOnPlatform}
}

// NewNotSupported builds a NotSupportedOnPlatformError for a capability path.
func NewNotSupported(path ...string) *NotSupportedOnPlatformError {
	return &NotSupportedOnPlatformError{Capability: strings.Join(path, ".")}
}

// ContextMismatchError reports an operation invoked from a frame context
// that is not permitted for it.
type ContextMismatchError struct {
	Current  entities.FrameContext
	Expected []entities.FrameContext
}

func (e *ContextMismatchError) Error() string {
	expected := make([]string, len(e.Expected))
	for i, fc := range e.Expected {
		expected[i] = string(fc)
	}
	return fmt.Sprintf("call is only allowed in contexts [%s], current context: %q", strings.Join(expected, ", "), e.Current)
}

// Is matches any *ContextMismatchError.
func (e *ContextMismatchError) Is(target error) bool {
	_, ok := target.(*ContextMismatchError)
	return ok
}

// ToErrorDetail implements DetailedError.
func (e *ContextMismatchError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "context", Code: entities.ErrorCodeNotSupportedInCurrentContext}
}

// HostError is a structured error payload relayed from the host in a response.
type HostError struct {
	Details map[string]any
	APIName string
	Message string
	Code    entities.ErrorCode
}

func (e *HostError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "host returned an error"
	}
	if e.APIName != "" {
		return fmt.Sprintf("%s failed: %s [%d]", e.APIName, msg, e.Code)
	}
	return fmt.Sprintf("%s [%d]", msg, e.Code)
}

// ToErrorDetail implements DetailedError. The detail keeps the host's code
// and message without rewording them.
func (e *HostError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Message, Type: "host", Code: e.Code, Details: e.Details}
}

// NewHostError converts a wire error detail into a HostError.
func NewHostError(apiName string, detail *entities.ErrorDetail) *HostError {
	if detail == nil {
		return &HostError{APIName: apiName, Code: entities.ErrorCodeInternalError}
	}
	return &HostError{
		APIName: apiName,
		Code:    detail.Code,
		Message: detail.Message,
		Details: detail.Details,
	}
}

// DisconnectedError rejects requests that were still pending when the
// transport was torn down.
type DisconnectedError struct {
	APIName string
}

func (e *DisconnectedError) Error() string {
	if e.APIName != "" {
		return fmt.Sprintf("transport disconnected before %s completed", e.APIName)
	}
	return "transport disconnected"
}

// Is matches any *DisconnectedError.
func (e *DisconnectedError) Is(target error) bool {
	_, ok := target.(*DisconnectedError)
	return ok
}

// ToErrorDetail implements DetailedError.
func (e *DisconnectedError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "disconnected", Code: entities.ErrorCodeInternalError}
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Err   error
	Field string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config validation failed for field '%s': %v", e.Field, e.Err)
	}
	return fmt.Sprintf("config validation failed: %v", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *ConfigError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "config", Code: entities.ErrorCodeInvalidArguments}
}

// SchemaError represents a schema generation or validation error.
type SchemaError struct {
	Err      error
	Type     string
	Problems []string
}

func (e *SchemaError) Error() string {
	msg := "schema error"
	if e.Type != "" {
		msg = fmt.Sprintf("schema error for type %s", e.Type)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if len(e.Problems) > 0 {
		return fmt.Sprintf("%s: %s", msg, strings.Join(e.Problems, "; "))
	}
	return msg
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *SchemaError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "validation", Code: entities.ErrorCodeInvalidArguments}
}

// WireFormatError represents a wire format encoding/decoding error.
type WireFormatError struct {
	Err       error
	Operation string
	Type      string
}

func (e *WireFormatError) Error() string {
	return fmt.Sprintf("wire format %s failed for %s: %v", e.Operation, e.Type, e.Err)
}

func (e *WireFormatError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *WireFormatError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "internal", Code: entities.ErrorCodeInternalError}
}
