package entities

import "fmt"

// ErrorCode is the numeric error code shared with the host.
type ErrorCode int

const (
	ErrorCodeNotSupportedOnPlatform       ErrorCode = 100
	ErrorCodeFileNotFound                 ErrorCode = 404
	ErrorCodeInternalError                ErrorCode = 500
	ErrorCodeNotSupportedInCurrentContext ErrorCode = 501
	ErrorCodePermissionDenied             ErrorCode = 1000
	ErrorCodeNetworkError                 ErrorCode = 2000
	ErrorCodeNoHardwareSupport            ErrorCode = 3000
	ErrorCodeInvalidArguments             ErrorCode = 4000
	ErrorCodeUnauthorizedUserOperation    ErrorCode = 5000
	ErrorCodeInsufficientResources        ErrorCode = 6000
	ErrorCodeThrottle                     ErrorCode = 7000
	ErrorCodeUserAbort                    ErrorCode = 8000
	ErrorCodeOperationTimedOut            ErrorCode = 8001
	ErrorCodeOldPlatform                  ErrorCode = 9000
	ErrorCodeSizeExceeded                 ErrorCode = 10000
)

// ErrorDetail provides structured error information.
// It is both the domain error shape and the wire format of the error slot
// in a response frame.
type ErrorDetail struct {
	// Details contains additional error context.
	Details map[string]any `json:"details,omitempty"`

	// Message is a human-readable error description.
	Message string `json:"message,omitempty"`

	// Type categorizes the error on the client side. It is never sent by hosts.
	Type string `json:"type,omitempty"`

	// Code is the machine-readable error code.
	Code ErrorCode `json:"code"`
}

// Error implements the error interface.
func (e *ErrorDetail) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" {
		msg = "host error"
	}
	if e.Type != "" {
		msg = fmt.Sprintf("%s: %s", e.Type, msg)
	}
	return fmt.Sprintf("%s [%d]", msg, e.Code)
}

// NewErrorDetail creates a new ErrorDetail with the given code and message.
func NewErrorDetail(code ErrorCode, message string) *ErrorDetail {
	return &ErrorDetail{
		Code:    code,
		Message: message,
	}
}

// WithDetails attaches details and returns the receiver.
func (e *ErrorDetail) WithDetails(details map[string]any) *ErrorDetail {
	e.Details = details
	return e
}
