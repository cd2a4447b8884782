package relay

import (
	"errors"
	"fmt"
)

// Error is the typed failure surfaced by relay operations.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Param   string `json:"param,omitempty"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("%s: %s (param: %s)", e.Kind, e.Message, e.Param)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error for error wrapping.
func (e *Error) Unwrap() error {
	return e.Err
}

// Kind categorizes relay errors.
type Kind string

const (
	KindNotFound            Kind = "not_found"
	KindNotConnected        Kind = "not_connected"
	KindTimeout             Kind = "timeout"
	KindCancelled           Kind = "cancelled"
	KindUpstreamUnavailable Kind = "upstream_unavailable"
	KindInternalConflict    Kind = "internal_conflict"
	KindInvalidArgument     Kind = "invalid_argument"
	KindProtocol            Kind = "protocol_error"
)

// IsKind reports whether err is a relay *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var re *Error
	if !errors.As(err, &re) {
		return false
	}
	return re.Kind == kind
}

// NewNotFoundError creates a not found error.
func NewNotFoundError(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// NewNotConnectedError creates a not connected error.
func NewNotConnectedError(message string) *Error {
	return &Error{Kind: KindNotConnected, Message: message}
}

// NewTimeoutError creates a timeout error.
func NewTimeoutError(message string) *Error {
	return &Error{Kind: KindTimeout, Message: message}
}

// NewCancelledError creates a cancellation error wrapping the context cause.
func NewCancelledError(message string, cause error) *Error {
	return &Error{Kind: KindCancelled, Message: message, Err: cause}
}

// NewUpstreamUnavailableError creates an upstream transport failure error.
func NewUpstreamUnavailableError(message string, cause error) *Error {
	return &Error{Kind: KindUpstreamUnavailable, Message: message, Err: cause}
}

// NewInternalConflictError creates an internal conflict error.
func NewInternalConflictError(message string) *Error {
	return &Error{Kind: KindInternalConflict, Message: message}
}

// NewInvalidArgumentError creates an invalid argument error naming the parameter.
func NewInvalidArgumentError(message, param string) *Error {
	return &Error{Kind: KindInvalidArgument, Message: message, Param: param}
}

// NewProtocolError creates a protocol error.
func NewProtocolError(message string, cause error) *Error {
	return &Error{Kind: KindProtocol, Message: message, Err: cause}
}
