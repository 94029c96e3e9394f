package carrier

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind is the closed enumeration of error categories. Every failure that
// crosses a component boundary carries exactly one of these codes.
type Kind string

const (
	KindValidation     Kind = "VALIDATION_ERROR"
	KindAuthentication Kind = "AUTHENTICATION_ERROR"
	KindAuthorization  Kind = "AUTHORIZATION_ERROR"
	KindRateLimit      Kind = "RATE_LIMIT_ERROR"
	KindCarrierAPI     Kind = "CARRIER_API_ERROR"
	KindNetwork        Kind = "NETWORK_ERROR"
	KindTimeout        Kind = "TIMEOUT_ERROR"
	KindParse          Kind = "PARSE_ERROR"
	KindConfiguration  Kind = "CONFIGURATION_ERROR"
	KindUnknown        Kind = "UNKNOWN_ERROR"
)

// Error is the only error type that crosses component boundaries. All other
// errors are caught and re-wrapped before leaving a component.
type Error struct {
	Kind            Kind
	Message         string
	Carrier         string
	HTTPStatus      int
	UpstreamCode    string
	UpstreamMessage string
	Retryable       bool
	Cause           error
}

// Error implements the error interface.
func (e *Error) Error() string {
	prefix := string(e.Kind)
	if e.Carrier != "" {
		prefix = e.Carrier + " " + prefix
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is; two Errors match when their kinds match.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// MarshalJSON renders the error as the structured value callers of the
/// public surface observe: a stable code plus the details record.
func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Code            Kind   `json:"code"`
		Message         string `json:"message"`
		Carrier         string `json:"carrier,omitempty"`
		HTTPStatus      int    `json:"httpStatus,omitempty"`
		UpstreamCode    string `json:"upstreamCode,omitempty"`
		UpstreamMessage string `json:"upstreamMessage,omitempty"`
		Retryable       bool   `json:"retryable"`
	}{
		Code:            e.Kind,
		Message:         e.Message,
		Carrier:         e.Carrier,
		HTTPStatus:      e.HTTPStatus,
		UpstreamCode:    e.UpstreamCode,
		UpstreamMessage: e.UpstreamMessage,
		Retryable:       e.Retryable,
	})
}

// NewError creates a new Error of the given kind.
func NewError(kind Kind, message string) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
	}
}

// WithCarrier attaches the carrier identifier.
func (e *Error) WithCarrier(name string) *Error {
	e.Carrier = name
	return e
}

// WithCause attaches the underlying cause.
func (e *Error) WithCause(err error) *Error {
	e.Cause = err
	return e
}

// WithHTTPStatus attaches the upstream HTTP status code.
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

// WithUpstream attaches the carrier's own error code and message.
func (e *Error) WithUpstream(code, message string) *Error {
	e.UpstreamCode = code
	e.UpstreamMessage = message
	return e
}

// WithRetryable marks whether the caller may retry.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// IsRetryable returns true if the error carries a retryable classification.
func IsRetryable(err error) bool {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Retryable
	}
	return false
}

// KindOf returns the taxonomy kind of an error, or KindUnknown for errors
// that escaped classification.
func KindOf(err error) Kind {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Kind
	}
	return KindUnknown
}

// AsError returns err as a classified *Error, wrapping unclassified errors
// as KindUnknown so callers of the public surface never observe an opaque
// error value.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr
	}
	return NewError(KindUnknown, err.Error()).WithCause(err)
}
