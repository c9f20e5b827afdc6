// Package mcperr defines the protocol-level error taxonomy for the gateway.
// Codes align with JSON-RPC 2.0; validation and catalog-integrity failures
// are raised as these errors (rejecting the call outright), while upstream
// call failures travel inside the result envelope instead.
package mcperr

import "fmt"

// Error codes aligned with JSON-RPC 2.0 specification.
const (
	CodeMethodNotFound = -32601 // Unknown tool or method
	CodeInvalidParams  = -32602 // Invalid or missing call arguments
	CodeInternalError  = -32603 // Internal error (including catalog defects)
	CodeRequestTimeout = -32001 // Upstream request timed out
)

// Error is a protocol-level error with a JSON-RPC code.
type Error struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *Error) Error() string {
	return e.Message
}

// KindString returns a stable name for the error code, used in envelopes
// and log fields.
func (e *Error) KindString() string {
	switch e.Code {
	case CodeMethodNotFound:
		return "MethodNotFound"
	case CodeInvalidParams:
		return "InvalidParams"
	case CodeRequestTimeout:
		return "RequestTimeout"
	default:
		return "InternalError"
	}
}

// MethodNotFound creates a method-not-found protocol error.
func MethodNotFound(format string, args ...interface{}) *Error {
	return &Error{Code: CodeMethodNotFound, Message: fmt.Sprintf(format, args...)}
}

// InvalidParams creates an invalid-params protocol error.
func InvalidParams(format string, args ...interface{}) *Error {
	return &Error{Code: CodeInvalidParams, Message: fmt.Sprintf(format, args...)}
}

// Internal creates an internal protocol error.
func Internal(format string, args ...interface{}) *Error {
	return &Error{Code: CodeInternalError, Message: fmt.Sprintf(format, args...)}
}

// RequestTimeout creates a request-timeout protocol error.
func RequestTimeout(format string, args ...interface{}) *Error {
	return &Error{Code: CodeRequestTimeout, Message: fmt.Sprintf(format, args...)}
}

// WithData attaches structured context to the error for programmatic consumers.
func (e *Error) WithData(data interface{}) *Error {
	e.Data = data
	return e
}
