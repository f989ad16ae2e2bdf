package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents stable error codes for request failures
type ErrorCode string

const (
	// PathOutsideRoot indicates the resolved file lies outside the root directory
	PathOutsideRoot ErrorCode = "PATH_OUTSIDE_ROOT"
	// OpenFailed indicates the file exists but could not be opened
	OpenFailed ErrorCode = "OPEN_FAILED"
	// StatFailed indicates the opened file could not be inspected
	StatFailed ErrorCode = "STAT_FAILED"
	// EncoderFailed indicates the compressing writer could not be created
	EncoderFailed ErrorCode = "ENCODER_FAILED"
	// TransferFailed indicates the body copy broke mid-stream
	TransferFailed ErrorCode = "TRANSFER_FAILED"
	// CloseFailed indicates the compressing writer failed to flush on close
	CloseFailed ErrorCode = "CLOSE_FAILED"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// ServeError represents a request failure with a code and optional details
type ServeError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	cause   error       // Underlying error (not exported to JSON)
}

// NewServeError creates a new ServeError
func NewServeError(code ErrorCode, message string, cause error) *ServeError {
	return &ServeError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Error implements the error interface
func (e *ServeError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *ServeError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *ServeError) WithDetails(details interface{}) *ServeError {
	e.Details = details
	return e
}

// CodeOf returns the code of the first ServeError in err's chain,
// or InternalError if there is none.
func CodeOf(err error) ErrorCode {
	var serveErr *ServeError
	if stderrors.As(err, &serveErr) {
		return serveErr.Code
	}
	return InternalError
}

// HasCode reports whether err carries the given code
func HasCode(err error, code ErrorCode) bool {
	var serveErr *ServeError
	return stderrors.As(err, &serveErr) && serveErr.Code == code
}
