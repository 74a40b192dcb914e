// Package domain defines the error taxonomy shared by the pool, the
// protocol layer, the worker and the session.
package domain

import (
	"errors"
	"fmt"
)

// DomainError is an error with a stable code.
//
// Codes have the form CG-<AREA>-<NNNN>; the last four digits follow HTTP
// status conventions (4xxx caller fault, 5xxx generator fault).
type DomainError struct {
	Code    string // Error code (e.g., "CG-ARG-4000")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// Wrap returns a copy of the error wrapping cause.
func (e *DomainError) Wrap(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// InvalidArgument returns ErrInvalidArgument with formatted details.
func InvalidArgument(format string, args ...any) *DomainError {
	return ErrInvalidArgument.WithDetails(fmt.Sprintf(format, args...))
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

var (
	// ErrInvalidArgument indicates a caller supplied a value outside its domain
	// (non-positive count, negative or fractional id start, negative sizes).
	ErrInvalidArgument = NewDomainError("CG-ARG-4000", "invalid argument")

	// ErrSessionClosed indicates Get was called after Close.
	ErrSessionClosed = NewDomainError("CG-SESS-4100", "session closed")

	// ErrRefillFailed indicates the fill primitive failed during a refill.
	ErrRefillFailed = NewDomainError("CG-POOL-5000", "failed to refill token pool")

	// ErrRequestFailed indicates the worker failed while serving one request,
	// either with a request-scoped error or an unexpected reply.
	ErrRequestFailed = NewDomainError("CG-REQ-5000", "request failed")

	// ErrWorkerError indicates an untargeted error reported by the worker.
	ErrWorkerError = NewDomainError("CG-WORK-5000", "worker error")

	// ErrChannelClosed indicates the port between session and worker failed or was closed.
	ErrChannelClosed = NewDomainError("CG-CHAN-5020", "channel closed")

	// ErrInitFailed indicates the worker never became ready.
	ErrInitFailed = NewDomainError("CG-INIT-5030", "failed to initialize worker")
)
