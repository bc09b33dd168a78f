// Package domain defines core types, interfaces, and errors for the planner service.
package domain

import "fmt"

// UnauthenticatedError indicates a missing, malformed, expired, or otherwise
// invalid credential. It always maps to a challenge response.
type UnauthenticatedError struct {
	Message string
}

func (e *UnauthenticatedError) Error() string { return e.Message }

// AccessDeniedError indicates an authenticated caller failed a named policy check.
type AccessDeniedError struct {
	Message string
}

func (e *AccessDeniedError) Error() string { return e.Message }

// StepUpRequiredError indicates the caller is authenticated but the credential
// lacks strong-authentication evidence for a protected operation. Kept distinct
// from AccessDeniedError so clients can prompt for re-authentication instead of
// treating it as a terminal denial.
type StepUpRequiredError struct {
	Message string
}

func (e *StepUpRequiredError) Error() string { return e.Message }

// NotFoundError indicates a resource was not found within the caller's owner
// scope. A resource owned by another tenant produces the same error.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ValidationError indicates invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConflictError indicates a conflict (e.g., duplicate resource name).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// PreconditionFailedError indicates a conditional write carried a stale or
// malformed version token. Malformed tokens are not distinguished from
// mismatched ones.
type PreconditionFailedError struct {
	Message string
}

func (e *PreconditionFailedError) Error() string { return e.Message }

// ErrUnauthenticated creates an UnauthenticatedError with a formatted message.
func ErrUnauthenticated(format string, args ...interface{}) *UnauthenticatedError {
	return &UnauthenticatedError{Message: fmt.Sprintf(format, args...)}
}

// ErrAccessDenied creates an AccessDeniedError with a formatted message.
func ErrAccessDenied(format string, args ...interface{}) *AccessDeniedError {
	return &AccessDeniedError{Message: fmt.Sprintf(format, args...)}
}

// ErrStepUpRequired creates a StepUpRequiredError with a formatted message.
func ErrStepUpRequired(format string, args ...interface{}) *StepUpRequiredError {
	return &StepUpRequiredError{Message: fmt.Sprintf(format, args...)}
}

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrConflict creates a ConflictError with a formatted message.
func ErrConflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// ErrPreconditionFailed creates a PreconditionFailedError with a formatted message.
func ErrPreconditionFailed(format string, args ...interface{}) *PreconditionFailedError {
	return &PreconditionFailedError{Message: fmt.Sprintf(format, args...)}
}
