// Package apperrors provides structured application errors with HTTP status mapping.
package apperrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for classification via errors.Is().
var (
	ErrValidation          = errors.New("validation error")
	ErrConfiguration       = errors.New("configuration error")
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrProvisioning        = errors.New("provisioning error")
	ErrProvisioningTimeout = errors.New("provisioning timeout")
	ErrCancellation        = errors.New("cancellation error")
	ErrTracking            = errors.New("tracking error")
	ErrInternal            = errors.New("internal error")
)

// Error provides structured error with context.
type Error struct {
	Sentinel error  // Wrapped sentinel for errors.Is() classification
	Message  string // Human-readable message
	Field    string // For validation errors (e.g., "threads", "inputs")
	Resource string // For not found/conflict (e.g., "job")
	Op       string // Operation that failed (e.g., "gce.createInstance")
	Cause    error  // Underlying error
}

// Error returns the human-readable error message.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the sentinel error for errors.Is() classification.
func (e *Error) Unwrap() error {
	return e.Sentinel
}

// Validation creates a validation error for a specific field.
func Validation(field, message string) error {
	return &Error{
		Sentinel: ErrValidation,
		Message:  message,
		Field:    field,
	}
}

// Configuration creates an error for missing or unusable configuration.
// These are rejected before any remote call is made.
func Configuration(field, message string) error {
	return &Error{
		Sentinel: ErrConfiguration,
		Message:  message,
		Field:    field,
	}
}

// NotFound creates a not found error for a resource.
func NotFound(resource, id string) error {
	return &Error{
		Sentinel: ErrNotFound,
		Message:  fmt.Sprintf("%s %s not found", resource, id),
		Resource: resource,
	}
}

// Conflict creates a conflict error for a resource.
func Conflict(resource, id, reason string) error {
	return &Error{
		Sentinel: ErrConflict,
		Message:  reason,
		Resource: resource,
	}
}

// Provisioning creates an error for a failed compute gateway call.
// The instance may be left in an indeterminate state requiring manual cleanup.
func Provisioning(op string, cause error) error {
	return &Error{
		Sentinel: ErrProvisioning,
		Message:  fmt.Sprintf("%s: %v", op, cause),
		Op:       op,
		Cause:    cause,
	}
}

// ProvisioningTimeout creates an error for a bounded instance-creation wait
// that expired before the operation reached a terminal state.
func ProvisioningTimeout(op string, cause error) error {
	return &Error{
		Sentinel: ErrProvisioningTimeout,
		Message:  fmt.Sprintf("%s: timed out waiting for operation", op),
		Op:       op,
		Cause:    cause,
	}
}

// Cancellation creates an error for a failed instance deletion.
// Deleting an already-deleted instance is not a cancellation error.
func Cancellation(op string, cause error) error {
	return &Error{
		Sentinel: ErrCancellation,
		Message:  fmt.Sprintf("%s: %v", op, cause),
		Op:       op,
		Cause:    cause,
	}
}

// Tracking creates an error for a failed status poll. Callers fold these
// into the status payload rather than propagating them.
func Tracking(op string, cause error) error {
	return &Error{
		Sentinel: ErrTracking,
		Message:  fmt.Sprintf("%s: %v", op, cause),
		Op:       op,
		Cause:    cause,
	}
}

// Internal creates an internal error wrapping an underlying cause.
func Internal(op string, cause error) error {
	return &Error{
		Sentinel: ErrInternal,
		Message:  fmt.Sprintf("%s: %v", op, cause),
		Op:       op,
		Cause:    cause,
	}
}
