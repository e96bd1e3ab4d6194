package shared

import (
	"errors"
	"strings"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches domain errors by code so wrapped copies of a sentinel compare equal
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Wrap returns a copy of the domain error carrying cause
func (e *DomainError) Wrap(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Err:     cause,
	}
}

// Common domain errors
var (
	ErrNotFound             = NewDomainError("NOT_FOUND", "Resource not found")
	ErrInvalidInput         = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrForbidden            = NewDomainError("FORBIDDEN", "Access to this resource is forbidden")
	ErrInvalidState         = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrPersistence          = NewDomainError("PERSISTENCE_ERROR", "Storage is unavailable")
	ErrNotificationDelivery = NewDomainError("NOTIFICATION_DELIVERY_FAILED", "Notification could not be delivered")
)

// FieldError describes a single rejected field of an input payload
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when an input payload fails structural checks.
// Details lists every rejected field so the caller can correct all of them at once.
type ValidationError struct {
	Message string
	Details []FieldError
}

// NewValidationError creates a validation error with the given field details
func NewValidationError(message string, details ...FieldError) *ValidationError {
	return &ValidationError{
		Message: message,
		Details: details,
	}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if len(e.Details) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		parts = append(parts, d.Field+": "+d.Message)
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

// Is lets errors.Is(err, ErrInvalidInput) match any validation error
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}
