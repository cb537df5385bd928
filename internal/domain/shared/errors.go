package shared

import "fmt"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches domain errors by code so wrapped sentinels compare equal
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrConflict            = NewDomainError("CONFLICT", "Resource conflict")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrUnauthorized        = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrForbidden           = NewDomainError("FORBIDDEN", "Access to this resource is forbidden")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrInsufficientStock   = NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock available")
)

// NotFound builds a NOT_FOUND error naming the entity and the key that was looked up
func NotFound(entity string, key any) *DomainError {
	return NewDomainError("NOT_FOUND", fmt.Sprintf("%s not found: %v", entity, key))
}

// Conflict builds an ALREADY_EXISTS error for a unique field
func Conflict(field string, value any) *DomainError {
	return NewDomainError("ALREADY_EXISTS", fmt.Sprintf("%s with value \"%v\" already exists", field, value))
}

// InvalidState builds an INVALID_STATE error with a custom message
func InvalidState(format string, args ...any) *DomainError {
	return NewDomainError("INVALID_STATE", fmt.Sprintf(format, args...))
}

// InvalidInput builds an INVALID_INPUT error with a custom message
func InvalidInput(format string, args ...any) *DomainError {
	return NewDomainError("INVALID_INPUT", fmt.Sprintf(format, args...))
}

// InsufficientStock builds an INSUFFICIENT_STOCK error with a custom message
func InsufficientStock(format string, args ...any) *DomainError {
	return NewDomainError("INSUFFICIENT_STOCK", fmt.Sprintf(format, args...))
}
