package domain

import (
	"errors"
	"fmt"
)

// Application errors
var (
	// ErrNotFound record not found
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate duplicate record
	ErrDuplicate = errors.New("duplicate record")

	// ErrInvalidInput malformed input data
	ErrInvalidInput = errors.New("invalid input data")

	// ErrUnauthenticated bad credentials, session or API key
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrPlanRequired the account's plan does not allow the operation
	ErrPlanRequired = errors.New("plan not eligible")
)

// Quota denial reasons
const (
	ReasonDailyLimit   = "daily_limit_exceeded"
	ReasonMonthlyLimit = "monthly_limit_exceeded"
	ReasonAPILimit     = "api_limit_exceeded"
)

// DuplicateError reports a conflicting record
type DuplicateError struct {
	Entity string
	Field  string
	Value  string
}

// Error implements the error interface
func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s with %s '%s' already exists", e.Entity, e.Field, e.Value)
}

// Is matches DuplicateError against ErrDuplicate
func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicate
}

// NewDuplicateError creates a new duplicate error
func NewDuplicateError(entity, field, value string) *DuplicateError {
	return &DuplicateError{Entity: entity, Field: field, Value: value}
}

// NotFoundError reports a missing record
type NotFoundError struct {
	Entity string
	ID     string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s '%s' not found", e.Entity, e.ID)
}

// Is matches NotFoundError against ErrNotFound
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new not-found error
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}
