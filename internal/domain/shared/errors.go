// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrFutureTimestamp = errors.New("timestamp cannot be in the future")

	// State errors
	ErrInvalidState     = errors.New("invalid state")
	ErrStateTransition  = errors.New("invalid state transition")
	ErrAlreadyProcessed = errors.New("already processed")
	ErrExpired          = errors.New("expired")

	// Concurrency errors
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrOptimisticLock         = errors.New("optimistic lock failure")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
	ErrUnresolvable       = errors.New("reference unresolvable")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "completion", "progress", "gamification"
	Op      string // Operation that failed, e.g., "Record", "Compute"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Completion ledger errors
var (
	ErrCompletionNotFound    = NewDomainError("completion", "Find", ErrNotFound, "completion record not found")
	ErrNegativeTimeDelta     = NewDomainError("completion", "Record", ErrNegativeValue, "time spent delta cannot be negative")
	ErrProgressOutOfRange    = NewDomainError("completion", "Record", ErrValueOutOfRange, "progress percentage must be between 0 and 100")
	ErrQuizScoreOutOfRange   = NewDomainError("completion", "Record", ErrValueOutOfRange, "quiz score must be between 0 and 100")
	ErrCompletionKeyConflict = NewDomainError("completion", "Record", ErrConcurrentModification, "concurrent write on the same record")
)

// Catalog errors
var (
	ErrLessonNotFound     = NewDomainError("catalog", "ResolveLesson", ErrNotFound, "lesson not found in catalog")
	ErrCourseNotFound     = NewDomainError("catalog", "ListLessons", ErrNotFound, "course not found in catalog")
	ErrModuleNotFound     = NewDomainError("catalog", "ListLessons", ErrNotFound, "module not found in catalog")
	ErrEnrollmentNotFound = NewDomainError("catalog", "GetEnrollment", ErrNotFound, "enrollment not found")
	ErrCatalogUnavailable = NewDomainError("catalog", "Resolve", ErrServiceUnavailable, "content catalog unavailable")
)

// Gamification errors
var (
	ErrPointEventExists = NewDomainError("gamification", "Append", ErrAlreadyExists, "point event already recorded")
	ErrBadgeExists      = NewDomainError("gamification", "Award", ErrAlreadyExists, "badge already earned")
	ErrBadgeNotFound    = NewDomainError("gamification", "Find", ErrNotFound, "badge not found")
)

// Student profile errors
var (
	ErrProfileNotFound = NewDomainError("student", "Find", ErrNotFound, "student profile not found")
	ErrInvalidStudent  = NewDomainError("student", "Validate", ErrInvalidID, "invalid student ID")
)

// Warning represents a non-fatal condition encountered during aggregation.
// Warnings never abort computation; they ride along with partial results so
// dashboards can show best-effort numbers while the condition gets logged.
type Warning struct {
	// Code is a stable machine-readable identifier.
	Code string `json:"code"`

	// Message describes the condition.
	Message string `json:"message"`

	// EntityID is the lesson/module/course the warning refers to, if any.
	EntityID string `json:"entity_id,omitempty"`
}

// Warning codes.
const (
	WarnDanglingReference  = "DANGLING_REFERENCE"
	WarnCatalogUnavailable = "CATALOG_UNAVAILABLE"
	WarnPartialResult      = "PARTIAL_RESULT"
)

// NewWarning creates a warning with the given code and entity.
func NewWarning(code, entityID, message string) Warning {
	return Warning{Code: code, EntityID: entityID, Message: message}
}
