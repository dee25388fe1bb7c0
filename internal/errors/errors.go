package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies a pipeline error per the run-handling policy:
// source-read and transform faults abort the run and trigger rollback,
// quality violations are reported without aborting.
type ErrorType string

const (
	ErrTypeSourceRead ErrorType = "SOURCE_READ"
	ErrTypeTransform  ErrorType = "TRANSFORM"
	ErrTypeQuality    ErrorType = "QUALITY"
	ErrTypeStorage    ErrorType = "STORAGE"
	ErrTypeConfig     ErrorType = "CONFIG"
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeNotFound   ErrorType = "NOT_FOUND"
	ErrTypeConflict   ErrorType = "CONFLICT"
)

// AppError is an application error carrying its taxonomy type, the
// failing stage and entity where known, and arbitrary diagnostic context.
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to reach the cause.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext attaches a diagnostic key/value pair to the error.
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithStage records the pipeline stage that was executing when the error
// occurred.
func (e *AppError) WithStage(stage string) *AppError {
	return e.WithContext("stage", stage)
}

// WithEntity records the source entity or target table being processed.
func (e *AppError) WithEntity(entity string) *AppError {
	return e.WithContext("entity", entity)
}

// NewAppError creates a new application error.
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewSourceReadError creates an error for an unreachable or malformed
// upstream provider. The entity name travels with the error.
func NewSourceReadError(entity string, cause error) *AppError {
	return NewAppError(ErrTypeSourceRead, fmt.Sprintf("reading source entity %s", entity), cause).
		WithEntity(entity)
}

// NewTransformError creates an error for a hard precondition violated
// during a transformation stage.
func NewTransformError(message string, cause error) *AppError {
	return NewAppError(ErrTypeTransform, message, cause)
}

// NewStorageError creates a storage-related error.
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewConfigError creates a configuration error.
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// NewValidationError creates a request/input validation error.
func NewValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewNotFoundError creates a not-found error for the named resource.
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewConflictError creates a conflict error, used when a run is rejected
// because another run holds the single-flight lock.
func NewConflictError(message string) *AppError {
	return NewAppError(ErrTypeConflict, message, nil)
}

// TypeOf returns the taxonomy type of err, or the empty string when err
// is not an AppError.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// IsType reports whether err is an AppError of the given type.
func IsType(err error, t ErrorType) bool {
	return TypeOf(err) == t
}
