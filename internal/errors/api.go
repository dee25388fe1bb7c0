package errors

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"
)

// APIError is the structured error body returned by the HTTP surface.
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// Render implements the render.Renderer interface for chi/render.
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// NewAPIError creates a new APIError with the given parameters.
func NewAPIError(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// Predefined API errors for common scenarios.
var (
	ErrInvalidRequest = NewAPIError(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format")
	ErrRunNotFound    = NewAPIError(http.StatusNotFound, "RUN_NOT_FOUND", "Pipeline run not found")
	ErrRunInProgress  = NewAPIError(http.StatusConflict, "RUN_IN_PROGRESS", "A pipeline run is already in progress")
	ErrInternalServer = NewAPIError(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error")
	ErrNoWarehouse    = NewAPIError(http.StatusNotFound, "NO_WAREHOUSE_DATA", "No committed warehouse data is available")
)

// ToAPIError maps an application error to the HTTP error body served to
// clients, preserving the taxonomy type as the error code.
func ToAPIError(err error) *APIError {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return ErrInternalServer
	}

	status := http.StatusInternalServerError
	switch appErr.Type {
	case ErrTypeValidation, ErrTypeConfig:
		status = http.StatusBadRequest
	case ErrTypeNotFound:
		status = http.StatusNotFound
	case ErrTypeConflict:
		status = http.StatusConflict
	}

	api := NewAPIError(status, string(appErr.Type), appErr.Message)
	if len(appErr.Context) > 0 {
		api.Details = appErr.Context
	}
	return api
}
