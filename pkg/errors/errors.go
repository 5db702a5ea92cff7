package errors

import (
	"errors"
	"fmt"
	"net/http"

	"pdf-tile-renderer/internal/domain"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation      ErrorType = "validation"
	ErrorTypeNotFound        ErrorType = "not_found"
	ErrorTypeEngineNotReady  ErrorType = "engine_not_ready"
	ErrorTypeInvalidPage     ErrorType = "invalid_page_index"
	ErrorTypeDocumentLoad    ErrorType = "document_load_failure"
	ErrorTypeRender          ErrorType = "render_failure"
	ErrorTypeTerminated      ErrorType = "channel_terminated"
	ErrorTypeInternal        ErrorType = "internal"
	ErrorTypeNetwork         ErrorType = "network"
	ErrorTypePayloadTooLarge ErrorType = "payload_too_large"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"-"`
	Cause      error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a new validation error
func NewValidationError(message string, details ...string) *AppError {
	detail := ""
	if len(details) > 0 {
		detail = details[0]
	}
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		Details:    detail,
		StatusCode: http.StatusBadRequest,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

// NewInternalError creates a new internal server error
func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NewNetworkError creates a new network error
func NewNetworkError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeNetwork,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

func newEngineError(t ErrorType, status int, message string, cause error) *AppError {
	return &AppError{
		Type:       t,
		Message:    message,
		StatusCode: status,
		Cause:      cause,
	}
}

// FromDomain maps domain sentinel errors onto application errors.
// Errors that are already AppErrors are returned unchanged.
func FromDomain(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, domain.ErrEngineNotReady):
		return newEngineError(ErrorTypeEngineNotReady, http.StatusServiceUnavailable, "rendering engine is not ready", err)
	case errors.Is(err, domain.ErrChannelTerminated):
		return newEngineError(ErrorTypeTerminated, http.StatusServiceUnavailable, "rendering engine was terminated", err)
	case errors.Is(err, domain.ErrInvalidPageIndex):
		return newEngineError(ErrorTypeInvalidPage, http.StatusNotFound, "page index out of range", err)
	case errors.Is(err, domain.ErrDocumentLoadFailure), errors.Is(err, domain.ErrInvalidFile):
		return newEngineError(ErrorTypeDocumentLoad, http.StatusUnprocessableEntity, "document could not be loaded", err)
	case errors.Is(err, domain.ErrRenderFailure):
		return newEngineError(ErrorTypeRender, http.StatusInternalServerError, "tile rendering failed", err)
	case errors.Is(err, domain.ErrFileTooLarge):
		return newEngineError(ErrorTypePayloadTooLarge, http.StatusRequestEntityTooLarge, "document exceeds size limit", err)
	case errors.Is(err, domain.ErrNoDocument), errors.Is(err, domain.ErrResourceNotFound):
		return &AppError{Type: ErrorTypeNotFound, Message: err.Error(), StatusCode: http.StatusNotFound, Cause: err}
	case errors.Is(err, domain.ErrInvalidScale):
		return &AppError{Type: ErrorTypeValidation, Message: err.Error(), StatusCode: http.StatusBadRequest, Cause: err}
	}

	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		return NewValidationError(vErr.Message, vErr.Field)
	}
	return NewInternalError("internal error", err)
}

// IsType checks if the error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// GetStatusCode returns the HTTP status code for an error
func GetStatusCode(err error) int {
	if appErr := FromDomain(err); appErr != nil {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
