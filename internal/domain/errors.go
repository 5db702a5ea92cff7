package domain

import "errors"

// Domain errors
var (
	ErrEngineNotReady      = errors.New("engine not ready")
	ErrInvalidPageIndex    = errors.New("invalid page index")
	ErrDocumentLoadFailure = errors.New("document load failure")
	ErrRenderFailure       = errors.New("render failure")
	ErrChannelTerminated   = errors.New("engine channel terminated")
	ErrNoDocument          = errors.New("no document loaded")
	ErrInvalidScale        = errors.New("scale must be positive")
	ErrResourceNotFound    = errors.New("resource not found")
	ErrInvalidFile         = errors.New("invalid file")
	ErrFileTooLarge        = errors.New("file too large")
)

// ValidationError represents a validation error with field and message information.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}
