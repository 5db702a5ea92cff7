package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"pdf-tile-renderer/internal/domain"
)

func TestFromDomain(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		typ    ErrorType
		status int
	}{
		{"not ready", domain.ErrEngineNotReady, ErrorTypeEngineNotReady, http.StatusServiceUnavailable},
		{"terminated", fmt.Errorf("render: %w", domain.ErrChannelTerminated), ErrorTypeTerminated, http.StatusServiceUnavailable},
		{"page", domain.ErrInvalidPageIndex, ErrorTypeInvalidPage, http.StatusNotFound},
		{"load", fmt.Errorf("%w: no header", domain.ErrDocumentLoadFailure), ErrorTypeDocumentLoad, http.StatusUnprocessableEntity},
		{"invalid file", domain.ErrInvalidFile, ErrorTypeDocumentLoad, http.StatusUnprocessableEntity},
		{"render", domain.ErrRenderFailure, ErrorTypeRender, http.StatusInternalServerError},
		{"too large", domain.ErrFileTooLarge, ErrorTypePayloadTooLarge, http.StatusRequestEntityTooLarge},
		{"no document", domain.ErrNoDocument, ErrorTypeNotFound, http.StatusNotFound},
		{"blob", domain.ErrResourceNotFound, ErrorTypeNotFound, http.StatusNotFound},
		{"scale", domain.ErrInvalidScale, ErrorTypeValidation, http.StatusBadRequest},
		{"validation", &domain.ValidationError{Field: "zoom", Message: "bad zoom"}, ErrorTypeValidation, http.StatusBadRequest},
		{"other", errors.New("disk on fire"), ErrorTypeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		appErr := FromDomain(tt.err)
		if appErr.Type != tt.typ {
			t.Fatalf("%s: expected type %s, got %s", tt.name, tt.typ, appErr.Type)
		}
		if appErr.StatusCode != tt.status {
			t.Fatalf("%s: expected status %d, got %d", tt.name, tt.status, appErr.StatusCode)
		}
		if GetStatusCode(tt.err) != tt.status {
			t.Fatalf("%s: GetStatusCode mismatch", tt.name)
		}
	}
}

func TestFromDomain_KeepsAppErrorAndCause(t *testing.T) {
	if FromDomain(nil) != nil {
		t.Fatalf("expected nil for nil error")
	}

	orig := NewNotFoundError("tile gone")
	if got := FromDomain(fmt.Errorf("wrapped: %w", orig)); got != orig {
		t.Fatalf("expected wrapped AppError to be returned unchanged")
	}

	appErr := FromDomain(domain.ErrRenderFailure)
	if !errors.Is(appErr, domain.ErrRenderFailure) {
		t.Fatalf("expected cause to unwrap to the domain error")
	}
	if !IsType(appErr, ErrorTypeRender) {
		t.Fatalf("expected IsType to match render failure")
	}
}

func TestAppError_Error(t *testing.T) {
	err := NewValidationError("bad zoom", "zoom")
	if err.Error() != "validation: bad zoom (zoom)" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
	if NewNetworkError("fetch failed", nil).StatusCode != http.StatusBadGateway {
		t.Fatalf("expected network errors to map to 502")
	}
}
