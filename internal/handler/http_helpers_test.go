package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pdf-tile-renderer/internal/domain"
)

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()
	writeError(rr, http.StatusTeapot, "nope")

	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected content type application/json, got %s", ct)
	}
	if strings.TrimSpace(rr.Body.String()) != `{"error":"nope"}` {
		t.Fatalf("unexpected response body: %s", rr.Body.String())
	}
}

func TestWriteAppError(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{domain.ErrEngineNotReady, http.StatusServiceUnavailable},
		{fmt.Errorf("page 9: %w", domain.ErrInvalidPageIndex), http.StatusNotFound},
		{fmt.Errorf("%w: bad xref", domain.ErrDocumentLoadFailure), http.StatusUnprocessableEntity},
		{domain.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{&domain.ValidationError{Field: "zoom", Message: "zoom must be positive"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		rr := httptest.NewRecorder()
		writeAppError(rr, tt.err)
		if rr.Code != tt.status {
			t.Fatalf("%v: expected status %d, got %d", tt.err, tt.status, rr.Code)
		}
	}
}
