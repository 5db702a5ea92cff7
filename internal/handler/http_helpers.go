package handler

import (
	"encoding/json"
	"net/http"

	apperrors "pdf-tile-renderer/pkg/errors"
)

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response (helper function)
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeAppError maps err onto its status code and writes it
func writeAppError(w http.ResponseWriter, err error) *apperrors.AppError {
	appErr := apperrors.FromDomain(err)
	writeError(w, appErr.StatusCode, appErr.Message)
	return appErr
}
