// Package handler provides HTTP handlers for the API.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"pdf-tile-renderer/internal/domain"
	"pdf-tile-renderer/internal/service"
	"pdf-tile-renderer/internal/viewer"
	apperrors "pdf-tile-renderer/pkg/errors"
)

// DocumentService is the document flow the handlers drive.
type DocumentService interface {
	Open(ctx context.Context, src service.DocumentSource) (*service.DocumentInfo, error)
	Info() (*service.DocumentInfo, error)
	Viewer() (*viewer.Viewer, error)
	Close(ctx context.Context) error
}

// DocumentHandler handles document-related HTTP requests
type DocumentHandler struct {
	documentService DocumentService
	maxFileSize     int64
	logger          domain.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(documentService DocumentService, maxFileSize int64, logger domain.Logger) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
		maxFileSize:     maxFileSize,
		logger:          logger,
	}
}

type openDocumentRequest struct {
	Location string `json:"location"`
}

// OpenDocument loads a document from the request body. The body is either
// the PDF itself, a multipart form with a "file" field, or a JSON object
// naming a location to fetch.
func (h *DocumentHandler) OpenDocument(w http.ResponseWriter, r *http.Request) {
	src, err := h.readSource(r)
	if err != nil {
		writeAppError(w, err)
		return
	}

	info, err := h.documentService.Open(r.Context(), src)
	if err != nil {
		appErr := writeAppError(w, err)
		if apperrors.IsType(err, apperrors.ErrorTypeNetwork) {
			h.logger.Warn("Failed to fetch document", "location", src.Location, "status", appErr.StatusCode, "error", err)
			return
		}
		h.logger.Error("Failed to open document", err, "location", src.Location, "status", appErr.StatusCode)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

func (h *DocumentHandler) readSource(r *http.Request) (service.DocumentSource, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		var req openDocumentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return service.DocumentSource{}, &domain.ValidationError{Field: "body", Message: "Invalid request body"}
		}
		return service.DocumentSource{Location: req.Location}, nil
	case "multipart/form-data":
		if err := r.ParseMultipartForm(h.maxFileSize); err != nil {
			return service.DocumentSource{}, &domain.ValidationError{Field: "file", Message: "Invalid multipart form"}
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return service.DocumentSource{}, &domain.ValidationError{Field: "file", Message: "File is required"}
		}
		defer file.Close()
		if ext := strings.ToLower(filepath.Ext(header.Filename)); ext != ".pdf" {
			return service.DocumentSource{}, fmt.Errorf("%w: unsupported file type %q", domain.ErrInvalidFile, ext)
		}
		return h.readBytes(file)
	default:
		return h.readBytes(r.Body)
	}
}

func (h *DocumentHandler) readBytes(body io.Reader) (service.DocumentSource, error) {
	if h.maxFileSize > 0 {
		// one extra byte lets the service report the size violation
		body = io.LimitReader(body, h.maxFileSize+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return service.DocumentSource{}, &domain.ValidationError{Field: "body", Message: "Failed to read document"}
	}
	if len(data) == 0 {
		return service.DocumentSource{}, &domain.ValidationError{Field: "body", Message: "Document body is empty"}
	}
	return service.DocumentSource{Data: data}, nil
}

// GetDocument describes the open document
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	info, err := h.documentService.Info()
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// CloseDocument tears down the viewer and releases the document
func (h *DocumentHandler) CloseDocument(w http.ResponseWriter, r *http.Request) {
	if err := h.documentService.Close(r.Context()); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Document closed"})
}
