package handler

import (
	"net/http"
	"strconv"

	"pdf-tile-renderer/internal/domain"
	"pdf-tile-renderer/internal/resource"
	apperrors "pdf-tile-renderer/pkg/errors"

	"github.com/gorilla/mux"
)

const blobRoute = resource.DefaultURLPrefix

// BlobHandler serves rendered tile images by resource URL.
type BlobHandler struct {
	store  domain.BlobStore
	logger domain.Logger
}

// NewBlobHandler creates a new blob handler
func NewBlobHandler(store domain.BlobStore, logger domain.Logger) *BlobHandler {
	return &BlobHandler{
		store:  store,
		logger: logger,
	}
}

// GetBlob writes the image behind a live resource URL. Revoked URLs are gone.
func (h *BlobHandler) GetBlob(w http.ResponseWriter, r *http.Request) {
	url := blobRoute + mux.Vars(r)["id"]
	if _, ok := resource.IDFromURL(blobRoute, url); !ok {
		writeAppError(w, apperrors.NewNotFoundError("blob not found"))
		return
	}
	blob, err := h.store.Get(r.Context(), url)
	if err != nil {
		if apperrors.GetStatusCode(err) >= http.StatusInternalServerError {
			h.logger.Error("Failed to read blob", err, "url", url)
		}
		writeAppError(w, err)
		return
	}

	w.Header().Set("Content-Type", blob.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(blob.Data)))
	// a URL always names the same bytes until it is revoked
	w.Header().Set("Cache-Control", "private, max-age=300, immutable")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(blob.Data)
}
