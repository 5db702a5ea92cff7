package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"pdf-tile-renderer/internal/domain"
	"pdf-tile-renderer/internal/viewer"

	"github.com/gorilla/mux"
)

// ViewerHandler exposes zoom control and per-page display state.
type ViewerHandler struct {
	documentService DocumentService
	logger          domain.Logger
}

// NewViewerHandler creates a new viewer handler
func NewViewerHandler(documentService DocumentService, logger domain.Logger) *ViewerHandler {
	return &ViewerHandler{
		documentService: documentService,
		logger:          logger,
	}
}

type zoomRequest struct {
	Zoom *float64 `json:"zoom"`
}

type zoomResponse struct {
	Zoom float64 `json:"zoom"`
}

// GetZoom returns the document zoom
func (h *ViewerHandler) GetZoom(w http.ResponseWriter, r *http.Request) {
	h.withViewer(w, func(v *viewer.Viewer) {
		writeJSON(w, http.StatusOK, zoomResponse{Zoom: v.Zoom.Get()})
	})
}

// SetZoom sets the document zoom, clamped to the configured bounds
func (h *ViewerHandler) SetZoom(w http.ResponseWriter, r *http.Request) {
	var req zoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Zoom == nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if *req.Zoom <= 0 {
		writeAppError(w, &domain.ValidationError{Field: "zoom", Message: "zoom must be positive"})
		return
	}
	h.withViewer(w, func(v *viewer.Viewer) {
		writeJSON(w, http.StatusOK, zoomResponse{Zoom: v.SetZoom(*req.Zoom)})
	})
}

// ZoomIn raises the zoom by one step
func (h *ViewerHandler) ZoomIn(w http.ResponseWriter, r *http.Request) {
	h.withViewer(w, func(v *viewer.Viewer) {
		writeJSON(w, http.StatusOK, zoomResponse{Zoom: v.ZoomIn()})
	})
}

// ZoomOut lowers the zoom by one step
func (h *ViewerHandler) ZoomOut(w http.ResponseWriter, r *http.Request) {
	h.withViewer(w, func(v *viewer.Viewer) {
		writeJSON(w, http.StatusOK, zoomResponse{Zoom: v.ZoomOut()})
	})
}

// GetPage returns the display state of one page: its tiles, their
// placement and the scale-down factor to draw them with.
func (h *ViewerHandler) GetPage(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Page index must be an integer")
		return
	}
	h.withViewer(w, func(v *viewer.Viewer) {
		state, err := v.State(index)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, state)
	})
}

func (h *ViewerHandler) withViewer(w http.ResponseWriter, fn func(v *viewer.Viewer)) {
	v, err := h.documentService.Viewer()
	if err != nil {
		writeAppError(w, err)
		return
	}
	fn(v)
}
