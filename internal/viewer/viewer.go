package viewer

import (
	"math"
	"sync"

	"pdf-tile-renderer/internal/domain"
)

// ZoomBounds limits the zoom level and sets the zoom in/out step.
type ZoomBounds struct {
	Min  float64
	Max  float64
	Step float64
}

// DefaultZoomBounds allows 1/8x to 10x in 1/8 steps.
func DefaultZoomBounds() ZoomBounds {
	return ZoomBounds{Min: 0.125, Max: 10, Step: 0.125}
}

func (b ZoomBounds) clamp(z float64) float64 {
	return math.Max(b.Min, math.Min(z, b.Max))
}

// PageState is a snapshot of one page's display surface.
type PageState struct {
	Page          int                   `json:"page"`
	Dimensions    domain.Dimensions     `json:"dimensions"`
	Zoom          float64               `json:"zoom"`
	DebouncedZoom float64               `json:"debouncedZoom"`
	ScaleDown     float64               `json:"scaleDown"`
	Generation    *domain.Generation    `json:"generation,omitempty"`
	Session       *domain.RenderSession `json:"session,omitempty"`
	Stats         Stats                 `json:"stats"`
	Resources     PageResources         `json:"resources"`
}

// Viewer fans the document zoom out to the controller of every page.
type Viewer struct {
	bounds ZoomBounds
	pages  []*PageController
	logger domain.Logger

	// mu serialises zoom changes so steps are never lost.
	mu   sync.Mutex
	Zoom *Value[float64]
}

// NewViewer starts the given page controllers.
func NewViewer(pages []*PageController, bounds ZoomBounds, logger domain.Logger) *Viewer {
	v := &Viewer{
		bounds: bounds,
		pages:  pages,
		logger: logger,
		Zoom:   NewValue(1.0),
	}
	for _, p := range pages {
		p.Start()
	}
	return v
}

// PageCount is the number of pages in the viewer.
func (v *Viewer) PageCount() int {
	return len(v.pages)
}

// Page returns the controller for index.
func (v *Viewer) Page(index int) (*PageController, error) {
	if index < 0 || index >= len(v.pages) {
		return nil, domain.ErrInvalidPageIndex
	}
	return v.pages[index], nil
}

// ZoomIn raises the zoom by one step, up to the maximum.
func (v *Viewer) ZoomIn() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.setZoom(v.Zoom.Get() + v.bounds.Step)
}

// ZoomOut lowers the zoom by one step, down to the minimum.
func (v *Viewer) ZoomOut() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.setZoom(v.Zoom.Get() - v.bounds.Step)
}

// SetZoom clamps zoom to the bounds and applies it to every page.
func (v *Viewer) SetZoom(zoom float64) float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.setZoom(zoom)
}

func (v *Viewer) setZoom(zoom float64) float64 {
	zoom = v.bounds.clamp(zoom)
	v.Zoom.Set(zoom)
	for _, p := range v.pages {
		p.SetZoom(zoom)
	}
	v.logger.Debug("Zoom changed", "zoom", zoom)
	return zoom
}

// State snapshots the display surface of one page.
func (v *Viewer) State(index int) (PageState, error) {
	p, err := v.Page(index)
	if err != nil {
		return PageState{}, err
	}
	return PageState{
		Page:          p.Page(),
		Dimensions:    p.Dimensions.Get(),
		Zoom:          p.Zoom.Get(),
		DebouncedZoom: p.DebouncedZoom.Get(),
		ScaleDown:     p.ScaleDown.Get(),
		Generation:    p.Displayed.Get(),
		Session:       p.Visible.Get(),
		Stats:         p.Stats(),
		Resources:     p.Resources(),
	}, nil
}

// Close tears down every page.
func (v *Viewer) Close() {
	for _, p := range v.pages {
		p.Close()
	}
}
