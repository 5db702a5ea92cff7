package tiles

import (
	"context"
	"fmt"
	"time"

	"pdf-tile-renderer/internal/domain"
	"pdf-tile-renderer/internal/engine"
)

// RegionRenderer is the engine call the renderer issues once per tile.
type RegionRenderer interface {
	RenderRegionAsync(ctx context.Context, h engine.Handle, page int, box domain.Box, scale float64, opts engine.RenderOptions) *engine.Future[[]byte]
}

// Batch is the set of tile requests submitted for one (page, scale) pair.
type Batch struct {
	Page      int
	Scale     float64
	Grid      Grid
	Submitted time.Time

	futures []*engine.Future[[]byte]
}

// Len is the number of tiles in the batch.
func (b *Batch) Len() int {
	return len(b.futures)
}

// RawTile is an engine result that has not been turned into a resource yet.
type RawTile struct {
	Box  domain.Box
	Data []byte
}

// RawSession is a fully joined batch.
type RawSession struct {
	Page  int
	Scale float64
	Tiles []RawTile
}

// Renderer turns planned grids into engine calls and engine bytes into
// displayable resources.
type Renderer struct {
	engine  RegionRenderer
	store   domain.BlobStore
	options engine.RenderOptions
	logger  domain.Logger
}

// NewRenderer creates a tile renderer
func NewRenderer(eng RegionRenderer, store domain.BlobStore, opts engine.RenderOptions, logger domain.Logger) *Renderer {
	return &Renderer{
		engine:  eng,
		store:   store,
		options: opts,
		logger:  logger,
	}
}

// Submit plans the grid for page at scale and queues every tile before
// returning. Nothing is awaited here.
func (r *Renderer) Submit(ctx context.Context, h engine.Handle, page int, dims domain.Dimensions, scale float64) (*Batch, error) {
	grid, err := Plan(dims, scale)
	if err != nil {
		return nil, err
	}

	b := &Batch{
		Page:      page,
		Scale:     scale,
		Grid:      grid,
		Submitted: time.Now(),
		futures:   make([]*engine.Future[[]byte], len(grid.Boxes)),
	}
	for i, box := range grid.Boxes {
		b.futures[i] = r.engine.RenderRegionAsync(ctx, h, page, box, scale, r.options)
	}

	r.logger.Debug("Tile batch submitted", "page", page, "scale", scale, "tiles", len(grid.Boxes), "grid", fmt.Sprintf("%dx%d", grid.TilesX, grid.TilesY))
	return b, nil
}

// Materialize stores every tile as a resource and computes its placement.
// If any tile cannot be stored, the ones already stored are revoked.
func (r *Renderer) Materialize(ctx context.Context, raw *RawSession) (*domain.RenderSession, error) {
	session := &domain.RenderSession{
		Page:  raw.Page,
		Scale: raw.Scale,
		Tiles: make([]domain.TileResult, 0, len(raw.Tiles)),
	}
	contentType := r.options.Format.ContentType()

	for _, t := range raw.Tiles {
		url, err := r.store.Put(ctx, contentType, t.Data)
		if err != nil {
			r.revokeAll(session.ResourceURLs())
			return nil, fmt.Errorf("store tile %s: %w", t.Box, err)
		}
		session.Tiles = append(session.Tiles, Place(url, t.Box, raw.Scale))
	}
	return session, nil
}

// Place computes the viewport placement of a tile. The width and height use
// the unscaled far edge against the scaled near edge, matching how the
// engine sizes its output.
func Place(url string, box domain.Box, scale float64) domain.TileResult {
	return domain.TileResult{
		ResourceURL: url,
		Box:         box,
		Scale:       scale,
		Top:         box[3] * scale,
		Left:        box[0] * scale,
		Width:       box[2] - box[0]*scale,
		Height:      box[1] - box[3]*scale,
	}
}

func (r *Renderer) revokeAll(urls []string) {
	for _, url := range urls {
		if err := r.store.Revoke(context.Background(), url); err != nil {
			r.logger.Warn("Failed to revoke tile resource", "url", url, "error", err)
		}
	}
}
