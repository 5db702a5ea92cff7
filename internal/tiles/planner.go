// Package tiles splits a page into raster tiles, renders them through the
// engine and joins the results into one atomic session.
package tiles

import (
	"fmt"
	"math"

	"pdf-tile-renderer/internal/domain"
)

// Grid is the tile layout of one page at one scale.
type Grid struct {
	TileWidth  float64
	TileHeight float64
	TilesX     int
	TilesY     int
	Boxes      []domain.Box
}

// Plan computes the tile grid for a page at scale. Boxes are ordered row
// major, top row first. A row's top edge is its larger y coordinate.
//
// Tile size depends on scale:
//
//	scale >= 3      width/scale x height/scale
//	2 <= scale < 3  width x height/2
//	scale < 2       width/2 x height/2
//
// When the scale is not integral the last row and column are clipped to the
// page edge so the grid still covers the page exactly.
func Plan(dims domain.Dimensions, scale float64) (Grid, error) {
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return Grid{}, fmt.Errorf("%w: %v", domain.ErrInvalidScale, scale)
	}
	if dims.Width <= 0 || dims.Height <= 0 {
		return Grid{}, &domain.ValidationError{Field: "dimensions", Message: fmt.Sprintf("page size %gx%g is not positive", dims.Width, dims.Height)}
	}

	var tw, th float64
	switch {
	case scale >= 3:
		tw, th = dims.Width/scale, dims.Height/scale
	case scale >= 2:
		tw, th = dims.Width, dims.Height/2
	default:
		tw, th = dims.Width/2, dims.Height/2
	}

	g := Grid{
		TileWidth:  tw,
		TileHeight: th,
		TilesX:     tileCount(dims.Width, tw),
		TilesY:     tileCount(dims.Height, th),
	}
	g.Boxes = make([]domain.Box, 0, g.TilesX*g.TilesY)
	for i := 0; i < g.TilesY; i++ {
		y0 := float64(i) * th
		y1 := edge(i, g.TilesY, th, dims.Height)
		for j := 0; j < g.TilesX; j++ {
			x0 := float64(j) * tw
			x1 := edge(j, g.TilesX, tw, dims.Width)
			g.Boxes = append(g.Boxes, domain.Box{x0, y1, x1, y0})
		}
	}
	return g, nil
}

const countEpsilon = 1e-9

func tileCount(total, tile float64) int {
	n := total / tile
	if r := math.Round(n); math.Abs(n-r) < countEpsilon {
		return int(r)
	}
	return int(math.Ceil(n))
}

// edge is the far coordinate of tile k of n, pinned to total on the last one.
func edge(k, n int, size, total float64) float64 {
	if k == n-1 {
		return total
	}
	return math.Min(float64(k+1)*size, total)
}
