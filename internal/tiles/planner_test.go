package tiles

import (
	"errors"
	"math"
	"testing"

	"pdf-tile-renderer/internal/domain"
)

func TestPlan_ScaleOne(t *testing.T) {
	g, err := Plan(domain.Dimensions{Width: 500, Height: 500}, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []domain.Box{
		{0, 250, 250, 0},
		{250, 250, 500, 0},
		{0, 500, 250, 250},
		{250, 500, 500, 250},
	}
	if len(g.Boxes) != len(want) {
		t.Fatalf("expected %d boxes, got %d", len(want), len(g.Boxes))
	}
	for i := range want {
		if g.Boxes[i] != want[i] {
			t.Fatalf("box %d: expected %v, got %v", i, want[i], g.Boxes[i])
		}
	}
	if g.TileWidth != 250 || g.TileHeight != 250 {
		t.Fatalf("expected 250x250 tiles, got %gx%g", g.TileWidth, g.TileHeight)
	}
}

func TestPlan_ScaleThree(t *testing.T) {
	g, err := Plan(domain.Dimensions{Width: 600, Height: 300}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.TileWidth != 200 || g.TileHeight != 100 {
		t.Fatalf("expected 200x100 tiles, got %gx%g", g.TileWidth, g.TileHeight)
	}
	if g.TilesX != 3 || g.TilesY != 3 || len(g.Boxes) != 9 {
		t.Fatalf("expected 3x3 grid, got %dx%d with %d boxes", g.TilesX, g.TilesY, len(g.Boxes))
	}
	if g.Boxes[0] != (domain.Box{0, 100, 200, 0}) {
		t.Fatalf("unexpected first box %v", g.Boxes[0])
	}
	if g.Boxes[8] != (domain.Box{400, 300, 600, 200}) {
		t.Fatalf("unexpected last box %v", g.Boxes[8])
	}
}

func TestPlan_ScaleTwo(t *testing.T) {
	g, err := Plan(domain.Dimensions{Width: 612, Height: 792}, 2.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.TilesX != 1 || g.TilesY != 2 {
		t.Fatalf("expected 1x2 grid, got %dx%d", g.TilesX, g.TilesY)
	}
}

func TestPlan_InvalidInput(t *testing.T) {
	if _, err := Plan(domain.Dimensions{Width: 100, Height: 100}, 0); !errors.Is(err, domain.ErrInvalidScale) {
		t.Fatalf("expected ErrInvalidScale, got %v", err)
	}
	if _, err := Plan(domain.Dimensions{Width: 100, Height: 100}, -2); !errors.Is(err, domain.ErrInvalidScale) {
		t.Fatalf("expected ErrInvalidScale, got %v", err)
	}
	var vErr *domain.ValidationError
	if _, err := Plan(domain.Dimensions{Width: 0, Height: 100}, 1); !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPlan_Deterministic(t *testing.T) {
	dims := domain.Dimensions{Width: 612, Height: 792}
	a, _ := Plan(dims, 4.25)
	b, _ := Plan(dims, 4.25)
	if len(a.Boxes) != len(b.Boxes) {
		t.Fatalf("grids differ in length")
	}
	for i := range a.Boxes {
		if a.Boxes[i] != b.Boxes[i] {
			t.Fatalf("box %d differs: %v vs %v", i, a.Boxes[i], b.Boxes[i])
		}
	}
}

// Every grid must tile the page exactly: boxes inside the page, no
// overlaps, and total area equal to the page area.
func TestPlan_Coverage(t *testing.T) {
	pages := []domain.Dimensions{
		{Width: 500, Height: 500},
		{Width: 600, Height: 300},
		{Width: 612, Height: 792},
		{Width: 595.28, Height: 841.89},
		{Width: 1, Height: 3},
	}
	var scales []float64
	for s := 0.125; s <= 10; s += 0.125 {
		scales = append(scales, s)
	}
	scales = append(scales, 0.01, 2.999, 3.3333)

	for _, dims := range pages {
		for _, scale := range scales {
			g, err := Plan(dims, scale)
			if err != nil {
				t.Fatalf("%v @ %g: unexpected error: %v", dims, scale, err)
			}
			if g.TilesX*g.TilesY != len(g.Boxes) {
				t.Fatalf("%v @ %g: %dx%d grid but %d boxes", dims, scale, g.TilesX, g.TilesY, len(g.Boxes))
			}
			assertCovers(t, dims, scale, g.Boxes)
		}
	}
}

func assertCovers(t *testing.T, dims domain.Dimensions, scale float64, boxes []domain.Box) {
	t.Helper()
	const eps = 1e-6
	area := 0.0
	for i, b := range boxes {
		x0, y0, x1, y1 := b.Normalized()
		if x0 < -eps || y0 < -eps || x1 > dims.Width+eps || y1 > dims.Height+eps {
			t.Fatalf("%v @ %g: box %v leaves the page", dims, scale, b)
		}
		if x1-x0 <= 0 || y1-y0 <= 0 {
			t.Fatalf("%v @ %g: box %v is empty", dims, scale, b)
		}
		area += (x1 - x0) * (y1 - y0)
		for _, o := range boxes[i+1:] {
			ox0, oy0, ox1, oy1 := o.Normalized()
			w := math.Min(x1, ox1) - math.Max(x0, ox0)
			h := math.Min(y1, oy1) - math.Max(y0, oy0)
			if w > eps && h > eps {
				t.Fatalf("%v @ %g: boxes %v and %v overlap", dims, scale, b, o)
			}
		}
	}
	if math.Abs(area-dims.Width*dims.Height) > eps*dims.Width*dims.Height {
		t.Fatalf("%v @ %g: boxes cover %g, page is %g", dims, scale, area, dims.Width*dims.Height)
	}
}
