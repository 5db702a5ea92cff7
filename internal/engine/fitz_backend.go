package engine

import (
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
	lru "github.com/hashicorp/golang-lru/v2"

	"pdf-tile-renderer/internal/domain"
)

// rasterCacheSize is the number of full page rasters kept between tiles.
// Sessions of neighbouring pages interleave on the engine queue, so more
// than one raster has to stay warm.
const rasterCacheSize = 4

type rasterKey struct {
	page  int
	scale float64
}

// FitzBackend renders with MuPDF through go-fitz.
type FitzBackend struct {
	doc     *fitz.Document
	rasters *lru.Cache[rasterKey, *image.RGBA]

	// pageImage rasterizes one page; nil means the open document.
	pageImage func(page int, dpi float64) (*image.RGBA, error)
}

// NewFitzBackend returns a backend with no document open.
func NewFitzBackend() *FitzBackend {
	rasters, err := lru.New[rasterKey, *image.RGBA](rasterCacheSize)
	if err != nil {
		panic(err)
	}
	return &FitzBackend{rasters: rasters}
}

func (b *FitzBackend) Init() error {
	return nil
}

func (b *FitzBackend) Open(data []byte) error {
	if b.doc != nil {
		if err := b.Close(); err != nil {
			return err
		}
	}
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDocumentLoadFailure, err)
	}
	b.doc = doc
	return nil
}

func (b *FitzBackend) NumPages() (int, error) {
	if b.doc == nil {
		return 0, domain.ErrNoDocument
	}
	return b.doc.NumPage(), nil
}

func (b *FitzBackend) Dimensions(page int) (domain.Dimensions, error) {
	if b.doc == nil {
		return domain.Dimensions{}, domain.ErrNoDocument
	}
	bounds, err := b.doc.Bound(page)
	if err != nil {
		return domain.Dimensions{}, fmt.Errorf("%w: %v", domain.ErrInvalidPageIndex, err)
	}
	return domain.Dimensions{
		Width:  float64(bounds.Dx()),
		Height: float64(bounds.Dy()),
	}, nil
}

func (b *FitzBackend) RenderRegion(page int, box domain.Box, scale float64, opts RenderOptions) ([]byte, error) {
	if b.doc == nil {
		return nil, domain.ErrNoDocument
	}
	raster, err := b.rasterize(page, scale)
	if err != nil {
		return nil, err
	}
	tile, err := cropRegion(raster, box, scale, opts)
	if err != nil {
		return nil, err
	}
	return encodeImage(tile, opts.Format, opts.Quality)
}

func (b *FitzBackend) rasterize(page int, scale float64) (*image.RGBA, error) {
	key := rasterKey{page: page, scale: scale}
	if img, ok := b.rasters.Get(key); ok {
		return img, nil
	}
	render := b.pageImage
	if render == nil {
		render = b.doc.ImageDPI
	}
	img, err := render(page, 72*scale)
	if err != nil {
		return nil, fmt.Errorf("%w: page %d at scale %g: %v", domain.ErrRenderFailure, page, scale, err)
	}
	b.rasters.Add(key, img)
	return img, nil
}

func (b *FitzBackend) Metadata() (domain.DocumentMetadata, error) {
	if b.doc == nil {
		return domain.DocumentMetadata{}, domain.ErrNoDocument
	}
	meta := b.doc.Metadata()
	return domain.DocumentMetadata{
		Title:      meta["title"],
		Author:     meta["author"],
		Subject:    meta["subject"],
		Creator:    meta["creator"],
		Producer:   meta["producer"],
		Format:     meta["format"],
		Encryption: meta["encryption"],
	}, nil
}

func (b *FitzBackend) Close() error {
	b.rasters.Purge()
	if b.doc == nil {
		return nil
	}
	err := b.doc.Close()
	b.doc = nil
	return err
}
