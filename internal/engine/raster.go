package engine

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"

	"golang.org/x/image/draw"

	"pdf-tile-renderer/internal/domain"
)

// cropRegion cuts box out of a page raster that was rendered at scale. The
// box is normalised to its min/max corners and mapped into raster pixels.
func cropRegion(page image.Image, box domain.Box, scale float64, opts RenderOptions) (image.Image, error) {
	x0, y0, x1, y1 := box.Normalized()
	origin := page.Bounds().Min
	rect := image.Rect(
		int(math.Floor(x0*scale)),
		int(math.Floor(y0*scale)),
		int(math.Ceil(x1*scale)),
		int(math.Ceil(y1*scale)),
	).Add(origin).Intersect(page.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("%w: box %s outside page at scale %g", domain.ErrRenderFailure, box, scale)
	}

	bounds := image.Rect(0, 0, rect.Dx(), rect.Dy())
	var dst draw.Image
	switch opts.ColorSpace {
	case DeviceGray:
		dst = image.NewGray(bounds)
	default:
		dst = image.NewRGBA(bounds)
	}

	if opts.Alpha && opts.ColorSpace != DeviceGray {
		draw.Copy(dst, image.Point{}, page, rect, draw.Src, nil)
		return dst, nil
	}
	draw.Draw(dst, bounds, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Copy(dst, image.Point{}, page, rect, draw.Over, nil)
	return dst, nil
}

// encodeImage serialises img in the requested output format.
func encodeImage(img image.Image, format domain.OutputFormat, quality int) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case domain.OutputJPEG:
		if quality <= 0 || quality > 100 {
			quality = jpeg.DefaultQuality
		}
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("%w: jpeg encode: %v", domain.ErrRenderFailure, err)
		}
	default:
		enc := png.Encoder{CompressionLevel: png.BestSpeed}
		if err := enc.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("%w: png encode: %v", domain.ErrRenderFailure, err)
		}
	}
	return buf.Bytes(), nil
}
