package domain

import "fmt"

// Dimensions is the size of a page in document units.
type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Box is a tile region in page space, laid out as [x0, y1, x1, y0].
// The vertical axis follows the page's bottom-left origin, so the larger
// y coordinate comes first.
type Box [4]float64

func (b Box) String() string {
	return fmt.Sprintf("[%g %g %g %g]", b[0], b[1], b[2], b[3])
}

// Normalized returns the box as (minX, minY, maxX, maxY).
func (b Box) Normalized() (float64, float64, float64, float64) {
	x0, x1 := b[0], b[2]
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	y0, y1 := b[3], b[1]
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	return x0, y0, x1, y1
}

// TileResult is one rendered tile placed in viewport pixel space.
type TileResult struct {
	ResourceURL string  `json:"url"`
	Box         Box     `json:"box"`
	Scale       float64 `json:"scale"`
	Top         float64 `json:"top"`
	Left        float64 `json:"left"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
}

// RenderSession is the atomic unit shown to the display: every tile of one
// page at one scale.
type RenderSession struct {
	Page  int          `json:"page"`
	Scale float64      `json:"scale"`
	Tiles []TileResult `json:"tiles"`
}

// ResourceURLs lists the resource handles owned by the session.
func (s *RenderSession) ResourceURLs() []string {
	if s == nil {
		return nil
	}
	urls := make([]string, 0, len(s.Tiles))
	for _, t := range s.Tiles {
		if t.ResourceURL != "" {
			urls = append(urls, t.ResourceURL)
		}
	}
	return urls
}

// Generation is a published high resolution render.
type Generation struct {
	Number  uint64         `json:"generation"`
	Zoom    float64        `json:"zoom"`
	Session *RenderSession `json:"session"`
}

// OutputFormat is the raster encoding produced by the engine.
type OutputFormat string

const (
	OutputPNG  OutputFormat = "png"
	OutputJPEG OutputFormat = "jpg"
)

// ContentType returns the MIME type for the format.
func (f OutputFormat) ContentType() string {
	if f == OutputJPEG {
		return "image/jpeg"
	}
	return "image/png"
}

// ParseOutputFormat maps a config string to a format, defaulting to PNG.
func ParseOutputFormat(s string) OutputFormat {
	switch s {
	case "jpg", "jpeg", "JPG", "JPEG":
		return OutputJPEG
	default:
		return OutputPNG
	}
}

// Blob is stored image data behind a resource handle.
type Blob struct {
	ContentType string
	Data        []byte
}
