// Package engine drives a single long-lived rendering engine through a
// request/response channel. The engine runs on its own goroutine and
// executes requests strictly in receipt order.
package engine

import "pdf-tile-renderer/internal/domain"

// Handle refers to a document opened inside the engine.
type Handle uint64

type op int

const (
	opLoad op = iota + 1
	opCountPages
	opDimensions
	opRender
	opRelease
	opMetadata
)

func (o op) String() string {
	switch o {
	case opLoad:
		return "loadDocument"
	case opCountPages:
		return "countPages"
	case opDimensions:
		return "pageDimensions"
	case opRender:
		return "renderRegion"
	case opRelease:
		return "release"
	case opMetadata:
		return "metadata"
	default:
		return "unknown"
	}
}

// request is one message sent to the engine. ID correlates the response.
type request struct {
	ID      uint64
	Op      op
	Handle  Handle
	Page    int
	Box     domain.Box
	Scale   float64
	Options RenderOptions
	Data    []byte
}

// response carries either Value or Err for the request with the same ID.
// ID zero is reserved for the readiness notification.
type response struct {
	ID    uint64
	Value any
	Err   error
}

const readyID uint64 = 0

// ColorSpace selects the output pixel model.
type ColorSpace string

const (
	DeviceRGB  ColorSpace = "DeviceRGB"
	DeviceGray ColorSpace = "DeviceGray"
)

// RenderOptions are the raster parameters of a renderRegion call.
type RenderOptions struct {
	ColorSpace ColorSpace
	Alpha      bool
	AntiAlias  bool
	Intent     string
	BoxName    string
	Format     domain.OutputFormat
	Quality    int
}

// DefaultRenderOptions matches what the viewer asks of the engine for every
// tile: RGB with alpha, no antialiasing, "View" intent against the CropBox.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		ColorSpace: DeviceRGB,
		Alpha:      true,
		AntiAlias:  false,
		Intent:     "View",
		BoxName:    "CropBox",
		Format:     domain.OutputPNG,
		Quality:    90,
	}
}
