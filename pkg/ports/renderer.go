package ports

import (
	"image"
	"image/color"
	"path/filepath"
	"strings"
)

// Renderer draws timelines and side by side frames and encodes pictures
// for the frame sink.
type Renderer interface {
	CreateCanvas(width, height int, bg color.Color) Canvas

	// EncodeImage encodes a picture. quality applies to JPEG only.
	EncodeImage(img image.Image, format ImageFormat, quality int) ([]byte, error)

	// ResizeImage scales a picture to width x height, as for thumbnails.
	ResizeImage(img image.Image, width, height int) image.Image
}

// Canvas is a drawing surface in pixel coordinates with the origin at the
// top left.
type Canvas interface {
	// DrawImageScaled fits img into the rectangle at x, y. A picture drawn
	// at its own size keeps its pixels unchanged.
	DrawImageScaled(img image.Image, x, y, width, height int)

	DrawRect(x, y, w, h int, c color.Color)
	DrawRectStroke(x, y, w, h int, c color.Color, strokeWidth float64)

	// DrawText draws text vertically centered on y.
	DrawText(text string, x, y int, style TextStyle)
	MeasureText(text string, style TextStyle) (width, height float64)

	DrawLine(x1, y1, x2, y2 int, c color.Color, width float64)

	ToImage() image.Image
}

// TextStyle is the font and placement of a label. An empty FontPath uses
// the renderer's built-in face.
type TextStyle struct {
	FontSize float64
	FontPath string
	Color    color.Color
	Align    TextAlign
}

// TextAlign anchors text horizontally on its x coordinate.
type TextAlign int

const (
	AlignLeft TextAlign = iota
	AlignCenter
	AlignRight
)

// ImageFormat is the encoding of a saved frame or timeline.
type ImageFormat int

const (
	FormatJPEG ImageFormat = iota
	FormatPNG
)

// Ext returns the file extension for the format, with the dot.
func (f ImageFormat) Ext() string {
	if f == FormatJPEG {
		return ".jpg"
	}
	return ".png"
}

// FormatForPath picks the image format from a file name. Anything that is
// not a JPEG extension is written as PNG.
func FormatForPath(path string) ImageFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return FormatJPEG
	default:
		return FormatPNG
	}
}
