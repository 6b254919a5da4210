// Package ggrenderer draws timelines and side by side frames with the gg
// library and encodes decoded frames as PNG or JPEG.
package ggrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"github.com/user/framescrub/pkg/ports"
)

// Renderer implements ports.Renderer.
type Renderer struct {
	scaler draw.Scaler
	png    png.Encoder
}

// New creates a Renderer that scales with Catmull-Rom and writes PNG at
// the fastest compression level, since play and scrub save a file per frame.
func New() *Renderer {
	return NewWithScaler(draw.CatmullRom)
}

// NewWithScaler creates a Renderer that resizes thumbnails with scaler.
// A nil scaler falls back to bilinear.
func NewWithScaler(scaler draw.Scaler) *Renderer {
	if scaler == nil {
		scaler = draw.BiLinear
	}
	return &Renderer{
		scaler: scaler,
		png:    png.Encoder{CompressionLevel: png.BestSpeed},
	}
}

func (r *Renderer) CreateCanvas(width, height int, bg color.Color) ports.Canvas {
	dc := gg.NewContext(width, height)
	dc.SetColor(bg)
	dc.Clear()
	return &Canvas{dc: dc, scaler: r.scaler}
}

// EncodeImage encodes a frame. JPEG quality is clamped to 1..100 and zero
// selects the encoder default.
func (r *Renderer) EncodeImage(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case ports.FormatJPEG:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality(quality)}); err != nil {
			return nil, fmt.Errorf("encode JPEG: %w", err)
		}
	case ports.FormatPNG:
		if err := r.png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode PNG: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format: %d", format)
	}

	return buf.Bytes(), nil
}

func jpegQuality(q int) int {
	switch {
	case q <= 0:
		return jpeg.DefaultQuality
	case q > 100:
		return 100
	}
	return q
}

// ResizeImage returns img unchanged when it already has the requested size.
func (r *Renderer) ResizeImage(img image.Image, width, height int) image.Image {
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	r.scaler.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

var _ ports.Renderer = (*Renderer)(nil)

// Canvas implements ports.Canvas on a gg.Context. Frames are drawn straight
// into the context's backing image so a frame at its own size keeps its
// exact pixels.
type Canvas struct {
	dc       *gg.Context
	scaler   draw.Scaler
	fontPath string
	fontSize float64
}

// DrawImageScaled copies img into the rectangle at x, y, resizing it only
// when the rectangle differs from the image size.
func (c *Canvas) DrawImageScaled(img image.Image, x, y, width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	dst, ok := c.dc.Image().(draw.Image)
	if !ok {
		return
	}

	src := img.Bounds()
	rect := image.Rect(x, y, x+width, y+height)
	if src.Dx() == width && src.Dy() == height {
		draw.Draw(dst, rect, img, src.Min, draw.Over)
		return
	}
	c.scaler.Scale(dst, rect, img, src, draw.Over, nil)
}

func (c *Canvas) DrawRect(x, y, w, h int, col color.Color) {
	c.dc.SetColor(col)
	c.dc.DrawRectangle(float64(x), float64(y), float64(w), float64(h))
	c.dc.Fill()
}

func (c *Canvas) DrawRectStroke(x, y, w, h int, col color.Color, strokeWidth float64) {
	c.dc.SetColor(col)
	c.dc.SetLineWidth(strokeWidth)
	c.dc.DrawRectangle(float64(x), float64(y), float64(w), float64(h))
	c.dc.Stroke()
}

// DrawText draws text vertically centered on y and anchored horizontally by
// the style's alignment.
func (c *Canvas) DrawText(text string, x, y int, style ports.TextStyle) {
	c.dc.SetColor(style.Color)
	c.setFont(style)
	c.dc.DrawStringAnchored(text, float64(x), float64(y), anchor(style.Align), 0.5)
}

func anchor(a ports.TextAlign) float64 {
	switch a {
	case ports.AlignCenter:
		return 0.5
	case ports.AlignRight:
		return 1
	}
	return 0
}

func (c *Canvas) MeasureText(text string, style ports.TextStyle) (width, height float64) {
	c.setFont(style)
	return c.dc.MeasureString(text)
}

// setFont loads the style's font face once per path and size. gg keeps its
// built-in face when no font file is given or the file cannot be loaded.
func (c *Canvas) setFont(style ports.TextStyle) {
	if style.FontPath == "" || style.FontPath == c.fontPath && style.FontSize == c.fontSize {
		return
	}
	if err := c.dc.LoadFontFace(style.FontPath, style.FontSize); err != nil {
		return
	}
	c.fontPath = style.FontPath
	c.fontSize = style.FontSize
}

func (c *Canvas) DrawLine(x1, y1, x2, y2 int, col color.Color, width float64) {
	c.dc.SetColor(col)
	c.dc.SetLineWidth(width)
	c.dc.DrawLine(float64(x1), float64(y1), float64(x2), float64(y2))
	c.dc.Stroke()
}

func (c *Canvas) ToImage() image.Image {
	return c.dc.Image()
}

var _ ports.Canvas = (*Canvas)(nil)
