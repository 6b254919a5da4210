package ggrenderer

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"golang.org/x/image/draw"

	"github.com/user/framescrub/pkg/ports"
)

func TestRenderer_CreateCanvas(t *testing.T) {
	r := New()

	canvas := r.CreateCanvas(100, 100, color.White)
	if canvas == nil {
		t.Fatal("expected canvas to be created")
	}

	img := canvas.ToImage()
	bounds := img.Bounds()

	if bounds.Dx() != 100 || bounds.Dy() != 100 {
		t.Errorf("expected 100x100, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func filled(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func TestRenderer_EncodeImage(t *testing.T) {
	r := New()
	frame := filled(48, 32, color.RGBA{R: 200, G: 40, B: 10, A: 255})

	tests := []struct {
		name    string
		format  ports.ImageFormat
		quality int
		decode  func(*bytes.Reader) (image.Image, error)
	}{
		{"png", ports.FormatPNG, 0, func(b *bytes.Reader) (image.Image, error) { return png.Decode(b) }},
		{"jpeg", ports.FormatJPEG, 80, func(b *bytes.Reader) (image.Image, error) { return jpeg.Decode(b) }},
		{"jpeg default quality", ports.FormatJPEG, 0, func(b *bytes.Reader) (image.Image, error) { return jpeg.Decode(b) }},
		{"jpeg quality above range", ports.FormatJPEG, 250, func(b *bytes.Reader) (image.Image, error) { return jpeg.Decode(b) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := r.EncodeImage(frame, tt.format, tt.quality)
			if err != nil {
				t.Fatalf("EncodeImage failed: %v", err)
			}
			decoded, err := tt.decode(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if b := decoded.Bounds(); b.Dx() != 48 || b.Dy() != 32 {
				t.Errorf("expected 48x32, got %dx%d", b.Dx(), b.Dy())
			}
		})
	}

	if _, err := r.EncodeImage(frame, ports.ImageFormat(9), 0); err == nil {
		t.Error("expected error for an unknown format")
	}
}

func TestRenderer_EncodePNGIsLossless(t *testing.T) {
	r := New()
	frame := filled(8, 8, color.RGBA{R: 7, G: 8, B: 9, A: 255})

	data, err := r.EncodeImage(frame, ports.FormatPNG, 0)
	if err != nil {
		t.Fatalf("EncodeImage failed: %v", err)
	}
	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got := color.RGBAModel.Convert(decoded.At(3, 3)).(color.RGBA); got != (color.RGBA{R: 7, G: 8, B: 9, A: 255}) {
		t.Errorf("expected the exact frame color, got %v", got)
	}
}

func TestJPEGQuality(t *testing.T) {
	tests := []struct{ in, want int }{
		{-5, jpeg.DefaultQuality},
		{0, jpeg.DefaultQuality},
		{1, 1},
		{90, 90},
		{101, 100},
	}
	for _, tt := range tests {
		if got := jpegQuality(tt.in); got != tt.want {
			t.Errorf("jpegQuality(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestRenderer_ResizeImage(t *testing.T) {
	r := New()
	frame := filled(64, 36, color.White)

	thumb := r.ResizeImage(frame, 32, 18)
	if b := thumb.Bounds(); b.Dx() != 32 || b.Dy() != 18 {
		t.Errorf("expected 32x18, got %dx%d", b.Dx(), b.Dy())
	}

	if same := r.ResizeImage(frame, 64, 36); same != image.Image(frame) {
		t.Error("expected a frame at the requested size to be returned as is")
	}
}

func TestNewWithScaler_NilFallsBack(t *testing.T) {
	r := NewWithScaler(nil)
	thumb := r.ResizeImage(filled(10, 10, color.Black), 5, 5)
	if b := thumb.Bounds(); b.Dx() != 5 || b.Dy() != 5 {
		t.Errorf("expected 5x5, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestCanvas_DrawRect(t *testing.T) {
	r := New()
	canvas := r.CreateCanvas(100, 100, color.White)

	// Draw red rectangle
	canvas.DrawRect(10, 10, 30, 30, color.RGBA{R: 255, A: 255})

	img := canvas.ToImage()

	// Check that pixel inside rectangle is red
	c := img.At(20, 20)
	red, _, _, _ := c.RGBA()
	if red == 0 {
		t.Error("expected red pixel inside rectangle")
	}
}

func TestCanvas_DrawRectStroke(t *testing.T) {
	r := New()
	canvas := r.CreateCanvas(100, 100, color.White)

	// Draw rectangle stroke
	canvas.DrawRectStroke(10, 10, 30, 30, color.Black, 2)

	img := canvas.ToImage()

	// Check border pixel
	c := img.At(10, 10)
	_, _, _, a := c.RGBA()
	if a == 0 {
		t.Error("expected non-transparent pixel on border")
	}
}

func TestCanvas_DrawImageScaled(t *testing.T) {
	r := New()
	canvas := r.CreateCanvas(100, 100, color.White)

	// Stretched from 20x20 to 40x40 at (10, 10).
	canvas.DrawImageScaled(filled(20, 20, color.RGBA{R: 255, A: 255}), 10, 10, 40, 40)

	img := canvas.ToImage()
	if red, g, _, _ := img.At(45, 45).RGBA(); red == 0 || g != 0 {
		t.Error("expected red pixel from scaled image")
	}
	if _, g, _, _ := img.At(55, 55).RGBA(); g == 0 {
		t.Error("expected white pixel outside scaled image")
	}
}

func TestCanvas_DrawImageScaled_ExactCopy(t *testing.T) {
	r := New()
	canvas := r.CreateCanvas(10, 10, color.Black)

	frame := image.NewRGBA(image.Rect(0, 0, 2, 2))
	frame.Set(0, 0, color.RGBA{R: 1, A: 255})
	frame.Set(1, 0, color.RGBA{R: 2, A: 255})
	frame.Set(0, 1, color.RGBA{R: 3, A: 255})
	frame.Set(1, 1, color.RGBA{R: 4, A: 255})

	canvas.DrawImageScaled(frame, 5, 6, 2, 2)

	img := canvas.ToImage()
	for i, p := range []image.Point{{5, 6}, {6, 6}, {5, 7}, {6, 7}} {
		got := color.RGBAModel.Convert(img.At(p.X, p.Y)).(color.RGBA)
		if int(got.R) != i+1 {
			t.Errorf("pixel %v: expected red %d, got %d", p, i+1, got.R)
		}
	}
	if got := color.RGBAModel.Convert(img.At(4, 6)).(color.RGBA); got.R != 0 {
		t.Errorf("expected the background left of the frame, got %v", got)
	}
}

func TestCanvas_DrawImageScaled_EmptyRect(t *testing.T) {
	r := New()
	canvas := r.CreateCanvas(4, 4, color.White)

	canvas.DrawImageScaled(filled(2, 2, color.Black), 0, 0, 0, 2)

	if _, g, _, _ := canvas.ToImage().At(0, 0).RGBA(); g == 0 {
		t.Error("expected nothing drawn into an empty rectangle")
	}
}

func TestCanvas_DrawLine(t *testing.T) {
	r := New()
	canvas := r.CreateCanvas(100, 100, color.White)

	// Draw black line
	canvas.DrawLine(0, 50, 100, 50, color.Black, 2)

	img := canvas.ToImage()

	// Check pixel on line
	c := img.At(50, 50)
	r1, g1, b1, _ := c.RGBA()
	// Should be dark (not white)
	if r1 == 65535 && g1 == 65535 && b1 == 65535 {
		t.Error("expected non-white pixel on line")
	}
}

func TestCanvas_DrawText(t *testing.T) {
	r := New()
	canvas := r.CreateCanvas(200, 50, color.White)

	style := ports.TextStyle{
		FontSize: 14,
		Color:    color.Black,
		Align:    ports.AlignLeft,
	}

	// Should not panic
	canvas.DrawText("Hello World", 10, 25, style)

	img := canvas.ToImage()
	if img == nil {
		t.Error("expected image to be created")
	}
}

func TestCanvas_MeasureText(t *testing.T) {
	r := New()
	canvas := r.CreateCanvas(200, 50, color.White)

	style := ports.TextStyle{FontSize: 14, Color: color.Black}
	short, h := canvas.MeasureText("12", style)
	long, _ := canvas.MeasureText("1234", style)

	if short <= 0 || h <= 0 {
		t.Errorf("expected positive size, got %.1fx%.1f", short, h)
	}
	if long <= short {
		t.Errorf("expected longer text to be wider: %.1f <= %.1f", long, short)
	}
}
