package video

import (
	"image"

	"golang.org/x/image/draw"

	"github.com/user/framescrub/pkg/ports"
)

// FrameBuffer holds the one picture a clip presents. The same pixel memory
// is reused for every frame, so a picture obtained from it is only valid
// until the clip decodes again.
type FrameBuffer struct {
	img   *image.RGBA
	pts   int64
	frame int
}

func newFrameBuffer(width, height int) *FrameBuffer {
	b := &FrameBuffer{frame: -1}
	if width > 0 && height > 0 {
		b.img = image.NewRGBA(image.Rect(0, 0, width, height))
	}
	return b
}

// store copies pic into the buffer, reallocating only when the picture
// size changes.
func (b *FrameBuffer) store(pic *ports.Picture, frame int) {
	src := pic.Image.Bounds()
	if b.img == nil || b.img.Bounds().Size() != src.Size() {
		b.img = image.NewRGBA(image.Rect(0, 0, src.Dx(), src.Dy()))
	}
	draw.Copy(b.img, image.Point{}, pic.Image, src, draw.Src, nil)
	b.pts = pic.PTS
	b.frame = frame
}

// Image returns the buffered pixels.
func (b *FrameBuffer) Image() *image.RGBA { return b.img }

// PTS returns the presentation timestamp of the buffered picture.
func (b *FrameBuffer) PTS() int64 { return b.pts }

// Frame returns the frame number of the buffered picture, or -1.
func (b *FrameBuffer) Frame() int { return b.frame }
