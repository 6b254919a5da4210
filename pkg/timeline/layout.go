package timeline

import "image"

// Thumb is one thumbnail slot of the strip.
type Thumb struct {
	Frame int
	Area  image.Rectangle
	// LabelY is the vertical center of the frame label under the thumbnail.
	LabelY int
}

// Layout is the geometry of a rendered timeline.
type Layout struct {
	Width  int
	Height int

	Thumbs []Thumb
	// Bar holds one column per frame.
	Bar image.Rectangle
	// FooterY is the vertical center of the summary line.
	FooterY int
}

// Column returns the horizontal extent of a frame's column in the bar. A
// column is at least one pixel wide, so neighbouring columns of a long clip
// overlap.
func (l Layout) Column(frame, frames int) (x0, x1 int) {
	w := l.Bar.Dx()
	x0 = l.Bar.Min.X + frame*w/frames
	x1 = l.Bar.Min.X + (frame+1)*w/frames
	if x1 <= x0 {
		x1 = x0 + 1
	}
	return x0, x1
}

// ComputeLayout places the thumbnail row, the frame bar and the footer.
// It is a pure function of the frame count, the picture size and the options.
// Thumbnails are spread evenly over the clip and shrink to fit the width.
func ComputeLayout(frames, frameWidth, frameHeight, thumbnails int, opts Options) Layout {
	pad := opts.Padding
	lineHeight := int(opts.FontSize + 0.5)
	inner := opts.Width - 2*pad

	l := Layout{Width: opts.Width}
	y := pad

	if thumbnails > frames {
		thumbnails = frames
	}
	if thumbnails > 0 && frameWidth > 0 && frameHeight > 0 && opts.ThumbnailHeight > 0 {
		th := opts.ThumbnailHeight
		tw := th * frameWidth / frameHeight
		gaps := (thumbnails - 1) * pad
		if tw*thumbnails+gaps > inner {
			tw = (inner - gaps) / thumbnails
			th = tw * frameHeight / frameWidth
		}
		if tw > 0 && th > 0 {
			// Center the row.
			x := pad + (inner-(tw*thumbnails+gaps))/2
			l.Thumbs = make([]Thumb, thumbnails)
			for i := range l.Thumbs {
				frame := 0
				if thumbnails > 1 {
					frame = i * (frames - 1) / (thumbnails - 1)
				}
				l.Thumbs[i] = Thumb{
					Frame:  frame,
					Area:   image.Rect(x, y, x+tw, y+th),
					LabelY: y + th + pad/2 + lineHeight/2,
				}
				x += tw + pad
			}
			y += th + lineHeight + pad
		}
	}

	l.Bar = image.Rect(pad, y, pad+inner, y+opts.BarHeight)
	y += opts.BarHeight + pad

	l.FooterY = y + lineHeight/2
	y += lineHeight + pad

	l.Height = y
	return l
}
