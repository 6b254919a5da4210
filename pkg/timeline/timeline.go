// Package timeline renders the frame index of a video as an image strip:
// one column per frame with keyframes highlighted, GOP boundaries, an
// optional current-frame marker and an optional row of thumbnails.
package timeline

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strconv"

	"github.com/user/framescrub/pkg/adapters/logger"
	"github.com/user/framescrub/pkg/ports"
	"github.com/user/framescrub/pkg/video"
)

// NoMarker disables the current-frame marker.
const NoMarker = -1

var (
	ErrEmptyIndex = errors.New("timeline: index has no frames")
	ErrTooNarrow  = errors.New("timeline: width leaves no room for the bar")
)

// Options configures the strip.
type Options struct {
	Width           int
	BarHeight       int
	Thumbnails      int
	ThumbnailHeight int
	Padding         int
	FontPath        string
	FontSize        float64

	Background    color.Color
	FrameColor    color.Color
	KeyframeColor color.Color
	MarkerColor   color.Color
	TextColor     color.Color
}

// Seeker positions a clip and exposes its picture. *video.Clip satisfies it.
type Seeker interface {
	Seek(target int) error
	Picture() *image.RGBA
}

// Input is what a timeline is drawn from.
type Input struct {
	Index       *video.Index
	FrameWidth  int
	FrameHeight int

	// Clip provides thumbnails. It is left on the last thumbnail's frame.
	// Nil draws no thumbnails.
	Clip Seeker
	// Marker is the frame to outline, or NoMarker.
	Marker int
}

// Renderer draws timelines.
type Renderer struct {
	renderer ports.Renderer
	opts     Options
	log      ports.Logger
}

// New creates a timeline renderer.
func New(renderer ports.Renderer, opts Options, log ports.Logger) *Renderer {
	if log == nil {
		log = logger.NewNoop()
	}
	return &Renderer{
		renderer: renderer,
		opts:     opts,
		log:      log.WithComponent("timeline"),
	}
}

// Render draws the strip for input.
func (r *Renderer) Render(input Input) (image.Image, error) {
	ix := input.Index
	if ix == nil || ix.Len() == 0 {
		return nil, ErrEmptyIndex
	}
	frames := ix.Len()

	thumbnails := 0
	if input.Clip != nil {
		thumbnails = r.opts.Thumbnails
	}
	l := ComputeLayout(frames, input.FrameWidth, input.FrameHeight, thumbnails, r.opts)
	if l.Bar.Dx() < 1 {
		return nil, ErrTooNarrow
	}

	r.log.Debug("Rendering timeline of %d frames with %d thumbnails", frames, len(l.Thumbs))

	canvas := r.renderer.CreateCanvas(l.Width, l.Height, r.opts.Background)
	text := ports.TextStyle{
		FontSize: r.opts.FontSize,
		FontPath: r.opts.FontPath,
		Color:    r.opts.TextColor,
	}

	for _, th := range l.Thumbs {
		if err := input.Clip.Seek(th.Frame); err != nil {
			return nil, fmt.Errorf("thumbnail at frame %d: %w", th.Frame, err)
		}
		// Scaled by the renderer, then drawn 1:1.
		a := th.Area
		thumb := r.renderer.ResizeImage(input.Clip.Picture(), a.Dx(), a.Dy())
		canvas.DrawImageScaled(thumb, a.Min.X, a.Min.Y, a.Dx(), a.Dy())
		if th.Frame == input.Marker {
			canvas.DrawRectStroke(a.Min.X, a.Min.Y, a.Dx(), a.Dy(), r.opts.MarkerColor, 2)
		}

		label := strconv.Itoa(th.Frame)
		w, _ := canvas.MeasureText(label, text)
		if int(w) <= a.Dx() {
			canvas.DrawText(label, a.Min.X+(a.Dx()-int(w))/2, th.LabelY, text)
		}
	}

	bar := l.Bar
	canvas.DrawRect(bar.Min.X, bar.Min.Y, bar.Dx(), bar.Dy(), r.opts.FrameColor)
	for _, k := range ix.Keyframes() {
		x0, x1 := l.Column(k, frames)
		canvas.DrawRect(x0, bar.Min.Y, x1-x0, bar.Dy(), r.opts.KeyframeColor)
		if k > 0 {
			// GOP boundary, drawn past the bar edges.
			canvas.DrawLine(x0, bar.Min.Y-r.opts.Padding/2, x0, bar.Max.Y+r.opts.Padding/2, r.opts.TextColor, 1)
		}
	}

	if input.Marker >= 0 && input.Marker < frames {
		x0, x1 := l.Column(input.Marker, frames)
		canvas.DrawRectStroke(x0, bar.Min.Y, x1-x0, bar.Dy(), r.opts.MarkerColor, 2)
	}

	summary := Summary(ix)
	canvas.DrawText(summary, bar.Min.X, l.FooterY, text)
	if input.Marker >= 0 && input.Marker < frames {
		pos := fmt.Sprintf("frame %d", input.Marker)
		w, _ := canvas.MeasureText(pos, text)
		canvas.DrawText(pos, bar.Max.X-int(w), l.FooterY, text)
	}

	return canvas.ToImage(), nil
}

// Summary is the footer line: frame, keyframe and GOP counts.
func Summary(ix *video.Index) string {
	gops := ix.GOPs()
	longest := 0
	for _, g := range gops {
		if g > longest {
			longest = g
		}
	}
	return fmt.Sprintf("%d frames, %d keyframes, longest GOP %d", ix.Len(), len(ix.Keyframes()), longest)
}
