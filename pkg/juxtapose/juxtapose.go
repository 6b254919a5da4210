// Package juxtapose composes two videos side by side at the same point in
// time, seeking each one to the frame on screen at that offset.
package juxtapose

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/user/framescrub/pkg/adapters/logger"
	"github.com/user/framescrub/pkg/ports"
	"github.com/user/framescrub/pkg/video"
)

var ErrNoPicture = errors.New("juxtapose: clip has no picture")

// Options configures the composition.
type Options struct {
	// Gap is the horizontal gap between the two videos in pixels.
	Gap int
	// Background fills the gap and any height difference.
	Background color.Color
}

// DefaultOptions returns default options.
func DefaultOptions() Options {
	return Options{
		Gap:        10,
		Background: color.Black,
	}
}

// Pair is one composed image and the frame each side showed.
type Pair struct {
	Image      image.Image
	At         time.Duration
	LeftFrame  int
	RightFrame int
}

// Stage composes pairs of clips.
type Stage struct {
	renderer ports.Renderer
	opts     Options
	log      ports.Logger
}

// New creates a compare stage.
func New(renderer ports.Renderer, opts Options, log ports.Logger) *Stage {
	if log == nil {
		log = logger.NewNoop()
	}
	if opts.Background == nil {
		opts.Background = color.Black
	}
	if opts.Gap < 0 {
		opts.Gap = 0
	}
	return &Stage{
		renderer: renderer,
		opts:     opts,
		log:      log.WithComponent("juxtapose"),
	}
}

// Compose seeks both clips to the frame on screen at offset at and draws
// them side by side, each vertically centered. A clip shorter than at holds
// its last frame.
func (s *Stage) Compose(left, right *video.Clip, at time.Duration) (Pair, error) {
	lf := left.File().FrameAt(at)
	rf := right.File().FrameAt(at)

	if err := left.Seek(lf); err != nil {
		return Pair{}, fmt.Errorf("left frame %d: %w", lf, err)
	}
	if err := right.Seek(rf); err != nil {
		return Pair{}, fmt.Errorf("right frame %d: %w", rf, err)
	}

	lp, rp := left.Picture(), right.Picture()
	if lp == nil || rp == nil {
		return Pair{}, ErrNoPicture
	}

	lw, lh := lp.Bounds().Dx(), lp.Bounds().Dy()
	rw, rh := rp.Bounds().Dx(), rp.Bounds().Dy()
	height := max(lh, rh)

	canvas := s.renderer.CreateCanvas(lw+s.opts.Gap+rw, height, s.opts.Background)
	canvas.DrawImageScaled(lp, 0, (height-lh)/2, lw, lh)
	canvas.DrawImageScaled(rp, lw+s.opts.Gap, (height-rh)/2, rw, rh)

	return Pair{
		Image:      canvas.ToImage(),
		At:         at,
		LeftFrame:  lf,
		RightFrame: rf,
	}, nil
}

// Walk composes a pair every step from the start until the longer of the
// two videos ends, saving each to sink under its sequence number. It
// returns the number of pairs composed.
func (s *Stage) Walk(ctx context.Context, left, right *video.Clip, step time.Duration, sink ports.FrameSink) (int, error) {
	if step <= 0 {
		step = left.File().FrameDuration()
	}
	total := max(left.File().Duration(), right.File().Duration())

	s.log.Debug("Comparing %s and %s every %s", left.File().Path(), right.File().Path(), step)

	n := 0
	for at := time.Duration(0); at < total; at += step {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		pair, err := s.Compose(left, right, at)
		if err != nil {
			return n, fmt.Errorf("compose at %s: %w", video.FormatElapsed(at), err)
		}
		if sink != nil && sink.Enabled() {
			if err := sink.SaveFrame(n, pair.Image); err != nil {
				return n, err
			}
		}
		n++
	}
	return n, nil
}
