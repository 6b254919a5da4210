// Package video indexes a video stream once and then serves frame-accurate
// random access to it: seeking to any frame by replaying from the nearest
// keyframe, and ticking forward one frame at a time.
package video

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/user/framescrub/pkg/adapters/logger"
	"github.com/user/framescrub/pkg/ports"
)

const (
	// DefaultHeadroom is added to the estimated frame count when sizing the index.
	DefaultHeadroom = 64
	// DefaultReplaySlack is the number of packets a replay may use beyond
	// the distance from its keyframe to the target.
	DefaultReplaySlack = 4
)

// Options configures Open.
type Options struct {
	Logger ports.Logger
	// IndexOnly skips decoding during the probe pass. Packets are indexed
	// from container flags alone, which is faster but does not verify that
	// every packet decodes.
	IndexOnly bool
	// Headroom overrides DefaultHeadroom when positive.
	Headroom int
	// ReplaySlack overrides DefaultReplaySlack for clips of this file when positive.
	ReplaySlack int
}

// AspectRatio is a width:height ratio reduced by the greatest common divisor.
type AspectRatio struct {
	W int
	H int
}

// NewAspectRatio reduces width:height. Non-positive sizes give 0:0.
func NewAspectRatio(width, height int) AspectRatio {
	if width <= 0 || height <= 0 {
		return AspectRatio{}
	}
	g := int(ports.GCD(int64(width), int64(height)))
	return AspectRatio{W: width / g, H: height / g}
}

func (a AspectRatio) String() string {
	return fmt.Sprintf("%d:%d", a.W, a.H)
}

// File is an opened, fully indexed video. Its metadata and index are
// read-only after Open and may be shared by several clips.
type File struct {
	path   string
	source ports.MediaSource
	opts   Options
	log    ports.Logger

	stream     ports.StreamInfo
	frameRate  ports.Rational
	msPerFrame float64
	aspect     AspectRatio
	hasDelay   bool
	index      *Index
	probeTime  time.Duration

	mu     sync.Mutex
	handle ports.MediaHandle // playback handle, until the first clip claims it
	closed bool
}

// Open opens path through source, reads the video stream's metadata and
// builds the frame index on an independent handle.
func Open(ctx context.Context, source ports.MediaSource, path string, opts Options) (*File, error) {
	log := opts.Logger
	if log == nil {
		log = logger.NewNoop()
	}
	if opts.Headroom <= 0 {
		opts.Headroom = DefaultHeadroom
	}
	if opts.ReplaySlack <= 0 {
		opts.ReplaySlack = DefaultReplaySlack
	}

	handle, err := source.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrOpen, path, err)
	}

	f, err := newFile(handle, source, path, opts, log)
	if err != nil {
		handle.Close()
		return nil, err
	}

	start := time.Now()
	ix, err := probe(ctx, source, path, f.stream, opts, log.WithComponent("probe"))
	if err != nil {
		handle.Close()
		return nil, err
	}
	f.index = ix
	f.probeTime = time.Since(start)

	log.Info("Finished probing %s in %s", path, FormatElapsed(f.probeTime))
	log.Debug("Indexed %d frames, %d keyframes", ix.Len(), len(ix.Keyframes()))
	return f, nil
}

func newFile(handle ports.MediaHandle, source ports.MediaSource, path string, opts Options, log ports.Logger) (*File, error) {
	stream, ok := findVideoStream(handle.Streams())
	if !ok {
		return nil, fmt.Errorf("%w: %s: no video stream", ErrOpen, path)
	}
	if !stream.FrameRate.Valid() {
		return nil, fmt.Errorf("%w: %s: unknown frame rate", ErrOpen, path)
	}

	dec, err := handle.Decoder(stream.Index)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrOpen, path, err)
	}

	rate := stream.FrameRate.Reduce()
	return &File{
		path:       path,
		source:     source,
		opts:       opts,
		log:        log,
		stream:     stream,
		frameRate:  rate,
		msPerFrame: 1000 * float64(rate.Den) / float64(rate.Num),
		aspect:     NewAspectRatio(stream.Width, stream.Height),
		hasDelay:   dec.HasDelay(),
		handle:     handle,
	}, nil
}

func findVideoStream(streams []ports.StreamInfo) (ports.StreamInfo, bool) {
	for _, s := range streams {
		if s.Kind == ports.KindVideo {
			return s, true
		}
	}
	return ports.StreamInfo{}, false
}

// Path returns the path the file was opened from.
func (f *File) Path() string { return f.path }

// Stream returns the metadata of the indexed video stream.
func (f *File) Stream() ports.StreamInfo { return f.stream }

// FrameRate returns the reduced nominal frame rate.
func (f *File) FrameRate() ports.Rational { return f.frameRate }

// MsPerFrame returns the nominal display period of one frame.
func (f *File) MsPerFrame() float64 { return f.msPerFrame }

// FrameDuration returns MsPerFrame as a time.Duration.
func (f *File) FrameDuration() time.Duration {
	return time.Duration(f.msPerFrame * float64(time.Millisecond))
}

func (f *File) Width() int               { return f.stream.Width }
func (f *File) Height() int              { return f.stream.Height }
func (f *File) AspectRatio() AspectRatio { return f.aspect }

// HasDelay reports whether the stream's decoder holds pictures back.
func (f *File) HasDelay() bool { return f.hasDelay }

// Index returns the shared frame index.
func (f *File) Index() *Index { return f.index }

// FrameCount returns the number of indexed frames.
func (f *File) FrameCount() int { return f.index.Len() }

// ProbeTime returns how long the indexing pass took.
func (f *File) ProbeTime() time.Duration { return f.probeTime }

// Duration returns the stream duration, derived from the container when it
// is known and from the frame count otherwise.
func (f *File) Duration() time.Duration {
	if f.stream.Duration > 0 && f.stream.TimeBase.Valid() {
		secs := float64(f.stream.Duration) * f.stream.TimeBase.Float()
		return time.Duration(secs * float64(time.Second))
	}
	return time.Duration(float64(f.index.Len()) * f.msPerFrame * float64(time.Millisecond))
}

// Timestamp converts a stream timestamp to a duration.
func (f *File) Timestamp(ts int64) time.Duration {
	return time.Duration(float64(ts) * f.stream.TimeBase.Float() * float64(time.Second))
}

// FrameAt returns the frame on screen at offset at from the first frame.
// Offsets before the start give frame 0 and offsets past the end the last
// frame.
func (f *File) FrameAt(at time.Duration) int {
	tb := f.stream.TimeBase
	if !tb.Valid() {
		n := int(float64(at.Milliseconds()) / f.msPerFrame)
		if n < 0 {
			return 0
		}
		if n >= f.index.Len() {
			return f.index.Len() - 1
		}
		return n
	}
	ticks := int64(math.Round(at.Seconds() * float64(tb.Den) / float64(tb.Num)))
	return f.index.FrameAtOrBefore(f.index.SortedPTS(0) + ticks)
}

// claimHandle hands the playback handle opened by Open to the first clip
// and opens a fresh one for every later clip.
func (f *File) claimHandle() (ports.MediaHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, ErrClosed
	}
	if f.handle != nil {
		h := f.handle
		f.handle = nil
		return h, nil
	}
	h, err := f.source.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrOpen, f.path, err)
	}
	return h, nil
}

// Close releases the unclaimed playback handle. Clips own their handles
// and must be closed separately.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	if f.handle != nil {
		err := f.handle.Close()
		f.handle = nil
		return err
	}
	return nil
}

// FormatElapsed renders d as [MMm:SSs:mmmms].
func FormatElapsed(d time.Duration) string {
	ms := d.Milliseconds()
	return fmt.Sprintf("[%02dm:%02ds:%03dms]", ms/60000, (ms/1000)%60, ms%1000)
}
