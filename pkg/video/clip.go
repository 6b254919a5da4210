package video

import (
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/user/framescrub/pkg/ports"
)

// ClipOptions configures NewClip.
type ClipOptions struct {
	// Loop makes Tick return to BeginFrame after EndFrame.
	Loop bool
	// Begin and End restrict playback to a frame range. End 0 means the
	// last frame of the file.
	Begin int
	End   int
}

// Stats counts the work a clip has done. Ticks and seeks add to it until
// ResetStats.
type Stats struct {
	Seeks      int
	Ticks      int
	DemuxSeeks int
	// Packets counts every packet submitted to the decoder; FastPackets
	// the subset submitted by replay steps.
	Packets        int
	FastPackets    int
	FlushedDecodes int
	Drains         int
	LastCase       SeekCase
}

// Clip plays one File. It owns a demuxer handle, a decoder and a single
// frame buffer; none of them are shared with other clips. A Clip is not
// safe for concurrent use.
type Clip struct {
	file   *File
	index  *Index
	handle ports.MediaHandle
	dec    ports.Decoder
	stream int
	log    ports.Logger

	slack   int
	reorder int
	loop    bool
	begin   int
	end     int

	drainFirst bool

	frame   *FrameBuffer
	current int
	budget  int
	resync  bool
	closed  bool
	stats   Stats
}

// NewClip binds a decoder to the file and decodes frame 0.
func (f *File) NewClip(opts ClipOptions) (*Clip, error) {
	last := f.index.Len() - 1
	end := opts.End
	if end <= 0 || end > last {
		end = last
	}
	if opts.Begin < 0 || opts.Begin > end {
		return nil, fmt.Errorf("%w: begin %d not in [0, %d]", ErrFrameOutOfRange, opts.Begin, end)
	}

	handle, err := f.claimHandle()
	if err != nil {
		return nil, err
	}
	dec, err := handle.Decoder(f.stream.Index)
	if err != nil {
		handle.Close()
		return nil, fmt.Errorf("%w: %v", ErrOpen, err)
	}

	c := &Clip{
		file:       f,
		index:      f.index,
		handle:     handle,
		dec:        dec,
		stream:     f.stream.Index,
		log:        f.log.WithComponent("clip"),
		slack:      f.opts.ReplaySlack,
		reorder:    f.stream.ReorderDepth,
		loop:       opts.Loop,
		begin:      opts.Begin,
		end:        end,
		drainFirst: dec.HasDelay() && !f.stream.Reordered,
		frame:      newFrameBuffer(f.stream.Width, f.stream.Height),
		current:    -1,
		budget:     unlimited,
	}

	if err := c.Seek(0); err != nil {
		handle.Close()
		return nil, err
	}
	if c.begin > 0 {
		if err := c.Seek(c.begin); err != nil {
			handle.Close()
			return nil, err
		}
	}
	return c, nil
}

// Tick advances to the next frame in presentation order without seeking.
// It returns false at the end of the clip, unless looping is enabled, in
// which case playback restarts at BeginFrame.
func (c *Clip) Tick() (bool, error) {
	if c.closed {
		return false, ErrClosed
	}
	c.stats.Ticks++

	if c.current >= c.end {
		return c.restart()
	}
	if c.resync {
		if err := c.Seek(c.current + 1); err != nil {
			return false, err
		}
		return true, nil
	}

	pic, err := c.decodeFlushed()
	if errors.Is(err, ErrEndOfStream) {
		return c.restart()
	}
	if err != nil {
		c.resync = true
		return false, fmt.Errorf("tick after frame %d: %w", c.current, err)
	}
	c.commit(c.current+1, pic)
	return true, nil
}

func (c *Clip) restart() (bool, error) {
	if !c.loop {
		return false, nil
	}
	c.log.Debug("Looping back to frame %d", c.begin)
	if err := c.Seek(c.begin); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Clip) commit(frame int, pic *ports.Picture) {
	c.frame.store(pic, frame)
	c.current = frame
}

// Picture returns the current frame's pixels. The image is reused and is
// only valid until the next Tick or Seek.
func (c *Clip) Picture() *image.RGBA { return c.frame.Image() }

// Frame returns the clip's frame buffer.
func (c *Clip) Frame() *FrameBuffer { return c.frame }

// PTS returns the presentation timestamp of the current frame.
func (c *Clip) PTS() int64 { return c.frame.PTS() }

// Time returns the presentation time of the current frame.
func (c *Clip) Time() time.Duration { return c.file.Timestamp(c.frame.PTS()) }

// CurrentFrame returns the frame number of the picture in the buffer.
func (c *Clip) CurrentFrame() int { return c.current }

// BeginFrame returns the first frame of the clip's range.
func (c *Clip) BeginFrame() int { return c.begin }

// EndFrame returns the last frame of the clip's range.
func (c *Clip) EndFrame() int { return c.end }

// Loop reports whether the clip restarts after EndFrame.
func (c *Clip) Loop() bool { return c.loop }

// SetLoop enables or disables looping.
func (c *Clip) SetLoop(loop bool) { c.loop = loop }

// NeedsResync reports whether the last seek or tick failed and the decoder
// position no longer matches CurrentFrame.
func (c *Clip) NeedsResync() bool { return c.resync }

// File returns the file the clip plays.
func (c *Clip) File() *File { return c.file }

// Stats returns the work counters.
func (c *Clip) Stats() Stats { return c.stats }

// ResetStats zeroes the work counters.
func (c *Clip) ResetStats() { c.stats = Stats{} }

// Close releases the clip's handle and decoder.
func (c *Clip) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.handle.Close()
}
