package video

import (
	"errors"
	"fmt"

	"github.com/user/framescrub/pkg/ports"
)

// SeekCase identifies which path a seek took.
type SeekCase int

const (
	SeekNone SeekCase = iota
	// SeekKeyframe positions directly on a keyframe target.
	SeekKeyframe
	// SeekStart positions on frame 0.
	SeekStart
	// SeekReplay positions on the target's keyframe and decodes forward.
	SeekReplay
)

func (s SeekCase) String() string {
	switch s {
	case SeekKeyframe:
		return "keyframe"
	case SeekStart:
		return "start"
	case SeekReplay:
		return "replay"
	default:
		return "none"
	}
}

// Seek makes target the current frame and loads its picture. target counts
// frames in presentation order and must lie in [0, EndFrame()]; callers
// clamp, Seek does not.
//
// On failure CurrentFrame and Picture keep their previous values and the
// next Tick re-seeks to the frame after CurrentFrame before reading on.
func (c *Clip) Seek(target int) error {
	if c.closed {
		return ErrClosed
	}
	if target < 0 || target > c.end {
		return fmt.Errorf("%w: %d not in [0, %d]", ErrFrameOutOfRange, target, c.end)
	}

	pic, err := c.seek(target)
	if err != nil {
		c.resync = true
		if errors.Is(err, ErrReplayBudgetExceeded) {
			c.log.Error("Replay to frame %d from keyframe %d exceeded its budget", target, c.index.Ancestor(target))
		} else {
			c.log.Warn("Seek to frame %d failed: %v", target, err)
		}
		return err
	}

	c.commit(target, pic)
	c.resync = false
	return nil
}

func (c *Clip) seek(target int) (*ports.Picture, error) {
	c.stats.Seeks++
	backward := target < c.current
	c.dec.Flush()

	entry := c.index.Entry(target)
	if entry.Keyframe() || target == 0 {
		kind := SeekKeyframe
		if target == 0 {
			kind = SeekStart
		}
		c.stats.LastCase = kind
		c.log.Debug("Seeking to %s frame %d at dts %d", kind, target, entry.DTS)

		if err := c.demuxSeek(entry.DTS, backward); err != nil {
			return nil, err
		}
		pic, err := c.decodeFlushed()
		if err != nil {
			return nil, seekDecodeError(target, err)
		}
		return pic, nil
	}

	c.stats.LastCase = SeekReplay
	p := entry.ParentKeyframe
	c.log.Debug("Replaying frame %d from keyframe %d", target, p)
	if err := c.demuxSeek(c.index.Entry(p).DTS, true); err != nil {
		return nil, err
	}

	// Reaching the target reads past it by up to the reorder depth.
	c.budget = target - p + c.slack + c.reorder
	defer func() { c.budget = unlimited }()

	// Decode up to the picture shown just before the target.
	before := c.index.SortedPTS(target - 1)
	for {
		pic, err := c.decodeFast()
		if err != nil {
			return nil, seekDecodeError(target, err)
		}
		if pic.PTS == before {
			break
		}
	}

	want := c.index.SortedPTS(target)
	pic, err := c.decodeFlushed()
	for err == nil && pic.PTS != want {
		pic, err = c.decodeFast()
	}
	if err != nil {
		return nil, seekDecodeError(target, err)
	}
	return pic, nil
}

func (c *Clip) demuxSeek(ts int64, backward bool) error {
	c.stats.DemuxSeeks++
	if err := c.handle.SeekTimestamp(c.stream, ts, backward); err != nil {
		return fmt.Errorf("%w: timestamp %d: %v", ErrSeek, ts, err)
	}
	return nil
}

func seekDecodeError(target int, err error) error {
	if errors.Is(err, ErrReplayBudgetExceeded) {
		return fmt.Errorf("frame %d: %w", target, err)
	}
	if errors.Is(err, ErrEndOfStream) {
		return fmt.Errorf("%w: frame %d: stream ended before target", ErrSeek, target)
	}
	return fmt.Errorf("%w: frame %d: %v", ErrSeek, target, err)
}
