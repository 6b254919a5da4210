package video

import (
	"errors"
	"fmt"
	"io"

	"github.com/user/framescrub/pkg/ports"
)

// unlimited disables the replay budget for ordinary decodes.
const unlimited = -1

// decodeFast submits packets of the clip's stream until the decoder emits a
// picture. Intermediate replay steps use it: their pictures are thrown away,
// so the decoder is never asked to give up what it holds back.
func (c *Clip) decodeFast() (*ports.Picture, error) {
	return c.decode(true)
}

// decodeFlushed returns the next picture in presentation order. A decoder
// with delay is drained first: whatever it was holding is the picture that
// follows the last one emitted. Only when nothing is held are new packets
// read.
//
// Streams that reorder are never drained mid-stream, since the held
// picture may still be preceded by B-frames not yet submitted. The
// decoder's own reorder buffer already releases those in order.
func (c *Clip) decodeFlushed() (*ports.Picture, error) {
	c.stats.FlushedDecodes++
	if c.drainFirst {
		pic, err := c.drain()
		if err != nil {
			return nil, err
		}
		if pic != nil {
			return pic, nil
		}
	}
	return c.decode(false)
}

func (c *Clip) decode(fast bool) (*ports.Picture, error) {
	for {
		if c.budget == 0 {
			return nil, ErrReplayBudgetExceeded
		}

		pkt, err := c.handle.ReadPacket()
		if errors.Is(err, io.EOF) {
			if c.dec.HasDelay() {
				pic, err := c.drain()
				if err != nil {
					return nil, err
				}
				if pic != nil {
					return pic, nil
				}
			}
			return nil, ErrEndOfStream
		}
		if err != nil {
			return nil, fmt.Errorf("read packet: %w", err)
		}
		if pkt.StreamIndex != c.stream {
			continue
		}

		if c.budget > 0 {
			c.budget--
		}
		c.stats.Packets++
		if fast {
			c.stats.FastPackets++
		}

		pic, err := c.dec.Decode(pkt)
		if err != nil {
			return nil, fmt.Errorf("decode packet at pts %d: %w", pkt.PTS, err)
		}
		if pic != nil {
			return pic, nil
		}
	}
}

func (c *Clip) drain() (*ports.Picture, error) {
	c.stats.Drains++
	pic, err := c.dec.Drain()
	if err != nil {
		return nil, fmt.Errorf("drain decoder: %w", err)
	}
	return pic, nil
}
