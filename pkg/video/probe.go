package video

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/user/framescrub/pkg/ports"
)

// estimateCapacity sizes the index from the container's duration and frame
// rate, or from its sample count when the duration is missing. The larger
// of the two wins when both are known.
func estimateCapacity(stream ports.StreamInfo, headroom int) (int, error) {
	estimate := 0
	if stream.Duration > 0 && stream.TimeBase.Valid() && stream.FrameRate.Valid() {
		num := stream.Duration * stream.TimeBase.Num * stream.FrameRate.Num
		den := stream.TimeBase.Den * stream.FrameRate.Den
		estimate = int((num + den - 1) / den)
	}
	if stream.FrameCount > estimate {
		estimate = stream.FrameCount
	}
	if estimate <= 0 {
		return 0, fmt.Errorf("%w: stream has neither duration nor frame count", ErrProbe)
	}
	return estimate + headroom, nil
}

// probe reads every packet of the video stream on a freshly opened handle
// and records its timestamps and keyframe ancestry. Unless IndexOnly is set
// every packet is also decoded so that an undecodable stream fails here
// rather than during playback.
func probe(ctx context.Context, source ports.MediaSource, path string, stream ports.StreamInfo, opts Options, log ports.Logger) (*Index, error) {
	h, err := source.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reopen %s: %v", ErrProbe, path, err)
	}
	defer h.Close()

	capacity, err := estimateCapacity(stream, opts.Headroom)
	if err != nil {
		return nil, err
	}
	log.Debug("Probing stream %d, capacity %d frames", stream.Index, capacity)

	var dec ports.Decoder
	if !opts.IndexOnly {
		dec, err = h.Decoder(stream.Index)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrProbe, err)
		}
	}

	b := newIndexBuilder(capacity)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pkt, err := h.ReadPacket()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read packet: %v", ErrProbe, err)
		}
		if pkt.StreamIndex != stream.Index {
			continue
		}

		if len(b.entries) == 0 && !pkt.Keyframe {
			log.Warn("First packet is not a keyframe, indexing it as one")
		}
		if err := b.add(pkt.PTS, pkt.DTS, pkt.Keyframe); err != nil {
			return nil, err
		}

		if dec != nil {
			if _, err := dec.Decode(pkt); err != nil {
				return nil, fmt.Errorf("%w: decode frame %d: %v", ErrProbe, len(b.entries)-1, err)
			}
		}
	}

	if dec != nil && dec.HasDelay() {
		for {
			pic, err := dec.Drain()
			if err != nil {
				return nil, fmt.Errorf("%w: drain: %v", ErrProbe, err)
			}
			if pic == nil {
				break
			}
		}
	}

	ix, err := b.build()
	if err != nil {
		return nil, err
	}
	if err := ix.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProbe, err)
	}
	return ix, nil
}
