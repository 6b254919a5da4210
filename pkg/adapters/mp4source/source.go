// Package mp4source reads MP4 files with mp4ff and exposes them as
// ports.MediaSource handles: packets of every track in decode-time order,
// keyframe seeking by timestamp, and a decoder per video track.
package mp4source

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/framescrub/pkg/adapters/osfilesystem"
	"github.com/user/framescrub/pkg/ports"
)

var (
	// ErrNoDecoder is returned when no decoder factory was configured.
	ErrNoDecoder = errors.New("mp4source: no decoder factory configured")
	// ErrNoStream is returned for unknown stream indices.
	ErrNoStream = errors.New("mp4source: no such stream")
	// ErrNoKeyframe is returned when a seek finds no keyframe in the
	// requested direction.
	ErrNoKeyframe = errors.New("mp4source: no keyframe in seek direction")
)

// DecoderFactory creates a decoder for a stream.
type DecoderFactory func(info ports.StreamInfo) (ports.Decoder, error)

// Options configures a Source.
type Options struct {
	// FS opens the files. Defaults to the local disk.
	FS         ports.FileSystem
	NewDecoder DecoderFactory
	Logger     ports.Logger
}

// Source opens MP4 files through a file system.
type Source struct {
	opts Options
}

// New creates a Source.
func New(opts Options) *Source {
	if opts.FS == nil {
		opts.FS = osfilesystem.New()
	}
	if opts.Logger != nil {
		opts.Logger = opts.Logger.WithComponent("mp4source")
	}
	return &Source{opts: opts}
}

// Open parses the file at path and returns an independent handle.
func (s *Source) Open(path string) (ports.MediaHandle, error) {
	f, err := s.opts.FS.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	h, err := newHandle(f, s.opts)
	if err != nil {
		f.Close()
		return nil, err
	}
	h.closer = f
	if s.opts.Logger != nil {
		s.opts.Logger.Debug("Opened %s with %d tracks", path, len(h.tracks))
	}
	return h, nil
}

// OpenBytes returns a handle over an in-memory MP4.
func (s *Source) OpenBytes(data []byte) (*Handle, error) {
	return newHandle(bytes.NewReader(data), s.opts)
}

var _ ports.MediaSource = (*Source)(nil)

type readSeekerAt interface {
	io.ReadSeeker
	io.ReaderAt
}

// ref addresses one sample of one track.
type ref struct {
	track  int
	sample int
}

// Handle is an open MP4 file. It is not safe for concurrent use.
type Handle struct {
	r      io.ReaderAt
	closer io.Closer
	opts   Options

	tracks   []*track
	timeline []ref
	// position[t][s] is the timeline position of sample s of track t.
	position [][]int
	pos      int

	decoders map[int]ports.Decoder
}

func newHandle(r readSeekerAt, opts Options) (*Handle, error) {
	mp4File, err := mp4.DecodeFile(r)
	if err != nil {
		return nil, fmt.Errorf("decode mp4: %w", err)
	}

	h := &Handle{r: r, opts: opts, decoders: make(map[int]ports.Decoder)}

	if mp4File.IsFragmented() {
		if mp4File.Init == nil || mp4File.Init.Moov == nil {
			return nil, fmt.Errorf("fragmented file without init segment")
		}
		for _, trak := range mp4File.Init.Moov.Traks {
			if trak.Mdia == nil {
				continue
			}
			t := newTrack(trak)
			if err := fragmentedSamples(t, mp4File); err != nil {
				return nil, err
			}
			t.finish()
			h.tracks = append(h.tracks, t)
		}
	} else {
		if mp4File.Moov == nil {
			return nil, fmt.Errorf("no moov box found")
		}
		for _, trak := range mp4File.Moov.Traks {
			if trak.Mdia == nil {
				continue
			}
			t := newTrack(trak)
			if err := progressiveSamples(t, trak); err != nil {
				return nil, err
			}
			t.finish()
			h.tracks = append(h.tracks, t)
		}
	}

	if len(h.tracks) == 0 {
		return nil, fmt.Errorf("no tracks found")
	}
	h.buildTimeline()
	return h, nil
}

// buildTimeline interleaves the samples of all tracks by decode time, the
// order a demuxer hands packets out in.
func (h *Handle) buildTimeline() {
	total := 0
	h.position = make([][]int, len(h.tracks))
	for i, t := range h.tracks {
		total += len(t.samples)
		h.position[i] = make([]int, len(t.samples))
	}

	h.timeline = make([]ref, 0, total)
	for ti, t := range h.tracks {
		for si := range t.samples {
			h.timeline = append(h.timeline, ref{track: ti, sample: si})
		}
	}

	sort.SliceStable(h.timeline, func(i, j int) bool {
		a, b := h.timeline[i], h.timeline[j]
		ta, tb := h.tracks[a.track], h.tracks[b.track]
		// dts_a / den_a < dts_b / den_b
		return ta.samples[a.sample].dts*tb.info.TimeBase.Den < tb.samples[b.sample].dts*ta.info.TimeBase.Den
	})

	for pos, r := range h.timeline {
		h.position[r.track][r.sample] = pos
	}
}

// Streams returns the metadata of every track.
func (h *Handle) Streams() []ports.StreamInfo {
	out := make([]ports.StreamInfo, len(h.tracks))
	for i, t := range h.tracks {
		out[i] = t.info
	}
	return out
}

// ReadPacket returns the next sample of any track, or io.EOF.
func (h *Handle) ReadPacket() (ports.Packet, error) {
	if h.pos >= len(h.timeline) {
		return ports.Packet{}, io.EOF
	}
	r := h.timeline[h.pos]
	h.pos++

	t := h.tracks[r.track]
	s := t.samples[r.sample]

	data := s.data
	if data == nil {
		data = make([]byte, s.size)
		if _, err := h.r.ReadAt(data, s.offset); err != nil {
			return ports.Packet{}, fmt.Errorf("read sample %d of track %d: %w", r.sample+1, t.info.Index, err)
		}
	}

	if t.annexB {
		data = avccToAnnexB(data)
		if s.key && len(t.paramSets) > 0 {
			data = append(append([]byte(nil), t.paramSets...), data...)
		}
	}

	return ports.Packet{
		StreamIndex: t.info.Index,
		PTS:         s.pts,
		DTS:         s.dts,
		Duration:    s.dur,
		Keyframe:    s.key,
		Data:        data,
	}, nil
}

// SeekTimestamp positions the handle on the keyframe of the stream nearest
// to ts by decode time: at or before it when backward is set, at or after
// it otherwise. Packets of other tracks resume from the same point in the
// interleaved order.
func (h *Handle) SeekTimestamp(streamIndex int, ts int64, backward bool) error {
	ti, t := h.track(streamIndex)
	if t == nil {
		return fmt.Errorf("%w: %d", ErrNoStream, streamIndex)
	}

	found := -1
	if backward {
		i := sort.Search(len(t.samples), func(i int) bool { return t.samples[i].dts > ts })
		for i--; i >= 0; i-- {
			if t.samples[i].key {
				found = i
				break
			}
		}
	} else {
		i := sort.Search(len(t.samples), func(i int) bool { return t.samples[i].dts >= ts })
		for ; i < len(t.samples); i++ {
			if t.samples[i].key {
				found = i
				break
			}
		}
	}
	if found < 0 {
		return fmt.Errorf("%w: stream %d ts %d", ErrNoKeyframe, streamIndex, ts)
	}

	h.pos = h.position[ti][found]
	return nil
}

// Decoder returns the decoder for a stream, creating it on first use.
func (h *Handle) Decoder(streamIndex int) (ports.Decoder, error) {
	if dec, ok := h.decoders[streamIndex]; ok {
		return dec, nil
	}
	_, t := h.track(streamIndex)
	if t == nil {
		return nil, fmt.Errorf("%w: %d", ErrNoStream, streamIndex)
	}
	if h.opts.NewDecoder == nil {
		return nil, ErrNoDecoder
	}
	dec, err := h.opts.NewDecoder(t.info)
	if err != nil {
		return nil, err
	}
	h.decoders[streamIndex] = dec
	return dec, nil
}

// Close releases decoders and the underlying file.
func (h *Handle) Close() error {
	for idx, dec := range h.decoders {
		dec.Close()
		delete(h.decoders, idx)
	}
	if h.closer != nil {
		err := h.closer.Close()
		h.closer = nil
		return err
	}
	return nil
}

func (h *Handle) track(streamIndex int) (int, *track) {
	for i, t := range h.tracks {
		if t.info.Index == streamIndex {
			return i, t
		}
	}
	return -1, nil
}

var _ ports.MediaHandle = (*Handle)(nil)
