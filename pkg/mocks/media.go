package mocks

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"sort"
	"sync"

	"github.com/user/framescrub/pkg/ports"
)

// SeekCall records one SeekTimestamp invocation.
type SeekCall struct {
	Stream   int
	TS       int64
	Backward bool
}

// MediaSource is a mock implementation of ports.MediaSource that serves a
// scripted packet sequence. Every Open returns a fresh, independent handle.
type MediaSource struct {
	mu sync.Mutex

	StreamInfos []ports.StreamInfo
	Packets     []ports.Packet
	// DecoderDelay is the number of pictures each decoder holds back.
	DecoderDelay int
	// DecodeErrPTS is copied to every decoder the source creates.
	DecodeErrPTS map[int64]bool

	OpenFunc func(path string) (ports.MediaHandle, error)

	OpenCalls []string
	Handles   []*MediaHandle
}

// NewMediaSource creates a mock source with one video stream and the given packets.
func NewMediaSource(stream ports.StreamInfo, packets []ports.Packet, delay int) *MediaSource {
	return &MediaSource{
		StreamInfos:  []ports.StreamInfo{stream},
		Packets:      packets,
		DecoderDelay: delay,
	}
}

func (m *MediaSource) Open(path string) (ports.MediaHandle, error) {
	m.mu.Lock()
	m.OpenCalls = append(m.OpenCalls, path)
	m.mu.Unlock()

	if m.OpenFunc != nil {
		return m.OpenFunc(path)
	}
	h := NewMediaHandle(m.StreamInfos, m.Packets, m.DecoderDelay)
	h.decodeErr = m.DecodeErrPTS
	m.mu.Lock()
	m.Handles = append(m.Handles, h)
	m.mu.Unlock()
	return h, nil
}

// Handle returns the i-th handle opened so far.
func (m *MediaSource) Handle(i int) *MediaHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i < 0 || i >= len(m.Handles) {
		return nil
	}
	return m.Handles[i]
}

var _ ports.MediaSource = (*MediaSource)(nil)

// MediaHandle is a mock implementation of ports.MediaHandle.
type MediaHandle struct {
	streams   []ports.StreamInfo
	packets   []ports.Packet
	delay     int
	decodeErr map[int64]bool
	pos       int
	decoder   *Decoder

	ReadPacketFunc func() (ports.Packet, error)
	SeekFunc       func(stream int, ts int64, backward bool) error

	SeekCalls []SeekCall
	Reads     int
	Closed    bool
}

// NewMediaHandle creates a handle over a fixed packet list.
func NewMediaHandle(streams []ports.StreamInfo, packets []ports.Packet, delay int) *MediaHandle {
	return &MediaHandle{streams: streams, packets: packets, delay: delay}
}

func (h *MediaHandle) Streams() []ports.StreamInfo {
	return h.streams
}

func (h *MediaHandle) ReadPacket() (ports.Packet, error) {
	h.Reads++
	if h.ReadPacketFunc != nil {
		return h.ReadPacketFunc()
	}
	if h.pos >= len(h.packets) {
		return ports.Packet{}, io.EOF
	}
	pkt := h.packets[h.pos]
	h.pos++
	return pkt, nil
}

// SeekTimestamp lands on the nearest keyframe of the stream by DTS, the way
// container demuxers position on sync samples.
func (h *MediaHandle) SeekTimestamp(stream int, ts int64, backward bool) error {
	h.SeekCalls = append(h.SeekCalls, SeekCall{Stream: stream, TS: ts, Backward: backward})
	if h.SeekFunc != nil {
		return h.SeekFunc(stream, ts, backward)
	}

	found := -1
	for i, pkt := range h.packets {
		if pkt.StreamIndex != stream || !pkt.Keyframe {
			continue
		}
		if backward {
			if pkt.DTS <= ts {
				found = i
			}
		} else if pkt.DTS >= ts {
			found = i
			break
		}
	}
	if found < 0 {
		return fmt.Errorf("mock: no keyframe for ts %d", ts)
	}
	h.pos = found
	return nil
}

func (h *MediaHandle) Decoder(stream int) (ports.Decoder, error) {
	for _, s := range h.streams {
		if s.Index == stream {
			if h.decoder == nil {
				h.decoder = NewDecoder(h.delay, s.Width, s.Height)
				h.decoder.DecodeErrPTS = h.decodeErr
			}
			return h.decoder, nil
		}
	}
	return nil, fmt.Errorf("mock: no stream %d", stream)
}

// MockDecoder returns the decoder created by Decoder, or nil.
func (h *MediaHandle) MockDecoder() *Decoder {
	return h.decoder
}

func (h *MediaHandle) Close() error {
	h.Closed = true
	if h.decoder != nil {
		h.decoder.Close()
	}
	return nil
}

var _ ports.MediaHandle = (*MediaHandle)(nil)

// ErrMockDecode is returned by Decoder when DecodeErrPTS matches a packet.
var ErrMockDecode = errors.New("mock: decode failed")

// Decoder is a mock implementation of ports.Decoder. It emits pictures in
// presentation order while holding back Delay pictures, and drops packets
// until the first keyframe after creation or Flush, like a real decoder
// without references.
type Decoder struct {
	Delay  int
	Width  int
	Height int

	// DecodeErrPTS makes Decode fail for packets with these PTS values.
	DecodeErrPTS map[int64]bool

	pending  []int64
	needsKey bool

	DecodeCalls int
	DrainCalls  int
	FlushCalls  int
	Submitted   []int64
	Closed      bool
}

// NewDecoder creates a mock decoder.
func NewDecoder(delay, width, height int) *Decoder {
	if width <= 0 {
		width = 4
	}
	if height <= 0 {
		height = 4
	}
	return &Decoder{Delay: delay, Width: width, Height: height, needsKey: true}
}

func (d *Decoder) Decode(pkt ports.Packet) (*ports.Picture, error) {
	d.DecodeCalls++
	d.Submitted = append(d.Submitted, pkt.PTS)
	if d.DecodeErrPTS[pkt.PTS] {
		return nil, ErrMockDecode
	}
	if d.needsKey {
		if !pkt.Keyframe {
			return nil, nil
		}
		d.needsKey = false
	}
	d.pending = append(d.pending, pkt.PTS)
	sort.Slice(d.pending, func(i, j int) bool { return d.pending[i] < d.pending[j] })
	if len(d.pending) > d.Delay {
		return d.pop(), nil
	}
	return nil, nil
}

func (d *Decoder) Drain() (*ports.Picture, error) {
	d.DrainCalls++
	if len(d.pending) == 0 {
		return nil, nil
	}
	return d.pop(), nil
}

func (d *Decoder) Flush() {
	d.FlushCalls++
	d.pending = nil
	d.needsKey = true
}

func (d *Decoder) HasDelay() bool {
	return d.Delay > 0
}

func (d *Decoder) Close() {
	d.Closed = true
}

// ResetCounters clears the recorded call counts.
func (d *Decoder) ResetCounters() {
	d.DecodeCalls = 0
	d.DrainCalls = 0
	d.FlushCalls = 0
	d.Submitted = nil
}

func (d *Decoder) pop() *ports.Picture {
	pts := d.pending[0]
	d.pending = d.pending[1:]
	return &ports.Picture{Image: PictureFor(pts, d.Width, d.Height), PTS: pts}
}

// PictureFor builds the image the mock decoder emits for a PTS. The red
// channel of every pixel carries pts modulo 256.
func PictureFor(pts int64, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	c := color.RGBA{R: uint8(pts % 256), G: 0x20, B: 0x40, A: 0xff}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

var _ ports.Decoder = (*Decoder)(nil)

// VideoPackets builds a decode-ordered packet list for stream. keyframes
// marks sync samples and pts gives each packet's presentation slot; both
// are multiplied by step to produce timestamps. DTS increases by step.
func VideoPackets(stream int, keyframes []bool, pts []int64, step int64) []ports.Packet {
	packets := make([]ports.Packet, len(keyframes))
	for i := range keyframes {
		p := int64(i)
		if pts != nil {
			p = pts[i]
		}
		packets[i] = ports.Packet{
			StreamIndex: stream,
			PTS:         p * step,
			DTS:         int64(i) * step,
			Duration:    step,
			Keyframe:    keyframes[i],
			Data:        []byte{byte(i)},
		}
	}
	return packets
}
