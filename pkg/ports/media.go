package ports

import (
	"fmt"
	"image"
)

// Rational is a fraction such as a frame rate (30000/1001) or a time base (1/90000).
type Rational struct {
	Num int64
	Den int64
}

// Float returns the value as a float64. A zero denominator yields 0.
func (r Rational) Float() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

// Reduce divides both terms by their greatest common divisor.
func (r Rational) Reduce() Rational {
	g := GCD(r.Num, r.Den)
	if g == 0 {
		return r
	}
	return Rational{Num: r.Num / g, Den: r.Den / g}
}

// Valid reports whether both terms are positive.
func (r Rational) Valid() bool {
	return r.Num > 0 && r.Den > 0
}

func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// GCD returns the greatest common divisor of a and b (always non-negative).
func GCD(a, b int64) int64 {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// MediaKind distinguishes stream types within a container.
type MediaKind string

const (
	KindVideo MediaKind = "video"
	KindAudio MediaKind = "audio"
	KindOther MediaKind = "other"
)

// StreamInfo describes one elementary stream of an opened container.
type StreamInfo struct {
	Index  int
	Kind   MediaKind
	Codec  string
	Width  int
	Height int

	// TimeBase is the unit of PTS, DTS and Duration.
	TimeBase  Rational
	FrameRate Rational
	// Duration in TimeBase units; 0 when unknown.
	Duration int64
	// FrameCount is the container's sample count; 0 when unknown.
	FrameCount int
	// Reordered is set when presentation order differs from decode order.
	Reordered bool
	// ReorderDepth is how many packets past its presentation rank within
	// its GOP a picture can arrive; 0 when unknown or not reordered.
	ReorderDepth int
	// Extradata holds codec configuration (parameter sets, config OBUs).
	Extradata []byte
}

// Packet is one compressed access unit read from a container.
type Packet struct {
	StreamIndex int
	PTS         int64
	DTS         int64
	Duration    int64
	Keyframe    bool
	Data        []byte
}

// Picture is a decoded frame. The image is owned by the decoder and is only
// valid until the next call on that decoder.
type Picture struct {
	Image image.Image
	PTS   int64
}

// MediaSource opens containers for reading.
type MediaSource interface {
	// Open opens the container at path and returns an independent handle.
	Open(path string) (MediaHandle, error)
}

// MediaHandle is an open container: a demuxer plus the decoders bound to it.
// A handle is not safe for concurrent use.
type MediaHandle interface {
	// Streams returns metadata for every stream in the container.
	Streams() []StreamInfo

	// ReadPacket returns the next packet of any stream, or io.EOF.
	ReadPacket() (Packet, error)

	// SeekTimestamp repositions the demuxer on the given stream.
	// With backward set it lands on the nearest keyframe at or before ts,
	// otherwise on the nearest keyframe at or after ts.
	SeekTimestamp(streamIndex int, ts int64, backward bool) error

	// Decoder returns the decoder bound to this handle for the stream.
	// Repeated calls return the same decoder.
	Decoder(streamIndex int) (Decoder, error)

	// Close releases the handle and its decoders.
	Close() error
}

// Decoder turns packets of one stream into pictures.
type Decoder interface {
	// Decode submits a packet. It returns nil when the decoder produced no
	// picture for this input, for example while holding output back.
	Decode(pkt Packet) (*Picture, error)

	// Drain submits an empty packet and returns the earliest held picture,
	// or nil when nothing is held. The decoder remains usable.
	Drain() (*Picture, error)

	// Flush discards reference frames and held output. Used before seeking.
	Flush()

	// HasDelay reports whether the decoder may hold pictures back.
	HasDelay() bool

	// Close releases decoder resources.
	Close()
}
