// Package h264decoder decodes H.264 Annex B access units with an external
// ffmpeg process.
//
// Each GOP gets one ffmpeg process. Access units are piped to it as they
// are submitted and frames are read back in presentation order. A stream
// that reorders holds back as many pictures as its reorder depth, which is
// taken from the container and from the SPS.
package h264decoder

import (
	"errors"
	"fmt"
	"image"
	"sort"
	"time"

	"github.com/Eyevinn/mp4ff/avc"

	"github.com/user/framescrub/pkg/adapters/logger"
	"github.com/user/framescrub/pkg/ports"
)

var (
	// ErrDecodeFailed is returned when decoding a frame fails.
	ErrDecodeFailed = errors.New("h264decoder: decode failed")

	// ErrFFmpegNotFound is returned when ffmpeg is not found.
	ErrFFmpegNotFound = errors.New("h264decoder: ffmpeg not found in PATH")

	// ErrNoDimensions is returned for streams without a known frame size.
	ErrNoDimensions = errors.New("h264decoder: stream has no frame size")

	// errStalled reports that ffmpeg did not produce a frame in time
	// while its input was still open.
	errStalled = errors.New("h264decoder: ffmpeg stalled")
)

// DefaultStallTimeout bounds how long a frame is awaited from a running
// ffmpeg process before its input is closed to force the frame out.
const DefaultStallTimeout = 2 * time.Second

// Options configures a Decoder.
type Options struct {
	// FFmpegPath overrides the ffmpeg lookup.
	FFmpegPath string
	// StallTimeout overrides DefaultStallTimeout.
	StallTimeout time.Duration
	Logger       ports.Logger
}

// session is one decoding process fed with the access units of a GOP.
// Frames come out in presentation order.
type session interface {
	Write(au []byte) error
	CloseInput() error
	InputClosed() bool
	// Frame returns output frame i. With wait > 0 it gives up after wait
	// with errStalled; otherwise it blocks until the frame or the end of
	// the output.
	Frame(i int, wait time.Duration) (*image.RGBA, error)
	Stop()
}

type starter func() (session, error)

// gop holds the packets of one group of pictures, from its keyframe on.
type gop struct {
	packets [][]byte
	pts     []int64
	emitted int
	ended   bool
	sess    session
}

func (g *gop) pending() int { return len(g.pts) - g.emitted }

// sortedPTS returns the rank-th smallest pts submitted so far.
func (g *gop) sortedPTS(rank int) int64 {
	sorted := append([]int64(nil), g.pts...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return sorted[rank]
}

func (g *gop) stop() {
	if g.sess != nil {
		g.sess.Stop()
		g.sess = nil
	}
}

// Decoder implements ports.Decoder for H.264 streams.
type Decoder struct {
	delay int
	start starter
	stall time.Duration
	log   ports.Logger

	// gops are oldest first; the last one receives new packets.
	gops []*gop

	// streaming is cleared once ffmpeg stalls; from then on every picture
	// comes from a run whose input is closed.
	streaming bool
	needsKey  bool
	closed    bool
}

// New creates a decoder for an H.264 stream.
func New(info ports.StreamInfo, opts Options) (*Decoder, error) {
	ffmpegPath, err := findFFmpeg(opts.FFmpegPath)
	if err != nil {
		return nil, err
	}
	if info.Width <= 0 || info.Height <= 0 {
		return nil, ErrNoDimensions
	}
	f := &ffmpeg{path: ffmpegPath, width: info.Width, height: info.Height}
	d := newDecoder(info, f.start, opts.Logger)
	if opts.StallTimeout > 0 {
		d.stall = opts.StallTimeout
	}
	return d, nil
}

func newDecoder(info ports.StreamInfo, start starter, log ports.Logger) *Decoder {
	if log == nil {
		log = logger.NewNoop()
	}
	return &Decoder{
		delay:     reorderDelay(info),
		start:     start,
		stall:     DefaultStallTimeout,
		log:       log,
		streaming: true,
		needsKey:  true,
	}
}

// reorderDelay is the number of pictures the decoder holds back: the
// larger of the container's reorder depth and the SPS
// max_num_reorder_frames, and at least one for a reordered stream.
func reorderDelay(info ports.StreamInfo) int {
	d := max(info.ReorderDepth, spsReorderFrames(info.Extradata))
	if info.Reordered && d == 0 {
		d = 1
	}
	return d
}

func spsReorderFrames(extradata []byte) int {
	n := 0
	for _, nalu := range avc.ExtractNalusOfTypeFromByteStream(avc.NALU_SPS, extradata, false) {
		sps, err := avc.ParseSPSNALUnit(nalu, true)
		if err != nil || sps.VUI == nil || !sps.VUI.BitstreamRestrictionFlag {
			continue
		}
		n = max(n, int(sps.VUI.MaxNumReorderFrames))
	}
	return n
}

// Decode submits one access unit. It returns the next picture in
// presentation order once enough packets are known, and nil while the
// decoder holds output back.
func (d *Decoder) Decode(pkt ports.Packet) (*ports.Picture, error) {
	if d.closed {
		return nil, ErrDecodeFailed
	}
	if d.needsKey {
		if !pkt.Keyframe {
			return nil, nil
		}
		d.needsKey = false
	}

	if pkt.Keyframe {
		if cur := d.current(); cur != nil {
			cur.ended = true
			if cur.sess != nil && !cur.sess.InputClosed() {
				// Lets ffmpeg flush what the old GOP still holds.
				if err := cur.sess.CloseInput(); err != nil {
					return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
				}
			}
		}
		d.prune()
		d.gops = append(d.gops, &gop{})
	}

	if err := d.add(d.current(), pkt); err != nil {
		return nil, err
	}

	if d.held() > d.delay {
		return d.next(false)
	}
	return nil, nil
}

func (d *Decoder) add(g *gop, pkt ports.Packet) error {
	g.packets = append(g.packets, pkt.Data)
	g.pts = append(g.pts, pkt.PTS)

	if g.sess != nil && g.sess.InputClosed() {
		// A drain or a stall closed this run early; the next picture
		// needs a fresh one over the whole GOP.
		g.stop()
	}
	if g.sess == nil {
		if !d.streaming {
			return nil
		}
		return d.open(g)
	}
	if err := g.sess.Write(pkt.Data); err != nil {
		g.stop()
		return fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	return nil
}

// open starts a run for g and submits every packet it has so far.
func (d *Decoder) open(g *gop) error {
	sess, err := d.start()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	d.log.Debug("Started ffmpeg for the GOP at pts %d with %d packets", g.pts[0], len(g.packets))
	for _, p := range g.packets {
		if err := sess.Write(p); err != nil {
			sess.Stop()
			return fmt.Errorf("%w: %v", ErrDecodeFailed, err)
		}
	}
	g.sess = sess
	return nil
}

// Drain releases one held picture, or nil when none is left. The decoder
// accepts further packets afterwards.
func (d *Decoder) Drain() (*ports.Picture, error) {
	if d.closed || d.held() == 0 {
		return nil, nil
	}
	return d.next(true)
}

// Flush discards all buffered packets. Decoding resumes at the next
// keyframe.
func (d *Decoder) Flush() {
	d.reset()
	d.needsKey = true
}

// HasDelay reports whether Decode holds pictures back.
func (d *Decoder) HasDelay() bool {
	return d.delay > 0
}

// Close stops every ffmpeg process.
func (d *Decoder) Close() {
	d.reset()
	d.closed = true
}

func (d *Decoder) reset() {
	for _, g := range d.gops {
		g.stop()
	}
	d.gops = nil
}

func (d *Decoder) current() *gop {
	if len(d.gops) == 0 {
		return nil
	}
	return d.gops[len(d.gops)-1]
}

func (d *Decoder) held() int {
	n := 0
	for _, g := range d.gops {
		n += g.pending()
	}
	return n
}

// next returns the oldest GOP's next picture by presentation rank. force
// closes the current GOP's input so ffmpeg gives up what it holds.
func (d *Decoder) next(force bool) (*ports.Picture, error) {
	d.prune()
	g := d.gops[0]
	rank := g.emitted

	img, err := d.frame(g, rank, force)
	if err != nil {
		g.stop()
		return nil, err
	}

	pic := &ports.Picture{Image: img, PTS: g.sortedPTS(rank)}
	g.emitted++
	d.prune()
	return pic, nil
}

// prune drops finished GOPs from the front of the queue.
func (d *Decoder) prune() {
	for len(d.gops) > 0 && d.gops[0].ended && d.gops[0].pending() == 0 {
		d.gops[0].stop()
		d.gops = d.gops[1:]
	}
}

func (d *Decoder) frame(g *gop, rank int, force bool) (*image.RGBA, error) {
	if g.sess == nil {
		if err := d.open(g); err != nil {
			return nil, err
		}
	}
	if (force || g.ended || !d.streaming) && !g.sess.InputClosed() {
		if err := g.sess.CloseInput(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
		}
	}

	var wait time.Duration
	if !g.sess.InputClosed() {
		wait = d.stall
	}
	img, err := g.sess.Frame(rank, wait)
	if errors.Is(err, errStalled) {
		d.log.Warn("ffmpeg held frame %d back, decoding whole GOP prefixes from now on", rank)
		d.streaming = false
		if err := g.sess.CloseInput(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
		}
		img, err = g.sess.Frame(rank, 0)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: frame %d of GOP: %v", ErrDecodeFailed, rank, err)
	}
	return img, nil
}

var _ ports.Decoder = (*Decoder)(nil)

// Available reports whether ffmpeg can be found.
func Available(customPath string) bool {
	_, err := findFFmpeg(customPath)
	return err == nil
}
