// Package smartdecoder selects the decoder for a stream by its codec.
package smartdecoder

import (
	"errors"

	"github.com/user/framescrub/pkg/adapters/av1decoder"
	"github.com/user/framescrub/pkg/adapters/codecdetect"
	"github.com/user/framescrub/pkg/adapters/h264decoder"
	"github.com/user/framescrub/pkg/ports"
)

// Codec represents the video codec type (re-exported from codecdetect).
type Codec = codecdetect.Codec

const (
	// CodecH264 represents H.264/AVC codec.
	CodecH264 = codecdetect.CodecH264
	// CodecAV1 represents AV1 codec.
	CodecAV1 = codecdetect.CodecAV1
	// CodecUnknown represents an unknown codec.
	CodecUnknown = codecdetect.CodecUnknown
)

// Backend represents the decoding backend used.
type Backend string

const (
	// BackendFFmpeg represents FFmpeg-based decoding.
	BackendFFmpeg Backend = "ffmpeg"
	// BackendLibaom represents libaom for AV1 decoding.
	BackendLibaom Backend = "libaom"
)

// Info contains information about the selected decoder.
type Info struct {
	// Codec is the stream's codec.
	Codec Codec
	// Backend is the decoding backend being used.
	Backend Backend
	// Delay reports whether the decoder holds pictures back.
	Delay bool
}

// Options configures the smart decoder behavior.
type Options struct {
	// FFmpegPath is an optional custom path to the ffmpeg binary.
	FFmpegPath string
	Logger     ports.Logger
}

var (
	// ErrUnsupportedCodec is returned when the codec is not supported.
	ErrUnsupportedCodec = errors.New("smartdecoder: unsupported codec")
	// ErrNoDecoderAvailable is returned when no decoder is available for the codec.
	ErrNoDecoderAvailable = errors.New("smartdecoder: no decoder available")
)

// New creates a decoder for a stream.
//
// The selection flow:
//   - AV1: libaom decoder
//   - H.264: ffmpeg decoder, if ffmpeg can be found
func New(info ports.StreamInfo, opts Options) (ports.Decoder, Info, error) {
	switch Codec(info.Codec) {
	case CodecAV1:
		dec, err := av1decoder.New()
		if err != nil {
			return nil, Info{}, err
		}
		return dec, Info{Codec: CodecAV1, Backend: BackendLibaom}, nil

	case CodecH264:
		if !h264decoder.Available(opts.FFmpegPath) {
			return nil, Info{}, ErrNoDecoderAvailable
		}
		log := opts.Logger
		if log != nil {
			log = log.WithComponent("h264decoder")
		}
		dec, err := h264decoder.New(info, h264decoder.Options{FFmpegPath: opts.FFmpegPath, Logger: log})
		if err != nil {
			return nil, Info{}, err
		}
		return dec, Info{Codec: CodecH264, Backend: BackendFFmpeg, Delay: dec.HasDelay()}, nil

	default:
		return nil, Info{}, ErrUnsupportedCodec
	}
}

// Factory returns a decoder constructor for mp4source that discards the
// selection info.
func Factory(opts Options) func(ports.StreamInfo) (ports.Decoder, error) {
	return func(info ports.StreamInfo) (ports.Decoder, error) {
		dec, sel, err := New(info, opts)
		if err != nil {
			return nil, err
		}
		if opts.Logger != nil {
			opts.Logger.Debug("Decoding %s with %s", sel.Codec, sel.Backend)
		}
		return dec, nil
	}
}

// IsH264Available checks if H.264 decoding is available.
func IsH264Available(ffmpegPath string) bool {
	return h264decoder.Available(ffmpegPath)
}

// IsAV1Available always returns true (libaom is always linked).
func IsAV1Available() bool {
	return true
}
