// Package codecdetect identifies the codec of MP4 tracks.
package codecdetect

import (
	"fmt"
	"io"
	"os"

	"github.com/Eyevinn/mp4ff/mp4"
)

// Codec represents a codec type.
type Codec string

const (
	CodecH264    Codec = "h264"
	CodecHEVC    Codec = "hevc"
	CodecAV1     Codec = "av1"
	CodecAAC     Codec = "aac"
	CodecOpus    Codec = "opus"
	CodecUnknown Codec = "unknown"
)

// Kind classifies a track by its handler.
type Kind string

const (
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
	KindOther Kind = "other"
)

// DetectFromFile detects the video codec used in an MP4 file.
func DetectFromFile(path string) (Codec, error) {
	f, err := os.Open(path)
	if err != nil {
		return CodecUnknown, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	return DetectFromReader(f)
}

// DetectFromReader detects the video codec from an io.ReadSeeker and
// rewinds the reader afterwards.
func DetectFromReader(reader io.ReadSeeker) (Codec, error) {
	mp4File, err := mp4.DecodeFile(reader)
	if err != nil {
		return CodecUnknown, fmt.Errorf("decode mp4: %w", err)
	}

	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return CodecUnknown, fmt.Errorf("seek: %w", err)
	}

	return DetectFromMP4(mp4File)
}

// DetectFromMP4 returns the codec of the first video track of a decoded file.
func DetectFromMP4(mp4File *mp4.File) (Codec, error) {
	for _, trak := range Traks(mp4File) {
		if TrackKind(trak) != KindVideo {
			continue
		}
		if codec := TrackCodec(trak); codec != CodecUnknown {
			return codec, nil
		}
	}
	return CodecUnknown, fmt.Errorf("no video track found")
}

// Traks returns the track boxes of a progressive or fragmented file.
func Traks(mp4File *mp4.File) []*mp4.TrakBox {
	if mp4File.IsFragmented() && mp4File.Init != nil && mp4File.Init.Moov != nil {
		return mp4File.Init.Moov.Traks
	}
	if mp4File.Moov != nil {
		return mp4File.Moov.Traks
	}
	return nil
}

// TrackKind classifies a track by its handler type.
func TrackKind(trak *mp4.TrakBox) Kind {
	if trak.Mdia == nil || trak.Mdia.Hdlr == nil {
		return KindOther
	}
	switch trak.Mdia.Hdlr.HandlerType {
	case "vide":
		return KindVideo
	case "soun":
		return KindAudio
	default:
		return KindOther
	}
}

// TrackCodec returns the codec named by the track's sample description.
func TrackCodec(trak *mp4.TrakBox) Codec {
	if trak.Mdia == nil || trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsd == nil {
		return CodecUnknown
	}

	for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
		switch child.Type() {
		case "avc1", "avc3":
			return CodecH264
		case "hvc1", "hev1":
			return CodecHEVC
		case "av01":
			return CodecAV1
		case "mp4a":
			return CodecAAC
		case "Opus":
			return CodecOpus
		}
	}

	return CodecUnknown
}
