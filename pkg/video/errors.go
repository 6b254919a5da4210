package video

import "errors"

var (
	// ErrOpen is returned when the container cannot be opened or has no
	// usable video stream.
	ErrOpen = errors.New("video: open failed")

	// ErrProbe is returned when the indexing pass fails: the probe handle
	// cannot be opened, a packet cannot be decoded, or the index outgrows
	// its capacity estimate.
	ErrProbe = errors.New("video: probe failed")

	// ErrSeek is returned when the demuxer refuses to reposition or the
	// stream ends before the target picture is produced.
	ErrSeek = errors.New("video: seek failed")

	// ErrReplayBudgetExceeded is returned when replaying from a keyframe
	// does not reach the target within the expected number of packets.
	ErrReplayBudgetExceeded = errors.New("video: replay budget exceeded")

	// ErrEndOfStream is returned when a decode reaches the end of the
	// stream without producing a picture.
	ErrEndOfStream = errors.New("video: end of stream")

	// ErrClosed is returned when a closed clip or file is used.
	ErrClosed = errors.New("video: closed")

	// ErrFrameOutOfRange is returned for seek targets outside the clip.
	ErrFrameOutOfRange = errors.New("video: frame out of range")
)
