// Package nullsink provides a no-op frame sink implementation.
package nullsink

import (
	"image"

	"github.com/user/framescrub/pkg/ports"
)

// Sink is a no-op implementation of ports.FrameSink.
// It discards all output, which lets playback run without writing files.
type Sink struct{}

// New creates a new NullSink.
func New() *Sink {
	return &Sink{}
}

// Enabled returns false as this sink discards all output.
func (s *Sink) Enabled() bool {
	return false
}

// SaveFrame does nothing.
func (s *Sink) SaveFrame(frame int, img image.Image) error {
	return nil
}

// SaveTimeline does nothing.
func (s *Sink) SaveTimeline(img image.Image) error {
	return nil
}

// SaveReport does nothing.
func (s *Sink) SaveReport(name string, data []byte) error {
	return nil
}

// Ensure Sink implements ports.FrameSink
var _ ports.FrameSink = (*Sink)(nil)
