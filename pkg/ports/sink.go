package ports

import (
	"image"
)

// FrameSink receives decoded frames, for example to write them to disk.
type FrameSink interface {
	// Enabled returns true if the sink stores anything.
	Enabled() bool

	// SaveFrame stores the picture shown for the given frame number.
	SaveFrame(frame int, img image.Image) error

	// SaveTimeline stores a rendered timeline image.
	SaveTimeline(img image.Image) error

	// SaveReport stores a text report such as the probe summary.
	SaveReport(name string, data []byte) error
}
