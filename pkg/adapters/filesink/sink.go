// Package filesink provides a file-based frame sink implementation.
package filesink

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/user/framescrub/pkg/ports"
)

// Sink saves frames, timelines and reports under a base directory:
//
//	<baseDir>/frames/frame-0042.png
//	<baseDir>/timeline.png
//	<baseDir>/<report name>
type Sink struct {
	baseDir  string
	fs       ports.FileSystem
	renderer ports.Renderer
	format   ports.ImageFormat
	quality  int
}

// Option configures a Sink.
type Option func(*Sink)

// WithJPEG writes frames as JPEG with the given quality instead of PNG.
func WithJPEG(quality int) Option {
	return func(s *Sink) {
		s.format = ports.FormatJPEG
		s.quality = quality
	}
}

// New creates a new FileSink.
func New(baseDir string, fs ports.FileSystem, renderer ports.Renderer, opts ...Option) *Sink {
	s := &Sink{
		baseDir:  baseDir,
		fs:       fs,
		renderer: renderer,
		format:   ports.FormatPNG,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

// FramePath returns where SaveFrame writes the given frame.
func (s *Sink) FramePath(frame int) string {
	return filepath.Join(s.baseDir, "frames", fmt.Sprintf("frame-%04d%s", frame, s.format.Ext()))
}

// SaveFrame saves the picture of one frame.
func (s *Sink) SaveFrame(frame int, img image.Image) error {
	dir := filepath.Join(s.baseDir, "frames")
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}
	data, err := s.renderer.EncodeImage(img, s.format, s.quality)
	if err != nil {
		return fmt.Errorf("encode frame %d: %w", frame, err)
	}
	return s.fs.WriteFile(s.FramePath(frame), data)
}

// SaveTimeline saves a rendered timeline strip as PNG.
func (s *Sink) SaveTimeline(img image.Image) error {
	data, err := s.renderer.EncodeImage(img, ports.FormatPNG, 0)
	if err != nil {
		return fmt.Errorf("encode timeline: %w", err)
	}
	if err := s.fs.MkdirAll(s.baseDir); err != nil {
		return err
	}
	path := filepath.Join(s.baseDir, "timeline.png")
	return s.fs.WriteFile(path, data)
}

// SaveReport saves a text report under the given file name.
func (s *Sink) SaveReport(name string, data []byte) error {
	if err := s.fs.MkdirAll(s.baseDir); err != nil {
		return err
	}
	path := filepath.Join(s.baseDir, name)
	return s.fs.WriteFile(path, data)
}

// Ensure Sink implements ports.FrameSink
var _ ports.FrameSink = (*Sink)(nil)
