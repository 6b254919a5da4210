package summarizer

import (
	"path/filepath"
	"time"

	"github.com/user/framescrub/pkg/video"
)

// Summary contains everything reported about one probed video.
type Summary struct {
	// Metadata
	GeneratedAt time.Time `yaml:"generated_at" json:"generated_at"`

	File   FileInfo   `yaml:"file" json:"file"`
	Stream StreamInfo `yaml:"stream" json:"stream"`
	Index  IndexInfo  `yaml:"index" json:"index"`

	// Seeks lists timed seeks, if any were measured.
	Seeks []SeekInfo `yaml:"seeks,omitempty" json:"seeks,omitempty"`
}

// FileInfo identifies the probed file.
type FileInfo struct {
	Name string `yaml:"name" json:"name"`
	Path string `yaml:"path" json:"path"`
	Size int64  `yaml:"size" json:"size"`
}

// StreamInfo describes the video stream.
type StreamInfo struct {
	Codec      string        `yaml:"codec" json:"codec"`
	Width      int           `yaml:"width" json:"width"`
	Height     int           `yaml:"height" json:"height"`
	Aspect     string        `yaml:"aspect" json:"aspect"`
	FrameRate  string        `yaml:"frame_rate" json:"frame_rate"`
	MsPerFrame float64       `yaml:"ms_per_frame" json:"ms_per_frame"`
	Duration   time.Duration `yaml:"duration" json:"duration"`
	// HasDelay is set when the decoder holds pictures back.
	HasDelay bool `yaml:"has_delay" json:"has_delay"`
}

// IndexInfo describes the frame index.
type IndexInfo struct {
	FrameCount int           `yaml:"frame_count" json:"frame_count"`
	Keyframes  []int         `yaml:"keyframes" json:"keyframes"`
	GOPs       []int         `yaml:"gops" json:"gops"`
	ProbeTime  time.Duration `yaml:"probe_time" json:"probe_time"`
}

// SeekInfo is one measured seek.
type SeekInfo struct {
	Target  int           `yaml:"target" json:"target"`
	Case    string        `yaml:"case" json:"case"`
	Packets int           `yaml:"packets" json:"packets"`
	Elapsed time.Duration `yaml:"elapsed" json:"elapsed"`
}

// LongestGOP returns the length of the longest group of pictures.
func (i IndexInfo) LongestGOP() int {
	longest := 0
	for _, g := range i.GOPs {
		if g > longest {
			longest = g
		}
	}
	return longest
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithFile sets file information. The name is the base of path.
func (b *Builder) WithFile(path string, size int64) *Builder {
	b.summary.File = FileInfo{
		Name: filepath.Base(path),
		Path: path,
		Size: size,
	}
	return b
}

// WithStream sets stream information.
func (b *Builder) WithStream(stream StreamInfo) *Builder {
	b.summary.Stream = stream
	return b
}

// WithIndex sets index information.
func (b *Builder) WithIndex(index IndexInfo) *Builder {
	b.summary.Index = index
	return b
}

// WithVideo fills stream and index information from an opened file.
func (b *Builder) WithVideo(f *video.File) *Builder {
	ix := f.Index()
	b.summary.Stream = StreamInfo{
		Codec:      f.Stream().Codec,
		Width:      f.Width(),
		Height:     f.Height(),
		Aspect:     f.AspectRatio().String(),
		FrameRate:  f.FrameRate().String(),
		MsPerFrame: f.MsPerFrame(),
		Duration:   f.Duration(),
		HasDelay:   f.HasDelay(),
	}
	b.summary.Index = IndexInfo{
		FrameCount: ix.Len(),
		Keyframes:  ix.Keyframes(),
		GOPs:       ix.GOPs(),
		ProbeTime:  f.ProbeTime(),
	}
	return b
}

// AddSeek records a measured seek.
func (b *Builder) AddSeek(target int, stats video.Stats, elapsed time.Duration) *Builder {
	b.summary.Seeks = append(b.summary.Seeks, SeekInfo{
		Target:  target,
		Case:    stats.LastCase.String(),
		Packets: stats.Packets,
		Elapsed: elapsed,
	})
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
