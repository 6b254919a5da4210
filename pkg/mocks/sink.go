package mocks

import (
	"image"
	"sync"

	"github.com/user/framescrub/pkg/ports"
)

// FrameSink is a mock implementation of ports.FrameSink.
type FrameSink struct {
	mu sync.RWMutex

	enabled bool

	Frames   map[int]image.Image
	Order    []int
	Timeline image.Image
	Reports  map[string][]byte

	// SaveFrameErr is returned from SaveFrame when set.
	SaveFrameErr error
}

// NewFrameSink creates a new mock FrameSink.
func NewFrameSink(enabled bool) *FrameSink {
	return &FrameSink{
		enabled: enabled,
		Frames:  make(map[int]image.Image),
		Reports: make(map[string][]byte),
	}
}

func (m *FrameSink) Enabled() bool {
	return m.enabled
}

func (m *FrameSink) SaveFrame(frame int, img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveFrameErr != nil {
		return m.SaveFrameErr
	}
	m.Frames[frame] = img
	m.Order = append(m.Order, frame)
	return nil
}

func (m *FrameSink) SaveTimeline(img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Timeline = img
	return nil
}

func (m *FrameSink) SaveReport(name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Reports[name] = data
	return nil
}

// SavedOrder returns the frame numbers in the order they were saved.
func (m *FrameSink) SavedOrder() []int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]int(nil), m.Order...)
}

var _ ports.FrameSink = (*FrameSink)(nil)
