package filesink

import (
	"errors"
	"image"
	"path/filepath"
	"testing"

	"github.com/user/framescrub/pkg/mocks"
	"github.com/user/framescrub/pkg/ports"
)

// testBaseDir is a platform-independent base directory for tests
var testBaseDir = filepath.Join("out")

func TestSink_Enabled(t *testing.T) {
	fs := mocks.NewFileSystem()
	renderer := &mocks.Renderer{}
	sink := New(testBaseDir, fs, renderer)

	if !sink.Enabled() {
		t.Error("expected Enabled to return true")
	}
}

func TestSink_SaveFrame(t *testing.T) {
	tests := []struct {
		name       string
		opts       []Option
		wantPath   string
		wantFormat ports.ImageFormat
		wantQ      int
	}{
		{"png by default", nil, filepath.Join(testBaseDir, "frames", "frame-0042.png"), ports.FormatPNG, 0},
		{"jpeg", []Option{WithJPEG(85)}, filepath.Join(testBaseDir, "frames", "frame-0042.jpg"), ports.FormatJPEG, 85},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := mocks.NewFileSystem()
			var gotFormat ports.ImageFormat
			var gotQ int
			renderer := &mocks.Renderer{
				EncodeImageFunc: func(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
					gotFormat, gotQ = format, quality
					return []byte{0x89, 0x50, 0x4E, 0x47}, nil
				},
			}
			sink := New(testBaseDir, fs, renderer, tt.opts...)

			img := image.NewRGBA(image.Rect(0, 0, 16, 9))
			if err := sink.SaveFrame(42, img); err != nil {
				t.Fatalf("SaveFrame failed: %v", err)
			}

			if _, ok := fs.GetFile(tt.wantPath); !ok {
				t.Errorf("expected file to be saved at %s", tt.wantPath)
			}
			if sink.FramePath(42) != tt.wantPath {
				t.Errorf("expected FramePath %s, got %s", tt.wantPath, sink.FramePath(42))
			}
			if gotFormat != tt.wantFormat || gotQ != tt.wantQ {
				t.Errorf("expected format %d quality %d, got %d %d", tt.wantFormat, tt.wantQ, gotFormat, gotQ)
			}
		})
	}
}

func TestSink_SaveFrameEncodeError(t *testing.T) {
	fs := mocks.NewFileSystem()
	renderer := &mocks.Renderer{
		EncodeImageFunc: func(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
			return nil, errors.New("boom")
		},
	}
	sink := New(testBaseDir, fs, renderer)

	if err := sink.SaveFrame(1, image.NewRGBA(image.Rect(0, 0, 1, 1))); err == nil {
		t.Error("expected encode error")
	}
	if len(fs.GetAllFiles()) != 0 {
		t.Error("expected no file on encode error")
	}
}

func TestSink_SaveTimeline(t *testing.T) {
	fs := mocks.NewFileSystem()
	renderer := &mocks.Renderer{
		EncodeImageFunc: func(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
			if format != ports.FormatPNG {
				t.Errorf("expected PNG timeline, got format %d", format)
			}
			return []byte{0x89, 0x50, 0x4E, 0x47}, nil
		},
	}
	sink := New(testBaseDir, fs, renderer, WithJPEG(80))

	img := image.NewRGBA(image.Rect(0, 0, 640, 120))
	if err := sink.SaveTimeline(img); err != nil {
		t.Fatalf("SaveTimeline failed: %v", err)
	}

	expectedPath := filepath.Join(testBaseDir, "timeline.png")
	if _, ok := fs.GetFile(expectedPath); !ok {
		t.Errorf("expected file to be saved at %s", expectedPath)
	}
}

func TestSink_SaveReport(t *testing.T) {
	fs := mocks.NewFileSystem()
	renderer := &mocks.Renderer{}
	sink := New(testBaseDir, fs, renderer)

	data := []byte("# Probe\n")
	if err := sink.SaveReport("probe.md", data); err != nil {
		t.Fatalf("SaveReport failed: %v", err)
	}

	expectedPath := filepath.Join(testBaseDir, "probe.md")
	saved, ok := fs.GetFile(expectedPath)
	if !ok {
		t.Errorf("expected file to be saved at %s", expectedPath)
	}
	if string(saved) != string(data) {
		t.Errorf("expected %q, got %q", data, saved)
	}
}

func TestSink_MultipleFrames(t *testing.T) {
	fs := mocks.NewFileSystem()
	renderer := &mocks.Renderer{}
	sink := New(testBaseDir, fs, renderer)

	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	for i := 0; i < 10; i++ {
		if err := sink.SaveFrame(i, img); err != nil {
			t.Fatalf("SaveFrame %d failed: %v", i, err)
		}
	}

	if got := len(fs.GetAllFiles()); got != 10 {
		t.Errorf("expected 10 files, got %d", got)
	}
}
