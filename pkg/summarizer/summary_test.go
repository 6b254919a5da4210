package summarizer

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/user/framescrub/pkg/adapters/logger"
	"github.com/user/framescrub/pkg/mocks"
	"github.com/user/framescrub/pkg/ports"
	"github.com/user/framescrub/pkg/video"
)

func TestNewSummary(t *testing.T) {
	before := time.Now()
	summary := NewSummary()
	after := time.Now()

	if summary.GeneratedAt.Before(before) || summary.GeneratedAt.After(after) {
		t.Errorf("GeneratedAt should be between %v and %v, got %v",
			before, after, summary.GeneratedAt)
	}
}

func TestBuilder_WithFile(t *testing.T) {
	path := filepath.Join("videos", "clip.mp4")
	summary := NewBuilder().
		WithFile(path, 2048).
		Build()

	if summary.File.Name != "clip.mp4" {
		t.Errorf("expected name 'clip.mp4', got '%s'", summary.File.Name)
	}
	if summary.File.Path != path || summary.File.Size != 2048 {
		t.Errorf("unexpected file info %+v", summary.File)
	}
}

func TestBuilder_WithVideo(t *testing.T) {
	stream := ports.StreamInfo{
		Kind:      ports.KindVideo,
		Codec:     "mock",
		Width:     64,
		Height:    48,
		TimeBase:  ports.Rational{Num: 1, Den: 30},
		FrameRate: ports.Rational{Num: 30, Den: 1},
		Duration:  8,
	}
	keyframes := []bool{true, false, false, false, true, false, false, false}
	src := mocks.NewMediaSource(stream, mocks.VideoPackets(0, keyframes, nil, 1), 0)

	f, err := video.Open(context.Background(), src, "clip.mp4", video.Options{Logger: logger.NewNoop()})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	summary := NewBuilder().WithVideo(f).Build()

	if summary.Stream.Codec != "mock" || summary.Stream.Width != 64 || summary.Stream.Height != 48 {
		t.Errorf("unexpected stream %+v", summary.Stream)
	}
	if summary.Stream.Aspect != "4:3" {
		t.Errorf("expected aspect 4:3, got %s", summary.Stream.Aspect)
	}
	if summary.Stream.FrameRate != "30/1" {
		t.Errorf("expected frame rate 30/1, got %s", summary.Stream.FrameRate)
	}
	if summary.Index.FrameCount != 8 {
		t.Errorf("expected 8 frames, got %d", summary.Index.FrameCount)
	}
	if len(summary.Index.Keyframes) != 2 || summary.Index.Keyframes[1] != 4 {
		t.Errorf("expected keyframes [0 4], got %v", summary.Index.Keyframes)
	}
	if summary.Index.LongestGOP() != 4 {
		t.Errorf("expected longest GOP 4, got %d", summary.Index.LongestGOP())
	}
}

func TestBuilder_AddSeek(t *testing.T) {
	summary := NewBuilder().
		AddSeek(6, video.Stats{Packets: 3, LastCase: video.SeekReplay}, time.Millisecond).
		AddSeek(4, video.Stats{Packets: 1, LastCase: video.SeekKeyframe}, time.Millisecond).
		Build()

	if len(summary.Seeks) != 2 {
		t.Fatalf("expected 2 seeks, got %d", len(summary.Seeks))
	}
	if summary.Seeks[0].Case != "replay" || summary.Seeks[0].Packets != 3 {
		t.Errorf("unexpected first seek %+v", summary.Seeks[0])
	}
	if summary.Seeks[1].Case != "keyframe" || summary.Seeks[1].Target != 4 {
		t.Errorf("unexpected second seek %+v", summary.Seeks[1])
	}
}

func TestIndexInfo_LongestGOP(t *testing.T) {
	tests := []struct {
		gops []int
		want int
	}{
		{nil, 0},
		{[]int{5}, 5},
		{[]int{3, 9, 2}, 9},
	}

	for _, tt := range tests {
		if got := (IndexInfo{GOPs: tt.gops}).LongestGOP(); got != tt.want {
			t.Errorf("LongestGOP(%v) = %d, want %d", tt.gops, got, tt.want)
		}
	}
}

func TestWriter_Write(t *testing.T) {
	fs := mocks.NewFileSystem()
	formatter := FormatFunc(func(s *Summary) string {
		return "report for " + s.File.Name
	})
	w := NewWriter(formatter, fs)

	path := filepath.Join("out", "reports", "clip.md")
	if err := w.Write(path, NewBuilder().WithFile("clip.mp4", 0).Build()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, ok := fs.GetFile(path)
	if !ok {
		t.Fatalf("expected file at %s", path)
	}
	if !strings.Contains(string(data), "report for clip.mp4") {
		t.Errorf("unexpected content %q", data)
	}
}

func TestWriter_WriteError(t *testing.T) {
	writeErr := errors.New("read-only")
	fs := mocks.NewFileSystem()
	fs.WriteFileFunc = func(path string, data []byte) error { return writeErr }
	w := NewWriter(NewMarkdownFormatter(), fs)

	if err := w.Write("clip.md", sampleSummary()); !errors.Is(err, writeErr) {
		t.Errorf("expected write error, got %v", err)
	}
}
