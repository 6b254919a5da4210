package config

import (
	"image/color"
	"testing"

	"github.com/user/framescrub/pkg/mocks"
	"github.com/user/framescrub/pkg/ports"
	"github.com/user/framescrub/pkg/video"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults do not validate: %v", err)
	}
	if cfg.Probe.Headroom != video.DefaultHeadroom {
		t.Errorf("expected headroom %d, got %d", video.DefaultHeadroom, cfg.Probe.Headroom)
	}
	if cfg.Seek.ReplaySlack != video.DefaultReplaySlack {
		t.Errorf("expected replay slack %d, got %d", video.DefaultReplaySlack, cfg.Seek.ReplaySlack)
	}
	if !cfg.Playback.Loop || cfg.Playback.Speed != 1.0 {
		t.Errorf("expected looping at speed 1, got %+v", cfg.Playback)
	}
	if cfg.Level() != ports.LevelInfo {
		t.Errorf("expected info level, got %s", cfg.Level())
	}
}

func TestLoad(t *testing.T) {
	yaml := `log_level: debug
ffmpeg_path: /opt/ffmpeg
probe:
  index_only: true
seek:
  replay_slack: 8
playback:
  loop: false
  speed: 2
timeline:
  width: 640
  keyframe_color: "#ff0000"
`
	fs := mocks.NewFileSystem()
	fs.AddFile("framescrub.yaml", []byte(yaml))

	cfg, err := Load(fs, "framescrub.yaml")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Level() != ports.LevelDebug {
		t.Errorf("expected debug level, got %s", cfg.Level())
	}
	if cfg.FFmpegPath != "/opt/ffmpeg" {
		t.Errorf("expected ffmpeg path, got %q", cfg.FFmpegPath)
	}
	if !cfg.Probe.IndexOnly {
		t.Error("expected index_only")
	}
	// Unset keys keep their defaults.
	if cfg.Probe.Headroom != video.DefaultHeadroom {
		t.Errorf("expected default headroom, got %d", cfg.Probe.Headroom)
	}
	if cfg.Seek.ReplaySlack != 8 {
		t.Errorf("expected replay slack 8, got %d", cfg.Seek.ReplaySlack)
	}
	if cfg.Playback.Loop || cfg.Playback.Speed != 2 {
		t.Errorf("unexpected playback %+v", cfg.Playback)
	}
	if cfg.Timeline.Width != 640 || cfg.Timeline.BarHeight != 24 {
		t.Errorf("unexpected timeline %+v", cfg.Timeline)
	}

	opts := cfg.VideoOptions(nil)
	if !opts.IndexOnly || opts.ReplaySlack != 8 || opts.Headroom != video.DefaultHeadroom {
		t.Errorf("unexpected video options %+v", opts)
	}
	topts := cfg.TimelineOptions()
	if topts.KeyframeColor != (color.RGBA{R: 255, A: 255}) {
		t.Errorf("expected red keyframes, got %v", topts.KeyframeColor)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"invalid yaml", "probe: [1, 2"},
		{"negative headroom", "probe:\n  headroom: -1\n"},
		{"negative slack", "seek:\n  replay_slack: -2\n"},
		{"zero speed", "playback:\n  speed: 0\n"},
		{"bad jpeg quality", "jpeg_quality: 101\n"},
		{"unknown log level", "log_level: verbose\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := mocks.NewFileSystem()
			fs.AddFile("c.yaml", []byte(tt.yaml))
			if _, err := Load(fs, "c.yaml"); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := Load(mocks.NewFileSystem(), "missing.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		input string
		want  color.Color
	}{
		{"#4ade80", color.RGBA{R: 0x4a, G: 0xde, B: 0x80, A: 255}},
		{"FFFFFF", color.RGBA{R: 255, G: 255, B: 255, A: 255}},
		{"#f00", color.RGBA{R: 255, A: 255}},
		{"", color.Black},
		{"#12345", color.Black},
		{"#zzzzzz", color.Black},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseColor(tt.input); got != tt.want {
				t.Errorf("ParseColor(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
