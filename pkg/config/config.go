// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"image/color"

	"gopkg.in/yaml.v3"

	"github.com/user/framescrub/pkg/ports"
	"github.com/user/framescrub/pkg/timeline"
	"github.com/user/framescrub/pkg/video"
)

// Config represents the full configuration for framescrub.
type Config struct {
	LogLevel   string `yaml:"log_level"`
	FFmpegPath string `yaml:"ffmpeg_path"`

	Probe    ProbeConfig    `yaml:"probe"`
	Seek     SeekConfig     `yaml:"seek"`
	Playback PlaybackConfig `yaml:"playback"`
	Timeline TimelineConfig `yaml:"timeline"`

	// OutputDir receives frames, timelines and reports.
	OutputDir string `yaml:"output_dir"`
	// JPEGQuality selects JPEG frame output when above zero.
	JPEGQuality int `yaml:"jpeg_quality"`
}

// ProbeConfig controls how files are indexed.
type ProbeConfig struct {
	// IndexOnly skips decoding while probing.
	IndexOnly bool `yaml:"index_only"`
	// Headroom is added to the estimated frame count.
	Headroom int `yaml:"headroom"`
}

// SeekConfig controls random access.
type SeekConfig struct {
	// ReplaySlack is the number of packets a replay may read beyond the
	// distance from its keyframe.
	ReplaySlack int `yaml:"replay_slack"`
}

// PlaybackConfig controls real-time playback.
type PlaybackConfig struct {
	Loop  bool    `yaml:"loop"`
	Speed float64 `yaml:"speed"`
	// MaxTicks caps the ticks of one Advance call.
	MaxTicks int `yaml:"max_ticks"`
}

// TimelineConfig represents the timeline strip layout and colors.
type TimelineConfig struct {
	Width           int     `yaml:"width"`
	BarHeight       int     `yaml:"bar_height"`
	Thumbnails      int     `yaml:"thumbnails"`
	ThumbnailHeight int     `yaml:"thumbnail_height"`
	Padding         int     `yaml:"padding"`
	FontPath        string  `yaml:"font_path"`
	FontSize        float64 `yaml:"font_size"`

	BackgroundColor string `yaml:"background_color"`
	FrameColor      string `yaml:"frame_color"`
	KeyframeColor   string `yaml:"keyframe_color"`
	MarkerColor     string `yaml:"marker_color"`
	TextColor       string `yaml:"text_color"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		LogLevel: "info",

		Probe: ProbeConfig{
			Headroom: video.DefaultHeadroom,
		},
		Seek: SeekConfig{
			ReplaySlack: video.DefaultReplaySlack,
		},
		Playback: PlaybackConfig{
			Loop:     true,
			Speed:    1.0,
			MaxTicks: 4,
		},
		Timeline: TimelineConfig{
			Width:           1280,
			BarHeight:       24,
			Thumbnails:      8,
			ThumbnailHeight: 90,
			Padding:         8,
			FontSize:        12,

			BackgroundColor: "#1a1a2e",
			FrameColor:      "#333355",
			KeyframeColor:   "#4ade80",
			MarkerColor:     "#f87171",
			TextColor:       "#ffffff",
		},

		OutputDir: "./out",
	}
}

// Load reads a YAML file from fs over the defaults. Keys missing from the
// file keep their default values.
func Load(fs ports.FileSystem, path string) (Config, error) {
	cfg := Defaults()

	data, err := fs.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate rejects values the engine cannot work with.
func (c Config) Validate() error {
	if _, err := ports.ParseLogLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if c.Probe.Headroom < 0 {
		return fmt.Errorf("probe.headroom must not be negative: %d", c.Probe.Headroom)
	}
	if c.Seek.ReplaySlack < 0 {
		return fmt.Errorf("seek.replay_slack must not be negative: %d", c.Seek.ReplaySlack)
	}
	if c.Playback.Speed <= 0 {
		return fmt.Errorf("playback.speed must be positive: %g", c.Playback.Speed)
	}
	if c.JPEGQuality < 0 || c.JPEGQuality > 100 {
		return fmt.Errorf("jpeg_quality must be between 0 and 100: %d", c.JPEGQuality)
	}
	return nil
}

// Level returns the configured log level, or LevelInfo when it does not
// parse. Validate reports the latter.
func (c Config) Level() ports.LogLevel {
	level, _ := ports.ParseLogLevel(c.LogLevel)
	return level
}

// VideoOptions converts the probe and seek settings for video.Open.
func (c Config) VideoOptions(log ports.Logger) video.Options {
	return video.Options{
		Logger:      log,
		IndexOnly:   c.Probe.IndexOnly,
		Headroom:    c.Probe.Headroom,
		ReplaySlack: c.Seek.ReplaySlack,
	}
}

// TimelineOptions converts the timeline settings.
func (c Config) TimelineOptions() timeline.Options {
	t := c.Timeline
	return timeline.Options{
		Width:           t.Width,
		BarHeight:       t.BarHeight,
		Thumbnails:      t.Thumbnails,
		ThumbnailHeight: t.ThumbnailHeight,
		Padding:         t.Padding,
		FontPath:        t.FontPath,
		FontSize:        t.FontSize,
		Background:      ParseColor(t.BackgroundColor),
		FrameColor:      ParseColor(t.FrameColor),
		KeyframeColor:   ParseColor(t.KeyframeColor),
		MarkerColor:     ParseColor(t.MarkerColor),
		TextColor:       ParseColor(t.TextColor),
	}
}

// ParseColor parses a hex color string to color.Color. Both #rrggbb and
// #rgb are accepted; anything else is black.
func ParseColor(hex string) color.Color {
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}

	switch len(hex) {
	case 3:
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	case 6:
	default:
		return color.Black
	}

	var rgb [3]uint8
	for i := range rgb {
		hi, ok1 := hexValue(hex[2*i])
		lo, ok2 := hexValue(hex[2*i+1])
		if !ok1 || !ok2 {
			return color.Black
		}
		rgb[i] = hi<<4 | lo
	}

	return color.RGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 255}
}

func hexValue(c byte) (uint8, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}
