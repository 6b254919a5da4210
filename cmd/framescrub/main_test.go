package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/user/framescrub/pkg/video"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.RunContext(context.Background(), append([]string{"framescrub"}, args...))
	return out.String(), err
}

func TestApp_Help(t *testing.T) {
	out, err := runApp(t, "--help")
	if err != nil {
		t.Fatalf("help failed: %v", err)
	}
	for _, name := range []string{"probe", "frame", "scrub", "play", "timeline", "compare", "--log-level", "--ffmpeg-path"} {
		if !strings.Contains(out, name) {
			t.Errorf("expected help to mention %q", name)
		}
	}
}

func TestApp_Version(t *testing.T) {
	out, err := runApp(t, "--version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out, "framescrub version") {
		t.Errorf("unexpected version output: %s", out)
	}
}

func TestApp_ArgumentErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"probe without file", []string{"-q", "probe"}, "video file argument is required"},
		{"frame without number", []string{"-q", "frame", "clip.mp4"}, "frame number are required"},
		{"frame with bad number", []string{"-q", "frame", "clip.mp4", "x"}, `invalid frame number "x"`},
		{"scrub with bad frame", []string{"-q", "scrub", "clip.mp4", "3", "7x"}, `invalid frame number "7x"`},
		{"compare with one file", []string{"-q", "compare", "left.mp4"}, "two video files are required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runApp(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestApp_MissingVideo(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.mp4")
	_, err := runApp(t, "-q", "probe", "--index-only", missing)
	if err == nil {
		t.Fatal("expected error for a missing file")
	}
	if !errors.Is(err, video.ErrOpen) {
		t.Errorf("expected an open error, got %v", err)
	}
}

func TestApp_ConfigErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("playback:\n  speed: -1\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := runApp(t, "-q", "-c", bad, "probe", "clip.mp4"); err == nil {
		t.Error("expected error for an invalid config")
	}
	if _, err := runApp(t, "-q", "-c", filepath.Join(dir, "none.yaml"), "probe", "clip.mp4"); err == nil {
		t.Error("expected error for a missing config")
	}
	if _, err := runApp(t, "-q", "--jpeg-quality", "200", "probe", "clip.mp4"); err == nil {
		t.Error("expected error for an invalid jpeg quality")
	}
}

func TestApp_GlobalFlagsBeforeCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "framescrub.yaml")
	if err := os.WriteFile(path, []byte("log_level: warn\noutput_dir: /tmp/a\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	// The config loads and the flags parse; the action then fails on the
	// missing video.
	_, err := runApp(t, "-q", "-c", path, "-l", "debug", "--out-dir", dir, "probe", filepath.Join(dir, "none.mp4"))
	if !errors.Is(err, video.ErrOpen) {
		t.Fatalf("expected an open error, got %v", err)
	}
}

func TestParseFrames(t *testing.T) {
	frames, err := parseFrames([]string{"0", "12", "7"})
	if err != nil {
		t.Fatalf("parseFrames failed: %v", err)
	}
	want := []int{0, 12, 7}
	for i := range want {
		if frames[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, frames)
		}
	}

	for _, bad := range []string{"", "a", "-2", "1.5"} {
		if _, err := parseFrames([]string{bad}); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestBackwardTargets(t *testing.T) {
	tests := []struct {
		frames, step int
		want         []int
	}{
		{5, 1, []int{4, 3, 2, 1, 0}},
		{7, 3, []int{6, 3, 0}},
		{4, 0, []int{3, 2, 1, 0}},
		{0, 1, []int{}},
	}

	for _, tt := range tests {
		got := backwardTargets(tt.frames, tt.step)
		if len(got) != len(tt.want) {
			t.Errorf("backwardTargets(%d, %d) = %v, want %v", tt.frames, tt.step, got, tt.want)
			continue
		}
		for i := range tt.want {
			if got[i] != tt.want[i] {
				t.Errorf("backwardTargets(%d, %d) = %v, want %v", tt.frames, tt.step, got, tt.want)
				break
			}
		}
	}
}
