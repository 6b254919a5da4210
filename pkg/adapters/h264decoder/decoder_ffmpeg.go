package h264decoder

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"runtime"
	"sync"
	"time"
)

// ffmpeg runs the ffmpeg binary as a raw H.264 to RGBA converter.
type ffmpeg struct {
	path   string
	width  int
	height int
}

// findFFmpeg searches for ffmpeg in PATH and common locations.
// If customPath is set, it uses that path instead.
func findFFmpeg(customPath string) (string, error) {
	if customPath != "" {
		if _, err := os.Stat(customPath); err == nil {
			return customPath, nil
		}
		return "", fmt.Errorf("%w: custom path %s not found", ErrFFmpegNotFound, customPath)
	}

	execName := "ffmpeg"
	if runtime.GOOS == "windows" {
		execName = "ffmpeg.exe"
	}

	path, err := exec.LookPath(execName)
	if err == nil {
		return path, nil
	}

	var commonPaths []string
	if runtime.GOOS == "windows" {
		commonPaths = []string{
			`C:\ffmpeg\bin\ffmpeg.exe`,
			`C:\Program Files\ffmpeg\bin\ffmpeg.exe`,
			`C:\Program Files (x86)\ffmpeg\bin\ffmpeg.exe`,
		}
	} else {
		commonPaths = []string{
			"/usr/bin/ffmpeg",
			"/usr/local/bin/ffmpeg",
			"/opt/homebrew/bin/ffmpeg",
			"/snap/bin/ffmpeg",
		}
	}

	for _, p := range commonPaths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", ErrFFmpegNotFound
}

// accessUnitDelimiter follows every access unit written to ffmpeg so its
// parser can close the unit without waiting for the next one.
var accessUnitDelimiter = []byte{0, 0, 0, 1, 0x09, 0xf0}

// start launches ffmpeg reading Annex B from stdin and writing RGBA frames
// to stdout. It runs single threaded so a frame leaves as soon as the
// stream's reorder depth allows.
func (f *ffmpeg) start() (session, error) {
	if f.width <= 0 || f.height <= 0 {
		return nil, ErrNoDimensions
	}

	cmd := exec.Command(f.path,
		"-hide_banner",
		"-loglevel", "error",
		"-probesize", "32",
		"-analyzeduration", "0",
		"-fflags", "nobuffer",
		"-threads", "1",
		"-f", "h264",
		"-i", "pipe:0",
		"-fps_mode", "passthrough",
		"-flush_packets", "1",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"pipe:1",
	)
	p, err := startProcess(cmd, f.width, f.height)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// startProcess runs cmd with piped stdin and stdout and collects its
// output as width x height RGBA frames.
func startProcess(cmd *exec.Cmd, width, height int) (*process, error) {
	p := &process{cmd: cmd, width: width, height: height, notify: make(chan struct{}, 1)}
	cmd.Stderr = &p.stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", cmd.Path, err)
	}
	p.stdin = stdin
	p.done = make(chan struct{})
	go p.read(stdout, width*height*4)
	return p, nil
}

// process is a running ffmpeg. A reader goroutine collects its frames so
// ffmpeg never blocks on a full stdout while input is still being written.
type process struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer
	width  int
	height int

	inputClosed bool

	mu     sync.Mutex
	frames []*image.RGBA
	base   int // output index of frames[0]
	ended  bool
	err    error
	notify chan struct{}
	done   chan struct{}
}

func (p *process) read(stdout io.Reader, frameSize int) {
	defer close(p.done)

	buf := make([]byte, frameSize)
	var readErr error
	for {
		if _, err := io.ReadFull(stdout, buf); err != nil {
			if !errors.Is(err, io.EOF) {
				readErr = err
			}
			break
		}
		img := image.NewRGBA(image.Rect(0, 0, p.width, p.height))
		copy(img.Pix, buf)
		p.mu.Lock()
		p.frames = append(p.frames, img)
		p.mu.Unlock()
		p.signal()
	}

	waitErr := p.cmd.Wait()
	p.mu.Lock()
	p.ended = true
	switch {
	case waitErr != nil:
		p.err = fmt.Errorf("ffmpeg decode failed: %w\nstderr: %s", waitErr, p.stderr.String())
	case readErr != nil:
		p.err = fmt.Errorf("read ffmpeg output: %w", readErr)
	}
	p.mu.Unlock()
	p.signal()
}

func (p *process) signal() {
	select {
	case p.notify <- struct{}{}:
	default:
	}
}

func (p *process) Write(au []byte) error {
	if p.inputClosed {
		return errors.New("ffmpeg input already closed")
	}
	if _, err := p.stdin.Write(au); err != nil {
		return fmt.Errorf("write to ffmpeg: %w", err)
	}
	if _, err := p.stdin.Write(accessUnitDelimiter); err != nil {
		return fmt.Errorf("write to ffmpeg: %w", err)
	}
	return nil
}

func (p *process) CloseInput() error {
	if p.inputClosed {
		return nil
	}
	p.inputClosed = true
	return p.stdin.Close()
}

func (p *process) InputClosed() bool { return p.inputClosed }

// Frame returns output frame i and releases the frames before it.
func (p *process) Frame(i int, wait time.Duration) (*image.RGBA, error) {
	var timeout <-chan time.Time
	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		timeout = timer.C
	}

	for {
		p.mu.Lock()
		if i < p.base {
			p.mu.Unlock()
			return nil, fmt.Errorf("frame %d already released", i)
		}
		if i-p.base < len(p.frames) {
			img := p.frames[i-p.base]
			p.frames = p.frames[i-p.base:]
			p.base = i
			p.mu.Unlock()
			return img, nil
		}
		ended, err := p.ended, p.err
		p.mu.Unlock()

		if ended {
			if err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("ffmpeg produced %d frames, frame %d missing", p.base+len(p.frames), i)
		}

		select {
		case <-p.notify:
		case <-timeout:
			return nil, errStalled
		}
	}
}

// Stop kills ffmpeg unless it already exited and waits for the reader.
func (p *process) Stop() {
	p.CloseInput()
	select {
	case <-p.done:
		return
	default:
	}
	if p.cmd.Process != nil {
		p.cmd.Process.Kill()
	}
	<-p.done
}
