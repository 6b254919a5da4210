// Package player drives a clip in real time: it converts elapsed wall time
// into ticks, handles play, pause, stepping and scrubbing, and hands every
// newly shown picture to a frame sink.
package player

import (
	"context"
	"fmt"
	"image"
	"math"
	"time"

	"github.com/user/framescrub/pkg/adapters/logger"
	"github.com/user/framescrub/pkg/ports"
)

// Clip is the part of video.Clip the player needs.
type Clip interface {
	Tick() (bool, error)
	Seek(target int) error
	CurrentFrame() int
	BeginFrame() int
	EndFrame() int
	Picture() *image.RGBA
}

// Config contains the player settings.
type Config struct {
	// FramePeriod is the presentation time of one frame at speed 1.
	FramePeriod time.Duration
	// Speed scales elapsed time. Zero means 1.
	Speed float64
	// MaxTicks caps the ticks of one Advance call; a larger backlog is
	// dropped. Zero means 4.
	MaxTicks int

	Sink   ports.FrameSink
	Logger ports.Logger
}

const defaultMaxTicks = 4

// Player owns the playback state of one clip.
type Player struct {
	clip     Clip
	period   time.Duration
	speed    float64
	maxTicks int
	sink     ports.FrameSink
	log      ports.Logger

	playing bool
	acc     time.Duration
	shown   int
	now     func() time.Time
}

// New creates a paused player. The clip's current picture counts as shown
// but is not written to the sink.
func New(clip Clip, cfg Config) (*Player, error) {
	if cfg.FramePeriod <= 0 {
		return nil, fmt.Errorf("frame period must be positive: %s", cfg.FramePeriod)
	}
	if cfg.Speed < 0 {
		return nil, fmt.Errorf("speed must not be negative: %g", cfg.Speed)
	}
	if cfg.Speed == 0 {
		cfg.Speed = 1
	}
	if cfg.MaxTicks <= 0 {
		cfg.MaxTicks = defaultMaxTicks
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewNoop()
	}
	return &Player{
		clip:     clip,
		period:   cfg.FramePeriod,
		speed:    cfg.Speed,
		maxTicks: cfg.MaxTicks,
		sink:     cfg.Sink,
		log:      log.WithComponent("player"),
		now:      time.Now,
	}, nil
}

// Play starts or resumes playback.
func (p *Player) Play() { p.playing = true }

// Pause stops playback and discards accumulated time.
func (p *Player) Pause() {
	p.playing = false
	p.acc = 0
}

// Toggle switches between playing and paused.
func (p *Player) Toggle() {
	if p.playing {
		p.Pause()
	} else {
		p.Play()
	}
}

// Playing reports whether the player advances on Advance.
func (p *Player) Playing() bool { return p.playing }

// Speed returns the playback speed.
func (p *Player) Speed() float64 { return p.speed }

// SetSpeed changes the playback speed. Non-positive values are ignored.
func (p *Player) SetSpeed(speed float64) {
	if speed > 0 {
		p.speed = speed
	}
}

// Shown returns how many pictures have been presented since New.
func (p *Player) Shown() int { return p.shown }

// Frame returns the clip's current frame.
func (p *Player) Frame() int { return p.clip.CurrentFrame() }

// Advance adds elapsed wall time and ticks once per whole frame period,
// presenting every new picture. It returns the number of ticks. Playback
// pauses at the end of a clip that does not loop.
func (p *Player) Advance(elapsed time.Duration) (int, error) {
	if !p.playing || elapsed <= 0 {
		return 0, nil
	}
	p.acc += scale(elapsed, p.speed)

	ticks := 0
	for p.acc >= p.period {
		if ticks == p.maxTicks {
			p.log.Debug("Dropping %d frame periods behind", int(p.acc/p.period))
			p.acc = 0
			break
		}
		p.acc -= p.period

		ok, err := p.clip.Tick()
		if err != nil {
			p.log.Warn("Tick after frame %d failed: %v", p.clip.CurrentFrame(), err)
			return ticks, err
		}
		if !ok {
			p.log.Info("Reached the end at frame %d", p.clip.CurrentFrame())
			p.Pause()
			break
		}
		ticks++
		if err := p.present(); err != nil {
			return ticks, err
		}
	}
	return ticks, nil
}

// Scrub seeks to a frame, clamped to the clip's range.
func (p *Player) Scrub(frame int) error {
	frame = p.clamp(frame)
	if err := p.clip.Seek(frame); err != nil {
		return err
	}
	p.acc = 0
	return p.present()
}

// Step pauses and moves n frames. Forward steps decode the next frames;
// backward steps seek.
func (p *Player) Step(n int) error {
	p.Pause()
	if n < 0 {
		return p.Scrub(p.clip.CurrentFrame() + n)
	}
	for i := 0; i < n; i++ {
		ok, err := p.clip.Tick()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if err := p.present(); err != nil {
			return err
		}
	}
	return nil
}

// Run plays in real time until ctx is done, a non-looping clip ends or
// limit pictures have been shown (limit 0 means no limit).
func (p *Player) Run(ctx context.Context, limit int) error {
	p.Play()
	p.log.Debug("Playing from frame %d at %gx", p.clip.CurrentFrame(), p.speed)

	ticker := time.NewTicker(tickInterval(p.period, p.speed))
	defer ticker.Stop()

	start := p.shown
	last := p.now()
	for {
		select {
		case <-ctx.Done():
			p.Pause()
			return ctx.Err()
		case <-ticker.C:
			now := p.now()
			if _, err := p.Advance(now.Sub(last)); err != nil {
				return err
			}
			last = now
			if !p.playing {
				return nil
			}
			if limit > 0 && p.shown-start >= limit {
				p.Pause()
				return nil
			}
		}
	}
}

func (p *Player) present() error {
	p.shown++
	if p.sink == nil || !p.sink.Enabled() {
		return nil
	}
	frame := p.clip.CurrentFrame()
	if err := p.sink.SaveFrame(frame, p.clip.Picture()); err != nil {
		return fmt.Errorf("save frame %d: %w", frame, err)
	}
	return nil
}

func (p *Player) clamp(frame int) int {
	if frame < p.clip.BeginFrame() {
		return p.clip.BeginFrame()
	}
	if frame > p.clip.EndFrame() {
		return p.clip.EndFrame()
	}
	return frame
}

// minTickInterval keeps the Run ticker valid at any speed; Advance catches
// up on the frame periods that fit into one tick.
const minTickInterval = time.Millisecond

func tickInterval(period time.Duration, speed float64) time.Duration {
	return max(time.Duration(float64(period)/speed), minTickInterval)
}

// maxScaled bounds one scaled elapsed time so a huge speed cannot overflow
// the accumulator.
const maxScaled = time.Duration(math.MaxInt64 / 2)

func scale(elapsed time.Duration, speed float64) time.Duration {
	if d := float64(elapsed) * speed; d < float64(maxScaled) {
		return time.Duration(d)
	}
	return maxScaled
}
