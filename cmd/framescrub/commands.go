package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/framescrub/pkg/adapters/nullsink"
	"github.com/user/framescrub/pkg/juxtapose"
	"github.com/user/framescrub/pkg/player"
	"github.com/user/framescrub/pkg/ports"
	"github.com/user/framescrub/pkg/summarizer"
	"github.com/user/framescrub/pkg/timeline"
	"github.com/user/framescrub/pkg/video"
)

func probeCommand() *cli.Command {
	return &cli.Command{
		Name:      "probe",
		Usage:     l10n.T("Index a video and print its frame report"),
		ArgsUsage: "<video>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "index-only",
				Usage: l10n.T("Index from container flags without decoding"),
			},
			&cli.IntSliceFlag{
				Name:  "seek",
				Usage: l10n.T("Time a seek to this frame (repeatable)"),
			},
			&cli.StringFlag{
				Name:    "report",
				Aliases: []string{"r"},
				Usage:   l10n.T("Write the report to this file instead of stdout (.md, .yaml or .json)"),
			},
		},
		Action: func(c *cli.Context) error {
			e, err := newEnv(c)
			if err != nil {
				return err
			}
			if c.IsSet("index-only") {
				e.cfg.Probe.IndexOnly = c.Bool("index-only")
			}

			f, err := e.open(c.Context, c)
			if err != nil {
				return err
			}
			defer f.Close()

			b := summarizer.NewBuilder().
				WithFile(f.Path(), e.fileSize(f.Path())).
				WithVideo(f)

			if targets := c.IntSlice("seek"); len(targets) > 0 {
				if err := timeSeeks(f, targets, b, nil); err != nil {
					return err
				}
			}

			return e.report(c, b.Build(), c.String("report"))
		},
	}
}

func frameCommand() *cli.Command {
	return &cli.Command{
		Name:      "frame",
		Usage:     l10n.T("Decode one frame and save it as an image"),
		ArgsUsage: "<video> <frame>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   l10n.T("Image path (.png or .jpg); defaults to the frames directory"),
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				return errors.New("a video file and a frame number are required")
			}
			frames, err := parseFrames(c.Args().Slice()[1:2])
			if err != nil {
				return err
			}
			target := frames[0]

			e, err := newEnv(c)
			if err != nil {
				return err
			}
			f, err := e.open(c.Context, c)
			if err != nil {
				return err
			}
			defer f.Close()

			clip, err := f.NewClip(video.ClipOptions{})
			if err != nil {
				return err
			}
			defer clip.Close()

			if err := clip.Seek(target); err != nil {
				return err
			}

			out := c.String("output")
			if out == "" {
				sink := e.sink()
				if err := sink.SaveFrame(target, clip.Picture()); err != nil {
					return err
				}
				out = sink.FramePath(target)
			} else {
				format := ports.FormatForPath(out)
				data, err := e.renderer.EncodeImage(clip.Picture(), format, e.jpegQuality())
				if err != nil {
					return fmt.Errorf("encode frame %d: %w", target, err)
				}
				if err := e.fs.WriteFile(out, data); err != nil {
					return err
				}
			}

			e.log.Info("Saved frame %d (%s) to %s", target, video.FormatElapsed(clip.Time()), out)
			return nil
		},
	}
}

func scrubCommand() *cli.Command {
	return &cli.Command{
		Name:      "scrub",
		Usage:     l10n.T("Seek to frames in the given order and time every seek"),
		ArgsUsage: "<video> [frame...]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "every",
				Usage: l10n.T("Seek to every Nth frame, last to first, when no frames are given"),
				Value: 1,
			},
			&cli.BoolFlag{
				Name:  "save",
				Usage: l10n.T("Save every sought frame to the frames directory"),
			},
			&cli.BoolFlag{
				Name:  "save-report",
				Usage: l10n.T("Save the report as scrub.md in the output directory"),
			},
		},
		Action: func(c *cli.Context) error {
			targets, err := parseFrames(c.Args().Tail())
			if err != nil {
				return err
			}

			e, err := newEnv(c)
			if err != nil {
				return err
			}
			f, err := e.open(c.Context, c)
			if err != nil {
				return err
			}
			defer f.Close()

			if len(targets) == 0 {
				targets = backwardTargets(f.FrameCount(), c.Int("every"))
			}

			var sink ports.FrameSink = nullsink.New()
			if c.Bool("save") {
				sink = e.sink()
			}

			b := summarizer.NewBuilder().
				WithFile(f.Path(), e.fileSize(f.Path())).
				WithVideo(f)

			start := time.Now()
			if err := timeSeeks(f, targets, b, sink); err != nil {
				return err
			}
			e.log.Info("Scrubbed %d frames in %s", len(targets), video.FormatElapsed(time.Since(start)))

			summary := b.Build()
			if c.Bool("save-report") {
				formatter := e.formatter()
				if err := e.sink().SaveReport("scrub.md", []byte(formatter.Format(summary))); err != nil {
					return err
				}
				e.log.Info("Report saved to %s", e.cfg.OutputDir)
				return nil
			}
			return e.report(c, summary, "")
		},
	}
}

func playCommand() *cli.Command {
	return &cli.Command{
		Name:      "play",
		Usage:     l10n.T("Play a video in real time"),
		ArgsUsage: "<video>",
		Flags: []cli.Flag{
			&cli.Float64Flag{
				Name:  "speed",
				Usage: l10n.T("Playback speed (1.0 = real time)"),
			},
			&cli.BoolFlag{
				Name:  "loop",
				Usage: l10n.T("Restart from the first frame after the last"),
			},
			&cli.IntFlag{
				Name:  "begin",
				Usage: l10n.T("First frame of the played range"),
			},
			&cli.IntFlag{
				Name:  "end",
				Usage: l10n.T("Last frame of the played range (0 = last frame)"),
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: l10n.T("Stop after this many frames (0 = no limit)"),
			},
			&cli.BoolFlag{
				Name:  "save",
				Usage: l10n.T("Save every shown frame to the frames directory"),
			},
		},
		Action: func(c *cli.Context) error {
			e, err := newEnv(c)
			if err != nil {
				return err
			}
			if c.IsSet("speed") {
				e.cfg.Playback.Speed = c.Float64("speed")
			}
			if c.IsSet("loop") {
				e.cfg.Playback.Loop = c.Bool("loop")
			}

			f, err := e.open(c.Context, c)
			if err != nil {
				return err
			}
			defer f.Close()

			clip, err := f.NewClip(video.ClipOptions{
				Loop:  e.cfg.Playback.Loop,
				Begin: c.Int("begin"),
				End:   c.Int("end"),
			})
			if err != nil {
				return err
			}
			defer clip.Close()

			var sink ports.FrameSink = nullsink.New()
			if c.Bool("save") {
				sink = e.sink()
			}

			p, err := player.New(clip, player.Config{
				FramePeriod: f.FrameDuration(),
				Speed:       e.cfg.Playback.Speed,
				MaxTicks:    e.cfg.Playback.MaxTicks,
				Sink:        sink,
				Logger:      e.log,
			})
			if err != nil {
				return err
			}

			err = p.Run(c.Context, c.Int("limit"))
			if errors.Is(err, context.Canceled) {
				e.log.Warn("Interrupted, stopping playback")
				err = nil
			}
			e.log.Info("Showed %d frames, stopped at frame %d", p.Shown(), p.Frame())
			return err
		},
	}
}

func timelineCommand() *cli.Command {
	return &cli.Command{
		Name:      "timeline",
		Usage:     l10n.T("Render the frame index as a PNG strip"),
		ArgsUsage: "<video>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "marker",
				Usage: l10n.T("Frame to highlight (-1 = none)"),
				Value: timeline.NoMarker,
			},
			&cli.IntFlag{
				Name:  "thumbnails",
				Usage: l10n.T("Number of thumbnails above the strip (0 = none)"),
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   l10n.T("PNG path; defaults to timeline.png in the output directory"),
			},
		},
		Action: func(c *cli.Context) error {
			e, err := newEnv(c)
			if err != nil {
				return err
			}
			opts := e.cfg.TimelineOptions()
			if c.IsSet("thumbnails") {
				opts.Thumbnails = c.Int("thumbnails")
			}

			f, err := e.open(c.Context, c)
			if err != nil {
				return err
			}
			defer f.Close()

			input := timeline.Input{
				Index:       f.Index(),
				FrameWidth:  f.Width(),
				FrameHeight: f.Height(),
				Marker:      c.Int("marker"),
			}
			if opts.Thumbnails > 0 {
				clip, err := f.NewClip(video.ClipOptions{})
				if err != nil {
					return err
				}
				defer clip.Close()
				input.Clip = clip
			}

			img, err := timeline.New(e.renderer, opts, e.log).Render(input)
			if err != nil {
				return err
			}

			out := c.String("output")
			if out == "" {
				if err := e.sink().SaveTimeline(img); err != nil {
					return err
				}
				out = e.cfg.OutputDir
			} else {
				data, err := e.renderer.EncodeImage(img, ports.FormatPNG, 0)
				if err != nil {
					return fmt.Errorf("encode timeline: %w", err)
				}
				if err := e.fs.WriteFile(out, data); err != nil {
					return err
				}
			}

			e.log.Info("Timeline saved to %s", out)
			return nil
		},
	}
}

func compareCommand() *cli.Command {
	return &cli.Command{
		Name:      "compare",
		Usage:     l10n.T("Show two videos side by side at the same moment"),
		ArgsUsage: "<left> <right>",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "at",
				Usage: l10n.T("Offset from the first frame to compare at"),
			},
			&cli.DurationFlag{
				Name:  "every",
				Usage: l10n.T("Compare at this interval across both videos and save every pair"),
			},
			&cli.IntFlag{
				Name:  "gap",
				Usage: l10n.T("Gap between the two videos in pixels"),
				Value: juxtapose.DefaultOptions().Gap,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   l10n.T("Image path; defaults to compare.png in the output directory"),
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				return errors.New("two video files are required")
			}

			e, err := newEnv(c)
			if err != nil {
				return err
			}
			left, err := e.openPath(c.Context, c.Args().Get(0))
			if err != nil {
				return err
			}
			defer left.Close()
			right, err := e.openPath(c.Context, c.Args().Get(1))
			if err != nil {
				return err
			}
			defer right.Close()

			lc, err := left.NewClip(video.ClipOptions{})
			if err != nil {
				return err
			}
			defer lc.Close()
			rc, err := right.NewClip(video.ClipOptions{})
			if err != nil {
				return err
			}
			defer rc.Close()

			opts := juxtapose.DefaultOptions()
			opts.Gap = c.Int("gap")
			stage := juxtapose.New(e.renderer, opts, e.log)

			if c.IsSet("every") {
				n, err := stage.Walk(c.Context, lc, rc, c.Duration("every"), e.sink())
				if err != nil {
					return err
				}
				e.log.Info("Saved %d side by side frames to %s", n, e.cfg.OutputDir)
				return nil
			}

			pair, err := stage.Compose(lc, rc, c.Duration("at"))
			if err != nil {
				return err
			}

			out := c.String("output")
			if out == "" {
				if err := e.fs.MkdirAll(e.cfg.OutputDir); err != nil {
					return err
				}
				out = filepath.Join(e.cfg.OutputDir, "compare.png")
			}
			data, err := e.renderer.EncodeImage(pair.Image, ports.FormatForPath(out), e.jpegQuality())
			if err != nil {
				return fmt.Errorf("encode comparison: %w", err)
			}
			if err := e.fs.WriteFile(out, data); err != nil {
				return err
			}

			e.log.Info("Saved frames %d and %d at %s to %s", pair.LeftFrame, pair.RightFrame, video.FormatElapsed(pair.At), out)
			return nil
		},
	}
}

// timeSeeks seeks a fresh clip to each target in turn, recording the work
// and wall time of every seek. Pictures go to sink when it is enabled.
func timeSeeks(f *video.File, targets []int, b *summarizer.Builder, sink ports.FrameSink) error {
	clip, err := f.NewClip(video.ClipOptions{})
	if err != nil {
		return err
	}
	defer clip.Close()

	for _, target := range targets {
		clip.ResetStats()
		start := time.Now()
		if err := clip.Seek(target); err != nil {
			return err
		}
		b.AddSeek(target, clip.Stats(), time.Since(start))

		if sink != nil && sink.Enabled() {
			if err := sink.SaveFrame(target, clip.Picture()); err != nil {
				return err
			}
		}
	}
	return nil
}

// backwardTargets lists every step-th frame from the last to the first, the
// order that defeats forward-only decoding.
func backwardTargets(frames, step int) []int {
	if step < 1 {
		step = 1
	}
	targets := make([]int, 0, frames/step+1)
	for i := frames - 1; i >= 0; i -= step {
		targets = append(targets, i)
	}
	return targets
}

func (e *env) formatter() *summarizer.MarkdownFormatter {
	return summarizer.NewMarkdownFormatter(
		summarizer.WithTranslator(l10n.T),
		summarizer.WithVersion(version),
	)
}

// report writes summary to path, or to the app's writer when path is empty.
func (e *env) report(c *cli.Context, summary *summarizer.Summary, path string) error {
	formatter := e.formatter()
	if path == "" {
		_, err := fmt.Fprint(c.App.Writer, formatter.Format(summary))
		return err
	}
	if err := summarizer.NewWriter(formatter, e.fs).Write(path, summary); err != nil {
		return err
	}
	e.log.Info("Report saved to %s", path)
	return nil
}

func (e *env) jpegQuality() int {
	if e.cfg.JPEGQuality > 0 {
		return e.cfg.JPEGQuality
	}
	return 90
}
