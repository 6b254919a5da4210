package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/user/framescrub/pkg/adapters/filesink"
	"github.com/user/framescrub/pkg/adapters/ggrenderer"
	"github.com/user/framescrub/pkg/adapters/logger"
	"github.com/user/framescrub/pkg/adapters/mp4source"
	"github.com/user/framescrub/pkg/adapters/osfilesystem"
	"github.com/user/framescrub/pkg/adapters/smartdecoder"
	"github.com/user/framescrub/pkg/config"
	"github.com/user/framescrub/pkg/ports"
	"github.com/user/framescrub/pkg/video"
)

var errNoFile = errors.New("a video file argument is required")

// env holds the adapters every command works with.
type env struct {
	cfg      config.Config
	log      ports.Logger
	fs       ports.FileSystem
	renderer ports.Renderer
	source   ports.MediaSource
}

// newEnv loads the configuration, applies global flag overrides and wires
// the adapters.
func newEnv(c *cli.Context) (*env, error) {
	fs := osfilesystem.New()
	cfg, err := loadConfig(c, fs)
	if err != nil {
		return nil, err
	}

	var log ports.Logger
	if c.Bool("quiet") {
		log = logger.NewNoop()
	} else if cfg.Level() == ports.LevelDebug {
		log = logger.NewConsole(cfg.Level(), logger.WithElapsed(time.Now))
	} else {
		log = logger.NewConsole(cfg.Level())
	}

	source := mp4source.New(mp4source.Options{
		FS:         fs,
		NewDecoder: smartdecoder.Factory(smartdecoder.Options{
			FFmpegPath: cfg.FFmpegPath,
			Logger:     log.WithComponent("decoder"),
		}),
		Logger: log,
	})

	return &env{
		cfg:      cfg,
		log:      log,
		fs:       fs,
		renderer: ggrenderer.New(),
		source:   source,
	}, nil
}

func loadConfig(c *cli.Context, fs ports.FileSystem) (config.Config, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		var err error
		cfg, err = config.Load(fs, path)
		if err != nil {
			return cfg, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("ffmpeg-path") {
		cfg.FFmpegPath = c.String("ffmpeg-path")
	}
	if c.IsSet("out-dir") {
		cfg.OutputDir = c.String("out-dir")
	}
	if c.IsSet("jpeg-quality") {
		cfg.JPEGQuality = c.Int("jpeg-quality")
	}
	return cfg, cfg.Validate()
}

// open indexes the file named by the first argument.
func (e *env) open(ctx context.Context, c *cli.Context) (*video.File, error) {
	return e.openPath(ctx, c.Args().First())
}

func (e *env) openPath(ctx context.Context, path string) (*video.File, error) {
	if path == "" {
		return nil, errNoFile
	}
	return video.Open(ctx, e.source, path, e.cfg.VideoOptions(e.log))
}

// sink returns a file sink under the output directory.
func (e *env) sink() *filesink.Sink {
	var opts []filesink.Option
	if e.cfg.JPEGQuality > 0 {
		opts = append(opts, filesink.WithJPEG(e.cfg.JPEGQuality))
	}
	return filesink.New(e.cfg.OutputDir, e.fs, e.renderer, opts...)
}

// fileSize returns the size of path, or 0 when it cannot be read.
func (e *env) fileSize(path string) int64 {
	size, err := e.fs.Size(path)
	if err != nil {
		return 0
	}
	return size
}

// parseFrames converts frame number arguments.
func parseFrames(args []string) ([]int, error) {
	frames := make([]int, 0, len(args))
	for _, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid frame number %q", a)
		}
		frames = append(frames, n)
	}
	return frames, nil
}
