// Package main provides the CLI entry point for framescrub.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"
)

var version = "dev"

const (
	categoryConfig  = "Configuration"
	categoryLogging = "Logging"
	categoryOutput  = "Output"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newApp().RunContext(ctx, os.Args)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, l10n.F("Error: %v", err))
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "framescrub",
		Usage:   l10n.T("Index videos and seek to any frame"),
		Version: version,
		Description: l10n.T("framescrub indexes every frame of an MP4 video once and then " +
			"decodes any frame on demand by replaying from its keyframe."),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    l10n.T("YAML configuration file"),
				Category: l10n.T(categoryConfig),
			},
			&cli.StringFlag{
				Name:     "ffmpeg-path",
				Usage:    l10n.T("Path to the ffmpeg executable used for H.264"),
				EnvVars:  []string{"FRAMESCRUB_FFMPEG"},
				Category: l10n.T(categoryConfig),
			},
			&cli.StringFlag{
				Name:     "log-level",
				Aliases:  []string{"l"},
				Usage:    l10n.T("Log level (debug, info, warn, error)"),
				Category: l10n.T(categoryLogging),
			},
			&cli.BoolFlag{
				Name:     "quiet",
				Aliases:  []string{"q"},
				Usage:    l10n.T("Suppress all log output"),
				Category: l10n.T(categoryLogging),
			},
			&cli.StringFlag{
				Name:     "out-dir",
				Usage:    l10n.T("Directory for frames, timelines and reports"),
				Category: l10n.T(categoryOutput),
			},
			&cli.IntFlag{
				Name:     "jpeg-quality",
				Usage:    l10n.T("Write frames as JPEG with this quality (0 = PNG)"),
				Category: l10n.T(categoryOutput),
			},
		},
		Commands: []*cli.Command{
			probeCommand(),
			frameCommand(),
			scrubCommand(),
			playCommand(),
			timelineCommand(),
			compareCommand(),
		},
	}
}
