// Package logger writes translated, component-scoped log lines to the
// console.
package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/mattn/go-isatty"

	"github.com/user/framescrub/pkg/ports"
)

const (
	colorReset  = "\033[0m"
	colorGray   = "\033[90m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorCyan   = "\033[36m"
)

// stream is one output with its own colour decision, so piping stdout
// to a file keeps warnings on a terminal stderr coloured.
type stream struct {
	w     io.Writer
	color bool
}

// ConsoleLogger writes debug and info lines to stdout and warnings and
// errors to stderr. Message keys are translated with go-l10n.
type ConsoleLogger struct {
	level     ports.LogLevel
	component string
	out       stream
	errOut    stream

	// now and start drive the optional elapsed time prefix; a nil now
	// leaves it off.
	now   func() time.Time
	start time.Time
}

// Option configures a ConsoleLogger.
type Option func(*ConsoleLogger)

// WithElapsed prefixes every line with the time since the logger was
// created, which lines up seek and playback debug output with wall time.
func WithElapsed(now func() time.Time) Option {
	return func(l *ConsoleLogger) {
		if now == nil {
			now = time.Now
		}
		l.now = now
		l.start = now()
	}
}

// NewConsole creates a logger on the process's stdout and stderr, with
// colour on each stream that is a terminal.
func NewConsole(level ports.LogLevel, opts ...Option) *ConsoleLogger {
	return newLogger(level,
		stream{os.Stdout, isTerminal(os.Stdout)},
		stream{os.Stderr, isTerminal(os.Stderr)},
		opts)
}

// NewWriter creates an uncoloured logger on the given writers.
func NewWriter(level ports.LogLevel, out, errOut io.Writer, opts ...Option) *ConsoleLogger {
	return newLogger(level, stream{w: out}, stream{w: errOut}, opts)
}

func newLogger(level ports.LogLevel, out, errOut stream, opts []Option) *ConsoleLogger {
	l := &ConsoleLogger{level: level, out: out, errOut: errOut}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Level returns the minimum level that is written.
func (l *ConsoleLogger) Level() ports.LogLevel {
	return l.level
}

func (l *ConsoleLogger) Debug(msg string, args ...interface{}) { l.log(ports.LevelDebug, msg, args) }
func (l *ConsoleLogger) Info(msg string, args ...interface{})  { l.log(ports.LevelInfo, msg, args) }
func (l *ConsoleLogger) Warn(msg string, args ...interface{})  { l.log(ports.LevelWarn, msg, args) }
func (l *ConsoleLogger) Error(msg string, args ...interface{}) { l.log(ports.LevelError, msg, args) }

// WithComponent returns a logger whose lines are tagged with component.
// Nested components are joined with a slash; the elapsed clock is shared.
func (l *ConsoleLogger) WithComponent(component string) ports.Logger {
	child := *l
	if l.component != "" {
		child.component = l.component + "/" + component
	} else {
		child.component = component
	}
	return &child
}

func (l *ConsoleLogger) log(level ports.LogLevel, msg string, args []interface{}) {
	if level < l.level {
		return
	}

	s := l.out
	if level >= ports.LevelWarn {
		s = l.errOut
	}

	line := l10n.F(msg, args...)
	if l.component != "" {
		tag := "[" + l.component + "]"
		if s.color {
			tag = colorCyan + tag + colorReset
		}
		line = tag + " " + line
	}
	if l.now != nil {
		line = fmt.Sprintf("+%.3fs %s", l.now().Sub(l.start).Seconds(), line)
	}

	if s.color {
		switch level {
		case ports.LevelDebug:
			line = colorGray + line + colorReset
		case ports.LevelWarn:
			line = colorYellow + line + colorReset
		case ports.LevelError:
			line = colorRed + line + colorReset
		}
	}

	fmt.Fprintln(s.w, line)
}
