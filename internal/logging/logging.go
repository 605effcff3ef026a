package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const timeFormat = "15:04:05.000"

type Mode int

const (
	// Console writes human readable lines to stderr, for headless runs.
	Console Mode = iota
	// File writes JSON lines to a rotated log file, for when the TUI owns the terminal.
	File
)

type Options struct {
	Mode  Mode
	Level zerolog.Level
	Path  string
	// Out overrides stderr in Console mode.
	Out io.Writer
}

// Setup builds the root logger. The returned closer releases the log file, if any.
func Setup(opts Options) (zerolog.Logger, io.Closer, error) {
	var out io.Writer
	var closer io.Closer = nopCloser{}

	switch opts.Mode {
	case File:
		if opts.Path == "" {
			return zerolog.Nop(), closer, errors.New("log file path is required")
		}
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
			return zerolog.Nop(), closer, errors.Wrap(err, "failed to create log directory")
		}
		rotator := &lumberjack.Logger{
			Filename:   opts.Path,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     14,
		}
		out, closer = rotator, rotator
	default:
		out = opts.Out
		if out == nil {
			out = os.Stderr
		}
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: timeFormat,
			FormatLevel: func(i interface{}) string {
				return strings.ToUpper(fmt.Sprintf("%-5s", i))
			},
		}
	}

	level := opts.Level
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(out).Level(level).With().Timestamp().Logger()
	return log, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
