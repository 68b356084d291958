// Package hlog sets up the process logger: zerolog behind a logr.Logger.
package hlog

import (
	"io"
	"os"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zerologr"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

var Logger = logr.Discard()

// Init initializes logging at warn level, info with verbose and debug (V(1)) with debug.
func Init(verbose bool, debug bool) logr.Logger {
	return InitWriter(os.Stderr, verbose, debug)
}

// InitWriter is Init on an arbitrary writer. Terminals get the console format.
func InitWriter(w io.Writer, verbose bool, debug bool) logr.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	zerologr.NameFieldName = "logger"
	zerologr.NameSeparator = "/"

	zl := zerolog.New(w)
	if isTerminal(w) {
		zl = zl.Output(zerolog.ConsoleWriter{
			Out:        w,
			NoColor:    !isColorTerminal(),
			TimeFormat: time.RFC3339,
		})
	}

	level := parseLogLevel(verbose, debug)
	zl = zl.Level(level).With().Timestamp().Logger()

	Logger = zerologr.New(&zl)
	Logger.V(1).Info("Initialized", "level", level.String())
	return Logger
}

func parseLogLevel(verbose bool, debug bool) zerolog.Level {
	if debug {
		return zerolog.DebugLevel
	}
	if verbose {
		return zerolog.InfoLevel
	}
	return zerolog.WarnLevel
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func isColorTerminal() bool {
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return true
}
