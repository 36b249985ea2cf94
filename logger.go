package main

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// loggerGen builds the logger of a run. Logs go to w, never to stdout, which
// carries only ETags. LOG_LEVEL overrides the level picked by the flags.
func loggerGen(w io.Writer, verbose, quiet bool) zerolog.Logger {
	level := zerolog.InfoLevel
	switch {
	case verbose:
		level = zerolog.DebugLevel
	case quiet:
		level = zerolog.WarnLevel
	}
	if l, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil && l != zerolog.NoLevel {
		level = l
	}

	out := zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: time.TimeOnly}
	return zerolog.New(out).With().Timestamp().Logger().Level(level)
}
