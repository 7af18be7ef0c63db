// Package logger builds the structured loggers shared by the pipeline,
// the HTTP server and the CLI.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/phuslu/log"
)

const timeFormat = "2006-01-02T15:04:05Z07:00"

// New returns a console logger writing to stderr at the given level.
func New(level string) *log.Logger {
	return NewWithOutput(level, os.Stderr)
}

// NewWithOutput returns a console logger writing to w. An empty or unknown
// level falls back to info.
func NewWithOutput(level string, w io.Writer) *log.Logger {
	return &log.Logger{
		Level:      parseLevel(level),
		TimeFormat: timeFormat,
		Writer: &log.ConsoleWriter{
			Writer:      w,
			QuoteString: true,
		},
	}
}

// NewJSON returns a logger emitting one JSON object per line, used by the
// server so log shippers can parse it.
func NewJSON(level string, w io.Writer) *log.Logger {
	return &log.Logger{
		Level:      parseLevel(level),
		TimeFormat: timeFormat,
		Writer:     &log.IOWriter{Writer: w},
	}
}

// Nop discards everything.
func Nop() *log.Logger {
	return &log.Logger{
		Level:  log.PanicLevel,
		Writer: &log.IOWriter{Writer: io.Discard},
	}
}

func parseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic":
		return log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	default:
		return log.InfoLevel
	}
}
