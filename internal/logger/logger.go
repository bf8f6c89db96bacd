// Package logger configures the process-wide zerolog logger.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// New builds a logger writing JSON to out. In debug mode it switches to the
// human-readable console writer and lowers the level to debug.
func New(out io.Writer, debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "2006-01-02 15:04:05"}
	}
	return zerolog.New(out).With().Timestamp().Logger().Level(level)
}

// Init builds the logger for stdout and installs it as the global logger used
// by github.com/rs/zerolog/log.
func Init(appEnv string, debug bool) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	l := New(os.Stdout, debug).With().Str("env", appEnv).Logger()
	log.Logger = l
	zerolog.DefaultContextLogger = &l
	return l
}

// Component returns a child logger tagged with a component name.
func Component(base zerolog.Logger, name string) zerolog.Logger {
	return base.With().Str("component", name).Logger()
}
