// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup installs the global logger and returns it. Unknown levels fall back to info.
func Setup(level, format string) zerolog.Logger {
	return SetupWriter(os.Stderr, level, format)
}

// SetupWriter is Setup with an explicit destination.
func SetupWriter(w io.Writer, level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	out := w
	if strings.EqualFold(format, "console") {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	logger := zerolog.New(out).With().Timestamp().Logger()
	log.Logger = logger
	return logger
}
