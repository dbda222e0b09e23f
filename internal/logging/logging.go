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

// Setup installs a human-readable console logger on w (stderr when nil) at the
// given level. Unknown levels fall back to info.
func Setup(level string, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}).
		With().
		Timestamp().
		Logger().
		Level(lvl)

	zerolog.SetGlobalLevel(lvl)
	log.Logger = logger
	return logger
}
