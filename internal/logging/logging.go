package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init sets the global zerolog logger for a tool run. Console runs get
// human-readable output on stderr; otherwise it logs JSON with timestamp
// and caller.
func Init(tool string, console bool) {
	log.Logger = New(os.Stderr, tool, console)
}

// New builds a logger writing to w.
func New(w io.Writer, tool string, console bool) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	if console {
		return zerolog.New(zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}).With().
			Timestamp().
			Str("tool", tool).
			Logger()
	}
	return zerolog.New(w).
		With().
		Timestamp().
		Caller().
		Str("tool", tool).
		Logger()
}

// SetLevel parses and applies a global level ("debug", "info", ...). An
// empty string leaves the level unchanged.
func SetLevel(level string) error {
	if level == "" {
		return nil
	}
	l, err := zerolog.ParseLevel(level)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(l)
	return nil
}
