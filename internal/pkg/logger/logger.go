package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds the process logger. Development gets a human readable console
// writer, everything else emits JSON lines with caller info.
func New(appName, env string) zerolog.Logger {
	return newWithWriter(os.Stdout, appName, env)
}

func newWithWriter(w io.Writer, appName, env string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	if strings.EqualFold(env, "development") {
		return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Str("service", appName).
			Logger()
	}

	return zerolog.New(w).
		With().
		Timestamp().
		Caller().
		Str("service", appName).
		Logger()
}

// Component returns a child logger tagged with the component name.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}
