package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// ParseLevel maps LOG_LEVEL values to zerolog levels. Unknown values and the
// empty string fall back to error.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "INFO":
		return zerolog.InfoLevel
	case "WARN", "WARNING":
		return zerolog.WarnLevel
	case "CRITICAL", "FATAL":
		return zerolog.FatalLevel
	case "DISABLED", "OFF":
		return zerolog.Disabled
	default:
		return zerolog.ErrorLevel
	}
}

func New(w io.Writer, level string) zerolog.Logger {
	if w == nil {
		w = os.Stdout
	}
	return zerolog.New(w).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Str("service", "snapshot-sweeper").
		Logger()
}
