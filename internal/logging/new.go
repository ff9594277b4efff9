package logging

import (
	"io"
	"log/slog"
	"time"

	"github.com/rs/zerolog"
)

// Supported formats for New.
const (
	FormatText    = "text"
	FormatJSON    = "json"
	FormatZerolog = "zerolog"
)

// New builds a Logger writing to w in the given format. Unknown formats
// fall back to slog text output.
func New(format string, w io.Writer) Logger {
	switch format {
	case FormatJSON:
		return NewSlogLogger(slog.New(slog.NewJSONHandler(w, nil)))
	case FormatZerolog:
		return NewZerologLogger(zerolog.New(w).With().Timestamp().Logger())
	default:
		return NewSlogLogger(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{ReplaceAttr: dropTime})))
	}
}

// Nop discards everything. Handy in tests.
func Nop() Logger {
	return NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func dropTime(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && a.Key == slog.TimeKey {
		if t, ok := a.Value.Any().(time.Time); ok {
			return slog.String(slog.TimeKey, t.Format(time.TimeOnly))
		}
	}
	return a
}
