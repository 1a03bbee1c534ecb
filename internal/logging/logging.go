package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
)

// New creates a console slog.Logger with provided level string.
func New(level string) *slog.Logger {
	return newWithWriter(os.Stdout, level)
}

// ForRun tags every record of one batch invocation with the command and a fresh run id,
// so interleaved cron output can be told apart.
func ForRun(level, command string) *slog.Logger {
	return New(level).With("command", command, "run_id", uuid.NewString())
}

func newWithWriter(w io.Writer, level string) *slog.Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: levelFromString(level),
	})
	return slog.New(handler)
}

func levelFromString(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "error":
		return slog.LevelError
	case "warn", "warning":
		return slog.LevelWarn
	case "debug":
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
