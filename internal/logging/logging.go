package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// New creates a console slog.Logger with the provided level string. When dir
// is non-empty the output is also appended to a date-stamped file there
// (dou-YYYY-MM-DD.log); if the file cannot be opened the logger stays
// console-only.
func New(level, dir string) *slog.Logger {
	var out io.Writer = os.Stdout

	if dir != "" {
		if f := openDailyFile(dir); f != nil {
			out = io.MultiWriter(os.Stdout, f)
		}
	}

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: levelFromString(level),
	})
	return slog.New(handler)
}

func openDailyFile(dir string) *os.File {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil
	}

	name := "dou-" + time.Now().Format("2006-01-02") + ".log"
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil
	}
	return f
}

func levelFromString(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "error":
		return slog.LevelError
	case "warn", "warning":
		return slog.LevelWarn
	case "info":
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}
