// Package logging builds the client's slog logger. The terminal belongs to
// the UI, so logs go to a file under the profile directory or nowhere.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

type FileLogger struct {
	Logger  *slog.Logger
	Close   func() error
	Path    string
	Enabled bool
}

func Nop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

func nop() FileLogger {
	return FileLogger{Logger: Nop(), Close: func() error { return nil }}
}

// ParseLevel maps debug/info/warn/error to a level. Anything else is
// reported as not ok.
func ParseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

// NewFileLogger opens <profileDir>/logs/cv.log when debug is set or level
// names a valid level. Otherwise it returns a discarding logger.
func NewFileLogger(profileDir string, debug bool, level string) (FileLogger, error) {
	lvl, ok := ParseLevel(level)
	if debug {
		lvl, ok = slog.LevelDebug, true
	}
	if !ok {
		return nop(), nil
	}
	logDir := filepath.Join(profileDir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nop(), err
	}
	path := filepath.Join(logDir, "cv.log")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nop(), err
	}
	handler := slog.NewJSONHandler(file, &slog.HandlerOptions{
		Level:       lvl,
		AddSource:   lvl == slog.LevelDebug,
		ReplaceAttr: redactAttr,
	})
	return FileLogger{
		Logger:  slog.New(handler),
		Close:   file.Close,
		Path:    path,
		Enabled: true,
	}, nil
}
