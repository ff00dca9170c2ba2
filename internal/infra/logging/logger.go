// Package logging provides file-based structured logging for loom.
// Logs go to ~/.loom/logs/loom.log as slog text records; the CLI keeps
// stdout clean for command output.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/loom-sh/loom/internal/domain"
)

// Ensure Logger implements domain.Logger.
var _ domain.Logger = (*Logger)(nil)

// LogFileName is the log file under the logs directory.
const LogFileName = "loom.log"

// Logger wraps slog.Logger with lazily-opened file output. An empty logs
// directory disables output entirely.
type Logger struct {
	mu      sync.Mutex
	logsDir string
	level   slog.Level
	file    *os.File
	slogger *slog.Logger
}

// New creates a Logger writing under logsDir. The file is opened on first
// use so constructing a logger never fails.
func New(logsDir string, level slog.Level) *Logger {
	return &Logger{logsDir: logsDir, level: level}
}

// NewWriter creates a Logger emitting to w, for tests and stderr logging.
func NewWriter(w io.Writer, level slog.Level) *Logger {
	l := &Logger{level: level}
	l.slogger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	return l
}

// ParseLevel parses a log level string into slog.Level. Unknown strings
// select info.
func ParseLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ensure opens the log file and builds the handler on first use.
func (l *Logger) ensure() *slog.Logger {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.slogger != nil {
		return l.slogger
	}
	if l.logsDir == "" {
		l.slogger = slog.New(slog.NewTextHandler(io.Discard, nil))
		return l.slogger
	}

	if err := os.MkdirAll(l.logsDir, 0o750); err != nil {
		l.slogger = slog.New(slog.NewTextHandler(io.Discard, nil))
		return l.slogger
	}
	path := filepath.Join(l.logsDir, LogFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640) //nolint:gosec // log file readable by owner and group
	if err != nil {
		l.slogger = slog.New(slog.NewTextHandler(io.Discard, nil))
		return l.slogger
	}
	l.file = f
	l.slogger = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: l.level}))
	return l.slogger
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, args ...any) { l.ensure().Debug(msg, args...) }

// Info logs at info level.
func (l *Logger) Info(msg string, args ...any) { l.ensure().Info(msg, args...) }

// Warn logs at warn level.
func (l *Logger) Warn(msg string, args ...any) { l.ensure().Warn(msg, args...) }

// Error logs at error level.
func (l *Logger) Error(msg string, args ...any) { l.ensure().Error(msg, args...) }

// Close closes the log file if it was opened.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	l.slogger = nil
	if err != nil {
		return fmt.Errorf("close log file: %w", err)
	}
	return nil
}
