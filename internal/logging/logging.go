// Package logging builds the process logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// FileName is the name of the log file written under the log directory.
const FileName = "echoprobe.log"

// ParseLevel maps "debug", "info", "warn" or "error" to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return l, nil
}

// New returns a logger writing text to stderr. When dir is non-empty the
// logger emits JSON to both stderr and a rotating file in dir.
func New(stderr io.Writer, level slog.Level, dir string) (*slog.Logger, io.Closer, error) {
	opts := &slog.HandlerOptions{Level: level}
	if dir == "" {
		return slog.New(slog.NewTextHandler(stderr, opts)), io.NopCloser(nil), nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}
	file := &lumberjack.Logger{
		Filename:   filepath.Join(dir, FileName),
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	}
	w := io.MultiWriter(stderr, file)
	return slog.New(slog.NewJSONHandler(w, opts)), file, nil
}
