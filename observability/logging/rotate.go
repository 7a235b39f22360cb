package logging

import (
	"io"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// RotatingFile returns a size-rotated log file writer. An empty path returns
// nil so callers can fall back to stdout only.
func RotatingFile(path string) io.WriteCloser {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     28,
		Compress:   true,
	}
}
