// Package obslog builds the run-wide structured logger, teeing output to
// both the terminal and a per-run log file.
package obslog

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// New builds a zerolog.Logger writing a human-readable console view to
// stderr and newline-delimited JSON to <runDir>/crawl.log simultaneously.
func New(runDir string, debug bool) (zerolog.Logger, *os.File, error) {
	logPath := filepath.Join(runDir, "crawl.log")
	logFile, err := os.Create(logPath)
	if err != nil {
		return zerolog.Logger{}, nil, fmt.Errorf("create log file: %w", err)
	}

	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	writer := zerolog.MultiLevelWriter(console, logFile)

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(writer).Level(level).With().Timestamp().Logger()
	return logger, logFile, nil
}
