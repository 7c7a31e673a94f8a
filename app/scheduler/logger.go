package scheduler

import (
	"io"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LogFileOptions configures the rotated monitor log file
type LogFileOptions struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// NewMonitorLogger writes to stdout and, when a path is configured, to a rotated file.
// The returned closer releases the file; it is a no-op for stdout-only loggers.
func NewMonitorLogger(opts LogFileOptions) (*log.Logger, func() error) {
	flags := log.LstdFlags | log.Lmicroseconds | log.LUTC
	if opts.Path == "" {
		return log.New(os.Stdout, "scheduler ", flags), func() error { return nil }
	}

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		l := log.Default()
		l.Printf("scheduler: failed to initialize file logger: %v", err)
		return l, func() error { return nil }
	}

	rotator := &lumberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   opts.Compress,
	}
	// log.Logger is goroutine-safe
	return log.New(io.MultiWriter(os.Stdout, rotator), "scheduler ", flags), rotator.Close
}
