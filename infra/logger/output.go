package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls the level and file output of loggers created by New.
type Options struct {
	Level string
	// File enables an additional JSON log file rotated by size and age.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

var (
	mu    sync.RWMutex
	level = zerolog.InfoLevel
	file  io.Writer
)

func current() (zerolog.Level, io.Writer) {
	mu.RLock()
	defer mu.RUnlock()
	return level, file
}

// Configure applies opts to loggers created afterwards. The returned function
// closes the log file, if any.
func Configure(opts Options) (func() error, error) {
	lvl := zerolog.InfoLevel
	if opts.Level != "" {
		var err error
		if lvl, err = zerolog.ParseLevel(opts.Level); err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
	}
	closer := func() error { return nil }
	var w io.Writer
	if opts.File != "" {
		if dir := filepath.Dir(opts.File); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
		}
		w = lj
		closer = lj.Close
	}
	mu.Lock()
	level = lvl
	file = w
	mu.Unlock()
	return closer, nil
}
