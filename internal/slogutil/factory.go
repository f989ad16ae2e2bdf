package slogutil

import (
	"io"
	"log/slog"
	"os"

	"simpleserver/internal/config"
	"simpleserver/internal/paths"
)

// LoggerFactory creates loggers from the logging configuration.
// Precedence for the level: CLI flag > config > default (info).
type LoggerFactory struct {
	config   *config.Config
	cliLevel string
	console  io.Writer
	closers  []io.Closer
}

// NewLoggerFactory creates a new logger factory.
// cliLevel should be "" if no CLI override was specified.
func NewLoggerFactory(cfg *config.Config, cliLevel string) *LoggerFactory {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &LoggerFactory{
		config:   cfg,
		cliLevel: cliLevel,
		console:  os.Stderr,
	}
}

// SetConsole replaces the console destination (stderr by default)
func (f *LoggerFactory) SetConsole(w io.Writer) {
	f.console = w
}

// ServerLogger creates the logger for the HTTP server. It always writes
// to the console and, when logging.file is set, also to that file with
// size-based rotation.
func (f *LoggerFactory) ServerLogger() (*slog.Logger, error) {
	level := f.EffectiveLevel()
	console := NewLineHandler(f.console, &slog.HandlerOptions{Level: level})

	if f.config.Logging.File == "" {
		return slog.New(console), nil
	}

	if _, err := paths.EnsureDir(f.config.Logging.File); err != nil {
		return nil, err
	}

	fileLogger, closer, err := f.createFileLogger(f.config.Logging.File, level)
	if err != nil {
		return nil, err
	}
	f.closers = append(f.closers, closer)

	return slog.New(NewTeeHandler(console, fileLogger.Handler())), nil
}

// createFileLogger opens the log file, rotating when logging.maxSize is set
func (f *LoggerFactory) createFileLogger(path string, level slog.Level) (*slog.Logger, io.Closer, error) {
	return NewFileLoggerWithRotation(path, level, f.config.Logging.MaxSize, f.config.Logging.MaxBackups)
}

// EffectiveLevel returns the level after applying the CLI override
func (f *LoggerFactory) EffectiveLevel() slog.Level {
	if f.cliLevel != "" {
		return LevelFromString(f.cliLevel)
	}
	if f.config.Logging.Level != "" {
		return LevelFromString(f.config.Logging.Level)
	}
	return slog.LevelInfo
}

// Close closes all open log files.
func (f *LoggerFactory) Close() error {
	var firstErr error
	for _, c := range f.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	f.closers = nil
	return firstErr
}
