package slogutil

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
)

// sizeUnits lists suffixes longest first so "MB" wins over "B"
var sizeUnits = []struct {
	suffix string
	bytes  float64
}{
	{"GB", 1 << 30},
	{"MB", 1 << 20},
	{"KB", 1 << 10},
	{"B", 1},
}

// ParseSize converts "512", "64KB" or "1.5MB" to bytes. An empty string
// means no limit and returns 0.
func ParseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0, nil
	}

	number, multiplier := s, 1.0
	for _, u := range sizeUnits {
		if strings.HasSuffix(s, u.suffix) {
			number = strings.TrimSpace(strings.TrimSuffix(s, u.suffix))
			multiplier = u.bytes
			break
		}
	}

	value, err := strconv.ParseFloat(number, 64)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	return int64(value * multiplier), nil
}

// RotatingFile appends to a log file and moves it aside once it would grow
// past its limit. Old generations are kept as path.1 (newest) to path.N.
type RotatingFile struct {
	mu          sync.Mutex
	path        string
	limit       int64
	generations int
	f           *os.File
	written     int64
}

// OpenRotatingFile opens path for appending. A limit of 0 disables
// rotation; generations of 0 discards the old file on rotation.
func OpenRotatingFile(path string, limit int64, generations int) (*RotatingFile, error) {
	rf := &RotatingFile{path: path, limit: limit, generations: generations}
	if err := rf.reopen(); err != nil {
		return nil, err
	}
	return rf, nil
}

func (rf *RotatingFile) reopen() error {
	f, err := os.OpenFile(rf.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat log file: %w", err)
	}
	rf.f = f
	rf.written = info.Size()
	return nil
}

// Write appends p, rotating first when p would push a non-empty file past
// the limit. A single oversized write still lands in one file.
func (rf *RotatingFile) Write(p []byte) (int, error) {
	rf.mu.Lock()
	defer rf.mu.Unlock()

	if rf.limit > 0 && rf.written > 0 && rf.written+int64(len(p)) > rf.limit {
		if err := rf.rotate(); err != nil {
			return 0, err
		}
	}

	n, err := rf.f.Write(p)
	rf.written += int64(n)
	return n, err
}

// Close closes the current file
func (rf *RotatingFile) Close() error {
	rf.mu.Lock()
	defer rf.mu.Unlock()

	if rf.f == nil {
		return nil
	}
	err := rf.f.Close()
	rf.f = nil
	return err
}

func (rf *RotatingFile) rotate() error {
	if err := rf.f.Close(); err != nil {
		return fmt.Errorf("close log file: %w", err)
	}

	if rf.generations == 0 {
		if err := os.Remove(rf.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove log file: %w", err)
		}
		return rf.reopen()
	}

	// path.N falls off, everything else moves one generation back
	_ = os.Remove(rf.generation(rf.generations))
	for n := rf.generations - 1; n >= 1; n-- {
		if err := os.Rename(rf.generation(n), rf.generation(n+1)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("shift %s: %w", rf.generation(n), err)
		}
	}
	if err := os.Rename(rf.path, rf.generation(1)); err != nil {
		return fmt.Errorf("rotate log file: %w", err)
	}
	return rf.reopen()
}

func (rf *RotatingFile) generation(n int) string {
	return rf.path + "." + strconv.Itoa(n)
}

// NewFileLoggerWithRotation creates a file logger that rotates at maxSize
// ("10MB" style). An empty maxSize gives a plain append-only file.
func NewFileLoggerWithRotation(path string, level slog.Level, maxSize string, maxBackups int) (*slog.Logger, io.Closer, error) {
	limit, err := ParseSize(maxSize)
	if err != nil {
		return nil, nil, err
	}
	if limit == 0 {
		return NewFileLogger(path, level)
	}

	rf, err := OpenRotatingFile(path, limit, maxBackups)
	if err != nil {
		return nil, nil, err
	}
	return NewLogger(rf, level), rf, nil
}
