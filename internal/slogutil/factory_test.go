package slogutil

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"simpleserver/internal/config"
)

func TestLoggerFactory_EffectiveLevel(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Logging.Level = "warn"

	if got := NewLoggerFactory(cfg, "").EffectiveLevel(); got != slog.LevelWarn {
		t.Errorf("config level = %v, want warn", got)
	}
	if got := NewLoggerFactory(cfg, "debug").EffectiveLevel(); got != slog.LevelDebug {
		t.Errorf("CLI level = %v, want debug", got)
	}

	cfg.Logging.Level = ""
	if got := NewLoggerFactory(cfg, "").EffectiveLevel(); got != slog.LevelInfo {
		t.Errorf("default level = %v, want info", got)
	}
	if got := NewLoggerFactory(nil, "").EffectiveLevel(); got != slog.LevelInfo {
		t.Errorf("nil config level = %v, want info", got)
	}
}

func TestLoggerFactory_ConsoleOnly(t *testing.T) {
	var console bytes.Buffer
	f := NewLoggerFactory(config.DefaultConfig(), "")
	f.SetConsole(&console)

	logger, err := f.ServerLogger()
	if err != nil {
		t.Fatalf("ServerLogger failed: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("visible", "port", 8080)

	if strings.Contains(console.String(), "hidden") {
		t.Error("debug line should be filtered at info level")
	}
	if !strings.Contains(console.String(), "visible | port=8080") {
		t.Errorf("unexpected console output: %s", console.String())
	}
	if err := f.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestLoggerFactory_FileAndConsole(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "server.log")
	cfg := config.DefaultConfig()
	cfg.Logging.File = logPath
	cfg.Logging.MaxSize = "1MB"

	var console bytes.Buffer
	f := NewLoggerFactory(cfg, "")
	f.SetConsole(&console)

	logger, err := f.ServerLogger()
	if err != nil {
		t.Fatalf("ServerLogger failed: %v", err)
	}
	logger.Info("Server running", "url", "http://localhost:8080/")

	if err := f.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	for name, out := range map[string]string{"file": string(data), "console": console.String()} {
		if !strings.Contains(out, "url=http://localhost:8080/") {
			t.Errorf("%s output missing record: %s", name, out)
		}
	}
}
