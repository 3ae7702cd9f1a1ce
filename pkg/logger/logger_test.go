package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitAndLevelString(t *testing.T) {
	Init("debug")
	if got := LevelString(); got != "debug" {
		t.Fatalf("LevelString() = %q, want %q", got, "debug")
	}
	Init("WARN")
	if got := LevelString(); got != "warn" {
		t.Fatalf("LevelString() = %q, want %q", got, "warn")
	}
	Init("Error")
	if got := LevelString(); got != "error" {
		t.Fatalf("LevelString() = %q, want %q", got, "error")
	}
	Init("nonsense")
	if got := LevelString(); got != "info" {
		t.Fatalf("LevelString() = %q, want %q for unknown input", got, "info")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)

	Init("warn")
	Debugf("debug-msg")
	Infof("info-msg")
	Warnf("warn-msg")
	Errorf("error-msg")

	out := buf.String()
	if strings.Contains(out, "debug-msg") {
		t.Fatalf("debug messages should be suppressed at warn level")
	}
	if strings.Contains(out, "info-msg") {
		t.Fatalf("info messages should be suppressed at warn level")
	}
	if !strings.Contains(out, "warn-msg") {
		t.Fatalf("warn message missing: %q", out)
	}
	if !strings.Contains(out, "error-msg") {
		t.Fatalf("error message missing: %q", out)
	}

	Init("info")
	buf.Reset()
	Infof("hello")
	if !strings.Contains(buf.String(), "hello") {
		t.Fatalf("Infof expected at info level, got: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "INFO") {
		t.Fatalf("expected level marker in output, got: %q", buf.String())
	}
}

func TestSetOutputKeepsRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api.log")
	InitFile(FileOptions{Path: path, MaxSizeMB: 1, MaxBackups: 1, MaxAgeDays: 1})
	Init("info")

	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)
	Infof("after-redirect")
	Sync()

	if !strings.Contains(buf.String(), "after-redirect") {
		t.Fatalf("console sink missing entry: %q", buf.String())
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(b), "after-redirect") {
		t.Fatalf("log file missing entry after SetOutput: %q", string(b))
	}
}

func TestInitFileWritesRotatedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "api.log")
	InitFile(FileOptions{Path: path, MaxSizeMB: 1, MaxBackups: 1, MaxAgeDays: 1})
	Init("info")
	Infof("to-file %d", 42)
	Sync()
	defer SetOutput(os.Stdout)

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(b), "to-file 42") {
		t.Fatalf("log file missing entry: %q", string(b))
	}
}

func TestInitFileEmptyPathIsNoop(t *testing.T) {
	InitFile(FileOptions{})
	mu.RLock()
	defer mu.RUnlock()
	if rotator != nil {
		t.Fatalf("expected no rotator for empty path")
	}
}
