// pattern: Imperative Shell

package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestManager_For(t *testing.T) {
	mgr, err := NewManager(Config{Console: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	defer func() { _ = mgr.Close() }()

	logger := mgr.For("scan")
	if logger == nil {
		t.Fatal("For() returned nil")
	}
	if logger.Scope() != "scan" {
		t.Errorf("Scope() = %q, want %q", logger.Scope(), "scan")
	}

	// Same scope should return same logger (cached)
	if mgr.For("scan") != logger {
		t.Error("For() should return cached logger for same scope")
	}

	if mgr.For("update") == logger {
		t.Error("For() should return different logger for different scope")
	}
}

func TestManager_ConsoleLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	mgr, err := NewManager(Config{Console: &buf, Level: "warn"})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	logger := mgr.For("scan")
	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	_ = mgr.Close()

	out := buf.String()
	if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
		t.Errorf("messages below warn should be filtered, got %q", out)
	}
	if !strings.Contains(out, "WARN") || !strings.Contains(out, "warn message") {
		t.Errorf("expected WARN line, got %q", out)
	}
}

func TestManager_VerboseConsole(t *testing.T) {
	var buf bytes.Buffer
	mgr, err := NewManager(Config{Console: &buf, Level: "debug"})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	mgr.For("status").Debug("git status finished", "dir", "/src/alpha")
	_ = mgr.Close()

	out := buf.String()
	if !strings.Contains(out, "DEBUG") {
		t.Errorf("expected DEBUG level in %q", out)
	}
	if !strings.Contains(out, "/src/alpha") {
		t.Errorf("expected field value in %q", out)
	}
	if !strings.HasPrefix(out, "[") {
		t.Errorf("expected bracketed timestamp prefix, got %q", out)
	}
}

func TestManager_FileOutput(t *testing.T) {
	tmpDir := t.TempDir()
	logFile := filepath.Join(tmpDir, "nested", "git-substatus.log")

	mgr, err := NewManager(Config{FilePath: logFile})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	mgr.For("update").Info("download complete", "bytes", 1024)
	if err := mgr.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}

	var entry map[string]any
	line := strings.TrimSpace(strings.Split(string(data), "\n")[0])
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, line)
	}
	if entry["msg"] != "download complete" {
		t.Errorf("msg = %v, want %q", entry["msg"], "download complete")
	}
	if entry["logger"] != "update" {
		t.Errorf("logger = %v, want %q", entry["logger"], "update")
	}
	if entry["level"] != "info" {
		t.Errorf("level = %v, want %q", entry["level"], "info")
	}
}

func TestManager_NoOutputs(t *testing.T) {
	mgr, err := NewManager(Config{})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	defer func() { _ = mgr.Close() }()

	// Should not panic with no cores configured
	mgr.For("scan").Error("dropped")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"debug", "debug"},
		{"info", "info"},
		{"WARN", "warn"},
		{"error", "error"},
		{"", "warn"},
		{"bogus", "warn"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := parseLevel(tt.in, parseLevel("warn", 0))
			if got.String() != tt.want {
				t.Errorf("parseLevel(%q) = %q, want %q", tt.in, got.String(), tt.want)
			}
		})
	}
}
