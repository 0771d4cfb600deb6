package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConsoleOnlyByDefault(t *testing.T) {
	var console bytes.Buffer
	dir := filepath.Join(t.TempDir(), "logs")

	logger, closer, err := New("resize", Options{Dir: dir, Console: &console})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer closer.Close()

	logger.Debug("hidden detail")
	logger.Info("image loaded")

	out := console.String()
	if !strings.Contains(out, "image loaded") {
		t.Errorf("Expected info message on console, got %q", out)
	}
	if strings.Contains(out, "hidden detail") {
		t.Errorf("Debug message should not reach the console")
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("Log directory should not be created without debug logging")
	}
}

func TestDebugWritesLogFile(t *testing.T) {
	var console bytes.Buffer
	dir := filepath.Join(t.TempDir(), "logs")

	logger, closer, err := New("cutout", Options{Debug: true, Dir: dir, Console: &console})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.WithField("key", "w").Debug("Key pressed")
	logger.Info("Submitted zoom and pan")

	if err := closer.Close(); err != nil {
		t.Fatalf("Failed to close log file: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "cutout.log"))
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	content := string(data)
	if !strings.Contains(content, "Key pressed") || !strings.Contains(content, "key=w") {
		t.Errorf("Expected debug entry in log file, got %q", content)
	}
	if !strings.Contains(content, "Submitted zoom and pan") {
		t.Errorf("Expected info entry in log file, got %q", content)
	}
	if strings.Contains(console.String(), "Key pressed") {
		t.Errorf("Debug message should stay out of the console")
	}
}
