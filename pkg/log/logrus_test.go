package log

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSimpleFormatterLine(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger("debug", &buf)

	logger.WithField("topic", "/irk_teleop/enable").WithField("count", 3).Warnf("publish failed: %s", "closed")

	line := buf.String()
	if !strings.Contains(line, "[WAR] publish failed: closed") {
		t.Errorf("unexpected level/message in %q", line)
	}
	if !strings.HasSuffix(line, "count=3 topic=/irk_teleop/enable\n") {
		t.Errorf("fields should be sorted and appended, got %q", line)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger("warn", &buf)

	logger.Infof("hidden")
	logger.Errorf("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Errorf("info line should be filtered at warn level: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "[ERR] shown") {
		t.Errorf("error line missing: %q", buf.String())
	}
}

func TestFileOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	var console bytes.Buffer

	logger, err := New(Options{Level: "info", Dir: dir, Console: &console})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Infof("hello file")

	data, err := os.ReadFile(filepath.Join(dir, LogFileName))
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), "hello file") {
		t.Errorf("file missing line: %q", data)
	}
	if !strings.Contains(console.String(), "hello file") {
		t.Errorf("console missing line: %q", console.String())
	}
}
