package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger("coordtree", Warn, &buf)

	l.Debug("hidden %d", 1)
	l.Info("hidden %d", 2)
	l.Warn("shown %d", 3)
	l.Error("shown %d", 4)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Expected debug/info to be filtered, got %q", out)
	}
	if got := strings.Count(out, "shown"); got != 2 {
		t.Errorf("Expected 2 lines, got %d: %q", got, out)
	}
	if !strings.Contains(out, "[coordtree]") {
		t.Errorf("Expected logger name in output, got %q", out)
	}
}

func TestLogger_Named(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger("coordtree", Debug, &buf).Named("bootstrap").Named("uploader")

	l.Info("put %s", "/configs/conf1/schema.xml")

	if !strings.Contains(buf.String(), "[coordtree/bootstrap/uploader]") {
		t.Errorf("Expected nested name, got %q", buf.String())
	}
}

func TestLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger("coordtree", Info, &buf)
	l.JSON = true

	l.Info("skipping %s", "currency.xml")

	var entry logEntry
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if entry.Level != "INFO" || entry.Service != "coordtree" || entry.Message != "skipping currency.xml" {
		t.Errorf("Unexpected entry: %+v", entry)
	}
}

func TestLogger_FatalExits(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger("", Debug, &buf)

	code := -1
	l.exit = func(c int) { code = c }
	l.Fatal("boom")

	if code != 1 {
		t.Errorf("Expected exit code 1, got %d", code)
	}
}

func TestColorize(t *testing.T) {
	if got := colorize(Error, "failed"); got != "\033[31mfailed\033[0m" {
		t.Errorf("Expected red line, got %q", got)
	}
	if got := colorize(LogLevel(99), "plain"); got != "plain" {
		t.Errorf("Expected unknown level to stay plain, got %q", got)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   Debug,
		"INFO":    Info,
		"":        Info,
		"warning": Warn,
		"Error":   Error,
		"fatal":   Fatal,
	}

	for input, expected := range tests {
		got, err := ParseLevel(input)
		if err != nil {
			t.Errorf("ParseLevel(%q) failed: %v", input, err)
			continue
		}
		if got != expected {
			t.Errorf("ParseLevel(%q) = %v, expected %v", input, got, expected)
		}
	}

	if _, err := ParseLevel("verbose"); err == nil {
		t.Errorf("Expected error for unknown level")
	}
}
