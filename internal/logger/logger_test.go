package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"DEBUG", DEBUG},
		{"debug", DEBUG},
		{" warn ", WARN},
		{"warning", WARN},
		{"Error", ERROR},
		{"info", INFO},
		{"bogus", INFO},
		{"", INFO},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoggerLevelsAndFields(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: INFO, Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	l.Debug("hidden")
	l.WithFields(F("board", "b1")).Info("shown", F("grant", "g1"))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug entry written at INFO level: %q", out)
	}
	if !strings.Contains(out, "INFO") || !strings.Contains(out, "shown | board=b1 grant=g1") {
		t.Errorf("unexpected entry: %q", out)
	}
	if !strings.Contains(out, "logger_test.go:") {
		t.Errorf("caller not reported: %q", out)
	}
}

func TestWithFieldsDoesNotLeak(t *testing.T) {
	var buf bytes.Buffer
	l, _ := New(Config{Level: DEBUG, Output: &buf})
	base := l.WithFields(F("a", 1))
	_ = base.WithFields(F("b", 2))
	base.Info("only a")

	if strings.Contains(buf.String(), "b=2") {
		t.Errorf("sibling field leaked: %q", buf.String())
	}
}

func TestRotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "grantline.log")
	l, err := New(Config{Level: DEBUG, FilePath: path, MaxSize: 64, MaxBackups: 2})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer l.Close()

	for i := 0; i < 5; i++ {
		l.Info("a message long enough to pass the size limit quickly")
	}

	if _, err := os.Stat(path + ".1"); err != nil {
		t.Errorf("expected rotated file: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected active file: %v", err)
	}
}

func TestGlobalWithoutInit(t *testing.T) {
	SetDefault(nil)
	Info("dropped")
	if WithFields(F("k", "v")) == nil {
		t.Fatal("WithFields returned nil without a global logger")
	}
}
