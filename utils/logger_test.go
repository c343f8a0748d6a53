package utils

import (
	"bytes"
	"strings"
	"testing"
)

func TestLoggerLevels(t *testing.T) {
	var out, errOut bytes.Buffer
	l := NewLoggerTo(&out, &errOut)
	l.SetLevel(LevelWarn)

	l.Info("hidden %d", 1)
	l.Debug("hidden %d", 2)
	l.Warn("week %d skipped", 3)
	l.Error("sign-in failed")

	if strings.Contains(out.String(), "hidden") {
		t.Errorf("messages below warn should be dropped, got %q", out.String())
	}
	if !strings.Contains(out.String(), "week 3 skipped") {
		t.Errorf("warn output missing, got %q", out.String())
	}
	if !strings.Contains(errOut.String(), "sign-in failed") {
		t.Errorf("error output should go to the error writer, got %q", errOut.String())
	}
}

func TestLoggerWithComponent(t *testing.T) {
	var out bytes.Buffer
	l := NewLoggerTo(&out, &out).With("scraper")
	l.Info("counted %d entries", 42)

	if !strings.Contains(out.String(), "[scraper] counted 42 entries") {
		t.Errorf("component tag missing, got %q", out.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{" warning ", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
		{"verbose", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v; want %v", tt.in, got, tt.want)
		}
	}
}
