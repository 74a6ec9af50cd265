package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]log.Level{
		"debug":   log.DebugLevel,
		"INFO":    log.InfoLevel,
		"warning": log.WarnLevel,
		"error":   log.ErrorLevel,
		"bogus":   log.InfoLevel,
		"":        log.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestInitWithWriterRespectsLevel(t *testing.T) {
	defer func() { Logger = nil }()

	var buf bytes.Buffer
	InitWithWriter(&buf, "warn")

	Info("hidden message")
	Warn("visible message", "channel", "ch1")

	out := buf.String()
	if strings.Contains(out, "hidden message") {
		t.Errorf("info logged at warn level: %s", out)
	}
	if !strings.Contains(out, "visible message") || !strings.Contains(out, "channel=ch1") {
		t.Errorf("expected warn line with keyvals, got: %s", out)
	}
}

func TestHelpersAreNilSafe(t *testing.T) {
	Logger = nil
	Info("x")
	Debug("x")
	Warn("x")
	Error("x")
	if WithPrefix("p") != nil {
		t.Error("WithPrefix should return nil before init")
	}
}
