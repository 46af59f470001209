package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  slog.Level
	}{
		{"info", "info", slog.LevelInfo},
		{"debug", "debug", slog.LevelDebug},
		{"trace", "trace", LevelTrace},
		{"warn", "warn", slog.LevelWarn},
		{"warning alias", "warning", slog.LevelWarn},
		{"error", "error", slog.LevelError},
		{"uppercase TRACE", "TRACE", LevelTrace},
		{"padded", " debug ", slog.LevelDebug},
		{"unknown defaults to info", "verbose", slog.LevelInfo},
		{"empty defaults to info", "", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}

	for _, name := range Levels {
		if name != "info" && ParseLevel(name) == slog.LevelInfo {
			t.Errorf("level %q falls back to info", name)
		}
	}
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		level      string
		logAtTrace bool
		logAtDebug bool
		logAtInfo  bool
	}{
		{"error", false, false, false},
		{"info", false, false, true},
		{"debug", false, true, true},
		{"trace", true, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(tt.level, &buf)

			check := func(level slog.Level, msg string, want bool) {
				buf.Reset()
				logger.Log(t.Context(), level, msg)
				if got := strings.Contains(buf.String(), msg); got != want {
					t.Errorf("%s visible = %v, want %v (buf: %q)", msg, got, want, buf.String())
				}
			}
			check(LevelTrace, "trace message", tt.logAtTrace)
			check(slog.LevelDebug, "debug message", tt.logAtDebug)
			check(slog.LevelInfo, "info message", tt.logAtInfo)
		})
	}
}

func TestNewLogger_TraceLabel(t *testing.T) {
	var buf bytes.Buffer
	NewLogger("trace", &buf).Log(t.Context(), LevelTrace, "cell trace")
	if !strings.Contains(buf.String(), "level=TRACE") {
		t.Errorf("expected level=TRACE, got %q", buf.String())
	}
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	if logger.Enabled(t.Context(), slog.LevelError) {
		t.Error("discard logger should not be enabled")
	}
}
