package logging

import (
	"log/slog"
	"testing"

	"github.com/nightbell/nightbell-core/internal/infrastructure/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNew_DoesNotPanic(t *testing.T) {
	for _, format := range []string{"json", "text", ""} {
		for _, output := range []string{"stdout", "stderr", ""} {
			logger := New(config.LoggingConfig{
				Level:  "debug",
				Format: format,
				Output: output,
			}, "test")
			if logger == nil {
				t.Fatalf("New(format=%q, output=%q) returned nil", format, output)
			}
		}
	}
}

func TestWith_ReturnsNewLogger(t *testing.T) {
	base := Default()
	derived := base.With("component", "test")

	if derived == base {
		t.Error("With() should return a new Logger instance")
	}
	if derived.Logger == nil {
		t.Error("With() returned Logger with nil slog.Logger")
	}
}
