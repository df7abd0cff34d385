package logging

import (
	"log/slog"
	"path/filepath"
	"testing"
)

// ========================================
// parseLogLevel Tests
// ========================================

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"  debug  ", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"garbage", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLogLevel(tt.input); got != tt.expected {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

// ========================================
// New Tests
// ========================================

func TestNew_Default(t *testing.T) {
	logger := New()
	if logger == nil {
		t.Fatal("expected logger, got nil")
	}
	// Should not panic when logging
	logger.Info("test message", "key", "value")
}

func TestNew_JSONFormat(t *testing.T) {
	t.Setenv("LOG_FORMAT", "json")
	logger := New()
	if logger == nil {
		t.Fatal("expected logger, got nil")
	}
	logger.Debug("debug message")
}

func TestNew_FileOutput(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "api.log")
	t.Setenv("LOG_FILE", logFile)

	logger := New()
	if logger == nil {
		t.Fatal("expected logger, got nil")
	}
	logger.Info("written to file")
}

func TestNew_LevelFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	logger := New()
	if logger.Enabled(t.Context(), slog.LevelInfo) {
		t.Error("info should be disabled when LOG_LEVEL=error")
	}
	if !logger.Enabled(t.Context(), slog.LevelError) {
		t.Error("error should be enabled when LOG_LEVEL=error")
	}
}

// ========================================
// SetDefault Tests
// ========================================

func TestSetDefault(t *testing.T) {
	logger := SetDefault()
	if logger == nil {
		t.Fatal("expected logger, got nil")
	}
	if slog.Default() != logger {
		t.Error("SetDefault should install the returned logger as default")
	}
}
