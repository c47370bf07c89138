package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != LevelInfo {
		t.Errorf("default level = %s, want info", cfg.Level)
	}
	if cfg.Pretty {
		t.Error("default output should be JSON, not pretty")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    LogLevel
		expected zerolog.Level
	}{
		{LevelDebug, zerolog.DebugLevel},
		{LevelInfo, zerolog.InfoLevel},
		{LevelWarn, zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{LevelError, zerolog.ErrorLevel},
		{"ERROR", zerolog.ErrorLevel},
		{"verbose", zerolog.InfoLevel}, // unknown defaults to info
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.expected {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestSetup_JSONOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := Setup(Config{Level: LevelInfo, Output: buf})

	logger.Info().Str("bioguide_id", "P000197").Msg("Serving stale member data")

	out := buf.String()
	if !strings.Contains(out, `"bioguide_id":"P000197"`) {
		t.Errorf("structured field missing from output: %s", out)
	}
	if !strings.Contains(out, "Serving stale member data") {
		t.Errorf("message missing from output: %s", out)
	}
}

func TestNewLogger_ComponentField(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(Config{Level: LevelInfo, Output: buf})

	logger := NewLogger("congress-client")
	logger.Info().Msg("cache refreshed")

	out := buf.String()
	if !strings.Contains(out, `"component":"congress-client"`) {
		t.Errorf("component field missing from output: %s", out)
	}
}

func TestSetup_LevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := Setup(Config{Level: LevelWarn, Output: buf})

	logger.Debug().Msg("cache hit detail")
	logger.Info().Msg("fetch succeeded")
	logger.Warn().Msg("stale fallback")
	logger.Error().Msg("store write failed")

	out := buf.String()
	for _, suppressed := range []string{"cache hit detail", "fetch succeeded"} {
		if strings.Contains(out, suppressed) {
			t.Errorf("message %q should be filtered at warn level", suppressed)
		}
	}
	for _, kept := range []string{"stale fallback", "store write failed"} {
		if !strings.Contains(out, kept) {
			t.Errorf("message %q should pass at warn level", kept)
		}
	}
}
