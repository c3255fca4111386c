package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zerolog.Level
		wantErr bool
	}{
		{"", zerolog.InfoLevel, false},
		{"debug", zerolog.DebugLevel, false},
		{"WARN", zerolog.WarnLevel, false},
		{"loud", zerolog.InfoLevel, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) err = %v; wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v; want %v", tt.in, got, tt.want)
		}
	}
}

func TestNew_JSONFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "warn", FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	logger.Info().Msg("hidden")
	logger.Warn().Str("service", "lambda").Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line leaked at warn level: %s", out)
	}
	if !strings.Contains(out, `"service":"lambda"`) {
		t.Errorf("warn line missing field; got %s", out)
	}
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "info", FormatConsole)
	if err != nil {
		t.Fatal(err)
	}
	logger.Info().Msg("hello")
	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("console output missing message; got %q", buf.String())
	}
}
