package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"bogus", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// testOut is shared because Init only honors its first call.
var testOut bytes.Buffer

func initTestLogger() *bytes.Buffer {
	Init(Config{Level: LevelDebug, Service: "intake-test", Output: &testOut})
	testOut.Reset()
	return &testOut
}

func TestFacadeWritesStructuredLines(t *testing.T) {
	buf := initTestLogger()

	Debug("fetched %d messages", 3)
	Info("cursor advanced for org %s", "acme")
	Warn("archive disabled")
	Error("provider failure: %s", "timeout")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d log lines, want 4: %q", len(lines), buf.String())
	}

	checks := []struct {
		level string
		msg   string
	}{
		{"debug", "fetched 3 messages"},
		{"info", "cursor advanced for org acme"},
		{"warn", "archive disabled"},
		{"error", "provider failure: timeout"},
	}
	for i, c := range checks {
		if !strings.Contains(lines[i], `"level":"`+c.level+`"`) {
			t.Errorf("line %d missing level %q: %s", i, c.level, lines[i])
		}
		if !strings.Contains(lines[i], c.msg) {
			t.Errorf("line %d missing message %q: %s", i, c.msg, lines[i])
		}
		if !strings.Contains(lines[i], `"service":"intake-test"`) {
			t.Errorf("line %d missing service field: %s", i, lines[i])
		}
	}
}

func TestWithAddsField(t *testing.T) {
	buf := initTestLogger()

	child := With("org_id", "acme")
	child.Info().Msg("locked")

	if !strings.Contains(buf.String(), `"org_id":"acme"`) {
		t.Errorf("child logger missing bound field: %s", buf.String())
	}
}
