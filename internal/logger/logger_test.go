package logger

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
		{"verbose", LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLogger_WritesFieldsAboveLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelInfo, "swapdesk", nil)

	log.Debug(context.Background(), "hidden")
	log.Info(context.Background(), "quote resolved", "generation", 7, "err", errors.New("boom"))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug entry written at info level: %s", out)
	}
	for _, want := range []string{"quote resolved", "generation", "boom", "swapdesk"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}

func TestLogger_Hook(t *testing.T) {
	var got []Record
	log := New(nil, LevelWarn, "swapdesk", &Options{Hook: func(r Record) { got = append(got, r) }})

	log.Info(context.Background(), "skipped")
	log.Warn(context.Background(), "breaker open", "name", "quoter", "dangling")

	if len(got) != 1 {
		t.Fatalf("hook calls = %d, want 1", len(got))
	}
	if got[0].Level != LevelWarn || got[0].Message != "breaker open" {
		t.Errorf("record = %+v", got[0])
	}
	if got[0].Fields["name"] != "quoter" {
		t.Errorf("name field = %v", got[0].Fields["name"])
	}
	if got[0].Fields["!BADKEY"] != "dangling" {
		t.Errorf("odd argument not preserved: %v", got[0].Fields)
	}
}
