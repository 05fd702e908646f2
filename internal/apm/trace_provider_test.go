package apm

import (
	"context"
	"testing"

	"github.com/fd1az/swapdesk/internal/logger"
)

func TestParseHeaders(t *testing.T) {
	tests := []struct {
		in   string
		want map[string]string
	}{
		{"", map[string]string{}},
		{"x-team=abc", map[string]string{"x-team": "abc"}},
		{"a=1, b=2", map[string]string{"a": "1", "b": "2"}},
		{"broken,c=3", map[string]string{"c": "3"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseHeaders(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("ParseHeaders(%q) = %v, want %v", tt.in, got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("header %s = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestNewTraceProvider_EmptyIsNoop(t *testing.T) {
	tp, err := NewTraceProvider(context.Background(), Config{Provider: EmptyProvider}, logger.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if err := tp.Stop(); err != nil {
		t.Errorf("Stop() = %v", err)
	}
}
