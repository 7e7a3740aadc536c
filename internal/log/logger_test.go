package log

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
		ok   bool
	}{
		{in: "debug", want: LevelDebug, ok: true},
		{in: "INFO", want: LevelInfo, ok: true},
		{in: "warning", want: LevelWarn, ok: true},
		{in: " error ", want: LevelError, ok: true},
		{in: "loud", want: LevelInfo, ok: false},
	}
	for _, tt := range tests {
		got, ok := ParseLevel(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestLevelFiltersOutput(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(LevelWarn)
	t.Cleanup(func() {
		SetOutput(io.Discard)
		SetLevel(LevelInfo)
	})

	Debugf("frame %d", 1)
	Infof("opened %s", "song.mp3")
	Warnf("dropped %d frames", 3)
	Errorf("device: %v", "gone")

	out := buf.String()
	if strings.Contains(out, "frame 1") || strings.Contains(out, "opened") {
		t.Fatalf("messages below WARN were written: %q", out)
	}
	if !strings.Contains(out, "[WARN] dropped 3 frames") || !strings.Contains(out, "[ERROR] device: gone") {
		t.Fatalf("missing messages at or above WARN: %q", out)
	}
}
