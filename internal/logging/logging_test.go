package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		name      string
		verbose   bool
		wantDebug bool
	}{
		{"default", false, false},
		{"verbose", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(&buf, tt.verbose)
			logger.Debug("debug record")
			logger.Info("info record", "trials", 3)

			out := buf.String()
			if got := strings.Contains(out, "debug record"); got != tt.wantDebug {
				t.Errorf("debug record present = %v, want %v\n%s", got, tt.wantDebug, out)
			}
			if !strings.Contains(out, "info record") || !strings.Contains(out, "trials=3") {
				t.Errorf("expected info record with attributes, got:\n%s", out)
			}
			if tt.verbose && !strings.Contains(out, "source=") {
				t.Errorf("verbose logger should include the source location")
			}
		})
	}
}

func TestDiscard(t *testing.T) {
	// must not panic or write anywhere
	Discard().Error("dropped", "key", "value")
}
