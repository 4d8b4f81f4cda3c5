package shared

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNormalizeEmail(t *testing.T) {
	tc := []struct {
		name  string
		email string
		want  string
	}{
		{name: "already normalized", email: "dj@example.com", want: "dj@example.com"},
		{name: "mixed case", email: "DJ@Example.COM", want: "dj@example.com"},
		{name: "surrounding whitespace", email: "  dj@example.com \n", want: "dj@example.com"},
		{name: "empty", email: "", want: ""},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeEmail(tt.email); got != tt.want {
				t.Errorf("NormalizeEmail() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRandomSuffix(t *testing.T) {
	a := RandomSuffix()
	b := RandomSuffix()

	if len(a) != 8 {
		t.Errorf("expected 8 characters, got %d (%s)", len(a), a)
	}
	if strings.Trim(a, "0123456789abcdef") != "" {
		t.Errorf("expected lowercase hex, got %s", a)
	}
	if a == b {
		t.Errorf("expected distinct suffixes, got %s twice", a)
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf)
	SetLogLevel(logger, log.WarnLevel)

	WithLogger(logger, "task", "artists").Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("expected info to be filtered at warn level, got %q", buf.String())
	}

	WithLogger(logger, "task", "artists").Warn("visible")
	if !strings.Contains(buf.String(), "task=artists") {
		t.Errorf("expected child logger fields in output, got %q", buf.String())
	}
}
