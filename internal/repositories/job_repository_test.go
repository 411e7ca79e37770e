package repositories

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short", "boom", 10, "boom"},
		{"exact", "boom", 4, "boom"},
		{"ascii cut", "failed to fetch", 6, "failed"},
		{"keeps whole rune", "ab€", 4, "ab"},
		{"rune at limit", "ab€", 5, "ab€"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncateText(tt.in, tt.n); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestTruncateTextStoredFailure(t *testing.T) {
	msg := "failed to fetch https://x/" + strings.Repeat("é", maxErrorText)

	got := truncateText(msg, maxErrorText)
	if len(got) > maxErrorText {
		t.Errorf("expected at most %d bytes, got %d", maxErrorText, len(got))
	}
	if !utf8.ValidString(got) {
		t.Error("expected valid UTF-8 after truncation")
	}
	if !strings.HasPrefix(msg, got) {
		t.Error("expected a prefix of the original message")
	}
}
