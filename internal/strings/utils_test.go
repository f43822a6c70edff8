package strings

import (
	"testing"
)

func TestClip(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		n        int
		expected string
	}{
		{
			name:     "no cut needed",
			input:    "hello",
			n:        5,
			expected: "hello",
		},
		{
			name:     "cut keeps n runes",
			input:    "hello world",
			n:        5,
			expected: "hello...",
		},
		{
			name:     "counts runes not bytes",
			input:    "ééééé",
			n:        3,
			expected: "ééé...",
		},
		{
			name:     "zero disables",
			input:    "hello",
			n:        0,
			expected: "hello",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Clip(tt.input, tt.n)
			if result != tt.expected {
				t.Errorf("Clip(%q, %d) = %q, want %q", tt.input, tt.n, result, tt.expected)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		n        int
		expected string
	}{
		{
			name:     "no truncation needed",
			input:    "hello",
			n:        10,
			expected: "hello",
		},
		{
			name:     "truncation with ellipsis",
			input:    "hello world",
			n:        8,
			expected: "hello...",
		},
		{
			name:     "min length enforced",
			input:    "hello",
			n:        2,
			expected: "h...",
		},
		{
			name:     "unicode",
			input:    "日本語のテキスト",
			n:        5,
			expected: "日本...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Truncate(tt.input, tt.n)
			if result != tt.expected {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.n, result, tt.expected)
			}
		})
	}
}

func TestPrefix(t *testing.T) {
	if got := Prefix("abcdefghij", 8); got != "abcdefgh" {
		t.Errorf("Prefix = %q", got)
	}
	if got := Prefix("abc", 8); got != "abc" {
		t.Errorf("Prefix = %q", got)
	}
}
